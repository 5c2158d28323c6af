// Package autosave coalesces bursts of edits into a single persistence call per entity.
package autosave

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Scheduler defers an action keyed by entity id. Scheduling the same id again replaces
// the pending action and restarts its delay.
type Scheduler interface {
	Schedule(id string, delay time.Duration, action func(context.Context))
	Cancel(id string)
	FlushID(id string) bool
}

// Debouncer is a Scheduler backed by one timer per pending id.
type Debouncer struct {
	ctx    context.Context
	logger *zap.Logger

	mu       sync.Mutex
	pending  map[string]*task
	inflight map[string]*inflight
	seq      uint64
	stopped  bool
	running  sync.WaitGroup
}

// inflight counts the actions currently running for one id.
type inflight struct {
	n    int
	done sync.WaitGroup
}

type task struct {
	seq    uint64
	timer  *time.Timer
	action func(context.Context)
}

var _ Scheduler = (*Debouncer)(nil)

// New creates a Debouncer whose actions run with ctx.
func New(ctx context.Context, logger *zap.Logger) *Debouncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Debouncer{
		ctx:      ctx,
		logger:   logger,
		pending:  make(map[string]*task),
		inflight: make(map[string]*inflight),
	}
}

func (d *Debouncer) Schedule(id string, delay time.Duration, action func(context.Context)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		d.logger.Warn("autosave scheduled after stop", zap.String("id", id))
		return
	}
	if prev, ok := d.pending[id]; ok {
		prev.timer.Stop()
	}

	d.seq++
	seq := d.seq
	d.pending[id] = &task{
		seq:    seq,
		action: action,
		timer:  time.AfterFunc(delay, func() { d.fire(id, seq) }),
	}
}

// Cancel drops the pending action for id, if any.
func (d *Debouncer) Cancel(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.pending[id]; ok {
		t.timer.Stop()
		delete(d.pending, id)
	}
}

// FlushID runs the pending action for id now, on the calling goroutine, and waits for
// any action for id that a timer already started. It reports whether an action ran or
// was waited for.
func (d *Debouncer) FlushID(id string) bool {
	d.mu.Lock()
	t, ok := d.pending[id]
	var f *inflight
	if ok {
		t.timer.Stop()
		delete(d.pending, id)
		f = d.startLocked(id)
	}
	running := d.inflight[id]
	d.mu.Unlock()

	if ok {
		d.run(id, f, t.action)
	}
	if running != nil {
		running.done.Wait()
	}
	return ok || running != nil
}

// Pending reports how many ids have an action waiting.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Flush runs every pending action now, on the calling goroutine, and waits for any
// action already running.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	tasks := make(map[string]*task, len(d.pending))
	for id, t := range d.pending {
		t.timer.Stop()
		tasks[id] = t
	}
	clear(d.pending)
	started := make(map[string]*inflight, len(tasks))
	for id := range tasks {
		started[id] = d.startLocked(id)
	}
	d.mu.Unlock()

	for id, t := range tasks {
		d.run(id, started[id], t.action)
	}
	d.running.Wait()
}

// Stop discards pending actions, waits for running ones and rejects further scheduling.
// Call Flush first to keep pending edits.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	for _, t := range d.pending {
		t.timer.Stop()
	}
	dropped := len(d.pending)
	clear(d.pending)
	d.mu.Unlock()

	if dropped > 0 {
		d.logger.Warn("autosave stopped with pending actions", zap.Int("dropped", dropped))
	}
	d.running.Wait()
}

func (d *Debouncer) fire(id string, seq uint64) {
	d.mu.Lock()
	t, ok := d.pending[id]
	if !ok || t.seq != seq {
		// Replaced or cancelled after the timer had already fired.
		d.mu.Unlock()
		return
	}
	delete(d.pending, id)
	f := d.startLocked(id)
	d.mu.Unlock()

	d.run(id, f, t.action)
}

// startLocked registers a running action for id. d.mu must be held.
func (d *Debouncer) startLocked(id string) *inflight {
	f, ok := d.inflight[id]
	if !ok {
		f = &inflight{}
		d.inflight[id] = f
	}
	f.n++
	f.done.Add(1)
	d.running.Add(1)
	return f
}

func (d *Debouncer) finish(id string, f *inflight) {
	d.mu.Lock()
	f.n--
	if f.n == 0 && d.inflight[id] == f {
		delete(d.inflight, id)
	}
	d.mu.Unlock()
	f.done.Done()
	d.running.Done()
}

func (d *Debouncer) run(id string, f *inflight, action func(context.Context)) {
	defer d.finish(id, f)
	defer func() {
		if p := recover(); p != nil {
			d.logger.Error("autosave action panicked", zap.String("id", id), zap.Any("panic", p))
		}
	}()
	action(d.ctx)
}
