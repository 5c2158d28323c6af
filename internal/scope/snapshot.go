package scope

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/Simplici0/scopeworks/internal/pricing"
)

// Snapshot is one version of a project's full scope: phases holding deliverables.
// It is always stored and read whole.
type Snapshot struct {
	Phases []Phase `json:"phases"`
}

// Phase groups deliverables for display. Array order is display order.
type Phase struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	SortOrder    int           `json:"sort_order"`
	Deliverables []Deliverable `json:"deliverables"`
}

// Deliverable is a unit of work staffed by role-days.
type Deliverable struct {
	ID              string              `json:"id"`
	Name            string              `json:"name"`
	ServiceID       *string             `json:"service_id"`
	RoleAllocations pricing.Allocations `json:"role_allocations"`
	InternalNotes   string              `json:"internal_notes"`
}

// FlatDeliverable is a deliverable annotated with the name of its phase.
type FlatDeliverable struct {
	Deliverable
	PhaseName string
}

var defaultPhaseNames = []string{"Discovery", "Development", "Launch", "Ongoing"}

// DefaultSnapshot returns the empty scope a new project starts with.
func DefaultSnapshot(newID func() string) Snapshot {
	phases := make([]Phase, 0, len(defaultPhaseNames))
	for i, name := range defaultPhaseNames {
		phases = append(phases, Phase{
			ID:           newID(),
			Name:         name,
			SortOrder:    i,
			Deliverables: []Deliverable{},
		})
	}
	return Snapshot{Phases: phases}
}

// Flatten lists every deliverable in phase order.
func (s Snapshot) Flatten() []FlatDeliverable {
	var out []FlatDeliverable
	for _, p := range s.Phases {
		for _, d := range p.Deliverables {
			out = append(out, FlatDeliverable{Deliverable: d, PhaseName: p.Name})
		}
	}
	return out
}

// Clone returns a deep copy that shares no maps or slices with s.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Phases: make([]Phase, len(s.Phases))}
	for i, p := range s.Phases {
		cp := p
		cp.Deliverables = make([]Deliverable, len(p.Deliverables))
		for j, d := range p.Deliverables {
			cd := d
			if d.ServiceID != nil {
				id := *d.ServiceID
				cd.ServiceID = &id
			}
			if d.RoleAllocations != nil {
				cd.RoleAllocations = make(pricing.Allocations, len(d.RoleAllocations))
				for k, v := range d.RoleAllocations {
					cd.RoleAllocations[k] = v
				}
			}
			cp.Deliverables[j] = cd
		}
		out.Phases[i] = cp
	}
	return out
}

// Validate checks that ids are unique and that allocations are non-negative numbers.
func (s Snapshot) Validate() error {
	phaseIDs := make(map[string]struct{}, len(s.Phases))
	deliverableIDs := make(map[string]struct{})
	for _, p := range s.Phases {
		if p.ID == "" {
			return errors.New("phase id is required")
		}
		if _, dup := phaseIDs[p.ID]; dup {
			return fmt.Errorf("duplicate phase id %q", p.ID)
		}
		phaseIDs[p.ID] = struct{}{}

		for _, d := range p.Deliverables {
			if d.ID == "" {
				return fmt.Errorf("deliverable id is required in phase %q", p.Name)
			}
			if _, dup := deliverableIDs[d.ID]; dup {
				return fmt.Errorf("duplicate deliverable id %q", d.ID)
			}
			deliverableIDs[d.ID] = struct{}{}

			for roleID, days := range d.RoleAllocations {
				if days < 0 || math.IsNaN(days) || math.IsInf(days, 0) {
					return fmt.Errorf("deliverable %q: invalid days %v for role %q", d.Name, days, roleID)
				}
			}
		}
	}
	return nil
}

// Value stores the snapshot as a JSON document.
func (s Snapshot) Value() (driver.Value, error) {
	if s.Phases == nil {
		s.Phases = []Phase{}
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return string(b), nil
}

// Scan reads a snapshot stored as JSON text or bytes. NULL yields an empty snapshot.
func (s *Snapshot) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*s = Snapshot{Phases: []Phase{}}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("scan snapshot: unsupported type %T", src)
	}

	var out Snapshot
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if out.Phases == nil {
		out.Phases = []Phase{}
	}
	*s = out
	return nil
}
