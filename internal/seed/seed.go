// Package seed loads the default rate card, overhead sheet and service library, and
// creates the admin account. Every step is idempotent and never overwrites edited rows.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/Simplici0/scopeworks/internal/db"
	"github.com/Simplici0/scopeworks/internal/domain"
	"github.com/Simplici0/scopeworks/internal/repository"
)

//go:embed data/defaults.yaml
var defaultsYAML []byte

// Config contains the values required by startup seed.
type Config struct {
	AdminEmail    string
	AdminPassword string
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

// Defaults is the seed data set.
type Defaults struct {
	AnnualBillableDays int              `yaml:"annual_billable_days"`
	Roles              []seedRole       `yaml:"roles"`
	Overhead           []seedOverhead   `yaml:"overhead"`
	Services           []domain.Service `yaml:"services"`
}

type seedRole struct {
	ID          string  `yaml:"id"`
	Title       string  `yaml:"title"`
	BaseCostDay float64 `yaml:"base_cost_day"`
	MarkupPct   float64 `yaml:"markup_pct"`
}

type seedOverhead struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Category    string  `yaml:"category"`
	MonthlyCost float64 `yaml:"monthly_cost"`
	Notes       string  `yaml:"notes"`
}

// LoadDefaults parses the embedded seed data and validates every record.
func LoadDefaults() (Defaults, error) {
	var d Defaults
	if err := yaml.Unmarshal(defaultsYAML, &d); err != nil {
		return Defaults{}, fmt.Errorf("parse seed defaults: %w", err)
	}
	for i, r := range d.Roles {
		role := domain.Role{ID: r.ID, Title: r.Title, BaseCostDay: r.BaseCostDay, MarkupPct: r.MarkupPct}
		if err := role.Validate(); err != nil {
			return Defaults{}, fmt.Errorf("seed role %d: %w", i, err)
		}
	}
	for i, o := range d.Overhead {
		item := domain.OverheadItem{Category: o.Category, MonthlyCost: o.MonthlyCost}
		if err := item.Validate(); err != nil {
			return Defaults{}, fmt.Errorf("seed overhead %d: %w", i, err)
		}
	}
	return d, nil
}

// Run executes the startup seed in an idempotent way.
func Run(ctx context.Context, uow db.UnitOfWork, cfg Config) (Stats, error) {
	defaults, err := LoadDefaults()
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{}
	err = uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := seedAdmin(ctx, tx, cfg.AdminEmail, cfg.AdminPassword, &stats); err != nil {
			return err
		}
		if err := ensureBillableDays(ctx, tx, defaults.AnnualBillableDays, &stats); err != nil {
			return err
		}
		if err := ensureRoles(ctx, tx, defaults.Roles, &stats); err != nil {
			return err
		}
		if err := ensureOverhead(ctx, tx, defaults.Overhead, &stats); err != nil {
			return err
		}
		return ensureServices(ctx, tx, defaults.Services, &stats)
	})
	if err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func seedAdmin(ctx context.Context, tx db.DBTX, email, password string, stats *Stats) error {
	if email == "" || password == "" {
		return nil
	}

	users := repository.NewSQLiteUserRepo(tx)
	_, err := users.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("check admin user existence: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	if err := users.Create(ctx, &domain.User{Email: email, PasswordHash: hash, CreatedAt: time.Now()}); err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}
	stats.Inserts++
	return nil
}

// HashPassword returns a bcrypt hash suitable for the users table.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("generate bcrypt hash: %w", err)
	}
	return string(hash), nil
}

func ensureBillableDays(ctx context.Context, tx db.DBTX, days int, stats *Stats) error {
	settings := repository.NewSQLiteSettingsRepo(tx)
	_, err := settings.Get(ctx, repository.SettingAnnualBillableDays)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("check billable days setting: %w", err)
	}
	if err := settings.Set(ctx, repository.SettingAnnualBillableDays, strconv.Itoa(days)); err != nil {
		return fmt.Errorf("insert billable days setting: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureRoles(ctx context.Context, tx db.DBTX, roles []seedRole, stats *Stats) error {
	repo := repository.NewSQLiteRoleRepo(tx)
	for i, r := range roles {
		_, err := repo.GetByID(ctx, r.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("check role %s existence: %w", r.ID, err)
		}
		role := domain.Role{ID: r.ID, Title: r.Title, BaseCostDay: r.BaseCostDay, MarkupPct: r.MarkupPct, SortOrder: i, IsActive: true}
		if err := repo.Create(ctx, &role); err != nil {
			return fmt.Errorf("insert role %s: %w", r.ID, err)
		}
		stats.Inserts++
	}
	return nil
}

func ensureOverhead(ctx context.Context, tx db.DBTX, items []seedOverhead, stats *Stats) error {
	repo := repository.NewSQLiteOverheadRepo(tx)
	for i, o := range items {
		_, err := repo.GetByID(ctx, o.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("check overhead %s existence: %w", o.ID, err)
		}
		item := domain.OverheadItem{ID: o.ID, Name: o.Name, Category: o.Category, MonthlyCost: o.MonthlyCost, Notes: o.Notes, SortOrder: i}
		if err := repo.Create(ctx, &item); err != nil {
			return fmt.Errorf("insert overhead %s: %w", o.ID, err)
		}
		stats.Inserts++
	}
	return nil
}

// ensureServices adds missing library entries. Existing entries are left alone.
func ensureServices(ctx context.Context, tx db.DBTX, services []domain.Service, stats *Stats) error {
	repo := repository.NewSQLiteServiceRepo(tx)
	existing, err := repo.List(ctx, false)
	if err != nil {
		return fmt.Errorf("list services: %w", err)
	}
	have := make(map[string]struct{}, len(existing))
	for _, s := range existing {
		have[s.ID] = struct{}{}
	}

	for i, s := range services {
		if _, ok := have[s.ID]; ok {
			continue
		}
		s.SortOrder = i
		s.IsActive = true
		if err := repo.Upsert(ctx, &s); err != nil {
			return fmt.Errorf("insert service %s: %w", s.ID, err)
		}
		stats.Inserts++
	}
	return nil
}
