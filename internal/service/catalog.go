package service

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Simplici0/scopeworks/internal/db"
	"github.com/Simplici0/scopeworks/internal/domain"
	"github.com/Simplici0/scopeworks/internal/pricing"
	"github.com/Simplici0/scopeworks/internal/repository"
)

// CatalogService manages the rate card inputs: roles, overhead, billable days and the
// service library.
type CatalogService struct {
	uow db.UnitOfWork
	opt options
}

func NewCatalogService(uow db.UnitOfWork, opts ...Option) *CatalogService {
	return &CatalogService{uow: uow, opt: buildOptions(opts)}
}

// OverheadSummary is the overhead sheet with its derived per-day figure.
type OverheadSummary struct {
	Items []domain.OverheadItem `json:"items"`
	RateContext
}

// RateContext loads the current pricing inputs.
func (s *CatalogService) RateContext(ctx context.Context) (RateContext, error) {
	var rc RateContext
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var err error
		rc, err = loadRateContext(ctx, tx)
		return err
	})
	return rc, err
}

// ListRoles returns every role, active or not, with rates at the current overhead.
func (s *CatalogService) ListRoles(ctx context.Context) ([]RoleRates, error) {
	var out []RoleRates
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		rc, err := loadRateContext(ctx, tx)
		if err != nil {
			return err
		}
		roles, err := repository.NewSQLiteRoleRepo(tx).List(ctx, false)
		if err != nil {
			return err
		}
		out = deriveRates(roles, rc.OverheadPerDay)
		return nil
	})
	return out, err
}

func (s *CatalogService) CreateRole(ctx context.Context, role domain.Role) (*domain.Role, error) {
	role.Title = strings.TrimSpace(role.Title)
	if err := role.Validate(); err != nil {
		return nil, err
	}
	if role.ID == "" {
		role.ID = s.opt.newID()
	}
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLiteRoleRepo(tx).Create(ctx, &role)
	})
	if err != nil {
		return nil, err
	}
	s.opt.logger.Info("role created", zap.String("role_id", role.ID), zap.String("title", role.Title))
	return &role, nil
}

// UpdateRole changes a role. Existing versions keep their frozen totals; only repricing
// picks up the new rate.
func (s *CatalogService) UpdateRole(ctx context.Context, role domain.Role) (*domain.Role, error) {
	role.Title = strings.TrimSpace(role.Title)
	if err := role.Validate(); err != nil {
		return nil, err
	}
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLiteRoleRepo(tx).Update(ctx, &role)
	})
	if err != nil {
		return nil, err
	}
	s.opt.logger.Info("role updated", zap.String("role_id", role.ID), zap.Float64("base_cost_day", role.BaseCostDay))
	return &role, nil
}

func (s *CatalogService) Overhead(ctx context.Context) (OverheadSummary, error) {
	var out OverheadSummary
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		items, err := repository.NewSQLiteOverheadRepo(tx).List(ctx)
		if err != nil {
			return err
		}
		rc, err := loadRateContext(ctx, tx)
		if err != nil {
			return err
		}
		out = OverheadSummary{Items: items, RateContext: rc}
		return nil
	})
	return out, err
}

func (s *CatalogService) CreateOverhead(ctx context.Context, item domain.OverheadItem) (*domain.OverheadItem, error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}
	if item.ID == "" {
		item.ID = s.opt.newID()
	}
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLiteOverheadRepo(tx).Create(ctx, &item)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *CatalogService) UpdateOverhead(ctx context.Context, item domain.OverheadItem) (*domain.OverheadItem, error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLiteOverheadRepo(tx).Update(ctx, &item)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *CatalogService) DeleteOverhead(ctx context.Context, id string) error {
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLiteOverheadRepo(tx).Delete(ctx, id)
	})
}

// SetBillableDays stores the annual billable days, clamped to a valid year, and returns
// the value actually stored.
func (s *CatalogService) SetBillableDays(ctx context.Context, days int) (int, error) {
	clamped := pricing.ClampBillableDays(days)
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLiteSettingsRepo(tx).Set(ctx, repository.SettingAnnualBillableDays, strconv.Itoa(clamped))
	})
	if err != nil {
		return 0, err
	}
	if clamped != days {
		s.opt.logger.Warn("annual billable days clamped", zap.Int("requested", days), zap.Int("stored", clamped))
	}
	return clamped, nil
}

// ListServices returns the active service library.
func (s *CatalogService) ListServices(ctx context.Context) ([]domain.Service, error) {
	var out []domain.Service
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var err error
		out, err = repository.NewSQLiteServiceRepo(tx).List(ctx, true)
		return err
	})
	return out, err
}
