package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Simplici0/scopeworks/internal/db"
	"github.com/Simplici0/scopeworks/internal/domain"
	"github.com/Simplici0/scopeworks/internal/pricing"
	"github.com/Simplici0/scopeworks/internal/repository"
	"github.com/Simplici0/scopeworks/internal/scope"
	"github.com/Simplici0/scopeworks/internal/versiondiff"
)

// InitialVersionName is the name of version 1 of every project.
const InitialVersionName = "Working draft"

// ProjectService owns the project and version lifecycle.
type ProjectService struct {
	uow db.UnitOfWork
	opt options
}

// NewProjectService returns a ProjectService that runs every operation through uow.
func NewProjectService(uow db.UnitOfWork, opts ...Option) *ProjectService {
	return &ProjectService{uow: uow, opt: buildOptions(opts)}
}

// CreateProjectInput holds the fields a new project is created from.
type CreateProjectInput struct {
	ClientName  string `json:"client_name"`
	ProjectName string `json:"project_name"`
	Slug        string `json:"slug"`
}

// Create stores a project and its version 1 holding the default phases.
func (s *ProjectService) Create(ctx context.Context, in CreateProjectInput) (*domain.Project, *domain.ProjectVersion, error) {
	client := strings.TrimSpace(in.ClientName)
	name := strings.TrimSpace(in.ProjectName)
	if client == "" || name == "" {
		return nil, nil, fmt.Errorf("%w: client_name and project_name are required", domain.ErrInvalidInput)
	}
	slug := domain.GenerateSlug(client, name)
	if strings.TrimSpace(in.Slug) != "" {
		slug = domain.NormalizeSlug(in.Slug)
	}
	if slug == "" {
		return nil, nil, fmt.Errorf("%w: slug must contain letters or digits", domain.ErrInvalidInput)
	}

	now := s.opt.timestamp()
	version := &domain.ProjectVersion{
		ID:            s.opt.newID(),
		VersionNumber: 1,
		Name:          InitialVersionName,
		Snapshot:      scope.DefaultSnapshot(s.opt.newID),
		CreatedAt:     now,
	}
	project := &domain.Project{
		ID:               s.opt.newID(),
		Slug:             slug,
		ClientName:       client,
		ProjectName:      name,
		Status:           domain.StatusDraft,
		CurrentVersionID: version.ID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	version.ProjectID = project.ID

	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := repository.NewSQLiteProjectRepo(tx).Create(ctx, project); err != nil {
			return fmt.Errorf("creating project %q: %w", slug, err)
		}
		if err := repository.NewSQLiteVersionRepo(tx).Create(ctx, version); err != nil {
			return fmt.Errorf("creating initial version: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.opt.logger.Info("project created", zap.String("project_id", project.ID), zap.String("slug", slug))
	return project, version, nil
}

// Get returns the project with the given id.
func (s *ProjectService) Get(ctx context.Context, id string) (*domain.Project, error) {
	var p *domain.Project
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var err error
		p, err = repository.NewSQLiteProjectRepo(tx).GetByID(ctx, id)
		return err
	})
	return p, err
}

// GetBySlug returns the project with the given slug.
func (s *ProjectService) GetBySlug(ctx context.Context, slug string) (*domain.Project, error) {
	var p *domain.Project
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var err error
		p, err = repository.NewSQLiteProjectRepo(tx).GetBySlug(ctx, slug)
		return err
	})
	return p, err
}

// List returns every project.
func (s *ProjectService) List(ctx context.Context) ([]domain.Project, error) {
	var out []domain.Project
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var err error
		out, err = repository.NewSQLiteProjectRepo(tx).List(ctx)
		return err
	})
	return out, err
}

func (s *ProjectService) SetStatus(ctx context.Context, projectID string, status domain.ProjectStatus) (*domain.Project, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}
	var p *domain.Project
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		projects := repository.NewSQLiteProjectRepo(tx)
		var err error
		if p, err = projects.GetByID(ctx, projectID); err != nil {
			return err
		}
		p.Status = status
		p.UpdatedAt = s.opt.timestamp()
		return projects.Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	s.opt.logger.Info("project status changed", zap.String("project_id", projectID), zap.String("status", string(status)))
	return p, nil
}

// Versions lists version history newest first.
func (s *ProjectService) Versions(ctx context.Context, projectID string) ([]domain.VersionSummary, error) {
	var out []domain.VersionSummary
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if _, err := repository.NewSQLiteProjectRepo(tx).GetByID(ctx, projectID); err != nil {
			return err
		}
		var err error
		out, err = repository.NewSQLiteVersionRepo(tx).ListSummaries(ctx, projectID)
		return err
	})
	return out, err
}

// Version returns version n of the project, or the current version when n is 0.
func (s *ProjectService) Version(ctx context.Context, projectID string, n int) (*domain.ProjectVersion, error) {
	var v *domain.ProjectVersion
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var err error
		v, err = versionIn(ctx, tx, projectID, n)
		return err
	})
	return v, err
}

// UpdateDraft replaces the current version's snapshot and reprices it at current rates.
// This is the autosave path; it never creates a version.
func (s *ProjectService) UpdateDraft(ctx context.Context, projectID string, snap scope.Snapshot) (*domain.ProjectVersion, error) {
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	var current *domain.ProjectVersion
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		projects := repository.NewSQLiteProjectRepo(tx)
		project, err := projects.GetByID(ctx, projectID)
		if err != nil {
			return err
		}
		if current, err = currentVersion(ctx, tx, project); err != nil {
			return err
		}
		rc, err := loadRateContext(ctx, tx)
		if err != nil {
			return err
		}

		current.Snapshot = snap.Clone()
		totals := scope.SnapshotTotals(current.Snapshot, rc.Card, rc.OverheadPerDay)
		current.TotalInvestment = totals.Investment
		current.TotalInternalCost = totals.InternalCost
		if err := repository.NewSQLiteVersionRepo(tx).UpdateDraft(ctx, current); err != nil {
			return err
		}

		project.UpdatedAt = s.opt.timestamp()
		return projects.Update(ctx, project)
	})
	if err != nil {
		return nil, err
	}
	s.opt.logger.Debug("draft saved",
		zap.String("project_id", projectID),
		zap.Int("version", current.VersionNumber),
		zap.Float64("total_investment", current.TotalInvestment),
	)
	return current, nil
}

// SaveVersion freezes the current snapshot into a new numbered version priced at
// current rates and makes it current.
func (s *ProjectService) SaveVersion(ctx context.Context, projectID, name string) (*domain.ProjectVersion, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: version name is required", domain.ErrInvalidInput)
	}
	var created *domain.ProjectVersion
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		project, err := repository.NewSQLiteProjectRepo(tx).GetByID(ctx, projectID)
		if err != nil {
			return err
		}
		current, err := currentVersion(ctx, tx, project)
		if err != nil {
			return err
		}
		rc, err := loadRateContext(ctx, tx)
		if err != nil {
			return err
		}
		totals := scope.SnapshotTotals(current.Snapshot, rc.Card, rc.OverheadPerDay)
		created, err = s.appendVersion(ctx, tx, project, name, current.Snapshot, totals)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.opt.logger.Info("version saved",
		zap.String("project_id", projectID),
		zap.Int("version", created.VersionNumber),
		zap.String("name", created.Name),
	)
	return created, nil
}

// Revert copies version n into a new version with the next number. Totals are copied as
// frozen on version n, not repriced.
func (s *ProjectService) Revert(ctx context.Context, projectID string, n int) (*domain.ProjectVersion, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: version number must be positive", domain.ErrInvalidInput)
	}
	var created *domain.ProjectVersion
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		project, err := repository.NewSQLiteProjectRepo(tx).GetByID(ctx, projectID)
		if err != nil {
			return err
		}
		target, err := repository.NewSQLiteVersionRepo(tx).GetByNumber(ctx, projectID, n)
		if err != nil {
			return err
		}
		frozen := pricing.Totals{Investment: target.TotalInvestment, InternalCost: target.TotalInternalCost}
		created, err = s.appendVersion(ctx, tx, project, fmt.Sprintf("Reverted from v%d", n), target.Snapshot, frozen)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.opt.logger.Info("version reverted",
		zap.String("project_id", projectID),
		zap.Int("from", n),
		zap.Int("version", created.VersionNumber),
	)
	return created, nil
}

// appendVersion writes version max+1 with a copy of snap and points the project at it.
func (s *ProjectService) appendVersion(ctx context.Context, tx db.DBTX, project *domain.Project, name string, snap scope.Snapshot, totals pricing.Totals) (*domain.ProjectVersion, error) {
	versions := repository.NewSQLiteVersionRepo(tx)
	last, err := versions.MaxNumber(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	now := s.opt.timestamp()
	v := &domain.ProjectVersion{
		ID:                s.opt.newID(),
		ProjectID:         project.ID,
		VersionNumber:     last + 1,
		Name:              name,
		Snapshot:          snap.Clone(),
		TotalInvestment:   totals.Investment,
		TotalInternalCost: totals.InternalCost,
		CreatedAt:         now,
	}
	if err := versions.Create(ctx, v); err != nil {
		return nil, err
	}
	project.CurrentVersionID = v.ID
	project.UpdatedAt = now
	if err := repository.NewSQLiteProjectRepo(tx).Update(ctx, project); err != nil {
		return nil, fmt.Errorf("advancing current version: %w", err)
	}
	return v, nil
}

// Compare diffs versions a and b of a project, pricing lines at current rates.
func (s *ProjectService) Compare(ctx context.Context, projectID string, a, b int) (versiondiff.Result, error) {
	var res versiondiff.Result
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		versions := repository.NewSQLiteVersionRepo(tx)
		va, err := versions.GetByNumber(ctx, projectID, a)
		if err != nil {
			return err
		}
		vb, err := versions.GetByNumber(ctx, projectID, b)
		if err != nil {
			return err
		}
		rc, err := loadRateContext(ctx, tx)
		if err != nil {
			return err
		}
		res = versiondiff.Diff(*va, *vb, rc.Card, rc.OverheadPerDay)
		return nil
	})
	return res, err
}

// Budget is a version priced at current rates with its profitability.
type Budget struct {
	Project       domain.Project `json:"project"`
	VersionNumber int            `json:"version_number"`
	VersionName   string         `json:"version_name"`
	VersionDate   time.Time      `json:"version_created_at"`
	scope.Budget
	Roles       []RoleRates        `json:"roles"`
	RateContext RateContext        `json:"rate_context"`
	GrossProfit float64            `json:"gross_profit"`
	Margin      float64            `json:"margin"`
	Band        pricing.MarginBand `json:"band"`
}

// Budget prices version n, or the current version when n is 0.
func (s *ProjectService) Budget(ctx context.Context, projectID string, n int) (*Budget, error) {
	var out *Budget
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		project, err := repository.NewSQLiteProjectRepo(tx).GetByID(ctx, projectID)
		if err != nil {
			return err
		}
		v, err := versionIn(ctx, tx, projectID, n)
		if err != nil {
			return err
		}
		rc, err := loadRateContext(ctx, tx)
		if err != nil {
			return err
		}
		priced := scope.Price(v.Snapshot, rc.Card, rc.OverheadPerDay)
		margin := priced.Totals.Margin()
		out = &Budget{
			Project:       *project,
			VersionNumber: v.VersionNumber,
			VersionName:   v.Name,
			VersionDate:   v.CreatedAt,
			Budget:        priced,
			Roles:         rc.RoleRates(),
			RateContext:   rc,
			GrossProfit:   priced.Totals.GrossProfit(),
			Margin:        margin,
			Band:          pricing.BandFor(margin),
		}
		return nil
	})
	return out, err
}

func versionIn(ctx context.Context, tx db.DBTX, projectID string, n int) (*domain.ProjectVersion, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: version number must not be negative", domain.ErrInvalidInput)
	}
	if n > 0 {
		return repository.NewSQLiteVersionRepo(tx).GetByNumber(ctx, projectID, n)
	}
	project, err := repository.NewSQLiteProjectRepo(tx).GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return currentVersion(ctx, tx, project)
}

func currentVersion(ctx context.Context, tx db.DBTX, project *domain.Project) (*domain.ProjectVersion, error) {
	if project.CurrentVersionID == "" {
		return nil, fmt.Errorf("project %s has no current version: %w", project.Slug, domain.ErrNotFound)
	}
	return repository.NewSQLiteVersionRepo(tx).GetByID(ctx, project.CurrentVersionID)
}
