package repository

import (
	"context"

	"github.com/Simplici0/scopeworks/internal/domain"
)

type UserRepo interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type RoleRepo interface {
	Create(ctx context.Context, r *domain.Role) error
	GetByID(ctx context.Context, id string) (*domain.Role, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Role, error)
	Update(ctx context.Context, r *domain.Role) error
}

type OverheadRepo interface {
	Create(ctx context.Context, o *domain.OverheadItem) error
	GetByID(ctx context.Context, id string) (*domain.OverheadItem, error)
	List(ctx context.Context) ([]domain.OverheadItem, error)
	Update(ctx context.Context, o *domain.OverheadItem) error
	Delete(ctx context.Context, id string) error
}

type SettingsRepo interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

type ServiceRepo interface {
	Upsert(ctx context.Context, s *domain.Service) error
	List(ctx context.Context, activeOnly bool) ([]domain.Service, error)
}

type ProjectRepo interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Project, error)
	List(ctx context.Context) ([]domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
}

type VersionRepo interface {
	Create(ctx context.Context, v *domain.ProjectVersion) error
	GetByID(ctx context.Context, id string) (*domain.ProjectVersion, error)
	GetByNumber(ctx context.Context, projectID string, number int) (*domain.ProjectVersion, error)
	MaxNumber(ctx context.Context, projectID string) (int, error)
	ListSummaries(ctx context.Context, projectID string) ([]domain.VersionSummary, error)
	UpdateDraft(ctx context.Context, v *domain.ProjectVersion) error
}
