package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Simplici0/scopeworks/internal/db"
	"github.com/Simplici0/scopeworks/internal/domain"
)

// SQLiteProjectRepo implements ProjectRepo.
type SQLiteProjectRepo struct {
	db db.DBTX
}

func NewSQLiteProjectRepo(conn db.DBTX) *SQLiteProjectRepo {
	return &SQLiteProjectRepo{db: conn}
}

const projectColumns = `id, slug, client_name, project_name, status, current_version_id, created_at, updated_at`

func (r *SQLiteProjectRepo) Create(ctx context.Context, p *domain.Project) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Slug, p.ClientName, p.ProjectName, string(p.Status),
		nullableString(p.CurrentVersionID), formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		return writeErr(err, "inserting project")
	}
	return nil
}

func (r *SQLiteProjectRepo) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if err != nil {
		return nil, scanErr(err, "project "+id)
	}
	return p, nil
}

func (r *SQLiteProjectRepo) GetBySlug(ctx context.Context, slug string) (*domain.Project, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE slug = ?`, slug)
	p, err := scanProject(row)
	if err != nil {
		return nil, scanErr(err, "project "+slug)
	}
	return p, nil
}

// List returns projects most recently updated first.
func (r *SQLiteProjectRepo) List(ctx context.Context) ([]domain.Project, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY updated_at DESC, slug`)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	projects := []domain.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}
	return projects, nil
}

func (r *SQLiteProjectRepo) Update(ctx context.Context, p *domain.Project) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE projects SET slug = ?, client_name = ?, project_name = ?, status = ?, current_version_id = ?, updated_at = ?
		WHERE id = ?`,
		p.Slug, p.ClientName, p.ProjectName, string(p.Status),
		nullableString(p.CurrentVersionID), formatTime(p.UpdatedAt), p.ID,
	)
	if err != nil {
		return writeErr(err, "updating project")
	}
	return requireRow(res, "project "+p.ID)
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var (
		p                    domain.Project
		status               string
		current              sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&p.ID, &p.Slug, &p.ClientName, &p.ProjectName, &status, &current, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.Status = domain.ProjectStatus(status)
	p.CurrentVersionID = current.String

	var err error
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
