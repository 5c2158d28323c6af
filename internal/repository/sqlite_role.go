package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Simplici0/scopeworks/internal/db"
	"github.com/Simplici0/scopeworks/internal/domain"
)

// SQLiteRoleRepo implements RoleRepo.
type SQLiteRoleRepo struct {
	db db.DBTX
}

func NewSQLiteRoleRepo(conn db.DBTX) *SQLiteRoleRepo {
	return &SQLiteRoleRepo{db: conn}
}

const roleColumns = `id, title, base_cost_day, markup_pct, sort_order, is_active`

func (r *SQLiteRoleRepo) Create(ctx context.Context, role *domain.Role) error {
	now := formatTime(nowUTC())
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO roles (id, title, base_cost_day, markup_pct, sort_order, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		role.ID, role.Title, role.BaseCostDay, role.MarkupPct, role.SortOrder, role.IsActive, now, now,
	)
	if err != nil {
		return writeErr(err, "inserting role")
	}
	return nil
}

func (r *SQLiteRoleRepo) GetByID(ctx context.Context, id string) (*domain.Role, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = ?`, id)
	role, err := scanRole(row)
	if err != nil {
		return nil, scanErr(err, "role "+id)
	}
	return role, nil
}

// List returns roles in rate card order.
func (r *SQLiteRoleRepo) List(ctx context.Context, activeOnly bool) ([]domain.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY sort_order, title`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing roles: %w", err)
	}
	defer rows.Close()

	roles := []domain.Role{}
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning role: %w", err)
		}
		roles = append(roles, *role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating roles: %w", err)
	}
	return roles, nil
}

func (r *SQLiteRoleRepo) Update(ctx context.Context, role *domain.Role) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE roles SET title = ?, base_cost_day = ?, markup_pct = ?, sort_order = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		role.Title, role.BaseCostDay, role.MarkupPct, role.SortOrder, role.IsActive, formatTime(nowUTC()), role.ID,
	)
	if err != nil {
		return writeErr(err, "updating role")
	}
	return requireRow(res, "role "+role.ID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRole(row rowScanner) (*domain.Role, error) {
	var role domain.Role
	if err := row.Scan(&role.ID, &role.Title, &role.BaseCostDay, &role.MarkupPct, &role.SortOrder, &role.IsActive); err != nil {
		return nil, err
	}
	return &role, nil
}

var (
	_ rowScanner = (*sql.Row)(nil)
	_ rowScanner = (*sql.Rows)(nil)
)
