package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Simplici0/scopeworks/internal/db"
	"github.com/Simplici0/scopeworks/internal/domain"
)

// SQLiteOverheadRepo implements OverheadRepo.
type SQLiteOverheadRepo struct {
	db db.DBTX
}

func NewSQLiteOverheadRepo(conn db.DBTX) *SQLiteOverheadRepo {
	return &SQLiteOverheadRepo{db: conn}
}

const overheadColumns = `id, name, category, monthly_cost, notes, sort_order`

func (r *SQLiteOverheadRepo) Create(ctx context.Context, o *domain.OverheadItem) error {
	now := formatTime(nowUTC())
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO overhead_items (id, name, category, monthly_cost, notes, sort_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.Name, o.Category, o.MonthlyCost, nullableString(o.Notes), o.SortOrder, now, now,
	)
	if err != nil {
		return writeErr(err, "inserting overhead item")
	}
	return nil
}

func (r *SQLiteOverheadRepo) GetByID(ctx context.Context, id string) (*domain.OverheadItem, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+overheadColumns+` FROM overhead_items WHERE id = ?`, id)
	item, err := scanOverhead(row)
	if err != nil {
		return nil, scanErr(err, "overhead item "+id)
	}
	return item, nil
}

func (r *SQLiteOverheadRepo) List(ctx context.Context) ([]domain.OverheadItem, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+overheadColumns+` FROM overhead_items ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("listing overhead items: %w", err)
	}
	defer rows.Close()

	items := []domain.OverheadItem{}
	for rows.Next() {
		item, err := scanOverhead(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning overhead item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating overhead items: %w", err)
	}
	return items, nil
}

func (r *SQLiteOverheadRepo) Update(ctx context.Context, o *domain.OverheadItem) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE overhead_items SET name = ?, category = ?, monthly_cost = ?, notes = ?, sort_order = ?, updated_at = ?
		WHERE id = ?`,
		o.Name, o.Category, o.MonthlyCost, nullableString(o.Notes), o.SortOrder, formatTime(nowUTC()), o.ID,
	)
	if err != nil {
		return writeErr(err, "updating overhead item")
	}
	return requireRow(res, "overhead item "+o.ID)
}

func (r *SQLiteOverheadRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM overhead_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting overhead item: %w", err)
	}
	return requireRow(res, "overhead item "+id)
}

func scanOverhead(row rowScanner) (*domain.OverheadItem, error) {
	var item domain.OverheadItem
	var notes sql.NullString
	if err := row.Scan(&item.ID, &item.Name, &item.Category, &item.MonthlyCost, &notes, &item.SortOrder); err != nil {
		return nil, err
	}
	item.Notes = notes.String
	return &item, nil
}
