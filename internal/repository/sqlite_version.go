package repository

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/Simplici0/scopeworks/internal/db"
	"github.com/Simplici0/scopeworks/internal/domain"
)

// SQLiteVersionRepo implements VersionRepo. Snapshots are stored whole as JSON text.
type SQLiteVersionRepo struct {
	db db.DBTX
}

func NewSQLiteVersionRepo(conn db.DBTX) *SQLiteVersionRepo {
	return &SQLiteVersionRepo{db: conn}
}

const versionColumns = `id, project_id, version_number, name, snapshot, total_investment, total_internal_cost, created_at`

func (r *SQLiteVersionRepo) Create(ctx context.Context, v *domain.ProjectVersion) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO project_versions (`+versionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.ProjectID, v.VersionNumber, v.Name, v.Snapshot,
		v.TotalInvestment, v.TotalInternalCost, formatTime(v.CreatedAt),
	)
	if err != nil {
		return writeErr(err, fmt.Sprintf("inserting version %d", v.VersionNumber))
	}
	return nil
}

func (r *SQLiteVersionRepo) GetByID(ctx context.Context, id string) (*domain.ProjectVersion, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+versionColumns+` FROM project_versions WHERE id = ?`, id)
	v, err := scanVersion(row)
	if err != nil {
		return nil, scanErr(err, "version "+id)
	}
	return v, nil
}

func (r *SQLiteVersionRepo) GetByNumber(ctx context.Context, projectID string, number int) (*domain.ProjectVersion, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+versionColumns+` FROM project_versions WHERE project_id = ? AND version_number = ?`,
		projectID, number,
	)
	v, err := scanVersion(row)
	if err != nil {
		return nil, scanErr(err, fmt.Sprintf("version %d", number))
	}
	return v, nil
}

// MaxNumber returns the highest version number for the project, or 0 when it has none.
func (r *SQLiteVersionRepo) MaxNumber(ctx context.Context, projectID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version_number), 0) FROM project_versions WHERE project_id = ?`, projectID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("reading max version number: %w", err)
	}
	return n, nil
}

// ListSummaries returns version history newest first. The deliverable count is read
// straight from the stored JSON so snapshots are never decoded here.
func (r *SQLiteVersionRepo) ListSummaries(ctx context.Context, projectID string) ([]domain.VersionSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, version_number, name, total_investment, total_internal_cost, snapshot, created_at
		FROM project_versions WHERE project_id = ?
		ORDER BY version_number DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}
	defer rows.Close()

	summaries := []domain.VersionSummary{}
	for rows.Next() {
		var (
			s         domain.VersionSummary
			snapshot  string
			createdAt string
		)
		if err := rows.Scan(&s.ID, &s.VersionNumber, &s.Name, &s.TotalInvestment, &s.TotalInternalCost, &snapshot, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning version summary: %w", err)
		}
		if s.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		s.Deliverables = countDeliverables(snapshot)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating versions: %w", err)
	}
	return summaries, nil
}

// UpdateDraft overwrites the snapshot and totals of an existing version in place.
func (r *SQLiteVersionRepo) UpdateDraft(ctx context.Context, v *domain.ProjectVersion) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE project_versions SET snapshot = ?, total_investment = ?, total_internal_cost = ?
		WHERE id = ?`,
		v.Snapshot, v.TotalInvestment, v.TotalInternalCost, v.ID,
	)
	if err != nil {
		return fmt.Errorf("updating version draft: %w", err)
	}
	return requireRow(res, "version "+v.ID)
}

func countDeliverables(snapshot string) int {
	n := 0
	for _, c := range gjson.Get(snapshot, "phases.#.deliverables.#").Array() {
		n += int(c.Int())
	}
	return n
}

func scanVersion(row rowScanner) (*domain.ProjectVersion, error) {
	var (
		v         domain.ProjectVersion
		createdAt string
	)
	if err := row.Scan(&v.ID, &v.ProjectID, &v.VersionNumber, &v.Name, &v.Snapshot,
		&v.TotalInvestment, &v.TotalInternalCost, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if v.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &v, nil
}
