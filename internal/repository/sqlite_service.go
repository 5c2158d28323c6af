package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Simplici0/scopeworks/internal/db"
	"github.com/Simplici0/scopeworks/internal/domain"
)

// SQLiteServiceRepo implements ServiceRepo for the service library.
type SQLiteServiceRepo struct {
	db db.DBTX
}

func NewSQLiteServiceRepo(conn db.DBTX) *SQLiteServiceRepo {
	return &SQLiteServiceRepo{db: conn}
}

// Upsert inserts the service or overwrites the row with the same id.
func (r *SQLiteServiceRepo) Upsert(ctx context.Context, s *domain.Service) error {
	team := s.TypicalTeam
	if team == nil {
		team = []string{}
	}
	teamJSON, err := json.Marshal(team)
	if err != nil {
		return fmt.Errorf("marshal typical team: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO services (id, name, phase, description, typical_effort_min, typical_effort_max, typical_team, sort_order, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			phase = excluded.phase,
			description = excluded.description,
			typical_effort_min = excluded.typical_effort_min,
			typical_effort_max = excluded.typical_effort_max,
			typical_team = excluded.typical_team,
			sort_order = excluded.sort_order,
			is_active = excluded.is_active`,
		s.ID, s.Name, s.Phase, nullableString(s.Description),
		nullableFloat(s.TypicalEffortMin), nullableFloat(s.TypicalEffortMax),
		string(teamJSON), s.SortOrder, s.IsActive,
	)
	if err != nil {
		return fmt.Errorf("upserting service %s: %w", s.ID, err)
	}
	return nil
}

func (r *SQLiteServiceRepo) List(ctx context.Context, activeOnly bool) ([]domain.Service, error) {
	query := `SELECT id, name, phase, description, typical_effort_min, typical_effort_max, typical_team, sort_order, is_active FROM services`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY sort_order, name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing services: %w", err)
	}
	defer rows.Close()

	services := []domain.Service{}
	for rows.Next() {
		var (
			s                    domain.Service
			desc                 sql.NullString
			effortMin, effortMax sql.NullFloat64
			team                 string
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.Phase, &desc, &effortMin, &effortMax, &team, &s.SortOrder, &s.IsActive); err != nil {
			return nil, fmt.Errorf("scanning service: %w", err)
		}
		s.Description = desc.String
		if effortMin.Valid {
			s.TypicalEffortMin = &effortMin.Float64
		}
		if effortMax.Valid {
			s.TypicalEffortMax = &effortMax.Float64
		}
		if err := json.Unmarshal([]byte(team), &s.TypicalTeam); err != nil {
			return nil, fmt.Errorf("unmarshal typical team for %s: %w", s.ID, err)
		}
		services = append(services, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating services: %w", err)
	}
	return services, nil
}
