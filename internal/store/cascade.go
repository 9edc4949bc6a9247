package store

import (
	"context"

	"github.com/Harshitk-cp/pyramid/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CascadeStore struct {
	db *pgxpool.Pool
}

func NewCascadeStore(db *pgxpool.Pool) *CascadeStore {
	return &CascadeStore{db: db}
}

func (s *CascadeStore) Create(ctx context.Context, run *domain.CascadeRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO cascade_runs (id, school_id, evaluated, promotions, demotions, conflicts, started_at, completed_at, error)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		run.ID, run.SchoolID, run.Evaluated, run.Promotions, run.Demotions, run.Conflicts, run.StartedAt, run.CompletedAt, run.Error,
	)
	return err
}

func (s *CascadeStore) ListBySchool(ctx context.Context, schoolID uuid.UUID, limit int) ([]domain.CascadeRun, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, school_id, evaluated, promotions, demotions, conflicts, started_at, completed_at, error
		 FROM cascade_runs WHERE school_id = $1
		 ORDER BY started_at DESC
		 LIMIT $2`,
		schoolID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.CascadeRun
	for rows.Next() {
		var r domain.CascadeRun
		if err := rows.Scan(&r.ID, &r.SchoolID, &r.Evaluated, &r.Promotions, &r.Demotions,
			&r.Conflicts, &r.StartedAt, &r.CompletedAt, &r.Error); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
