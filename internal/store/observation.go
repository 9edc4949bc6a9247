package store

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/pyramid/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ObservationStore struct {
	db *pgxpool.Pool
}

func NewObservationStore(db *pgxpool.Pool) *ObservationStore {
	return &ObservationStore{db: db}
}

func (s *ObservationStore) Append(ctx context.Context, o *domain.Observation) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO observations (practice_id, effect_magnitude, sample_size, significance, quality_weight, study_type, citation, year)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, recorded_at`,
		o.PracticeID, o.EffectMagnitude, o.SampleSize, o.Significance, o.QualityWeight, string(o.StudyType), o.Citation, o.Year,
	).Scan(&o.ID, &o.RecordedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// ListByPractice returns observations in ingestion order.
func (s *ObservationStore) ListByPractice(ctx context.Context, practiceID uuid.UUID) ([]domain.Observation, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, practice_id, effect_magnitude, sample_size, significance, quality_weight, study_type, citation, year, recorded_at
		 FROM observations WHERE practice_id = $1
		 ORDER BY seq`,
		practiceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var obs []domain.Observation
	for rows.Next() {
		var o domain.Observation
		var studyType string
		if err := rows.Scan(&o.ID, &o.PracticeID, &o.EffectMagnitude, &o.SampleSize, &o.Significance,
			&o.QualityWeight, &studyType, &o.Citation, &o.Year, &o.RecordedAt); err != nil {
			return nil, err
		}
		o.StudyType = domain.StudyType(studyType)
		obs = append(obs, o)
	}
	return obs, rows.Err()
}
