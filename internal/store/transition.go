package store

import (
	"context"

	"github.com/Harshitk-cp/pyramid/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TransitionStore struct {
	db *pgxpool.Pool
}

func NewTransitionStore(db *pgxpool.Pool) *TransitionStore {
	return &TransitionStore{db: db}
}

func (s *TransitionStore) Create(ctx context.Context, t *domain.TierTransition) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO tier_transitions (practice_id, practice_name, from_tier, to_tier, strength_score, direction, reason)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, occurred_at`,
		t.PracticeID, t.PracticeName, string(t.FromTier), string(t.ToTier), t.StrengthScore, string(t.Direction), t.Reason,
	).Scan(&t.ID, &t.OccurredAt)
}

func (s *TransitionStore) ListByPractice(ctx context.Context, practiceID uuid.UUID, limit int) ([]domain.TierTransition, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, practice_id, practice_name, from_tier, to_tier, strength_score, direction, reason, occurred_at
		 FROM tier_transitions WHERE practice_id = $1
		 ORDER BY occurred_at DESC
		 LIMIT $2`,
		practiceID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transitions []domain.TierTransition
	for rows.Next() {
		var t domain.TierTransition
		if err := rows.Scan(&t.ID, &t.PracticeID, &t.PracticeName, &t.FromTier, &t.ToTier,
			&t.StrengthScore, &t.Direction, &t.Reason, &t.OccurredAt); err != nil {
			return nil, err
		}
		transitions = append(transitions, t)
	}
	return transitions, rows.Err()
}
