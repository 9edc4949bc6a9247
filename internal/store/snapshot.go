package store

import (
	"context"

	"github.com/Harshitk-cp/pyramid/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

type SnapshotStore struct {
	db *pgxpool.Pool
}

func NewSnapshotStore(db *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{db: db}
}

func (s *SnapshotStore) Upsert(ctx context.Context, snap *domain.ClassificationSnapshot) error {
	profile := pgvector.NewVector(snap.Breakdown.Profile())
	return s.db.QueryRow(ctx,
		`INSERT INTO classification_snapshots (practice_id, school_id, practice_name, tier, breakdown, profile, computed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())
		 ON CONFLICT (practice_id) DO UPDATE
		 SET tier = EXCLUDED.tier, breakdown = EXCLUDED.breakdown, profile = EXCLUDED.profile, computed_at = EXCLUDED.computed_at
		 RETURNING computed_at`,
		snap.PracticeID, snap.SchoolID, snap.PracticeName, string(snap.Tier), snap.Breakdown, profile,
	).Scan(&snap.ComputedAt)
}

// FindSimilar ranks the school's snapshots by cosine similarity of their
// evidence profile.
func (s *SnapshotStore) FindSimilar(ctx context.Context, schoolID uuid.UUID, profile []float32, excludePracticeID uuid.UUID, limit int) ([]domain.SnapshotWithScore, error) {
	vec := pgvector.NewVector(profile)
	rows, err := s.db.Query(ctx,
		`SELECT practice_id, school_id, practice_name, tier, breakdown, computed_at,
		        1 - (profile <=> $2) AS similarity
		 FROM classification_snapshots
		 WHERE school_id = $1 AND practice_id <> $3
		 ORDER BY profile <=> $2
		 LIMIT $4`,
		schoolID, vec, excludePracticeID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.SnapshotWithScore
	for rows.Next() {
		var r domain.SnapshotWithScore
		if err := rows.Scan(&r.PracticeID, &r.SchoolID, &r.PracticeName, &r.Tier, &r.Breakdown,
			&r.ComputedAt, &r.Similarity); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
