package domain

import (
	"context"

	"github.com/google/uuid"
)

type SchoolStore interface {
	Create(ctx context.Context, s *School) error
	GetByAPIKeyHash(ctx context.Context, apiKeyHash string) (*School, error)
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

// PracticeStore is the catalog of named practices and their current tier.
type PracticeStore interface {
	Create(ctx context.Context, p *Practice) error
	GetByName(ctx context.Context, schoolID uuid.UUID, name string) (*Practice, error)
	List(ctx context.Context, schoolID uuid.UUID) ([]Practice, error)
	UpdateClassification(ctx context.Context, id uuid.UUID, tier Tier, score float64) error
}

// ObservationStore holds evidence bodies. Observations are append-only and
// returned in ingestion order.
type ObservationStore interface {
	Append(ctx context.Context, o *Observation) error
	ListByPractice(ctx context.Context, practiceID uuid.UUID) ([]Observation, error)
}

type TransitionStore interface {
	Create(ctx context.Context, t *TierTransition) error
	ListByPractice(ctx context.Context, practiceID uuid.UUID, limit int) ([]TierTransition, error)
}

type CascadeStore interface {
	Create(ctx context.Context, run *CascadeRun) error
	ListBySchool(ctx context.Context, schoolID uuid.UUID, limit int) ([]CascadeRun, error)
}

// SnapshotStore keeps the latest classification per practice and answers
// nearest-neighbour queries over evidence profiles.
type SnapshotStore interface {
	Upsert(ctx context.Context, s *ClassificationSnapshot) error
	FindSimilar(ctx context.Context, schoolID uuid.UUID, profile []float32, excludePracticeID uuid.UUID, limit int) ([]SnapshotWithScore, error)
}

// Stores bundles one implementation of every store.
type Stores struct {
	Schools      SchoolStore
	Practices    PracticeStore
	Observations ObservationStore
	Transitions  TransitionStore
	Cascades     CascadeStore
	Snapshots    SnapshotStore
}
