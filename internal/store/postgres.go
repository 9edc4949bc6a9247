package store

import (
	"github.com/Harshitk-cp/pyramid/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPostgresStores wires every store to the same pool.
func NewPostgresStores(db *pgxpool.Pool) domain.Stores {
	return domain.Stores{
		Schools:      NewSchoolStore(db),
		Practices:    NewPracticeStore(db),
		Observations: NewObservationStore(db),
		Transitions:  NewTransitionStore(db),
		Cascades:     NewCascadeStore(db),
		Snapshots:    NewSnapshotStore(db),
	}
}

// Ensure stores satisfy interfaces at compile time.
var (
	_ domain.SchoolStore      = (*SchoolStore)(nil)
	_ domain.PracticeStore    = (*PracticeStore)(nil)
	_ domain.ObservationStore = (*ObservationStore)(nil)
	_ domain.TransitionStore  = (*TransitionStore)(nil)
	_ domain.CascadeStore     = (*CascadeStore)(nil)
	_ domain.SnapshotStore    = (*SnapshotStore)(nil)

	_ domain.SchoolStore      = (*InMemorySchoolStore)(nil)
	_ domain.PracticeStore    = (*InMemoryPracticeStore)(nil)
	_ domain.ObservationStore = (*InMemoryObservationStore)(nil)
	_ domain.TransitionStore  = (*InMemoryTransitionStore)(nil)
	_ domain.CascadeStore     = (*InMemoryCascadeStore)(nil)
	_ domain.SnapshotStore    = (*InMemorySnapshotStore)(nil)
)
