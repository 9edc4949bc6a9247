package store

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/Harshitk-cp/pyramid/internal/domain"
	"github.com/google/uuid"
)

type practiceKey struct {
	schoolID uuid.UUID
	name     string
}

// memDB backs the in-memory stores. Every read hands out copies so callers
// never alias stored state.
type memDB struct {
	mu             sync.RWMutex
	schools        map[uuid.UUID]domain.School
	schoolByKey    map[string]uuid.UUID
	practices      map[uuid.UUID]domain.Practice
	practiceByName map[practiceKey]uuid.UUID
	observations   map[uuid.UUID][]domain.Observation
	transitions    map[uuid.UUID][]domain.TierTransition
	cascades       map[uuid.UUID][]domain.CascadeRun
	snapshots      map[uuid.UUID]domain.ClassificationSnapshot
}

// NewInMemoryStores returns hash-map backed stores sharing one lock.
func NewInMemoryStores() domain.Stores {
	db := &memDB{
		schools:        make(map[uuid.UUID]domain.School),
		schoolByKey:    make(map[string]uuid.UUID),
		practices:      make(map[uuid.UUID]domain.Practice),
		practiceByName: make(map[practiceKey]uuid.UUID),
		observations:   make(map[uuid.UUID][]domain.Observation),
		transitions:    make(map[uuid.UUID][]domain.TierTransition),
		cascades:       make(map[uuid.UUID][]domain.CascadeRun),
		snapshots:      make(map[uuid.UUID]domain.ClassificationSnapshot),
	}
	return domain.Stores{
		Schools:      &InMemorySchoolStore{db: db},
		Practices:    &InMemoryPracticeStore{db: db},
		Observations: &InMemoryObservationStore{db: db},
		Transitions:  &InMemoryTransitionStore{db: db},
		Cascades:     &InMemoryCascadeStore{db: db},
		Snapshots:    &InMemorySnapshotStore{db: db},
	}
}

type InMemorySchoolStore struct{ db *memDB }

func (s *InMemorySchoolStore) Create(ctx context.Context, sc *domain.School) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.schoolByKey[sc.APIKeyHash]; ok {
		return ErrConflict
	}
	now := time.Now()
	sc.ID = uuid.New()
	sc.CreatedAt, sc.UpdatedAt = now, now
	s.db.schools[sc.ID] = *sc
	s.db.schoolByKey[sc.APIKeyHash] = sc.ID
	return nil
}

func (s *InMemorySchoolStore) GetByAPIKeyHash(ctx context.Context, apiKeyHash string) (*domain.School, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	id, ok := s.db.schoolByKey[apiKeyHash]
	if !ok {
		return nil, ErrNotFound
	}
	sc := s.db.schools[id]
	return &sc, nil
}

func (s *InMemorySchoolStore) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(s.db.schools))
	for id := range s.db.schools {
		ids = append(ids, id)
	}
	return ids, nil
}

type InMemoryPracticeStore struct{ db *memDB }

func clonePractice(p domain.Practice) domain.Practice {
	if p.Tier != nil {
		t := *p.Tier
		p.Tier = &t
	}
	if p.ClassifiedAt != nil {
		at := *p.ClassifiedAt
		p.ClassifiedAt = &at
	}
	if p.Contradicts != nil {
		p.Contradicts = append([]string(nil), p.Contradicts...)
	}
	return p
}

func (s *InMemoryPracticeStore) Create(ctx context.Context, p *domain.Practice) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	key := practiceKey{p.SchoolID, p.Name}
	if _, ok := s.db.practiceByName[key]; ok {
		return ErrConflict
	}
	now := time.Now()
	p.ID = uuid.New()
	p.CreatedAt, p.UpdatedAt = now, now
	s.db.practices[p.ID] = clonePractice(*p)
	s.db.practiceByName[key] = p.ID
	return nil
}

func (s *InMemoryPracticeStore) GetByName(ctx context.Context, schoolID uuid.UUID, name string) (*domain.Practice, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	id, ok := s.db.practiceByName[practiceKey{schoolID, name}]
	if !ok {
		return nil, ErrNotFound
	}
	p := clonePractice(s.db.practices[id])
	return &p, nil
}

func (s *InMemoryPracticeStore) List(ctx context.Context, schoolID uuid.UUID) ([]domain.Practice, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var out []domain.Practice
	for _, p := range s.db.practices {
		if p.SchoolID == schoolID {
			out = append(out, clonePractice(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemoryPracticeStore) UpdateClassification(ctx context.Context, id uuid.UUID, tier domain.Tier, score float64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.practices[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	p.Tier = &tier
	p.StrengthScore = score
	p.ClassifiedAt = &now
	p.UpdatedAt = now
	s.db.practices[id] = p
	return nil
}

type InMemoryObservationStore struct{ db *memDB }

func (s *InMemoryObservationStore) Append(ctx context.Context, o *domain.Observation) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.practices[o.PracticeID]; !ok {
		return ErrNotFound
	}
	o.ID = uuid.New()
	if o.RecordedAt.IsZero() {
		o.RecordedAt = time.Now()
	}
	s.db.observations[o.PracticeID] = append(s.db.observations[o.PracticeID], *o)
	return nil
}

func (s *InMemoryObservationStore) ListByPractice(ctx context.Context, practiceID uuid.UUID) ([]domain.Observation, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return append([]domain.Observation(nil), s.db.observations[practiceID]...), nil
}

type InMemoryTransitionStore struct{ db *memDB }

func (s *InMemoryTransitionStore) Create(ctx context.Context, t *domain.TierTransition) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t.ID = uuid.New()
	if t.OccurredAt.IsZero() {
		t.OccurredAt = time.Now()
	}
	s.db.transitions[t.PracticeID] = append(s.db.transitions[t.PracticeID], *t)
	return nil
}

// ListByPractice returns the most recent transitions first.
func (s *InMemoryTransitionStore) ListByPractice(ctx context.Context, practiceID uuid.UUID, limit int) ([]domain.TierTransition, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	all := s.db.transitions[practiceID]
	out := make([]domain.TierTransition, 0, min(limit, len(all)))
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

type InMemoryCascadeStore struct{ db *memDB }

func (s *InMemoryCascadeStore) Create(ctx context.Context, run *domain.CascadeRun) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	s.db.cascades[run.SchoolID] = append(s.db.cascades[run.SchoolID], *run)
	return nil
}

func (s *InMemoryCascadeStore) ListBySchool(ctx context.Context, schoolID uuid.UUID, limit int) ([]domain.CascadeRun, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	all := s.db.cascades[schoolID]
	out := make([]domain.CascadeRun, 0, min(limit, len(all)))
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

type InMemorySnapshotStore struct{ db *memDB }

func (s *InMemorySnapshotStore) Upsert(ctx context.Context, snap *domain.ClassificationSnapshot) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if snap.ComputedAt.IsZero() {
		snap.ComputedAt = time.Now()
	}
	s.db.snapshots[snap.PracticeID] = *snap
	return nil
}

func (s *InMemorySnapshotStore) FindSimilar(ctx context.Context, schoolID uuid.UUID, profile []float32, excludePracticeID uuid.UUID, limit int) ([]domain.SnapshotWithScore, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var out []domain.SnapshotWithScore
	for id, snap := range s.db.snapshots {
		if snap.SchoolID != schoolID || id == excludePracticeID {
			continue
		}
		out = append(out, domain.SnapshotWithScore{
			ClassificationSnapshot: snap,
			Similarity:             cosineSimilarity(profile, snap.Breakdown.Profile()),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].PracticeName < out[j].PracticeName
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
