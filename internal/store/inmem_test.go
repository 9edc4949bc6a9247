package store

import (
	"context"
	"errors"
	"testing"

	"github.com/Harshitk-cp/pyramid/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryPracticeStore(t *testing.T) {
	stores := NewInMemoryStores()
	ctx := context.Background()
	schoolID := uuid.New()

	p := &domain.Practice{SchoolID: schoolID, Name: "Yoga", Contradicts: []string{"Astrology"}}
	require.NoError(t, stores.Practices.Create(ctx, p))
	assert.NotEqual(t, uuid.Nil, p.ID)

	err := stores.Practices.Create(ctx, &domain.Practice{SchoolID: schoolID, Name: "Yoga"})
	assert.True(t, errors.Is(err, ErrConflict))

	// Same name in another school is fine.
	require.NoError(t, stores.Practices.Create(ctx, &domain.Practice{SchoolID: uuid.New(), Name: "Yoga"}))

	got, err := stores.Practices.GetByName(ctx, schoolID, "Yoga")
	require.NoError(t, err)
	got.Contradicts[0] = "mutated"

	again, err := stores.Practices.GetByName(ctx, schoolID, "Yoga")
	require.NoError(t, err)
	assert.Equal(t, []string{"Astrology"}, again.Contradicts, "reads must not alias stored state")
	assert.Nil(t, again.Tier)

	require.NoError(t, stores.Practices.UpdateClassification(ctx, p.ID, domain.TierMiddle, 1.3))
	again, err = stores.Practices.GetByName(ctx, schoolID, "Yoga")
	require.NoError(t, err)
	require.NotNil(t, again.Tier)
	assert.Equal(t, domain.TierMiddle, *again.Tier)
	assert.Equal(t, 1.3, again.StrengthScore)

	assert.ErrorIs(t, stores.Practices.UpdateClassification(ctx, uuid.New(), domain.TierEdge, 0), ErrNotFound)
	_, err = stores.Practices.GetByName(ctx, schoolID, "Nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryObservationStore_Order(t *testing.T) {
	stores := NewInMemoryStores()
	ctx := context.Background()

	p := &domain.Practice{SchoolID: uuid.New(), Name: "Reiki"}
	require.NoError(t, stores.Practices.Create(ctx, p))

	for _, effect := range []float64{0.24, 0.19, 0.3} {
		o := &domain.Observation{PracticeID: p.ID, EffectMagnitude: effect, SampleSize: 10, QualityWeight: 0.4}
		require.NoError(t, stores.Observations.Append(ctx, o))
		assert.NotEqual(t, uuid.Nil, o.ID)
	}

	obs, err := stores.Observations.ListByPractice(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, obs, 3)
	assert.Equal(t, 0.24, obs[0].EffectMagnitude)
	assert.Equal(t, 0.3, obs[2].EffectMagnitude)

	err = stores.Observations.Append(ctx, &domain.Observation{PracticeID: uuid.New()})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryTransitionStore_NewestFirst(t *testing.T) {
	stores := NewInMemoryStores()
	ctx := context.Background()
	practiceID := uuid.New()

	for _, to := range []domain.Tier{domain.TierMiddle, domain.TierFoundation, domain.TierEdge} {
		require.NoError(t, stores.Transitions.Create(ctx, &domain.TierTransition{PracticeID: practiceID, ToTier: to}))
	}

	got, err := stores.Transitions.ListByPractice(ctx, practiceID, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.TierEdge, got[0].ToTier)
	assert.Equal(t, domain.TierFoundation, got[1].ToTier)
}

func TestInMemorySnapshotStore_FindSimilar(t *testing.T) {
	stores := NewInMemoryStores()
	ctx := context.Background()
	schoolID := uuid.New()

	snap := func(name string, mean, noise float64) *domain.ClassificationSnapshot {
		return &domain.ClassificationSnapshot{
			PracticeID:   uuid.New(),
			SchoolID:     schoolID,
			PracticeName: name,
			Tier:         domain.TierEdge,
			Breakdown: domain.StrengthBreakdown{
				MeanWeightedEffect: mean, Consistency: 1, AverageQuality: 1, Noise: noise,
			},
		}
	}
	self := snap("Yoga", 0.5, 0.5)
	near := snap("Pilates", 0.5, 0.5)
	far := snap("Crystal Healing", 0, 1)
	other := snap("Elsewhere", 0.5, 0.5)
	other.SchoolID = uuid.New()

	for _, s := range []*domain.ClassificationSnapshot{self, near, far, other} {
		require.NoError(t, stores.Snapshots.Upsert(ctx, s))
	}

	got, err := stores.Snapshots.FindSimilar(ctx, schoolID, self.Breakdown.Profile(), self.PracticeID, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Pilates", got[0].PracticeName)
	assert.InDelta(t, 1.0, got[0].Similarity, 1e-6)
	assert.Equal(t, "Crystal Healing", got[1].PracticeName)
	assert.Less(t, got[1].Similarity, got[0].Similarity)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 1}))
	assert.Equal(t, 0.0, cosineSimilarity([]float32{1}, []float32{1, 1}))
}
