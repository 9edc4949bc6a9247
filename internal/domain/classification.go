package domain

import (
	"time"

	"github.com/google/uuid"
)

// ClassificationResult is the recomputable snapshot handed to report and
// export consumers. Field names are part of the wire contract.
type ClassificationResult struct {
	PracticeName  string  `json:"practice_name"`
	StrengthScore float64 `json:"strength_score"`
	Tier          Tier    `json:"tier"`
}

// StrengthBreakdown carries every intermediate factor of the Π formula.
type StrengthBreakdown struct {
	ObservationCount   int     `json:"observation_count"`
	MeanWeightedEffect float64 `json:"mean_weighted_effect"`
	Consistency        float64 `json:"consistency"`
	AverageQuality     float64 `json:"average_quality"`
	SampleFactor       float64 `json:"sample_factor"`
	SignificanceRatio  float64 `json:"significance_ratio"`
	Noise              float64 `json:"noise"`
	StrengthScore      float64 `json:"strength_score"`
}

// Profile is the vector used to compare practices by the shape of their
// evidence rather than by the final score alone.
func (b StrengthBreakdown) Profile() []float32 {
	return []float32{
		float32(b.MeanWeightedEffect),
		float32(b.Consistency),
		float32(b.AverageQuality),
		float32(b.Noise),
	}
}

// ProfileDimensions is the length of StrengthBreakdown.Profile.
const ProfileDimensions = 4

// ClassificationSnapshot is the last classification stored for a practice.
type ClassificationSnapshot struct {
	PracticeID   uuid.UUID         `json:"practice_id"`
	SchoolID     uuid.UUID         `json:"school_id"`
	PracticeName string            `json:"practice_name"`
	Tier         Tier              `json:"tier"`
	Breakdown    StrengthBreakdown `json:"breakdown"`
	ComputedAt   time.Time         `json:"computed_at"`
}

type SnapshotWithScore struct {
	ClassificationSnapshot
	Similarity float64 `json:"similarity"`
}
