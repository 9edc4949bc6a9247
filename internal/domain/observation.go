package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// QualityRating is the categorical rigor of a study.
type QualityRating string

const (
	QualityHigh     QualityRating = "HIGH"
	QualityModerate QualityRating = "MODERATE"
	QualityLow      QualityRating = "LOW"
	QualityVeryLow  QualityRating = "VERY_LOW"
)

var qualityWeights = map[QualityRating]float64{
	QualityHigh:     1.0,
	QualityModerate: 0.7,
	QualityLow:      0.4,
	QualityVeryLow:  0.1,
}

// Weight returns the numeric multiplier for the rating, 0 when unknown.
func (q QualityRating) Weight() float64 {
	return qualityWeights[q]
}

func ParseQualityRating(s string) (QualityRating, bool) {
	q := QualityRating(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := qualityWeights[q]
	return q, ok
}

// RatingForWeight maps a weight back onto its rating. Weights that match
// no category yield "".
func RatingForWeight(w float64) QualityRating {
	for q, qw := range qualityWeights {
		if qw == w {
			return q
		}
	}
	return ""
}

func AllQualityRatings() []QualityRating {
	return []QualityRating{QualityHigh, QualityModerate, QualityLow, QualityVeryLow}
}

type StudyType string

const (
	StudyRCT              StudyType = "randomized_controlled_trial"
	StudyMetaAnalysis     StudyType = "meta_analysis"
	StudyObservational    StudyType = "observational"
	StudyCaseStudy        StudyType = "case_study"
	StudySystematicReview StudyType = "systematic_review"
)

func ValidStudyType(t string) bool {
	switch StudyType(t) {
	case StudyRCT, StudyMetaAnalysis, StudyObservational, StudyCaseStudy, StudySystematicReview:
		return true
	}
	return false
}

// MaxEffectMagnitude bounds |effect_magnitude| so weighted sums stay finite.
// Keep in sync with the validate tag on Observation.EffectMagnitude.
const MaxEffectMagnitude = 1e6

// Observation is one recorded study for a practice. Values are copied
// into evidence bodies and never mutated afterwards.
type Observation struct {
	ID              uuid.UUID `json:"id"`
	PracticeID      uuid.UUID `json:"practice_id"`
	EffectMagnitude float64   `json:"effect_magnitude" validate:"finite,gte=-1e6,lte=1e6"`
	SampleSize      int       `json:"sample_size" validate:"gte=0"`
	Significance    float64   `json:"significance" validate:"gte=0,lte=1"`
	QualityWeight   float64   `json:"quality_weight" validate:"gte=0,lte=1"`
	StudyType       StudyType `json:"study_type,omitempty" validate:"omitempty,study_type"`
	Citation        string    `json:"citation,omitempty"`
	Year            int       `json:"year,omitempty" validate:"gte=0"`
	RecordedAt      time.Time `json:"recorded_at"`
}

// NewObservation builds and validates an observation from its four
// scoring inputs.
func NewObservation(effect float64, sampleSize int, significance, qualityWeight float64) (Observation, error) {
	o := Observation{
		EffectMagnitude: effect,
		SampleSize:      sampleSize,
		Significance:    significance,
		QualityWeight:   qualityWeight,
	}
	if err := o.Validate(); err != nil {
		return Observation{}, err
	}
	return o, nil
}

func (o Observation) Validate() error {
	return structErrors(o, "observation", -1)
}

// IsSignificant reports whether the observation clears the given cutoff.
func (o Observation) IsSignificant(cutoff float64) bool {
	return o.Significance < cutoff
}

// ValidateObservations checks every observation and reports each failure
// with its index.
func ValidateObservations(obs []Observation) error {
	var errs []error
	for i, o := range obs {
		if err := structErrors(o, "observation", i); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
