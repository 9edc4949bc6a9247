package domain

import (
	"errors"
	"fmt"
)

// EvidenceBody is the ordered, append-only collection of observations for
// one practice. Append returns a new body; existing readers keep their
// snapshot.
type EvidenceBody struct {
	PracticeName string        `json:"practice_name"`
	Observations []Observation `json:"observations"`
}

func NewEvidenceBody(practiceName string, obs ...Observation) (EvidenceBody, error) {
	if err := ValidateObservations(obs); err != nil {
		return EvidenceBody{}, err
	}
	cp := make([]Observation, len(obs))
	copy(cp, obs)
	return EvidenceBody{PracticeName: practiceName, Observations: cp}, nil
}

func (b EvidenceBody) Append(o Observation) (EvidenceBody, error) {
	if err := o.Validate(); err != nil {
		return b, fmt.Errorf("append to %q: %w", b.PracticeName, reindex(err, len(b.Observations)))
	}
	next := make([]Observation, len(b.Observations), len(b.Observations)+1)
	copy(next, b.Observations)
	next = append(next, o)
	return EvidenceBody{PracticeName: b.PracticeName, Observations: next}, nil
}

func (b EvidenceBody) Len() int {
	return len(b.Observations)
}

// reindex stamps the batch position onto validation errors raised for a
// single observation.
func reindex(err error, index int) error {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		var ve *ValidationError
		if errors.As(err, &ve) {
			cp := *ve
			cp.Index = index
			return &cp
		}
		return err
	}
	var out []error
	for _, e := range joined.Unwrap() {
		out = append(out, reindex(e, index))
	}
	return errors.Join(out...)
}

// EvidenceSummary describes the raw evidence behind a practice.
type EvidenceSummary struct {
	PracticeName        string                `json:"practice_name"`
	NumStudies          int                   `json:"num_studies"`
	StrengthScore       float64               `json:"strength_score"`
	Tier                Tier                  `json:"tier"`
	MeanEffectSize      float64               `json:"mean_effect_size"`
	SignificantStudies  int                   `json:"significant_studies"`
	AverageSampleSize   float64               `json:"avg_sample_size"`
	QualityDistribution map[QualityRating]int `json:"quality_distribution"`
}

// Summarize tallies the body. Strength and tier are left to the caller.
func Summarize(b EvidenceBody, significanceCutoff float64) EvidenceSummary {
	s := EvidenceSummary{
		PracticeName:        b.PracticeName,
		NumStudies:          len(b.Observations),
		QualityDistribution: make(map[QualityRating]int, len(qualityWeights)),
	}
	for _, q := range AllQualityRatings() {
		s.QualityDistribution[q] = 0
	}
	if len(b.Observations) == 0 {
		return s
	}

	var effects, samples float64
	for _, o := range b.Observations {
		effects += o.EffectMagnitude
		samples += float64(o.SampleSize)
		if o.IsSignificant(significanceCutoff) {
			s.SignificantStudies++
		}
		if q := RatingForWeight(o.QualityWeight); q != "" {
			s.QualityDistribution[q]++
		}
	}
	n := float64(len(b.Observations))
	s.MeanEffectSize = effects / n
	s.AverageSampleSize = samples / n
	return s
}
