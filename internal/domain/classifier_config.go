package domain

const (
	DefaultSampleNorm         = 100.0
	DefaultNoiseSampleNorm    = 200.0
	DefaultSignificanceCutoff = 0.05
	DefaultConsistencyEpsilon = 0.1
	DefaultNoiseFloor         = 0.1
	DefaultConflictMargin     = 0.3
)

// ClassifierConfig holds every constant of the truth-pressure formula.
type ClassifierConfig struct {
	// SampleNorm caps the sample-size weight of a single observation.
	SampleNorm float64 `yaml:"sample_norm" json:"sample_norm" validate:"gt=0"`
	// NoiseSampleNorm normalises the mean sample size in the noise term.
	NoiseSampleNorm    float64        `yaml:"noise_sample_norm" json:"noise_sample_norm" validate:"gt=0"`
	SignificanceCutoff float64        `yaml:"significance_cutoff" json:"significance_cutoff" validate:"gt=0,lte=1"`
	ConsistencyEpsilon float64        `yaml:"consistency_epsilon" json:"consistency_epsilon" validate:"gt=0"`
	NoiseFloor         float64        `yaml:"noise_floor" json:"noise_floor" validate:"gt=0,lte=1"`
	Thresholds         TierThresholds `yaml:"thresholds" json:"thresholds"`
	// ConflictMargin is the Π gap at which one of two contradicting
	// practices is declared the winner during a cascade.
	ConflictMargin float64 `yaml:"conflict_margin" json:"conflict_margin" validate:"gte=0"`
}

func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		SampleNorm:         DefaultSampleNorm,
		NoiseSampleNorm:    DefaultNoiseSampleNorm,
		SignificanceCutoff: DefaultSignificanceCutoff,
		ConsistencyEpsilon: DefaultConsistencyEpsilon,
		NoiseFloor:         DefaultNoiseFloor,
		Thresholds:         DefaultTierThresholds(),
		ConflictMargin:     DefaultConflictMargin,
	}
}

func (c ClassifierConfig) Validate() error {
	return structErrors(c, "classifier config", -1)
}
