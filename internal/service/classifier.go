package service

import (
	"math"

	"github.com/Harshitk-cp/pyramid/internal/domain"
)

// Classifier computes truth pressure (Π) for an evidence body and maps it
// onto a pyramid tier. It holds no mutable state and is safe for
// concurrent use.
type Classifier struct {
	cfg domain.ClassifierConfig
}

func NewClassifier(cfg domain.ClassifierConfig) *Classifier {
	return &Classifier{cfg: cfg}
}

func (c *Classifier) Config() domain.ClassifierConfig {
	return c.cfg
}

// WeightedEffect scales an observation's effect by its quality and by its
// sample size relative to SampleNorm.
func (c *Classifier) WeightedEffect(o domain.Observation) float64 {
	sizeWeight := math.Min(1.0, float64(o.SampleSize)/c.cfg.SampleNorm)
	return o.EffectMagnitude * o.QualityWeight * sizeWeight
}

// Analyze returns every factor of the Π calculation.
//
//	Π = max(0, mean_weighted * consistency * avg_quality / noise)
func (c *Classifier) Analyze(body domain.EvidenceBody) domain.StrengthBreakdown {
	n := len(body.Observations)
	if n == 0 {
		return domain.StrengthBreakdown{Consistency: 1.0, Noise: 1.0}
	}

	var (
		sumWeighted, scaledWeighted float64
		sumQuality, sumSamples      float64
		significant                 int
		maxW                        = math.Inf(-1)
		minW                        = math.Inf(1)
	)
	for _, o := range body.Observations {
		w := c.WeightedEffect(o)
		sumWeighted += w
		scaledWeighted += w / float64(n)
		maxW = math.Max(maxW, w)
		minW = math.Min(minW, w)
		sumQuality += o.QualityWeight
		sumSamples += float64(o.SampleSize)
		if o.IsSignificant(c.cfg.SignificanceCutoff) {
			significant++
		}
	}

	count := float64(n)
	mean := sumWeighted / count
	if math.IsInf(sumWeighted, 0) {
		mean = scaledWeighted
	}

	consistency := 1.0
	if n > 1 {
		// Halved on both sides so maxW-minW cannot overflow.
		halfSpread := maxW/2 - minW/2
		consistency = clamp(1-halfSpread/((math.Abs(mean)+c.cfg.ConsistencyEpsilon)/2), 0, 1)
	}

	sampleFactor := math.Min(1.0, (sumSamples/count)/c.cfg.NoiseSampleNorm)
	sigRatio := float64(significant) / count
	noise := clamp(1-sampleFactor*sigRatio, c.cfg.NoiseFloor, 1.0)

	avgQuality := sumQuality / count
	strength := math.Max(0.0, (mean*consistency*avgQuality)/noise)
	switch {
	case math.IsNaN(strength):
		strength = 0
	case math.IsInf(strength, 1):
		strength = math.MaxFloat64
	}

	return domain.StrengthBreakdown{
		ObservationCount:   n,
		MeanWeightedEffect: mean,
		Consistency:        consistency,
		AverageQuality:     avgQuality,
		SampleFactor:       sampleFactor,
		SignificanceRatio:  sigRatio,
		Noise:              noise,
		StrengthScore:      strength,
	}
}

func (c *Classifier) ComputeStrength(body domain.EvidenceBody) float64 {
	return c.Analyze(body).StrengthScore
}

func (c *Classifier) ClassifyTier(score float64) domain.Tier {
	return domain.ComputeTier(score, c.cfg.Thresholds)
}

func (c *Classifier) Classify(body domain.EvidenceBody) domain.ClassificationResult {
	score := c.ComputeStrength(body)
	return domain.ClassificationResult{
		PracticeName:  body.PracticeName,
		StrengthScore: score,
		Tier:          c.ClassifyTier(score),
	}
}

// DetectTransition compares a freshly computed result against the tier
// previously recorded for the practice. A nil or unknown previous tier
// (first classification) and an unchanged tier both yield nil.
func (c *Classifier) DetectTransition(previous *domain.Tier, result domain.ClassificationResult) *domain.TierTransition {
	if previous == nil || !previous.Valid() || *previous == result.Tier {
		return nil
	}

	direction := domain.DirectionPromote
	if result.Tier.Ordinal() < previous.Ordinal() {
		direction = domain.DirectionDemote
	}

	return &domain.TierTransition{
		PracticeName:  result.PracticeName,
		FromTier:      *previous,
		ToTier:        result.Tier,
		StrengthScore: result.StrengthScore,
		Direction:     direction,
		Reason:        domain.TierReason(result.StrengthScore, c.cfg.Thresholds),
	}
}

// clamp maps NaN to lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
