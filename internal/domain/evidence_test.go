package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestEvidenceBody_AppendCopies(t *testing.T) {
	body, err := NewEvidenceBody("Breathwork")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	o, _ := NewObservation(0.42, 89, 0.03, 0.7)
	next, err := body.Append(o)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if body.Len() != 0 {
		t.Errorf("original body mutated: len %d", body.Len())
	}
	if next.Len() != 1 {
		t.Errorf("expected 1 observation, got %d", next.Len())
	}

	o2, _ := NewObservation(0.1, 10, 0.5, 0.4)
	a, _ := next.Append(o2)
	b, _ := next.Append(o)
	if a.Observations[1].EffectMagnitude == b.Observations[1].EffectMagnitude {
		t.Error("sibling appends must not share backing arrays")
	}
}

func TestEvidenceBody_AppendRejectsInvalid(t *testing.T) {
	o, _ := NewObservation(0.42, 89, 0.03, 0.7)
	body, _ := NewEvidenceBody("Reiki", o)

	_, err := body.Append(Observation{SampleSize: -3, Significance: 0.1, QualityWeight: 0.4})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if ve.Index != 1 {
		t.Errorf("expected index 1, got %d", ve.Index)
	}
	if !strings.Contains(err.Error(), "Reiki") {
		t.Errorf("expected practice name in %q", err.Error())
	}
}

func TestSummarize(t *testing.T) {
	a, _ := NewObservation(0.53, 209, 0.001, 1.0)
	b, _ := NewObservation(0.38, 142, 0.02, 0.7)
	c, _ := NewObservation(0.10, 40, 0.30, 0.4)
	body, _ := NewEvidenceBody("Mindfulness", a, b, c)

	s := Summarize(body, 0.05)
	if s.NumStudies != 3 {
		t.Errorf("NumStudies = %d, want 3", s.NumStudies)
	}
	if s.SignificantStudies != 2 {
		t.Errorf("SignificantStudies = %d, want 2", s.SignificantStudies)
	}
	if s.AverageSampleSize != 130.33333333333334 {
		t.Errorf("AverageSampleSize = %v", s.AverageSampleSize)
	}
	if s.QualityDistribution[QualityHigh] != 1 || s.QualityDistribution[QualityModerate] != 1 ||
		s.QualityDistribution[QualityLow] != 1 || s.QualityDistribution[QualityVeryLow] != 0 {
		t.Errorf("unexpected quality distribution %v", s.QualityDistribution)
	}
}

func TestSummarize_Empty(t *testing.T) {
	body, _ := NewEvidenceBody("Crystal Healing")
	s := Summarize(body, 0.05)
	if s.NumStudies != 0 || s.MeanEffectSize != 0 {
		t.Errorf("unexpected summary %+v", s)
	}
	if len(s.QualityDistribution) != 4 {
		t.Errorf("expected every rating present, got %v", s.QualityDistribution)
	}
}
