package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/Harshitk-cp/pyramid/internal/domain"
	"github.com/Harshitk-cp/pyramid/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrPracticeNotFound    = errors.New("practice not found")
	ErrPracticeConflict    = errors.New("practice with this name already exists")
	ErrPracticeNameMissing = errors.New("practice name is required")
	ErrInvalidTier         = errors.New("invalid tier")
	ErrSelfContradiction   = errors.New("a practice cannot contradict itself")
)

const (
	DefaultTransitionLimit = 50
	DefaultSimilarLimit    = 5
)

// Classification is a freshly computed result together with the factors
// that produced it.
type Classification struct {
	domain.ClassificationResult
	Breakdown  domain.StrengthBreakdown `json:"breakdown"`
	TierReason string                   `json:"tier_reason"`
}

// Reclassification is the outcome of recomputing and persisting a
// practice's tier.
type Reclassification struct {
	Practice       *domain.Practice
	Classification Classification
	Transition     *domain.TierTransition
}

type RecordResult struct {
	Observation    domain.Observation     `json:"observation"`
	Classification Classification         `json:"classification"`
	Transition     *domain.TierTransition `json:"transition,omitempty"`
}

// PracticeService owns the catalog side of classification: it stores
// evidence, keeps each practice's current tier and emits transitions.
type PracticeService struct {
	practices    domain.PracticeStore
	observations domain.ObservationStore
	transitions  domain.TransitionStore
	snapshots    domain.SnapshotStore
	classifier   *Classifier
	logger       *zap.Logger
	locks        *practiceLocks
}

func NewPracticeService(
	ps domain.PracticeStore,
	obs domain.ObservationStore,
	ts domain.TransitionStore,
	ss domain.SnapshotStore,
	classifier *Classifier,
	logger *zap.Logger,
) *PracticeService {
	return &PracticeService{
		practices:    ps,
		observations: obs,
		transitions:  ts,
		snapshots:    ss,
		classifier:   classifier,
		logger:       logger,
		locks:        newPracticeLocks(),
	}
}

func (s *PracticeService) Classifier() *Classifier {
	return s.classifier
}

// Create registers a practice. A non-nil Tier is taken as the practice's
// starting layer; otherwise the first classification sets it.
func (s *PracticeService) Create(ctx context.Context, p *domain.Practice) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return ErrPracticeNameMissing
	}
	if p.Tier != nil && !p.Tier.Valid() {
		return ErrInvalidTier
	}
	for _, c := range p.Contradicts {
		if strings.TrimSpace(c) == p.Name {
			return ErrSelfContradiction
		}
	}

	if err := s.practices.Create(ctx, p); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return ErrPracticeConflict
		}
		return err
	}
	return nil
}

func (s *PracticeService) Get(ctx context.Context, schoolID uuid.UUID, name string) (*domain.Practice, error) {
	p, err := s.practices.GetByName(ctx, schoolID, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPracticeNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *PracticeService) List(ctx context.Context, schoolID uuid.UUID) ([]domain.Practice, error) {
	return s.practices.List(ctx, schoolID)
}

// getOrCreate returns the named practice, creating an empty one on first
// reference.
func (s *PracticeService) getOrCreate(ctx context.Context, schoolID uuid.UUID, name string) (*domain.Practice, error) {
	p, err := s.practices.GetByName(ctx, schoolID, name)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	p = &domain.Practice{SchoolID: schoolID, Name: name}
	if err := s.practices.Create(ctx, p); err != nil {
		if errors.Is(err, store.ErrConflict) {
			// Lost a race with a concurrent first reference.
			return s.practices.GetByName(ctx, schoolID, name)
		}
		return nil, err
	}

	s.logger.Info("practice registered on first observation",
		zap.String("school_id", schoolID.String()),
		zap.String("practice", name))
	return p, nil
}

// RecordObservation appends a validated observation to the practice's
// evidence body and reclassifies it.
func (s *PracticeService) RecordObservation(ctx context.Context, schoolID uuid.UUID, name string, o domain.Observation) (*RecordResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrPracticeNameMissing
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}

	p, err := s.getOrCreate(ctx, schoolID, name)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(p.ID)
	defer unlock()

	o.PracticeID = p.ID
	if err := s.observations.Append(ctx, &o); err != nil {
		return nil, err
	}
	observationsTotal.Inc()

	rc, err := s.reclassifyLocked(ctx, schoolID, name, "observation recorded")
	if err != nil {
		return nil, err
	}

	return &RecordResult{
		Observation:    o,
		Classification: rc.Classification,
		Transition:     rc.Transition,
	}, nil
}

// Reclassify recomputes the practice's tier from its full evidence body,
// persists it and records a transition when the tier changed.
func (s *PracticeService) Reclassify(ctx context.Context, p domain.Practice, reason string) (*Reclassification, error) {
	unlock := s.locks.lock(p.ID)
	defer unlock()
	return s.reclassifyLocked(ctx, p.SchoolID, p.Name, reason)
}

func (s *PracticeService) reclassifyLocked(ctx context.Context, schoolID uuid.UUID, name, reason string) (*Reclassification, error) {
	// Re-read under the lock so the previous tier is current.
	p, err := s.Get(ctx, schoolID, name)
	if err != nil {
		return nil, err
	}

	body, err := s.evidenceFor(ctx, p)
	if err != nil {
		return nil, err
	}

	c := s.classify(body)
	ev := s.classifier.DetectTransition(p.Tier, c.ClassificationResult)

	if err := s.practices.UpdateClassification(ctx, p.ID, c.Tier, c.StrengthScore); err != nil {
		return nil, err
	}
	classificationsTotal.WithLabelValues(string(c.Tier)).Inc()
	strengthScores.Observe(c.StrengthScore)

	s.logger.Debug("practice classified",
		zap.String("practice", p.Name),
		zap.Int("observations", body.Len()),
		zap.Float64("strength_score", c.StrengthScore),
		zap.String("tier", string(c.Tier)))

	if ev != nil {
		ev.PracticeID = p.ID
		if reason != "" {
			ev.Reason = reason + "; " + ev.Reason
		}
		if err := s.transitions.Create(ctx, ev); err != nil {
			return nil, err
		}
		transitionsTotal.WithLabelValues(string(ev.Direction), string(ev.ToTier)).Inc()

		s.logger.Info("practice tier changed",
			zap.String("school_id", schoolID.String()),
			zap.String("practice", p.Name),
			zap.String("direction", string(ev.Direction)),
			zap.String("from_tier", string(ev.FromTier)),
			zap.String("to_tier", string(ev.ToTier)),
			zap.Float64("strength_score", ev.StrengthScore))
	}

	snap := &domain.ClassificationSnapshot{
		PracticeID:   p.ID,
		SchoolID:     schoolID,
		PracticeName: p.Name,
		Tier:         c.Tier,
		Breakdown:    c.Breakdown,
	}
	if err := s.snapshots.Upsert(ctx, snap); err != nil {
		s.logger.Warn("failed to store classification snapshot",
			zap.String("practice", p.Name),
			zap.Error(err))
	}

	tier := c.Tier
	p.Tier = &tier
	p.StrengthScore = c.StrengthScore

	return &Reclassification{Practice: p, Classification: c, Transition: ev}, nil
}

func (s *PracticeService) classify(body domain.EvidenceBody) Classification {
	b := s.classifier.Analyze(body)
	cfg := s.classifier.Config()
	return Classification{
		ClassificationResult: domain.ClassificationResult{
			PracticeName:  body.PracticeName,
			StrengthScore: b.StrengthScore,
			Tier:          s.classifier.ClassifyTier(b.StrengthScore),
		},
		Breakdown:  b,
		TierReason: domain.TierReason(b.StrengthScore, cfg.Thresholds),
	}
}

func (s *PracticeService) evidenceFor(ctx context.Context, p *domain.Practice) (domain.EvidenceBody, error) {
	obs, err := s.observations.ListByPractice(ctx, p.ID)
	if err != nil {
		return domain.EvidenceBody{}, err
	}
	return domain.NewEvidenceBody(p.Name, obs...)
}

func (s *PracticeService) Evidence(ctx context.Context, schoolID uuid.UUID, name string) (domain.EvidenceBody, error) {
	p, err := s.Get(ctx, schoolID, name)
	if err != nil {
		return domain.EvidenceBody{}, err
	}
	return s.evidenceFor(ctx, p)
}

// Classify computes the practice's classification from its current
// evidence without touching the catalog.
func (s *PracticeService) Classify(ctx context.Context, schoolID uuid.UUID, name string) (*Classification, error) {
	body, err := s.Evidence(ctx, schoolID, name)
	if err != nil {
		return nil, err
	}
	c := s.classify(body)
	return &c, nil
}

// ClassifyBody classifies an ad-hoc evidence body. previous, when set,
// is compared against the result to produce a transition.
func (s *PracticeService) ClassifyBody(body domain.EvidenceBody, previous *domain.Tier) (Classification, *domain.TierTransition) {
	c := s.classify(body)
	return c, s.classifier.DetectTransition(previous, c.ClassificationResult)
}

func (s *PracticeService) Summary(ctx context.Context, schoolID uuid.UUID, name string) (*domain.EvidenceSummary, error) {
	body, err := s.Evidence(ctx, schoolID, name)
	if err != nil {
		return nil, err
	}
	summary := domain.Summarize(body, s.classifier.Config().SignificanceCutoff)
	res := s.classifier.Classify(body)
	summary.StrengthScore = res.StrengthScore
	summary.Tier = res.Tier
	return &summary, nil
}

// Pyramid groups the school's practices by their recorded tier. Practices
// that were never classified have no evidence and sit at the edge.
func (s *PracticeService) Pyramid(ctx context.Context, schoolID uuid.UUID) (domain.LayerAssignments, error) {
	practices, err := s.practices.List(ctx, schoolID)
	if err != nil {
		return nil, err
	}

	layers := make(domain.LayerAssignments, 3)
	for _, t := range domain.AllTiers() {
		layers[t] = []string{}
	}
	for _, p := range practices {
		tier := p.CurrentTier()
		if tier == "" {
			tier = domain.TierEdge
		}
		layers[tier] = append(layers[tier], p.Name)
	}
	for _, names := range layers {
		sort.Strings(names)
	}
	return layers, nil
}

func (s *PracticeService) Transitions(ctx context.Context, schoolID uuid.UUID, name string, limit int) ([]domain.TierTransition, error) {
	p, err := s.Get(ctx, schoolID, name)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultTransitionLimit
	}
	return s.transitions.ListByPractice(ctx, p.ID, limit)
}

// Similar finds practices whose evidence profile is closest to the named
// practice's.
func (s *PracticeService) Similar(ctx context.Context, schoolID uuid.UUID, name string, limit int) ([]domain.SnapshotWithScore, error) {
	p, err := s.Get(ctx, schoolID, name)
	if err != nil {
		return nil, err
	}
	body, err := s.evidenceFor(ctx, p)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultSimilarLimit
	}
	profile := s.classifier.Analyze(body).Profile()
	return s.snapshots.FindSimilar(ctx, schoolID, profile, p.ID, limit)
}
