package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Harshitk-cp/pyramid/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultCascadeInterval = 1 * time.Hour
	DefaultCascadeWorkers  = 4
	DefaultCascadeLimit    = 20
)

var ErrCascadeRunning = errors.New("a cascade is already running for this school")

// CascadeService re-evaluates a school's whole pyramid: every practice is
// reclassified, tier changes are collected as promotions and demotions,
// and contradicting practices are compared for conflicts.
type CascadeService struct {
	schools     domain.SchoolStore
	practices   domain.PracticeStore
	cascades    domain.CascadeStore
	practiceSvc *PracticeService
	logger      *zap.Logger

	workers  int
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup

	mu      sync.Mutex
	running map[uuid.UUID]bool
}

func NewCascadeService(ss domain.SchoolStore, ps domain.PracticeStore, cs domain.CascadeStore, practiceSvc *PracticeService, logger *zap.Logger) *CascadeService {
	return &CascadeService{
		schools:     ss,
		practices:   ps,
		cascades:    cs,
		practiceSvc: practiceSvc,
		logger:      logger,
		workers:     DefaultCascadeWorkers,
		interval:    defaultCascadeInterval,
		stopCh:      make(chan struct{}),
		running:     make(map[uuid.UUID]bool),
	}
}

func (s *CascadeService) SetInterval(d time.Duration) {
	s.interval = d
}

func (s *CascadeService) SetWorkers(n int) {
	if n > 0 {
		s.workers = n
	}
}

// Start runs a cascade for every school on a periodic schedule.
func (s *CascadeService) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("cascade worker started", zap.Duration("interval", s.interval))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				s.runAll(ctx)
				cancel()
			case <-s.stopCh:
				s.logger.Info("cascade worker stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the cascade worker.
func (s *CascadeService) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *CascadeService) runAll(ctx context.Context) {
	ids, err := s.schools.ListIDs(ctx)
	if err != nil {
		s.logger.Error("failed to list schools for cascade", zap.Error(err))
		return
	}
	for _, id := range ids {
		if _, err := s.Run(ctx, id); err != nil && !errors.Is(err, ErrCascadeRunning) {
			s.logger.Warn("cascade run failed",
				zap.String("school_id", id.String()),
				zap.Error(err))
		}
	}
}

func (s *CascadeService) acquire(schoolID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[schoolID] {
		return false
	}
	s.running[schoolID] = true
	return true
}

func (s *CascadeService) release(schoolID uuid.UUID) {
	s.mu.Lock()
	delete(s.running, schoolID)
	s.mu.Unlock()
}

// Run reclassifies every practice of the school and stores the run. If a
// reclassification fails, the partial run is still stored with Error set
// and returned alongside the error.
func (s *CascadeService) Run(ctx context.Context, schoolID uuid.UUID) (*domain.CascadeRun, error) {
	if !s.acquire(schoolID) {
		return nil, ErrCascadeRunning
	}
	defer s.release(schoolID)

	start := time.Now()
	status := "ok"
	defer func() {
		cascadeDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	}()

	run, err := s.evaluate(ctx, schoolID, start)
	if err != nil {
		status = "error"
		if run == nil {
			return nil, err
		}
		if cerr := s.cascades.Create(ctx, run); cerr != nil {
			s.logger.Error("failed to store partial cascade run",
				zap.String("cascade_id", run.ID.String()), zap.Error(cerr))
		}
		s.logger.Warn("cascade stopped early",
			zap.String("school_id", schoolID.String()),
			zap.String("cascade_id", run.ID.String()),
			zap.Int("promotions", len(run.Promotions)),
			zap.Int("demotions", len(run.Demotions)),
			zap.Error(err))
		return run, err
	}

	if err := s.cascades.Create(ctx, run); err != nil {
		status = "error"
		return nil, err
	}
	cascadeConflicts.Add(float64(len(run.Conflicts)))

	s.logger.Info("cascade completed",
		zap.String("school_id", schoolID.String()),
		zap.String("cascade_id", run.ID.String()),
		zap.Int("evaluated", run.Evaluated),
		zap.Int("promotions", len(run.Promotions)),
		zap.Int("demotions", len(run.Demotions)),
		zap.Int("conflicts", len(run.Conflicts)),
		zap.Duration("duration", run.CompletedAt.Sub(run.StartedAt)))

	return run, nil
}

func (s *CascadeService) evaluate(ctx context.Context, schoolID uuid.UUID, start time.Time) (*domain.CascadeRun, error) {
	practices, err := s.practices.List(ctx, schoolID)
	if err != nil {
		return nil, err
	}

	run := &domain.CascadeRun{
		ID:         uuid.New(),
		SchoolID:   schoolID,
		Evaluated:  len(practices),
		Promotions: []domain.TierTransition{},
		Demotions:  []domain.TierTransition{},
		StartedAt:  start,
	}
	reason := fmt.Sprintf("cascade %s", run.ID)

	var mu sync.Mutex
	scores := make(map[string]float64, len(practices))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, p := range practices {
		g.Go(func() error {
			rc, err := s.practiceSvc.Reclassify(gctx, p, reason)
			if err != nil {
				return fmt.Errorf("reclassify %q: %w", p.Name, err)
			}

			mu.Lock()
			defer mu.Unlock()
			scores[p.Name] = rc.Classification.StrengthScore
			if ev := rc.Transition; ev != nil {
				if ev.Direction == domain.DirectionPromote {
					run.Promotions = append(run.Promotions, *ev)
				} else {
					run.Demotions = append(run.Demotions, *ev)
				}
			}
			return nil
		})
	}
	err = g.Wait()

	sortTransitions(run.Promotions)
	sortTransitions(run.Demotions)
	run.Conflicts = DetectConflicts(practices, scores, s.practiceSvc.Classifier().Config().ConflictMargin)
	run.CompletedAt = time.Now()
	if err != nil {
		run.Error = err.Error()
		return run, err
	}
	return run, nil
}

// DetectConflicts reports every contradiction where the declaring
// practice outscores the contradicted one by more than margin. Names that
// are not in scores are ignored.
func DetectConflicts(practices []domain.Practice, scores map[string]float64, margin float64) []domain.Conflict {
	conflicts := []domain.Conflict{}
	for _, p := range practices {
		pi, ok := scores[p.Name]
		if !ok {
			continue
		}
		for _, other := range p.Contradicts {
			otherPi, ok := scores[other]
			if !ok {
				continue
			}
			if pi > otherPi+margin {
				conflicts = append(conflicts, domain.Conflict{
					Winner:      p.Name,
					Loser:       other,
					WinnerScore: pi,
					LoserScore:  otherPi,
				})
			}
		}
	}
	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].Winner != conflicts[j].Winner {
			return conflicts[i].Winner < conflicts[j].Winner
		}
		return conflicts[i].Loser < conflicts[j].Loser
	})
	return conflicts
}

func sortTransitions(ts []domain.TierTransition) {
	sort.Slice(ts, func(i, j int) bool {
		return ts[i].PracticeName < ts[j].PracticeName
	})
}

func (s *CascadeService) List(ctx context.Context, schoolID uuid.UUID, limit int) ([]domain.CascadeRun, error) {
	if limit <= 0 {
		limit = DefaultCascadeLimit
	}
	return s.cascades.ListBySchool(ctx, schoolID, limit)
}
