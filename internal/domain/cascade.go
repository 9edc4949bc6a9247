package domain

import (
	"time"

	"github.com/google/uuid"
)

// Conflict records two contradicting practices whose strength differs by
// more than the configured margin.
type Conflict struct {
	Winner      string  `json:"winner"`
	Loser       string  `json:"loser"`
	WinnerScore float64 `json:"pi_winner"`
	LoserScore  float64 `json:"pi_loser"`
}

// CascadeRun is one full re-evaluation of a school's pyramid.
type CascadeRun struct {
	ID          uuid.UUID        `json:"id"`
	SchoolID    uuid.UUID        `json:"school_id"`
	Evaluated   int              `json:"evaluated"`
	Promotions  []TierTransition `json:"promotions"`
	Demotions   []TierTransition `json:"demotions"`
	Conflicts   []Conflict       `json:"conflicts"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt time.Time        `json:"completed_at"`
	// Error is set when the run stopped early. The transitions listed are
	// the ones that were persisted before the failure.
	Error string `json:"error,omitempty"`
}
