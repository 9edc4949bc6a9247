package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Tier is the evidentiary layer a practice occupies in the pyramid.
// Ordered EDGE < MIDDLE < FOUNDATION.
type Tier string

const (
	TierEdge       Tier = "EDGE"
	TierMiddle     Tier = "MIDDLE"
	TierFoundation Tier = "FOUNDATION"
)

const (
	DefaultMiddleThreshold     = 1.2
	DefaultFoundationThreshold = 1.5
)

// TierThresholds are the lower bounds (inclusive) of the MIDDLE and
// FOUNDATION tiers.
type TierThresholds struct {
	Middle     float64 `yaml:"middle" json:"middle" validate:"gte=0"`
	Foundation float64 `yaml:"foundation" json:"foundation" validate:"gtfield=Middle"`
}

func DefaultTierThresholds() TierThresholds {
	return TierThresholds{
		Middle:     DefaultMiddleThreshold,
		Foundation: DefaultFoundationThreshold,
	}
}

func ComputeTier(score float64, th TierThresholds) Tier {
	switch {
	case score >= th.Foundation:
		return TierFoundation
	case score >= th.Middle:
		return TierMiddle
	default:
		return TierEdge
	}
}

// Ordinal returns 0, 1, 2 for EDGE, MIDDLE, FOUNDATION and -1 for anything else.
func (t Tier) Ordinal() int {
	switch t {
	case TierEdge:
		return 0
	case TierMiddle:
		return 1
	case TierFoundation:
		return 2
	}
	return -1
}

func (t Tier) Valid() bool {
	return t.Ordinal() >= 0
}

func TierReason(score float64, th TierThresholds) string {
	switch ComputeTier(score, th) {
	case TierFoundation:
		return fmt.Sprintf("strength >= %.2f", th.Foundation)
	case TierMiddle:
		return fmt.Sprintf("%.2f <= strength < %.2f", th.Middle, th.Foundation)
	default:
		return fmt.Sprintf("strength < %.2f", th.Middle)
	}
}

// AllTiers returns the tiers from the top of the pyramid down.
func AllTiers() []Tier {
	return []Tier{TierFoundation, TierMiddle, TierEdge}
}

func ValidTier(t string) bool {
	return Tier(t).Valid()
}

type Direction string

const (
	DirectionPromote Direction = "PROMOTE"
	DirectionDemote  Direction = "DEMOTE"
)

// TierTransition records when a practice moves between tiers.
type TierTransition struct {
	ID            uuid.UUID `json:"id"`
	PracticeID    uuid.UUID `json:"practice_id"`
	PracticeName  string    `json:"practice_name"`
	FromTier      Tier      `json:"from_tier"`
	ToTier        Tier      `json:"to_tier"`
	StrengthScore float64   `json:"strength_score"`
	Direction     Direction `json:"direction"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// LayerAssignments maps each tier to the practice names it holds.
type LayerAssignments map[Tier][]string
