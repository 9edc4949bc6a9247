package domain

import (
	"time"

	"github.com/google/uuid"
)

// Practice is the catalog record for a named practice. Tier is nil until
// the practice has been classified once.
type Practice struct {
	ID            uuid.UUID  `json:"id"`
	SchoolID      uuid.UUID  `json:"school_id"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	Tier          *Tier      `json:"tier,omitempty"`
	StrengthScore float64    `json:"strength_score"`
	Contradicts   []string   `json:"contradicts,omitempty"`
	ClassifiedAt  *time.Time `json:"classified_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// CurrentTier returns the recorded tier, or "" when unclassified.
func (p *Practice) CurrentTier() Tier {
	if p.Tier == nil {
		return ""
	}
	return *p.Tier
}
