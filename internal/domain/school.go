package domain

import (
	"time"

	"github.com/google/uuid"
)

// School owns an independent pyramid catalog and authenticates with its
// own API key.
type School struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	APIKeyHash string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
