package domain

import (
	"time"

	"github.com/google/uuid"
)

// Cellar is a user's top-level storage collection. Each user owns exactly one.
type Cellar struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Shelf is a capacity-bounded container of lots inside a cellar. The sum of
// active lot quantities on a shelf never exceeds Capacity.
type Shelf struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CellarID  uuid.UUID `json:"cellar_id" db:"cellar_id"`
	Name      string    `json:"name" db:"name"`
	Capacity  int       `json:"capacity" db:"capacity"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ShelfSummary is a shelf with its remaining capacity
type ShelfSummary struct {
	Shelf
	CapacityLeft int `json:"capacity_left"`
}
