package domain

import (
	"time"

	"github.com/google/uuid"
)

// Bottle is a catalog entry. Bottles are immutable once created; lots
// reference them but never own them.
type Bottle struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Domain    string    `json:"domain" db:"domain"`
	Name      string    `json:"name" db:"name"`
	WineType  string    `json:"wine_type" db:"wine_type"`
	Vintage   int       `json:"vintage" db:"vintage"`
	Region    string    `json:"region" db:"region"`
	Price     float64   `json:"price" db:"price"`
	ImageURL  *string   `json:"image_url,omitempty" db:"image_url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// BottleRef is the light projection used by pickers (id + name + vintage + domain)
type BottleRef struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Vintage int       `json:"vintage"`
	Domain  string    `json:"domain"`
}

// BottleDetail is a bottle with its review aggregate and reviews
type BottleDetail struct {
	Bottle
	AverageScore *float64        `json:"average_score,omitempty"`
	Reviews      []*BottleReview `json:"reviews"`
}
