package domain

import (
	"time"

	"github.com/google/uuid"
)

// Review is a rating and/or comment left on a bottle. Score is on a 0..20
// scale and optional (comment-only reviews are allowed).
type Review struct {
	ID        uuid.UUID `json:"id" db:"id"`
	BottleID  uuid.UUID `json:"bottle_id" db:"bottle_id"`
	AuthorID  uuid.UUID `json:"author_id" db:"author_id"`
	Score     *float64  `json:"score,omitempty" db:"score"`
	Comment   *string   `json:"comment,omitempty" db:"comment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// BottleReview is a review enriched with its author's display name
type BottleReview struct {
	Review
	AuthorName string `json:"author_name"`
}

// CommunityReview is a review joined with its bottle for the community feed
type CommunityReview struct {
	Review
	AuthorName string `json:"author_name"`
	Bottle     Bottle `json:"bottle"`
}

// TopRatedBottle is a bottle with its review aggregate
type TopRatedBottle struct {
	Bottle      Bottle  `json:"bottle"`
	Average     float64 `json:"average"`
	ReviewCount int     `json:"review_count"`
}

// UserStats are the dashboard KPIs
type UserStats struct {
	Bottles  int              `json:"bottles"`
	Lots     int              `json:"lots"`
	Value    float64          `json:"value"`
	Drunk    int              `json:"drunk"`
	Reviews  int              `json:"reviews"`
	TopRated []TopRatedBottle `json:"top_rated"`
}
