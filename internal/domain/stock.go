package domain

import (
	"time"

	"github.com/google/uuid"
)

// Removal motifs recorded in the archive
const (
	MotifConsumed = "consumed"
	MotifGifted   = "gifted"
	MotifBroken   = "broken"
)

// Lot is a quantity of one bottle type stored on a shelf, optionally at a
// slot. Quantity is strictly positive while the lot exists: a lot whose
// quantity reaches zero is deleted, never kept as a zero row.
type Lot struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ShelfID   uuid.UUID `json:"shelf_id" db:"shelf_id"`
	BottleID  uuid.UUID `json:"bottle_id" db:"bottle_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	Slot      *int      `json:"slot,omitempty" db:"slot"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// RemovalRecord is an append-only archive entry. BottleID and ShelfID are
// snapshots taken when the removal happened, not live references: the lot
// and even the shelf may be gone by the time the record is read.
type RemovalRecord struct {
	ID        uuid.UUID `json:"id" db:"id"`
	LotID     uuid.UUID `json:"lot_id" db:"lot_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	BottleID  uuid.UUID `json:"bottle_id" db:"bottle_id"`
	ShelfID   uuid.UUID `json:"shelf_id" db:"shelf_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	Motif     string    `json:"motif" db:"motif"`
	RemovedAt time.Time `json:"removed_at" db:"removed_at"`
}

// StockEntry is a lot enriched with its shelf and bottle for the owner view
type StockEntry struct {
	LotID         uuid.UUID `json:"lot_id"`
	ShelfID       uuid.UUID `json:"shelf_id"`
	ShelfName     string    `json:"shelf_name"`
	ShelfCapacity int       `json:"shelf_capacity"`
	Slot          *int      `json:"slot,omitempty"`
	Quantity      int       `json:"quantity"`
	Bottle        Bottle    `json:"bottle"`
}

// HistoryEntry is an archive record joined against the current catalog and
// shelf registry. ShelfName falls back to a placeholder when the shelf has
// been deleted since the removal.
type HistoryEntry struct {
	RemovedAt time.Time `json:"removed_at"`
	Quantity  int       `json:"quantity"`
	Motif     string    `json:"motif"`
	Bottle    Bottle    `json:"bottle"`
	ShelfName string    `json:"shelf_name"`
}
