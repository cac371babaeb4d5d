package repository

import (
	"context"
	"database/sql"
	"fmt"

	"winecellar/internal/domain"

	"github.com/google/uuid"
)

const deletedShelfLabel = "(shelf deleted)"

// ArchiveRepository is the append-only removal archive. Records are never
// mutated or deleted through this repository.
type ArchiveRepository interface {
	// Append inserts one removal record. It takes a Querier so the lot
	// ledger can run it inside the same transaction as the decrement.
	Append(ctx context.Context, q Querier, record *domain.RemovalRecord) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.HistoryEntry, error)
}

type archiveRepository struct {
	db *sql.DB
}

// NewArchiveRepository creates a new instance of ArchiveRepository
func NewArchiveRepository(db *sql.DB) ArchiveRepository {
	return &archiveRepository{db: db}
}

// Append inserts a removal record using parameterized queries
func (r *archiveRepository) Append(ctx context.Context, q Querier, record *domain.RemovalRecord) error {
	query := `
		INSERT INTO removal_archive (id, lot_id, user_id, bottle_id, shelf_id, quantity, motif, removed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := q.ExecContext(
		ctx,
		query,
		record.ID,
		record.LotID,
		record.UserID,
		record.BottleID,
		record.ShelfID,
		record.Quantity,
		record.Motif,
		record.RemovedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to append removal record: %w", err)
	}

	return nil
}

// ListForUser returns the user's removal records newest first, left-joined
// against the current catalog and shelf registry so records referencing a
// since-deleted shelf render with a placeholder label instead of failing.
func (r *archiveRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.HistoryEntry, error) {
	query := `
		SELECT a.removed_at, a.quantity, a.motif,
		       a.bottle_id, b.domain, b.name, b.wine_type, b.vintage, b.region, b.price, b.image_url,
		       COALESCE(e.name, $2)
		FROM removal_archive a
		LEFT JOIN bottles b ON b.id = a.bottle_id
		LEFT JOIN shelves e ON e.id = a.shelf_id
		WHERE a.user_id = $1
		ORDER BY a.removed_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID, deletedShelfLabel)
	if err != nil {
		return nil, fmt.Errorf("failed to list removal history: %w", err)
	}
	defer rows.Close()

	entries := []*domain.HistoryEntry{}
	for rows.Next() {
		entry := &domain.HistoryEntry{}
		var (
			bDomain, bName, bType, bRegion sql.NullString
			bVintage                       sql.NullInt32
			bPrice                         sql.NullFloat64
			imageURL                       sql.NullString
		)
		err := rows.Scan(
			&entry.RemovedAt,
			&entry.Quantity,
			&entry.Motif,
			&entry.Bottle.ID,
			&bDomain,
			&bName,
			&bType,
			&bVintage,
			&bRegion,
			&bPrice,
			&imageURL,
			&entry.ShelfName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entry.Bottle.Domain = bDomain.String
		entry.Bottle.Name = bName.String
		entry.Bottle.WineType = bType.String
		entry.Bottle.Vintage = int(bVintage.Int32)
		entry.Bottle.Region = bRegion.String
		entry.Bottle.Price = bPrice.Float64
		if imageURL.Valid {
			entry.Bottle.ImageURL = &imageURL.String
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history entries: %w", err)
	}

	return entries, nil
}
