package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"winecellar/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrLotNotFound      = errors.New("lot not found")
	ErrCapacityExceeded = errors.New("not enough capacity left on shelf")
	ErrInvalidQuantity  = errors.New("invalid quantity")
)

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx. It
// lets the archive appender run inside the ledger's transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// StockRepository is the lot ledger: it owns the (shelf, slot) -> (bottle,
// quantity) mapping. Every mutation runs as one serializable transaction so
// the capacity check, the free-slot search and the write cannot be split by
// a concurrent placement.
type StockRepository interface {
	Place(ctx context.Context, shelfID, bottleID uuid.UUID, quantity int, slot *int) (*domain.Lot, error)
	Reslot(ctx context.Context, lotID uuid.UUID, slot *int) (*domain.Lot, error)
	Consume(ctx context.Context, lotID, userID uuid.UUID, quantity int, motif string) (*domain.RemovalRecord, error)
	FindLot(ctx context.Context, lotID uuid.UUID) (*domain.Lot, error)
	ListForOwner(ctx context.Context, userID uuid.UUID) ([]*domain.StockEntry, error)
	ListUnassignedForOwner(ctx context.Context, userID uuid.UUID) ([]*domain.StockEntry, error)
}

type stockRepository struct {
	db      *sql.DB
	archive ArchiveRepository
}

// NewStockRepository creates a new instance of StockRepository
func NewStockRepository(db *sql.DB, archive ArchiveRepository) StockRepository {
	return &stockRepository{db: db, archive: archive}
}

// Place stores quantity bottles on a shelf. When slot is nil or outside
// [1, capacity] the next free slot is resolved by an ascending scan. If an
// active lot already holds the exact (shelf, bottle, slot) triple its
// quantity is incremented in place instead of creating a second lot.
func (r *stockRepository) Place(ctx context.Context, shelfID, bottleID uuid.UUID, quantity int, slot *int) (*domain.Lot, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, fmt.Errorf("failed to begin placement transaction: %w", err)
	}
	defer tx.Rollback()

	shelf, err := lockShelf(ctx, tx, shelfID)
	if err != nil {
		return nil, err
	}

	left, err := capacityLeft(ctx, tx, shelfID, shelf.Capacity)
	if err != nil {
		return nil, err
	}
	if left < quantity {
		return nil, ErrCapacityExceeded
	}

	resolved := 0
	if slot != nil && *slot >= 1 && *slot <= shelf.Capacity {
		resolved = *slot
	} else {
		resolved, err = nextFreeSlot(ctx, tx, shelfID, shelf.Capacity)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	lot := &domain.Lot{}

	err = tx.QueryRowContext(ctx, `
		SELECT id, quantity, created_at
		FROM stock_lots
		WHERE shelf_id = $1 AND bottle_id = $2 AND slot = $3
		FOR UPDATE
	`, shelfID, bottleID, resolved).Scan(&lot.ID, &lot.Quantity, &lot.CreatedAt)

	switch {
	case err == sql.ErrNoRows:
		lot = &domain.Lot{
			ID:        uuid.New(),
			ShelfID:   shelfID,
			BottleID:  bottleID,
			Quantity:  quantity,
			Slot:      &resolved,
			CreatedAt: now,
			UpdatedAt: now,
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO stock_lots (id, shelf_id, bottle_id, quantity, slot, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, lot.ID, lot.ShelfID, lot.BottleID, lot.Quantity, resolved, lot.CreatedAt, lot.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to insert lot: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to look up mergeable lot: %w", err)
	default:
		// Same (shelf, bottle, slot) triple: merge into the existing lot.
		lot.ShelfID = shelfID
		lot.BottleID = bottleID
		lot.Quantity += quantity
		lot.Slot = &resolved
		lot.UpdatedAt = now
		_, err = tx.ExecContext(ctx, `
			UPDATE stock_lots SET quantity = $2, updated_at = $3 WHERE id = $1
		`, lot.ID, lot.Quantity, now)
		if err != nil {
			return nil, fmt.Errorf("failed to increment lot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit placement: %w", err)
	}

	return lot, nil
}

// Reslot reassigns a lot's slot, re-running the free-slot search when the
// requested slot is nil or out of bounds. Unlike Place it never merges with
// another lot, even if the target slot now holds the same bottle: reslot is
// a pure metadata move.
func (r *stockRepository) Reslot(ctx context.Context, lotID uuid.UUID, slot *int) (*domain.Lot, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, fmt.Errorf("failed to begin reslot transaction: %w", err)
	}
	defer tx.Rollback()

	lot, err := lockLot(ctx, tx, lotID)
	if err != nil {
		return nil, err
	}

	shelf, err := lockShelf(ctx, tx, lot.ShelfID)
	if err != nil {
		return nil, err
	}

	resolved := 0
	if slot != nil && *slot >= 1 && *slot <= shelf.Capacity {
		resolved = *slot
	} else {
		resolved, err = nextFreeSlot(ctx, tx, lot.ShelfID, shelf.Capacity)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		UPDATE stock_lots SET slot = $2, updated_at = $3 WHERE id = $1
	`, lotID, resolved, now)
	if err != nil {
		return nil, fmt.Errorf("failed to reslot lot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit reslot: %w", err)
	}

	lot.Slot = &resolved
	lot.UpdatedAt = now
	return lot, nil
}

// Consume removes quantity bottles from a lot and archives the removal as
// one unit. The archive row snapshots the lot's bottle and shelf identity so
// it survives later deletion of either. A lot drained to zero is deleted,
// never kept as a zero row.
func (r *stockRepository) Consume(ctx context.Context, lotID, userID uuid.UUID, quantity int, motif string) (*domain.RemovalRecord, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, fmt.Errorf("failed to begin consume transaction: %w", err)
	}
	defer tx.Rollback()

	lot, err := lockLot(ctx, tx, lotID)
	if err != nil {
		return nil, err
	}

	if quantity < 1 || quantity > lot.Quantity {
		return nil, ErrInvalidQuantity
	}

	record := &domain.RemovalRecord{
		ID:        uuid.New(),
		LotID:     lot.ID,
		UserID:    userID,
		BottleID:  lot.BottleID,
		ShelfID:   lot.ShelfID,
		Quantity:  quantity,
		Motif:     motif,
		RemovedAt: time.Now().UTC(),
	}
	if err := r.archive.Append(ctx, tx, record); err != nil {
		return nil, err
	}

	rest := lot.Quantity - quantity
	if rest == 0 {
		_, err = tx.ExecContext(ctx, `DELETE FROM stock_lots WHERE id = $1`, lotID)
	} else {
		_, err = tx.ExecContext(ctx, `
			UPDATE stock_lots SET quantity = $2, updated_at = $3 WHERE id = $1
		`, lotID, rest, record.RemovedAt)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decrement lot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit consume: %w", err)
	}

	return record, nil
}

// FindLot retrieves a lot by ID
func (r *stockRepository) FindLot(ctx context.Context, lotID uuid.UUID) (*domain.Lot, error) {
	query := `
		SELECT id, shelf_id, bottle_id, quantity, slot, created_at, updated_at
		FROM stock_lots
		WHERE id = $1
	`

	lot := &domain.Lot{}
	var slot sql.NullInt32
	err := r.db.QueryRowContext(ctx, query, lotID).Scan(
		&lot.ID,
		&lot.ShelfID,
		&lot.BottleID,
		&lot.Quantity,
		&slot,
		&lot.CreatedAt,
		&lot.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrLotNotFound
		}
		return nil, fmt.Errorf("failed to find lot by ID: %w", err)
	}

	if slot.Valid {
		v := int(slot.Int32)
		lot.Slot = &v
	}

	return lot, nil
}

// ListForOwner returns all active lots across all shelves owned by the user,
// enriched with shelf and bottle attributes, ordered by shelf then slot with
// unassigned lots sorted last.
func (r *stockRepository) ListForOwner(ctx context.Context, userID uuid.UUID) ([]*domain.StockEntry, error) {
	query := `
		SELECT s.id, e.id, e.name, e.capacity, s.slot, s.quantity,
		       b.id, b.domain, b.name, b.wine_type, b.vintage, b.region, b.price, b.image_url, b.created_at
		FROM cellars c
		JOIN shelves e ON e.cellar_id = c.id
		JOIN stock_lots s ON s.shelf_id = e.id
		JOIN bottles b ON b.id = s.bottle_id
		WHERE c.user_id = $1 AND s.quantity > 0
		ORDER BY e.created_at, e.id, COALESCE(s.slot, 2147483647)
	`

	return r.queryStockEntries(ctx, query, userID)
}

// ListUnassignedForOwner returns the user's active lots that have no slot yet
func (r *stockRepository) ListUnassignedForOwner(ctx context.Context, userID uuid.UUID) ([]*domain.StockEntry, error) {
	query := `
		SELECT s.id, e.id, e.name, e.capacity, s.slot, s.quantity,
		       b.id, b.domain, b.name, b.wine_type, b.vintage, b.region, b.price, b.image_url, b.created_at
		FROM cellars c
		JOIN shelves e ON e.cellar_id = c.id
		JOIN stock_lots s ON s.shelf_id = e.id
		JOIN bottles b ON b.id = s.bottle_id
		WHERE c.user_id = $1 AND s.quantity > 0 AND s.slot IS NULL
		ORDER BY e.created_at, e.id, b.name
	`

	return r.queryStockEntries(ctx, query, userID)
}

func (r *stockRepository) queryStockEntries(ctx context.Context, query string, userID uuid.UUID) ([]*domain.StockEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock: %w", err)
	}
	defer rows.Close()

	entries := []*domain.StockEntry{}
	for rows.Next() {
		entry := &domain.StockEntry{}
		var slot sql.NullInt32
		var imageURL sql.NullString
		err := rows.Scan(
			&entry.LotID,
			&entry.ShelfID,
			&entry.ShelfName,
			&entry.ShelfCapacity,
			&slot,
			&entry.Quantity,
			&entry.Bottle.ID,
			&entry.Bottle.Domain,
			&entry.Bottle.Name,
			&entry.Bottle.WineType,
			&entry.Bottle.Vintage,
			&entry.Bottle.Region,
			&entry.Bottle.Price,
			&imageURL,
			&entry.Bottle.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock entry: %w", err)
		}
		if slot.Valid {
			v := int(slot.Int32)
			entry.Slot = &v
		}
		if imageURL.Valid {
			entry.Bottle.ImageURL = &imageURL.String
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stock entries: %w", err)
	}

	return entries, nil
}

// lockShelf reads a shelf inside the transaction and takes a row lock so a
// concurrent placement cannot pass a stale capacity check.
func lockShelf(ctx context.Context, tx *sql.Tx, shelfID uuid.UUID) (*domain.Shelf, error) {
	shelf := &domain.Shelf{}
	err := tx.QueryRowContext(ctx, `
		SELECT id, cellar_id, name, capacity, created_at
		FROM shelves
		WHERE id = $1
		FOR UPDATE
	`, shelfID).Scan(&shelf.ID, &shelf.CellarID, &shelf.Name, &shelf.Capacity, &shelf.CreatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrShelfNotFound
		}
		return nil, fmt.Errorf("failed to lock shelf: %w", err)
	}

	return shelf, nil
}

func lockLot(ctx context.Context, tx *sql.Tx, lotID uuid.UUID) (*domain.Lot, error) {
	lot := &domain.Lot{}
	var slot sql.NullInt32
	err := tx.QueryRowContext(ctx, `
		SELECT id, shelf_id, bottle_id, quantity, slot, created_at, updated_at
		FROM stock_lots
		WHERE id = $1
		FOR UPDATE
	`, lotID).Scan(&lot.ID, &lot.ShelfID, &lot.BottleID, &lot.Quantity, &slot, &lot.CreatedAt, &lot.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrLotNotFound
		}
		return nil, fmt.Errorf("failed to lock lot: %w", err)
	}

	if slot.Valid {
		v := int(slot.Int32)
		lot.Slot = &v
	}

	return lot, nil
}

func capacityLeft(ctx context.Context, q Querier, shelfID uuid.UUID, capacity int) (int, error) {
	var used int
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(quantity), 0) FROM stock_lots WHERE shelf_id = $1
	`, shelfID).Scan(&used)
	if err != nil {
		return 0, fmt.Errorf("failed to sum shelf occupancy: %w", err)
	}
	return capacity - used, nil
}

// nextFreeSlot scans slots 1..capacity ascending and returns the first one
// not occupied by any lot on the shelf. When every slot is taken it falls
// back to capacity itself: the caller's capacity check already guarantees
// quantity headroom, so the placement degrades to sharing the last slot.
func nextFreeSlot(ctx context.Context, q Querier, shelfID uuid.UUID, capacity int) (int, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT slot FROM stock_lots WHERE shelf_id = $1 AND slot IS NOT NULL
	`, shelfID)
	if err != nil {
		return 0, fmt.Errorf("failed to list occupied slots: %w", err)
	}
	defer rows.Close()

	taken := make(map[int]bool)
	for rows.Next() {
		var s int
		if err := rows.Scan(&s); err != nil {
			return 0, fmt.Errorf("failed to scan occupied slot: %w", err)
		}
		taken[s] = true
	}
	if err = rows.Err(); err != nil {
		return 0, fmt.Errorf("error iterating occupied slots: %w", err)
	}

	for i := 1; i <= capacity; i++ {
		if !taken[i] {
			return i, nil
		}
	}
	return capacity, nil
}
