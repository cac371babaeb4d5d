package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"winecellar/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrShelfNotFound = errors.New("shelf not found")
	ErrShelfNotEmpty = errors.New("shelf is not empty")
)

// ShelfRepository is the shelf registry
type ShelfRepository interface {
	Create(ctx context.Context, shelf *domain.Shelf) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Shelf, error)
	ListForCellar(ctx context.Context, cellarID uuid.UUID) ([]*domain.Shelf, error)
	CapacityLeft(ctx context.Context, shelfID uuid.UUID) (int, error)
	DeleteIfEmpty(ctx context.Context, shelfID, cellarID uuid.UUID) error
}

type shelfRepository struct {
	db *sql.DB
}

// NewShelfRepository creates a new instance of ShelfRepository
func NewShelfRepository(db *sql.DB) ShelfRepository {
	return &shelfRepository{db: db}
}

// Create inserts a new shelf using parameterized queries
func (r *shelfRepository) Create(ctx context.Context, shelf *domain.Shelf) error {
	query := `
		INSERT INTO shelves (id, cellar_id, name, capacity, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		shelf.ID,
		shelf.CellarID,
		shelf.Name,
		shelf.Capacity,
		shelf.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create shelf: %w", err)
	}

	return nil
}

// FindByID retrieves a shelf by ID using parameterized queries
func (r *shelfRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Shelf, error) {
	query := `
		SELECT id, cellar_id, name, capacity, created_at
		FROM shelves
		WHERE id = $1
	`

	shelf := &domain.Shelf{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&shelf.ID,
		&shelf.CellarID,
		&shelf.Name,
		&shelf.Capacity,
		&shelf.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrShelfNotFound
		}
		return nil, fmt.Errorf("failed to find shelf by ID: %w", err)
	}

	return shelf, nil
}

// ListForCellar retrieves all shelves of a cellar in creation order
func (r *shelfRepository) ListForCellar(ctx context.Context, cellarID uuid.UUID) ([]*domain.Shelf, error) {
	query := `
		SELECT id, cellar_id, name, capacity, created_at
		FROM shelves
		WHERE cellar_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, cellarID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shelves: %w", err)
	}
	defer rows.Close()

	shelves := []*domain.Shelf{}
	for rows.Next() {
		shelf := &domain.Shelf{}
		err := rows.Scan(
			&shelf.ID,
			&shelf.CellarID,
			&shelf.Name,
			&shelf.Capacity,
			&shelf.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shelf: %w", err)
		}
		shelves = append(shelves, shelf)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shelves: %w", err)
	}

	return shelves, nil
}

// CapacityLeft returns capacity minus the summed quantity of active lots.
// Zero means the shelf is full; the result is never negative while the
// placement invariant holds.
func (r *shelfRepository) CapacityLeft(ctx context.Context, shelfID uuid.UUID) (int, error) {
	query := `
		SELECT e.capacity - COALESCE(SUM(s.quantity), 0)
		FROM shelves e
		LEFT JOIN stock_lots s ON s.shelf_id = e.id
		WHERE e.id = $1
		GROUP BY e.capacity
	`

	var left int
	err := r.db.QueryRowContext(ctx, query, shelfID).Scan(&left)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrShelfNotFound
		}
		return 0, fmt.Errorf("failed to compute capacity left: %w", err)
	}

	return left, nil
}

// DeleteIfEmpty removes the shelf only when no active quantity remains on it
// and it belongs to the given cellar. This is the sole deletion path for
// shelves; it never cascades a force-delete.
func (r *shelfRepository) DeleteIfEmpty(ctx context.Context, shelfID, cellarID uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin shelf deletion transaction: %w", err)
	}
	defer tx.Rollback()

	var id uuid.UUID
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM shelves WHERE id = $1 AND cellar_id = $2 FOR UPDATE
	`, shelfID, cellarID).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrShelfNotFound
		}
		return fmt.Errorf("failed to lock shelf for deletion: %w", err)
	}

	var used int
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(quantity), 0) FROM stock_lots WHERE shelf_id = $1
	`, shelfID).Scan(&used)
	if err != nil {
		return fmt.Errorf("failed to sum shelf occupancy: %w", err)
	}
	if used != 0 {
		return ErrShelfNotEmpty
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM shelves WHERE id = $1 AND cellar_id = $2`, shelfID, cellarID)
	if err != nil {
		return fmt.Errorf("failed to delete shelf: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit shelf deletion: %w", err)
	}

	return nil
}
