package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"winecellar/internal/domain"

	"github.com/google/uuid"
)

var ErrCellarNotFound = errors.New("cellar not found")

// CellarRepository resolves cellar ownership. Each user owns exactly one
// cellar.
type CellarRepository interface {
	Create(ctx context.Context, cellar *domain.Cellar) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Cellar, error)
	IsShelfOwnedBy(ctx context.Context, shelfID, userID uuid.UUID) (bool, error)
}

type cellarRepository struct {
	db *sql.DB
}

// NewCellarRepository creates a new instance of CellarRepository
func NewCellarRepository(db *sql.DB) CellarRepository {
	return &cellarRepository{db: db}
}

// Create inserts a new cellar using parameterized queries
func (r *cellarRepository) Create(ctx context.Context, cellar *domain.Cellar) error {
	query := `
		INSERT INTO cellars (id, user_id, name, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query, cellar.ID, cellar.UserID, cellar.Name, cellar.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create cellar: %w", err)
	}

	return nil
}

// FindByUserID retrieves the cellar belonging to a user
func (r *cellarRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Cellar, error) {
	query := `
		SELECT id, user_id, name, created_at
		FROM cellars
		WHERE user_id = $1
	`

	cellar := &domain.Cellar{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&cellar.ID,
		&cellar.UserID,
		&cellar.Name,
		&cellar.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCellarNotFound
		}
		return nil, fmt.Errorf("failed to find cellar by user ID: %w", err)
	}

	return cellar, nil
}

// IsShelfOwnedBy reports whether the shelf belongs, via its cellar, to the user
func (r *cellarRepository) IsShelfOwnedBy(ctx context.Context, shelfID, userID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM shelves e
			JOIN cellars c ON c.id = e.cellar_id
			WHERE e.id = $1 AND c.user_id = $2
		)
	`

	var owned bool
	err := r.db.QueryRowContext(ctx, query, shelfID, userID).Scan(&owned)
	if err != nil {
		return false, fmt.Errorf("failed to check shelf ownership: %w", err)
	}

	return owned, nil
}
