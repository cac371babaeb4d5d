package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"winecellar/internal/domain"

	"github.com/google/uuid"
)

var ErrBottleNotFound = errors.New("bottle not found")

// BottleRepository is the catalog: bottles are created once and read-only
// thereafter, no deletion path is exposed.
type BottleRepository interface {
	Create(ctx context.Context, bottle *domain.Bottle) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Bottle, error)
	ListRefs(ctx context.Context) ([]*domain.BottleRef, error)
}

type bottleRepository struct {
	db *sql.DB
}

// NewBottleRepository creates a new instance of BottleRepository
func NewBottleRepository(db *sql.DB) BottleRepository {
	return &bottleRepository{db: db}
}

// Create inserts a new bottle into the catalog using parameterized queries
func (r *bottleRepository) Create(ctx context.Context, bottle *domain.Bottle) error {
	query := `
		INSERT INTO bottles (id, domain, name, wine_type, vintage, region, price, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		bottle.ID,
		bottle.Domain,
		bottle.Name,
		bottle.WineType,
		bottle.Vintage,
		bottle.Region,
		bottle.Price,
		bottle.ImageURL,
		bottle.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create bottle: %w", err)
	}

	return nil
}

// FindByID retrieves a bottle by ID using parameterized queries
func (r *bottleRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Bottle, error) {
	query := `
		SELECT id, domain, name, wine_type, vintage, region, price, image_url, created_at
		FROM bottles
		WHERE id = $1
	`

	bottle := &domain.Bottle{}
	var imageURL sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&bottle.ID,
		&bottle.Domain,
		&bottle.Name,
		&bottle.WineType,
		&bottle.Vintage,
		&bottle.Region,
		&bottle.Price,
		&imageURL,
		&bottle.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBottleNotFound
		}
		return nil, fmt.Errorf("failed to find bottle by ID: %w", err)
	}

	if imageURL.Valid {
		bottle.ImageURL = &imageURL.String
	}

	return bottle, nil
}

// ListRefs returns the light catalog projection for pickers, ordered by name
func (r *bottleRepository) ListRefs(ctx context.Context) ([]*domain.BottleRef, error) {
	query := `
		SELECT id, name, vintage, domain
		FROM bottles
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list bottles: %w", err)
	}
	defer rows.Close()

	refs := []*domain.BottleRef{}
	for rows.Next() {
		ref := &domain.BottleRef{}
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.Vintage, &ref.Domain); err != nil {
			return nil, fmt.Errorf("failed to scan bottle ref: %w", err)
		}
		refs = append(refs, ref)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bottle refs: %w", err)
	}

	return refs, nil
}
