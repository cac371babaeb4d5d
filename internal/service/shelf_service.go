package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"winecellar/internal/domain"
	"winecellar/internal/repository"

	"github.com/google/uuid"
)

const (
	MinShelfCapacity     = 1
	MaxShelfCapacity     = 200
	DefaultShelfCapacity = 10
)

var ErrInvalidCapacity = errors.New("capacity must be between 1 and 200")

// ShelfService manages the shelf registry on behalf of a user
type ShelfService interface {
	Create(ctx context.Context, userID uuid.UUID, name string, capacity int) (*domain.Shelf, error)
	List(ctx context.Context, userID uuid.UUID) ([]*domain.ShelfSummary, error)
	CapacityLeft(ctx context.Context, userID, shelfID uuid.UUID) (int, error)
	DeleteIfEmpty(ctx context.Context, userID, shelfID uuid.UUID) error
}

type shelfService struct {
	shelfRepo repository.ShelfRepository
	gate      OwnershipGate
}

// NewShelfService creates a new instance of ShelfService
func NewShelfService(shelfRepo repository.ShelfRepository, gate OwnershipGate) ShelfService {
	return &shelfService{
		shelfRepo: shelfRepo,
		gate:      gate,
	}
}

// Create adds a shelf to the user's cellar. An empty name defaults to
// "Shelf N"; capacity is bounded to 1..200 here, the registry itself only
// enforces positivity.
func (s *shelfService) Create(ctx context.Context, userID uuid.UUID, name string, capacity int) (*domain.Shelf, error) {
	if capacity < MinShelfCapacity || capacity > MaxShelfCapacity {
		return nil, ErrInvalidCapacity
	}

	cellar, err := s.gate.ResolveCellar(ctx, userID)
	if err != nil {
		return nil, err
	}

	if name == "" {
		existing, err := s.gate.ListShelves(ctx, cellar.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list shelves for naming: %w", err)
		}
		name = fmt.Sprintf("Shelf %d", len(existing)+1)
	}

	shelf := &domain.Shelf{
		ID:        uuid.New(),
		CellarID:  cellar.ID,
		Name:      name,
		Capacity:  capacity,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.shelfRepo.Create(ctx, shelf); err != nil {
		return nil, err
	}

	return shelf, nil
}

// List returns the user's shelves with their remaining capacity
func (s *shelfService) List(ctx context.Context, userID uuid.UUID) ([]*domain.ShelfSummary, error) {
	cellar, err := s.gate.ResolveCellar(ctx, userID)
	if err != nil {
		return nil, err
	}

	shelves, err := s.gate.ListShelves(ctx, cellar.ID)
	if err != nil {
		return nil, err
	}

	summaries := make([]*domain.ShelfSummary, 0, len(shelves))
	for _, shelf := range shelves {
		left, err := s.shelfRepo.CapacityLeft(ctx, shelf.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, &domain.ShelfSummary{Shelf: *shelf, CapacityLeft: left})
	}

	return summaries, nil
}

// CapacityLeft returns the remaining capacity of a shelf the user owns
func (s *shelfService) CapacityLeft(ctx context.Context, userID, shelfID uuid.UUID) (int, error) {
	owned, err := s.gate.IsShelfOwnedBy(ctx, shelfID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to check shelf ownership: %w", err)
	}
	if !owned {
		return 0, ErrAccessDenied
	}

	return s.shelfRepo.CapacityLeft(ctx, shelfID)
}

// DeleteIfEmpty removes a shelf only when no active quantity remains on it.
// Ownership is enforced by scoping the deletion to the user's cellar.
func (s *shelfService) DeleteIfEmpty(ctx context.Context, userID, shelfID uuid.UUID) error {
	cellar, err := s.gate.ResolveCellar(ctx, userID)
	if err != nil {
		return err
	}

	return s.shelfRepo.DeleteIfEmpty(ctx, shelfID, cellar.ID)
}
