package service

import (
	"context"
	"errors"
	"fmt"

	"winecellar/internal/domain"
	"winecellar/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrAccessDenied = errors.New("access denied")
)

// StockService is the lot ledger surface exposed to the presentation layer.
// Every mutation verifies ownership through the OwnershipGate before it
// touches the ledger.
type StockService interface {
	Place(ctx context.Context, userID, shelfID, bottleID uuid.UUID, quantity int, slot *int) (*domain.Lot, error)
	Reslot(ctx context.Context, userID, lotID uuid.UUID, slot *int) (*domain.Lot, error)
	Consume(ctx context.Context, userID, lotID uuid.UUID, quantity int, motif string) (*domain.RemovalRecord, error)
	Get(ctx context.Context, userID, lotID uuid.UUID) (*domain.Lot, error)
	ListForOwner(ctx context.Context, userID uuid.UUID) ([]*domain.StockEntry, error)
	ListUnassigned(ctx context.Context, userID uuid.UUID) ([]*domain.StockEntry, error)
	History(ctx context.Context, userID uuid.UUID) ([]*domain.HistoryEntry, error)
}

type stockService struct {
	stockRepo   repository.StockRepository
	archiveRepo repository.ArchiveRepository
	bottleRepo  repository.BottleRepository
	gate        OwnershipGate
}

// NewStockService creates a new instance of StockService
func NewStockService(
	stockRepo repository.StockRepository,
	archiveRepo repository.ArchiveRepository,
	bottleRepo repository.BottleRepository,
	gate OwnershipGate,
) StockService {
	return &stockService{
		stockRepo:   stockRepo,
		archiveRepo: archiveRepo,
		bottleRepo:  bottleRepo,
		gate:        gate,
	}
}

// Place stores bottles on a shelf the user owns. Slot resolution and the
// merge rule live in the repository, inside one transaction with the
// capacity check.
func (s *stockService) Place(ctx context.Context, userID, shelfID, bottleID uuid.UUID, quantity int, slot *int) (*domain.Lot, error) {
	if quantity <= 0 {
		return nil, repository.ErrInvalidQuantity
	}

	if _, err := s.bottleRepo.FindByID(ctx, bottleID); err != nil {
		return nil, err
	}

	if err := s.authorizeShelf(ctx, shelfID, userID); err != nil {
		return nil, err
	}

	return s.stockRepo.Place(ctx, shelfID, bottleID, quantity, slot)
}

// Reslot reassigns a lot's slot. It never merges, even when the target slot
// now holds a lot of the same bottle: this asymmetry with Place is kept on
// purpose.
func (s *stockService) Reslot(ctx context.Context, userID, lotID uuid.UUID, slot *int) (*domain.Lot, error) {
	lot, err := s.stockRepo.FindLot(ctx, lotID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeShelf(ctx, lot.ShelfID, userID); err != nil {
		return nil, err
	}

	return s.stockRepo.Reslot(ctx, lotID, slot)
}

// Consume removes bottles from a lot and archives the removal atomically
func (s *stockService) Consume(ctx context.Context, userID, lotID uuid.UUID, quantity int, motif string) (*domain.RemovalRecord, error) {
	if motif == "" {
		motif = domain.MotifConsumed
	}

	lot, err := s.stockRepo.FindLot(ctx, lotID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeShelf(ctx, lot.ShelfID, userID); err != nil {
		return nil, err
	}

	return s.stockRepo.Consume(ctx, lotID, userID, quantity, motif)
}

// Get returns the current state of a lot the user owns
func (s *stockService) Get(ctx context.Context, userID, lotID uuid.UUID) (*domain.Lot, error) {
	lot, err := s.stockRepo.FindLot(ctx, lotID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeShelf(ctx, lot.ShelfID, userID); err != nil {
		return nil, err
	}

	return lot, nil
}

// ListForOwner returns all active lots across the user's shelves
func (s *stockService) ListForOwner(ctx context.Context, userID uuid.UUID) ([]*domain.StockEntry, error) {
	return s.stockRepo.ListForOwner(ctx, userID)
}

// ListUnassigned returns the user's lots that have no slot yet
func (s *stockService) ListUnassigned(ctx context.Context, userID uuid.UUID) ([]*domain.StockEntry, error) {
	return s.stockRepo.ListUnassignedForOwner(ctx, userID)
}

// History returns the user's removal archive, newest first
func (s *stockService) History(ctx context.Context, userID uuid.UUID) ([]*domain.HistoryEntry, error) {
	return s.archiveRepo.ListForUser(ctx, userID)
}

func (s *stockService) authorizeShelf(ctx context.Context, shelfID, userID uuid.UUID) error {
	owned, err := s.gate.IsShelfOwnedBy(ctx, shelfID, userID)
	if err != nil {
		return fmt.Errorf("failed to check shelf ownership: %w", err)
	}
	if !owned {
		return ErrAccessDenied
	}
	return nil
}
