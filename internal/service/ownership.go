package service

import (
	"context"

	"winecellar/internal/domain"
	"winecellar/internal/repository"

	"github.com/google/uuid"
)

// OwnershipGate resolves which cellar and shelves a user controls. The lot
// ledger trusts its verdicts and never re-derives identity itself.
type OwnershipGate interface {
	ResolveCellar(ctx context.Context, userID uuid.UUID) (*domain.Cellar, error)
	ListShelves(ctx context.Context, cellarID uuid.UUID) ([]*domain.Shelf, error)
	IsShelfOwnedBy(ctx context.Context, shelfID, userID uuid.UUID) (bool, error)
}

type ownershipGate struct {
	cellarRepo repository.CellarRepository
	shelfRepo  repository.ShelfRepository
}

// NewOwnershipGate creates the production OwnershipGate backed by the cellar
// and shelf repositories
func NewOwnershipGate(cellarRepo repository.CellarRepository, shelfRepo repository.ShelfRepository) OwnershipGate {
	return &ownershipGate{
		cellarRepo: cellarRepo,
		shelfRepo:  shelfRepo,
	}
}

func (g *ownershipGate) ResolveCellar(ctx context.Context, userID uuid.UUID) (*domain.Cellar, error) {
	return g.cellarRepo.FindByUserID(ctx, userID)
}

func (g *ownershipGate) ListShelves(ctx context.Context, cellarID uuid.UUID) ([]*domain.Shelf, error) {
	return g.shelfRepo.ListForCellar(ctx, cellarID)
}

func (g *ownershipGate) IsShelfOwnedBy(ctx context.Context, shelfID, userID uuid.UUID) (bool, error) {
	return g.cellarRepo.IsShelfOwnedBy(ctx, shelfID, userID)
}
