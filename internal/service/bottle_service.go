package service

import (
	"context"
	"time"

	"winecellar/internal/domain"
	"winecellar/internal/repository"

	"github.com/google/uuid"
)

// CreateBottleInput carries the catalog fields for a new bottle
type CreateBottleInput struct {
	Domain   string
	Name     string
	WineType string
	Vintage  int
	Region   string
	Price    float64
	ImageURL *string
}

// BottleService manages the catalog
type BottleService interface {
	Create(ctx context.Context, input CreateBottleInput) (*domain.Bottle, error)
	CreateAndPlace(ctx context.Context, userID uuid.UUID, input CreateBottleInput, shelfID uuid.UUID, quantity int, slot *int) (*domain.Bottle, *domain.Lot, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.BottleDetail, error)
	ListRefs(ctx context.Context) ([]*domain.BottleRef, error)
}

type bottleService struct {
	bottleRepo repository.BottleRepository
	reviewRepo repository.ReviewRepository
	stockSvc   StockService
	gate       OwnershipGate
}

// NewBottleService creates a new instance of BottleService
func NewBottleService(
	bottleRepo repository.BottleRepository,
	reviewRepo repository.ReviewRepository,
	stockSvc StockService,
	gate OwnershipGate,
) BottleService {
	return &bottleService{
		bottleRepo: bottleRepo,
		reviewRepo: reviewRepo,
		stockSvc:   stockSvc,
		gate:       gate,
	}
}

// Create adds a bottle to the catalog
func (s *bottleService) Create(ctx context.Context, input CreateBottleInput) (*domain.Bottle, error) {
	bottle := &domain.Bottle{
		ID:        uuid.New(),
		Domain:    input.Domain,
		Name:      input.Name,
		WineType:  input.WineType,
		Vintage:   input.Vintage,
		Region:    input.Region,
		Price:     input.Price,
		ImageURL:  input.ImageURL,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.bottleRepo.Create(ctx, bottle); err != nil {
		return nil, err
	}

	return bottle, nil
}

// CreateAndPlace adds a bottle to the catalog and immediately stores it on
// one of the user's shelves. Ownership is verified before the catalog write
// so a rejected placement does not leave an orphan bottle behind; the
// placement itself still re-checks capacity transactionally.
func (s *bottleService) CreateAndPlace(ctx context.Context, userID uuid.UUID, input CreateBottleInput, shelfID uuid.UUID, quantity int, slot *int) (*domain.Bottle, *domain.Lot, error) {
	if quantity <= 0 {
		return nil, nil, repository.ErrInvalidQuantity
	}

	owned, err := s.gate.IsShelfOwnedBy(ctx, shelfID, userID)
	if err != nil {
		return nil, nil, err
	}
	if !owned {
		return nil, nil, ErrAccessDenied
	}

	bottle, err := s.Create(ctx, input)
	if err != nil {
		return nil, nil, err
	}

	lot, err := s.stockSvc.Place(ctx, userID, shelfID, bottle.ID, quantity, slot)
	if err != nil {
		return nil, nil, err
	}

	return bottle, lot, nil
}

// Get returns a bottle with its average score and reviews
func (s *bottleService) Get(ctx context.Context, id uuid.UUID) (*domain.BottleDetail, error) {
	bottle, err := s.bottleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	avg, err := s.reviewRepo.AverageForBottle(ctx, id)
	if err != nil {
		return nil, err
	}

	reviews, err := s.reviewRepo.ListForBottle(ctx, id)
	if err != nil {
		return nil, err
	}

	return &domain.BottleDetail{
		Bottle:       *bottle,
		AverageScore: avg,
		Reviews:      reviews,
	}, nil
}

// ListRefs returns the light catalog projection for pickers
func (s *bottleService) ListRefs(ctx context.Context) ([]*domain.BottleRef, error) {
	return s.bottleRepo.ListRefs(ctx)
}
