package service

import (
	"context"
	"errors"
	"time"

	"winecellar/internal/domain"
	"winecellar/internal/repository"

	"github.com/google/uuid"
)

const (
	MinReviewScore = 0
	MaxReviewScore = 20
)

var ErrInvalidScore = errors.New("score must be between 0 and 20")

// ReviewService manages bottle reviews
type ReviewService interface {
	Add(ctx context.Context, authorID, bottleID uuid.UUID, score *float64, comment *string) (*domain.Review, error)
	Community(ctx context.Context, search string) ([]*domain.CommunityReview, error)
}

type reviewService struct {
	reviewRepo repository.ReviewRepository
	bottleRepo repository.BottleRepository
}

// NewReviewService creates a new instance of ReviewService
func NewReviewService(reviewRepo repository.ReviewRepository, bottleRepo repository.BottleRepository) ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		bottleRepo: bottleRepo,
	}
}

// Add records a review on a bottle. Score is optional but must stay on the
// 0..20 scale when present.
func (s *reviewService) Add(ctx context.Context, authorID, bottleID uuid.UUID, score *float64, comment *string) (*domain.Review, error) {
	if score != nil && (*score < MinReviewScore || *score > MaxReviewScore) {
		return nil, ErrInvalidScore
	}

	if _, err := s.bottleRepo.FindByID(ctx, bottleID); err != nil {
		return nil, err
	}

	review := &domain.Review{
		ID:        uuid.New(),
		BottleID:  bottleID,
		AuthorID:  authorID,
		Score:     score,
		Comment:   comment,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}

	return review, nil
}

// Community returns the recent cross-user review feed, optionally filtered
func (s *reviewService) Community(ctx context.Context, search string) ([]*domain.CommunityReview, error) {
	return s.reviewRepo.Community(ctx, search)
}
