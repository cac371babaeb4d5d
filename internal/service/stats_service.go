package service

import (
	"context"

	"winecellar/internal/domain"
	"winecellar/internal/repository"

	"github.com/google/uuid"
)

// StatsService assembles the dashboard
type StatsService interface {
	Dashboard(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error)
}

type statsService struct {
	statsRepo repository.StatsRepository
}

// NewStatsService creates a new instance of StatsService
func NewStatsService(statsRepo repository.StatsRepository) StatsService {
	return &statsService{statsRepo: statsRepo}
}

// Dashboard returns the user's KPIs together with the community top-rated
// bottles
func (s *statsService) Dashboard(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error) {
	stats, err := s.statsRepo.UserStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	top, err := s.statsRepo.TopRated(ctx)
	if err != nil {
		return nil, err
	}
	stats.TopRated = top

	return stats, nil
}
