package repository

import (
	"context"
	"database/sql"
	"fmt"

	"winecellar/internal/domain"

	"github.com/google/uuid"
)

const topRatedLimit = 4

// StatsRepository computes the dashboard aggregates
type StatsRepository interface {
	UserStats(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error)
	TopRated(ctx context.Context) ([]domain.TopRatedBottle, error)
}

type statsRepository struct {
	db *sql.DB
}

// NewStatsRepository creates a new instance of StatsRepository
func NewStatsRepository(db *sql.DB) StatsRepository {
	return &statsRepository{db: db}
}

// UserStats returns the per-user KPIs: bottle count, distinct lot count,
// estimated value, bottles drunk and reviews written
func (r *statsRepository) UserStats(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error) {
	stats := &domain.UserStats{TopRated: []domain.TopRatedBottle{}}

	query := `
		SELECT COALESCE(SUM(s.quantity), 0),
		       COALESCE(SUM(CASE WHEN s.quantity > 0 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(s.quantity * b.price), 0.0)
		FROM cellars c
		JOIN shelves e ON e.cellar_id = c.id
		LEFT JOIN stock_lots s ON s.shelf_id = e.id
		LEFT JOIN bottles b ON b.id = s.bottle_id
		WHERE c.user_id = $1
	`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&stats.Bottles, &stats.Lots, &stats.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stock stats: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(quantity), 0)
		FROM removal_archive
		WHERE user_id = $1 AND motif = $2
	`, userID, domain.MotifConsumed).Scan(&stats.Drunk)
	if err != nil {
		return nil, fmt.Errorf("failed to count consumed bottles: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reviews WHERE author_id = $1
	`, userID).Scan(&stats.Reviews)
	if err != nil {
		return nil, fmt.Errorf("failed to count reviews: %w", err)
	}

	return stats, nil
}

// TopRated returns the best-rated bottles (average score plus review count)
func (r *statsRepository) TopRated(ctx context.Context) ([]domain.TopRatedBottle, error) {
	query := fmt.Sprintf(`
		SELECT b.id, b.domain, b.name, b.wine_type, b.vintage, b.region, b.price, b.image_url, b.created_at,
		       ROUND(AVG(r.score), 2), COUNT(r.id)
		FROM bottles b
		JOIN reviews r ON r.bottle_id = b.id
		WHERE r.score IS NOT NULL
		GROUP BY b.id
		HAVING COUNT(r.id) >= 1
		ORDER BY AVG(r.score) DESC, COUNT(r.id) DESC
		LIMIT %d
	`, topRatedLimit)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list top rated bottles: %w", err)
	}
	defer rows.Close()

	top := []domain.TopRatedBottle{}
	for rows.Next() {
		entry := domain.TopRatedBottle{}
		var imageURL sql.NullString
		err := rows.Scan(
			&entry.Bottle.ID,
			&entry.Bottle.Domain,
			&entry.Bottle.Name,
			&entry.Bottle.WineType,
			&entry.Bottle.Vintage,
			&entry.Bottle.Region,
			&entry.Bottle.Price,
			&imageURL,
			&entry.Bottle.CreatedAt,
			&entry.Average,
			&entry.ReviewCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan top rated bottle: %w", err)
		}
		if imageURL.Valid {
			entry.Bottle.ImageURL = &imageURL.String
		}
		top = append(top, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating top rated bottles: %w", err)
	}

	return top, nil
}
