package repository

import (
	"context"
	"database/sql"
	"fmt"

	"winecellar/internal/domain"

	"github.com/google/uuid"
)

const communityFeedLimit = 200

// ReviewRepository stores bottle reviews
type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	ListForBottle(ctx context.Context, bottleID uuid.UUID) ([]*domain.BottleReview, error)
	AverageForBottle(ctx context.Context, bottleID uuid.UUID) (*float64, error)
	Community(ctx context.Context, search string) ([]*domain.CommunityReview, error)
}

type reviewRepository struct {
	db *sql.DB
}

// NewReviewRepository creates a new instance of ReviewRepository
func NewReviewRepository(db *sql.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// Create inserts a new review using parameterized queries
func (r *reviewRepository) Create(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO reviews (id, bottle_id, author_id, score, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		review.ID,
		review.BottleID,
		review.AuthorID,
		review.Score,
		review.Comment,
		review.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

// ListForBottle returns a bottle's reviews with author names, newest first
func (r *reviewRepository) ListForBottle(ctx context.Context, bottleID uuid.UUID) ([]*domain.BottleReview, error) {
	query := `
		SELECT r.id, r.bottle_id, r.author_id, r.score, r.comment, r.created_at,
		       u.first_name || ' ' || u.last_name
		FROM reviews r
		JOIN users u ON u.id = r.author_id
		WHERE r.bottle_id = $1
		ORDER BY r.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, bottleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []*domain.BottleReview{}
	for rows.Next() {
		review := &domain.BottleReview{}
		var score sql.NullFloat64
		var comment sql.NullString
		err := rows.Scan(
			&review.ID,
			&review.BottleID,
			&review.AuthorID,
			&score,
			&comment,
			&review.CreatedAt,
			&review.AuthorName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		if score.Valid {
			review.Score = &score.Float64
		}
		if comment.Valid {
			review.Comment = &comment.String
		}
		reviews = append(reviews, review)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return reviews, nil
}

// AverageForBottle returns the bottle's average score rounded to 2 decimals,
// or nil when the bottle has no scored reviews
func (r *reviewRepository) AverageForBottle(ctx context.Context, bottleID uuid.UUID) (*float64, error) {
	query := `
		SELECT ROUND(AVG(score), 2) FROM reviews WHERE bottle_id = $1
	`

	var avg sql.NullFloat64
	err := r.db.QueryRowContext(ctx, query, bottleID).Scan(&avg)
	if err != nil {
		return nil, fmt.Errorf("failed to average reviews: %w", err)
	}

	if !avg.Valid {
		return nil, nil
	}
	return &avg.Float64, nil
}

// Community returns recent reviews across all users joined with their
// bottles, optionally filtered by a case-insensitive match on the bottle's
// name, domain or region. Capped to keep the feed bounded.
func (r *reviewRepository) Community(ctx context.Context, search string) ([]*domain.CommunityReview, error) {
	query := `
		SELECT r.id, r.bottle_id, r.author_id, r.score, r.comment, r.created_at,
		       u.first_name || ' ' || u.last_name,
		       b.id, b.domain, b.name, b.wine_type, b.vintage, b.region, b.price, b.image_url, b.created_at
		FROM reviews r
		JOIN bottles b ON b.id = r.bottle_id
		JOIN users u ON u.id = r.author_id
	`
	args := []interface{}{}
	if search != "" {
		query += ` WHERE b.name ILIKE $1 OR b.domain ILIKE $1 OR b.region ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	query += fmt.Sprintf(" ORDER BY r.created_at DESC LIMIT %d", communityFeedLimit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list community reviews: %w", err)
	}
	defer rows.Close()

	reviews := []*domain.CommunityReview{}
	for rows.Next() {
		review := &domain.CommunityReview{}
		var score sql.NullFloat64
		var comment, imageURL sql.NullString
		err := rows.Scan(
			&review.ID,
			&review.BottleID,
			&review.AuthorID,
			&score,
			&comment,
			&review.CreatedAt,
			&review.AuthorName,
			&review.Bottle.ID,
			&review.Bottle.Domain,
			&review.Bottle.Name,
			&review.Bottle.WineType,
			&review.Bottle.Vintage,
			&review.Bottle.Region,
			&review.Bottle.Price,
			&imageURL,
			&review.Bottle.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan community review: %w", err)
		}
		if score.Valid {
			review.Score = &score.Float64
		}
		if comment.Valid {
			review.Comment = &comment.String
		}
		if imageURL.Valid {
			review.Bottle.ImageURL = &imageURL.String
		}
		reviews = append(reviews, review)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating community reviews: %w", err)
	}

	return reviews, nil
}
