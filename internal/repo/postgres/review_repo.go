package postgres

import (
	"context"
	"time"

	"github.com/NishanKutu/ghumfir-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReviewRepo interface {
	Create(ctx context.Context, userID int64, in *domain.ReviewInput, images []string) (*domain.Review, error)
	GetByID(ctx context.Context, id int64) (*domain.Review, error)
	ListByDestination(ctx context.Context, destinationID int64, limit, offset int) ([]domain.Review, error)
	Update(ctx context.Context, id int64, patch *domain.ReviewPatch) (*domain.Review, error)
	Delete(ctx context.Context, id int64) error
}

type reviewRepo struct {
	pool *pgxpool.Pool
}

func NewReviewRepo(pool *pgxpool.Pool) ReviewRepo {
	return &reviewRepo{pool: pool}
}

const reviewCols = `id, user_id, destination_id, guide_id, rating, comment, images, created_at, updated_at`

func scanReview(row pgx.Row) (*domain.Review, error) {
	var rv domain.Review
	err := row.Scan(
		&rv.ID, &rv.UserID, &rv.DestinationID, &rv.GuideID,
		&rv.Rating, &rv.Comment, &rv.Images, &rv.CreatedAt, &rv.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *reviewRepo) Create(ctx context.Context, userID int64, in *domain.ReviewInput, images []string) (*domain.Review, error) {
	const q = `INSERT INTO reviews (user_id, destination_id, guide_id, rating, comment, images)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + reviewCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanReview(r.pool.QueryRow(ctx, q,
		userID, in.DestinationID, in.GuideID, in.Rating, in.Comment, images,
	))
}

func (r *reviewRepo) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	const q = `SELECT ` + reviewCols + ` FROM reviews WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanReview(r.pool.QueryRow(ctx, q, id))
}

func (r *reviewRepo) ListByDestination(ctx context.Context, destinationID int64, limit, offset int) ([]domain.Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	const q = `SELECT ` + reviewCols + ` FROM reviews
		WHERE destination_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, destinationID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(
			&rv.ID, &rv.UserID, &rv.DestinationID, &rv.GuideID,
			&rv.Rating, &rv.Comment, &rv.Images, &rv.CreatedAt, &rv.UpdatedAt,
		); err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

func (r *reviewRepo) Update(ctx context.Context, id int64, patch *domain.ReviewPatch) (*domain.Review, error) {
	const q = `
		UPDATE reviews
		SET
			rating = COALESCE($2, rating),
			comment = COALESCE($3, comment),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + reviewCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanReview(r.pool.QueryRow(ctx, q, id, patch.Rating, patch.Comment))
}

func (r *reviewRepo) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM reviews WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
