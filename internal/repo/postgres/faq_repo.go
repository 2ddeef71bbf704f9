package postgres

import (
	"context"
	"time"

	"github.com/NishanKutu/ghumfir-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FAQRepo interface {
	Create(ctx context.Context, in *domain.FAQInput) (*domain.FAQ, error)
	GetByID(ctx context.Context, id int64) (*domain.FAQ, error)
	ListAll(ctx context.Context) ([]domain.FAQ, error)
	Update(ctx context.Context, id int64, in *domain.FAQInput) (*domain.FAQ, error)
	Delete(ctx context.Context, id int64) error
}

type faqRepo struct {
	pool *pgxpool.Pool
}

func NewFAQRepo(pool *pgxpool.Pool) FAQRepo {
	return &faqRepo{pool: pool}
}

const faqCols = `id, question, answer, category, section, display_order, created_at, updated_at`

func scanFAQ(row pgx.Row) (*domain.FAQ, error) {
	var f domain.FAQ
	err := row.Scan(
		&f.ID, &f.Question, &f.Answer, &f.Category, &f.Section,
		&f.DisplayOrder, &f.CreatedAt, &f.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *faqRepo) Create(ctx context.Context, in *domain.FAQInput) (*domain.FAQ, error) {
	const q = `INSERT INTO faqs (question, answer, category, section, display_order)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + faqCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanFAQ(r.pool.QueryRow(ctx, q,
		in.Question, in.Answer, in.Category, in.Section, in.DisplayOrder,
	))
}

func (r *faqRepo) GetByID(ctx context.Context, id int64) (*domain.FAQ, error) {
	const q = `SELECT ` + faqCols + ` FROM faqs WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanFAQ(r.pool.QueryRow(ctx, q, id))
}

func (r *faqRepo) ListAll(ctx context.Context) ([]domain.FAQ, error) {
	const q = `SELECT ` + faqCols + ` FROM faqs ORDER BY section, category, display_order`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var faqs []domain.FAQ
	for rows.Next() {
		var f domain.FAQ
		if err := rows.Scan(
			&f.ID, &f.Question, &f.Answer, &f.Category, &f.Section,
			&f.DisplayOrder, &f.CreatedAt, &f.UpdatedAt,
		); err != nil {
			return nil, err
		}
		faqs = append(faqs, f)
	}
	return faqs, rows.Err()
}

func (r *faqRepo) Update(ctx context.Context, id int64, in *domain.FAQInput) (*domain.FAQ, error) {
	const q = `
		UPDATE faqs
		SET question = $2, answer = $3, category = $4, section = $5,
			display_order = $6, updated_at = now()
		WHERE id = $1
		RETURNING ` + faqCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanFAQ(r.pool.QueryRow(ctx, q,
		id, in.Question, in.Answer, in.Category, in.Section, in.DisplayOrder,
	))
}

func (r *faqRepo) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM faqs WHERE id = $1`
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
