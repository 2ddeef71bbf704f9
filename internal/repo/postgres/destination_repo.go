package postgres

import (
	"context"
	"time"

	"github.com/NishanKutu/ghumfir-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DestinationRepo interface {
	Create(ctx context.Context, in *domain.DestinationInput, images []string) (*domain.Destination, error)
	GetByID(ctx context.Context, id int64) (*domain.Destination, error)
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]domain.Destination, error)
	// Update replaces the scalar fields and itinerary and APPENDS the
	// given images to the stored list; existing images are never
	// replaced here.
	Update(ctx context.Context, id int64, in *domain.DestinationInput, newImages []string) (*domain.Destination, error)
	// RemoveImage removes exactly one filename from the image list.
	// Returns false when the destination or the filename is unknown.
	RemoveImage(ctx context.Context, id int64, filename string) (bool, error)
	Delete(ctx context.Context, id int64) error
}

type destinationRepo struct {
	pool *pgxpool.Pool
}

func NewDestinationRepo(pool *pgxpool.Pool) DestinationRepo {
	return &destinationRepo{pool: pool}
}

const destinationCols = `id, title, description, location, price, discount, duration,
group_size, is_active, seasons, featured, on_sale, inclusions, exclusions, images,
created_at, updated_at`

func scanDestination(row pgx.Row) (*domain.Destination, error) {
	var d domain.Destination
	err := row.Scan(
		&d.ID, &d.Title, &d.Description, &d.Location, &d.Price, &d.Discount, &d.Duration,
		&d.GroupSize, &d.IsActive, &d.Seasons, &d.Featured, &d.OnSale,
		&d.Inclusions, &d.Exclusions, &d.Images,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *destinationRepo) Create(ctx context.Context, in *domain.DestinationInput, images []string) (*domain.Destination, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const q = `INSERT INTO destinations (
		title, description, location, price, discount, duration,
		group_size, is_active, seasons, featured, on_sale, inclusions, exclusions, images
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	RETURNING ` + destinationCols

	d, err := scanDestination(tx.QueryRow(ctx, q,
		in.Title, in.Description, in.Location, in.Price, in.Discount, in.Duration,
		in.GroupSize, in.IsActive, in.Seasons, in.Featured, in.OnSale,
		in.Inclusions, in.Exclusions, images,
	))
	if err != nil {
		return nil, err
	}

	if err := replaceItinerary(ctx, tx, d.ID, in.Itinerary); err != nil {
		return nil, err
	}
	d.Itinerary = in.Itinerary

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *destinationRepo) GetByID(ctx context.Context, id int64) (*domain.Destination, error) {
	const q = `SELECT ` + destinationCols + ` FROM destinations WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	d, err := scanDestination(r.pool.QueryRow(ctx, q, id))
	if err != nil || d == nil {
		return d, err
	}

	d.Itinerary, err = r.loadItinerary(ctx, id)
	return d, err
}

func (r *destinationRepo) loadItinerary(ctx context.Context, destinationID int64) ([]domain.ItineraryDay, error) {
	const q = `
		SELECT day_number, title, description
		FROM itinerary_days
		WHERE destination_id = $1
		ORDER BY day_number`

	rows, err := r.pool.Query(ctx, q, destinationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []domain.ItineraryDay
	for rows.Next() {
		var day domain.ItineraryDay
		if err := rows.Scan(&day.Day, &day.Title, &day.Description); err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, rows.Err()
}

func (r *destinationRepo) List(ctx context.Context, activeOnly bool, limit, offset int) ([]domain.Destination, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	q := `SELECT ` + destinationCols + ` FROM destinations`
	if activeOnly {
		q += ` WHERE is_active`
	}
	q += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dests []domain.Destination
	for rows.Next() {
		var d domain.Destination
		if err := rows.Scan(
			&d.ID, &d.Title, &d.Description, &d.Location, &d.Price, &d.Discount, &d.Duration,
			&d.GroupSize, &d.IsActive, &d.Seasons, &d.Featured, &d.OnSale,
			&d.Inclusions, &d.Exclusions, &d.Images,
			&d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, err
		}
		dests = append(dests, d)
	}
	return dests, rows.Err()
}

func (r *destinationRepo) Update(ctx context.Context, id int64, in *domain.DestinationInput, newImages []string) (*domain.Destination, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const q = `
		UPDATE destinations
		SET
			title = $2, description = $3, location = $4, price = $5, discount = $6,
			duration = $7, group_size = $8, is_active = $9, seasons = $10,
			featured = $11, on_sale = $12, inclusions = $13, exclusions = $14,
			images = images || $15,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + destinationCols

	d, err := scanDestination(tx.QueryRow(ctx, q,
		id, in.Title, in.Description, in.Location, in.Price, in.Discount,
		in.Duration, in.GroupSize, in.IsActive, in.Seasons,
		in.Featured, in.OnSale, in.Inclusions, in.Exclusions, newImages,
	))
	if err != nil || d == nil {
		return d, err
	}

	if err := replaceItinerary(ctx, tx, id, in.Itinerary); err != nil {
		return nil, err
	}
	d.Itinerary = in.Itinerary

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

func replaceItinerary(ctx context.Context, tx pgx.Tx, destinationID int64, days []domain.ItineraryDay) error {
	if _, err := tx.Exec(ctx, `DELETE FROM itinerary_days WHERE destination_id = $1`, destinationID); err != nil {
		return err
	}
	for _, day := range days {
		if _, err := tx.Exec(ctx,
			`INSERT INTO itinerary_days (destination_id, day_number, title, description) VALUES ($1, $2, $3, $4)`,
			destinationID, day.Day, day.Title, day.Description,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *destinationRepo) RemoveImage(ctx context.Context, id int64, filename string) (bool, error) {
	const q = `
		UPDATE destinations
		SET images = array_remove(images, $2), updated_at = now()
		WHERE id = $1 AND $2 = ANY(images)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id, filename)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *destinationRepo) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM destinations WHERE id = $1`
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
