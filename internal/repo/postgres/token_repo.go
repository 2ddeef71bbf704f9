package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// TokenRepo stores the single-use tokens behind email verification and
// password reset. Verification tokens are random uuids stored as-is;
// reset tokens are split into a row id and a bcrypt-hashed secret so a
// database leak does not expose usable reset links.
type TokenRepo interface {
	CreateEmailVerification(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	// ConsumeEmailVerification marks the token used and returns its
	// owner, or 0 when the token is unknown, expired, or already used.
	ConsumeEmailVerification(ctx context.Context, token string) (userID int64, err error)

	CreatePasswordReset(ctx context.Context, userID int64, secretHash string, expiresAt time.Time) (tokenID int64, err error)
	// ConsumePasswordReset verifies the secret against the stored hash,
	// marks the row used, and returns the owner; 0 when invalid.
	ConsumePasswordReset(ctx context.Context, tokenID int64, secret string) (userID int64, err error)

	DeleteExpiredTokens(ctx context.Context) (int64, error)
}

type tokenRepo struct {
	pool *pgxpool.Pool
}

func NewTokenRepo(pool *pgxpool.Pool) TokenRepo {
	return &tokenRepo{pool: pool}
}

func (r *tokenRepo) CreateEmailVerification(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	const q = `
		INSERT INTO email_verification_tokens (user_id, token, expires_at)
		VALUES ($1, $2, $3)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, userID, token, expiresAt)
	return err
}

func (r *tokenRepo) ConsumeEmailVerification(ctx context.Context, token string) (int64, error) {
	const q = `
		UPDATE email_verification_tokens
		SET used_at = now()
		WHERE token = $1
		  AND used_at IS NULL
		  AND expires_at > now()
		RETURNING user_id`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var userID int64
	err := r.pool.QueryRow(ctx, q, token).Scan(&userID)
	if err == pgx.ErrNoRows {
		return 0, nil // Invalid, used, or expired
	}
	return userID, err
}

func (r *tokenRepo) CreatePasswordReset(ctx context.Context, userID int64, secretHash string, expiresAt time.Time) (int64, error) {
	const q = `
		INSERT INTO password_reset_tokens (user_id, secret_hash, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var id int64
	err := r.pool.QueryRow(ctx, q, userID, secretHash, expiresAt).Scan(&id)
	return id, err
}

func (r *tokenRepo) ConsumePasswordReset(ctx context.Context, tokenID int64, secret string) (int64, error) {
	const selectQ = `
		SELECT secret_hash
		FROM password_reset_tokens
		WHERE id = $1
		  AND used_at IS NULL
		  AND expires_at > now()`

	const claimQ = `
		UPDATE password_reset_tokens
		SET used_at = now()
		WHERE id = $1
		  AND used_at IS NULL
		  AND expires_at > now()
		RETURNING user_id`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var hash string
	err := r.pool.QueryRow(ctx, selectQ, tokenID).Scan(&hash)
	if err == pgx.ErrNoRows {
		return 0, nil // Unknown, used, or expired
	}
	if err != nil {
		return 0, err
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) != nil {
		return 0, nil
	}

	// The guarded update is the single point that consumes the token,
	// so a concurrent request racing past the select loses here.
	var userID int64
	err = r.pool.QueryRow(ctx, claimQ, tokenID).Scan(&userID)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return userID, nil
}

func (r *tokenRepo) DeleteExpiredTokens(ctx context.Context) (int64, error) {
	const q = `
		WITH verify AS (
			DELETE FROM email_verification_tokens
			WHERE (used_at IS NOT NULL AND used_at < now() - interval '30 days')
			   OR (used_at IS NULL AND expires_at < now() - interval '7 days')
			RETURNING 1
		), reset AS (
			DELETE FROM password_reset_tokens
			WHERE (used_at IS NOT NULL AND used_at < now() - interval '30 days')
			   OR (used_at IS NULL AND expires_at < now() - interval '7 days')
			RETURNING 1
		)
		SELECT (SELECT count(*) FROM verify) + (SELECT count(*) FROM reset)`

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var n int64
	if err := r.pool.QueryRow(ctx, q).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
