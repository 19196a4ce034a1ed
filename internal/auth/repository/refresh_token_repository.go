package repository

import (
	"context"
	"net/http"
	"time"

	authdomain "github.com/AlibekovAA/jwt-auth/internal/auth/domain"
	commondb "github.com/AlibekovAA/jwt-auth/internal/common/db"
	commonerrors "github.com/AlibekovAA/jwt-auth/internal/common/errors"
)

type RefreshTokenRepository interface {
	Create(ctx context.Context, token authdomain.RefreshToken) error
	FindByJTIHash(ctx context.Context, hash string) (authdomain.RefreshToken, error)
	DeleteExcessByUserID(ctx context.Context, userID string, keep int) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type PgRefreshTokenRepository struct {
	db commondb.Querier
}

func NewPgRefreshTokenRepository(db commondb.Querier) *PgRefreshTokenRepository {
	return &PgRefreshTokenRepository{db: db}
}

func (r *PgRefreshTokenRepository) Create(ctx context.Context, token authdomain.RefreshToken) error {
	start := time.Now()
	_, err := commondb.QuerierFrom(ctx, r.db).Exec(
		ctx,
		`INSERT INTO refresh_tokens (id, jti_hash, user_id, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		token.ID,
		token.JTIHash,
		token.UserID,
		token.ExpiresAt,
		token.CreatedAt,
	)
	return commondb.HandleExecError(err, "create refresh token", start)
}

func (r *PgRefreshTokenRepository) FindByJTIHash(ctx context.Context, hash string) (authdomain.RefreshToken, error) {
	start := time.Now()
	row := commondb.QuerierFrom(ctx, r.db).QueryRow(
		ctx,
		`SELECT id::text, jti_hash, user_id::text, expires_at, created_at
		 FROM refresh_tokens
		 WHERE jti_hash = $1`,
		hash,
	)

	var token authdomain.RefreshToken
	err := row.Scan(&token.ID, &token.JTIHash, &token.UserID, &token.ExpiresAt, &token.CreatedAt)
	if err := commondb.HandleQueryError(err, ErrRefreshTokenNotFound, "find refresh token", start); err != nil {
		return authdomain.RefreshToken{}, err
	}
	return token, nil
}

// DeleteExcessByUserID keeps the newest keep tokens of the user and deletes
// the rest.
func (r *PgRefreshTokenRepository) DeleteExcessByUserID(ctx context.Context, userID string, keep int) (int64, error) {
	start := time.Now()
	res, err := commondb.QuerierFrom(ctx, r.db).Exec(
		ctx,
		`DELETE FROM refresh_tokens
		 WHERE user_id = $1
		   AND id NOT IN (
		 	SELECT id
		 	FROM refresh_tokens
		 	WHERE user_id = $1
		 	ORDER BY created_at DESC, id DESC
		 	LIMIT $2
		 )`,
		userID,
		keep,
	)
	if err := commondb.HandleExecError(err, "delete excess refresh tokens", start); err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

func (r *PgRefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	start := time.Now()
	res, err := commondb.QuerierFrom(ctx, r.db).Exec(
		ctx,
		`DELETE FROM refresh_tokens WHERE expires_at <= $1`,
		now,
	)
	if err := commondb.HandleExecError(err, "delete expired refresh tokens", start); err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

var ErrRefreshTokenNotFound = commonerrors.NewDomainError(
	"refresh_token_not_found",
	commonerrors.CategoryNotFound,
	http.StatusUnauthorized,
	"refresh token is not outstanding",
)
