package repository

import (
	"context"
	"net/http"
	"time"

	commondb "github.com/AlibekovAA/jwt-auth/internal/common/db"
	commonerrors "github.com/AlibekovAA/jwt-auth/internal/common/errors"
	"github.com/AlibekovAA/jwt-auth/internal/user/domain"
)

const usernameConstraint = "users_username_key"

type Repository interface {
	Create(ctx context.Context, user domain.User) error
	FindByUsername(ctx context.Context, username string) (domain.User, error)
	FindByID(ctx context.Context, id domain.ID) (domain.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

type PgRepository struct {
	db commondb.Querier
}

func NewPgRepository(db commondb.Querier) *PgRepository {
	return &PgRepository{db: db}
}

func (r *PgRepository) Create(ctx context.Context, user domain.User) error {
	start := time.Now()
	_, err := commondb.QuerierFrom(ctx, r.db).Exec(
		ctx,
		`INSERT INTO users (id, username, first_name, last_name, email, password_hash, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		string(user.ID),
		user.Username,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.IsActive,
		user.CreatedAt,
	)
	if commondb.IsUniqueViolation(err, usernameConstraint) {
		commondb.MeasureQueryDuration("create user", start)
		return ErrUsernameAlreadyExists
	}
	return commondb.HandleExecError(err, "create user", start)
}

func (r *PgRepository) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.findOne(ctx, "find user by username", `WHERE username = $1`, username)
}

func (r *PgRepository) FindByID(ctx context.Context, id domain.ID) (domain.User, error) {
	return r.findOne(ctx, "find user by id", `WHERE id = $1`, string(id))
}

func (r *PgRepository) findOne(ctx context.Context, operation, where string, arg any) (domain.User, error) {
	start := time.Now()
	row := commondb.QuerierFrom(ctx, r.db).QueryRow(
		ctx,
		`SELECT id, username, first_name, last_name, email, password_hash, is_active, created_at
		 FROM users `+where,
		arg,
	)

	var (
		user domain.User
		id   string
	)
	err := row.Scan(
		&id,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.IsActive,
		&user.CreatedAt,
	)
	if err := commondb.HandleQueryError(err, ErrUserNotFound, operation, start); err != nil {
		return domain.User{}, err
	}
	user.ID = domain.ID(id)
	return user, nil
}

func (r *PgRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	start := time.Now()
	row := commondb.QuerierFrom(ctx, r.db).QueryRow(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`,
		username,
	)

	var exists bool
	if err := commondb.HandleQueryError(row.Scan(&exists), ErrUserNotFound, "check user exists", start); err != nil {
		return false, err
	}
	return exists, nil
}

var ErrUserNotFound = commonerrors.ErrUserNotFound

var ErrUsernameAlreadyExists = commonerrors.NewDomainError(
	"username_exists",
	commonerrors.CategoryConflict,
	http.StatusBadRequest,
	"A user with that username already exists.",
)
