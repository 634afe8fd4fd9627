package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andresvco/storefront-core/internal/auth/application"
	"github.com/andresvco/storefront-core/internal/auth/domain"
)

const pgUniqueViolation = "23505"

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

// CreateUser inserts the user and, for the "user" role, their cart in one
// transaction so a shopper never exists without a cart.
func (r *Repository) CreateUser(ctx context.Context, name, email, passwordHash, role string) (domain.User, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.User{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var user domain.User
	err = tx.QueryRow(ctx, `
INSERT INTO users (name, email, password_hash, role)
VALUES ($1, $2, $3, $4)
RETURNING id, uuid, name, email, password_hash, role, created_at, updated_at`,
		name, email, passwordHash, role).
		Scan(&user.ID, &user.UUID, &user.Name, &user.Email, &user.PasswordHash,
			&user.Role, &user.CreatedAt, &user.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return domain.User{}, application.ErrEmailTaken
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}

	if role == domain.RoleUser {
		err = tx.QueryRow(ctx,
			`INSERT INTO carts (user_id, total) VALUES ($1, 0) RETURNING uuid`, user.ID).
			Scan(&user.CartUUID)
		if err != nil {
			return domain.User{}, fmt.Errorf("provision cart: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

const userQuery = `
SELECT u.id, u.uuid, u.name, u.email, u.password_hash, u.role,
       COALESCE(c.uuid::text, ''), u.verified_at, u.created_at, u.updated_at
  FROM users u
  LEFT JOIN carts c ON c.user_id = u.id`

func (r *Repository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getOne(ctx, userQuery+` WHERE u.email = $1`, email)
}

func (r *Repository) GetByUUID(ctx context.Context, uuid string) (domain.User, error) {
	return r.getOne(ctx, userQuery+` WHERE u.uuid = $1`, uuid)
}

func (r *Repository) getOne(ctx context.Context, query string, arg any) (domain.User, error) {
	var user domain.User
	err := r.pool.QueryRow(ctx, query, arg).
		Scan(&user.ID, &user.UUID, &user.Name, &user.Email, &user.PasswordHash,
			&user.Role, &user.CartUUID, &user.VerifiedAt, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, application.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (r *Repository) MarkVerified(ctx context.Context, uuid string) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE users SET verified_at = COALESCE(verified_at, now()), updated_at = now() WHERE uuid = $1`, uuid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return application.ErrUserNotFound
	}
	return nil
}
