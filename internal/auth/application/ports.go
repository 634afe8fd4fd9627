package application

import (
	"context"
	"time"

	"github.com/andresvco/storefront-core/internal/auth/domain"
	"github.com/andresvco/storefront-core/pkg/token"
)

// Repository persists users. CreateUser also provisions the user's cart in
// the same transaction when the role is "user".
type Repository interface {
	CreateUser(ctx context.Context, name, email, passwordHash, role string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByUUID(ctx context.Context, uuid string) (domain.User, error)
	MarkVerified(ctx context.Context, uuid string) error
}

// TokenIssuer signs and validates the JWTs handed to clients.
type TokenIssuer interface {
	Issue(userID, cartID, role, typ string, ttl time.Duration) (string, time.Time, error)
	Parse(tokenStr, wantType string) (*token.Claims, error)
}

// OnceStore marks verification tokens as consumed at most once.
type OnceStore interface {
	TokenKey(tokenID string) string
	Seen(ctx context.Context, key string) (bool, error)
}
