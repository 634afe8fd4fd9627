package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/andresvco/storefront-core/internal/auth/domain"
	"github.com/andresvco/storefront-core/pkg/token"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrEmailTaken     = errors.New("email already registered")
	ErrUserNotFound   = errors.New("user not found")
	ErrBadCredentials = errors.New("invalid email or password")
	ErrNotVerified    = errors.New("account not verified")
	ErrTokenUsed      = errors.New("verification token already used")
)

const (
	verificationTTL = 24 * time.Hour
	sessionTTL      = 12 * time.Hour
)

type Service struct {
	log    *slog.Logger
	repo   Repository
	tokens TokenIssuer
	once   OnceStore
}

func NewService(log *slog.Logger, repo Repository, tokens TokenIssuer, once OnceStore) *Service {
	return &Service{log: log, repo: repo, tokens: tokens, once: once}
}

type SignupResult struct {
	User              domain.User
	VerificationToken string
	ExpiresAt         time.Time
}

// Signup registers a new user with role "user" and returns a short-lived
// verification token. Callers deliver the token out of band; the account
// cannot log in until it is redeemed.
func (s *Service) Signup(ctx context.Context, name, email, password string) (SignupResult, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || !strings.Contains(email, "@") || len(password) < 8 {
		return SignupResult{}, ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return SignupResult{}, err
	}

	user, err := s.repo.CreateUser(ctx, name, email, string(hash), domain.RoleUser)
	if err != nil {
		return SignupResult{}, err
	}

	verification, exp, err := s.tokens.Issue(user.UUID, "", user.Role, token.TypeVerification, verificationTTL)
	if err != nil {
		return SignupResult{}, err
	}

	s.log.InfoContext(ctx, "user signed up", "user_uuid", user.UUID, "email", user.Email)
	return SignupResult{User: user, VerificationToken: verification, ExpiresAt: exp}, nil
}

// Verify redeems a verification token. Each token works exactly once even if
// the account is already verified.
func (s *Service) Verify(ctx context.Context, tokenStr string) (domain.User, error) {
	claims, err := s.tokens.Parse(tokenStr, token.TypeVerification)
	if err != nil {
		return domain.User{}, err
	}

	if err := s.repo.MarkVerified(ctx, claims.UserID); err != nil {
		return domain.User{}, err
	}

	// Burn the token only after the verification write landed, so a transient
	// store failure leaves the token redeemable on retry.
	used, err := s.once.Seen(ctx, s.once.TokenKey(claims.ID))
	if err != nil {
		return domain.User{}, err
	}
	if used {
		return domain.User{}, ErrTokenUsed
	}
	user, err := s.repo.GetByUUID(ctx, claims.UserID)
	if err != nil {
		return domain.User{}, err
	}
	s.log.InfoContext(ctx, "user verified", "user_uuid", user.UUID)
	return user, nil
}

type LoginResult struct {
	User         domain.User
	SessionToken string
	ExpiresAt    time.Time
}

func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return LoginResult{}, ErrBadCredentials
	}
	if err != nil {
		return LoginResult{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return LoginResult{}, ErrBadCredentials
	}
	if !user.Verified() {
		return LoginResult{}, ErrNotVerified
	}

	session, exp, err := s.tokens.Issue(user.UUID, user.CartUUID, user.Role, token.TypeSession, sessionTTL)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{User: user, SessionToken: session, ExpiresAt: exp}, nil
}

// Authenticate resolves a bearer token into its claims.
func (s *Service) Authenticate(tokenStr string) (*token.Claims, error) {
	return s.tokens.Parse(tokenStr, token.TypeSession)
}
