package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/andresvco/storefront-core/internal/auth/application"
	"github.com/andresvco/storefront-core/internal/auth/domain"
	"github.com/andresvco/storefront-core/pkg/httpx"
	"github.com/andresvco/storefront-core/pkg/token"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/signup", h.signup)
	r.Post("/verify", h.verify)
	r.Post("/login", h.login)
	return r
}

type signupReq struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req signupReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	res, err := h.service.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"user_id":            res.User.UUID,
		"verification_token": res.VerificationToken,
		"expires_at":         res.ExpiresAt.Format(time.RFC3339),
	})
}

type verifyReq struct {
	Token string `json:"token" validate:"required"`
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	var req verifyReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	user, err := h.service.Verify(r.Context(), req.Token)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"user_id": user.UUID, "status": "verified"})
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	res, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{
		"token":      res.SessionToken,
		"expires_at": res.ExpiresAt.Format(time.RFC3339),
		"user_id":    res.User.UUID,
		"cart_id":    res.User.CartUUID,
		"role":       res.User.Role,
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, application.ErrInvalidInput):
		httpx.Error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, application.ErrEmailTaken):
		httpx.Error(w, http.StatusConflict, "email_taken", err.Error())
	case errors.Is(err, application.ErrBadCredentials):
		httpx.Error(w, http.StatusUnauthorized, "bad_credentials", err.Error())
	case errors.Is(err, application.ErrNotVerified):
		httpx.Error(w, http.StatusForbidden, "not_verified", err.Error())
	case errors.Is(err, application.ErrTokenUsed):
		httpx.Error(w, http.StatusConflict, "token_used", err.Error())
	case errors.Is(err, token.ErrInvalidToken):
		httpx.Error(w, http.StatusUnauthorized, "invalid_token", err.Error())
	case errors.Is(err, application.ErrUserNotFound):
		httpx.Error(w, http.StatusNotFound, "user_not_found", err.Error())
	default:
		h.log.Error("auth request failed", "error", err)
		httpx.Error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

type principalKey struct{}

// PrincipalFrom returns the claims attached by Middleware, or nil when the
// request was not authenticated.
func PrincipalFrom(ctx context.Context) *token.Claims {
	claims, _ := ctx.Value(principalKey{}).(*token.Claims)
	return claims
}

// Middleware authenticates the bearer token and stores the principal on the
// request context. Requests without a valid session token are rejected.
func (h *Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if raw == "" || raw == r.Header.Get("Authorization") {
			httpx.Error(w, http.StatusUnauthorized, "invalid_token", "missing bearer token")
			return
		}
		claims, err := h.service.Authenticate(raw)
		if err != nil {
			httpx.Error(w, http.StatusUnauthorized, "invalid_token", "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, claims)))
	})
}

// RequireAdmin gates a route to the admin role. It must sit inside Middleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := PrincipalFrom(r.Context())
		if claims == nil || claims.Role != domain.RoleAdmin {
			httpx.Error(w, http.StatusForbidden, "forbidden", "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
