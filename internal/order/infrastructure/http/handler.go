package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	authdomain "github.com/andresvco/storefront-core/internal/auth/domain"
	authhttp "github.com/andresvco/storefront-core/internal/auth/infrastructure/http"
	cartapp "github.com/andresvco/storefront-core/internal/cart/application"
	"github.com/andresvco/storefront-core/internal/order/application"
	"github.com/andresvco/storefront-core/internal/order/domain"
	"github.com/andresvco/storefront-core/pkg/httpx"
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
	r.Post("/checkout", h.checkout)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	return r
}

type orderView struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Total     string          `json:"total"`
	CreatedAt string          `json:"created_at"`
	Lines     []orderLineView `json:"lines"`
}

type orderLineView struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int32  `json:"quantity"`
}

func renderOrder(o domain.Order) orderView {
	view := orderView{
		ID:        o.UUID,
		UserID:    o.UserUUID,
		Total:     o.Total.StringFixed(2),
		CreatedAt: o.CreatedAt.UTC().Format(time.RFC3339),
		Lines:     []orderLineView{},
	}
	for _, l := range o.Lines {
		view.Lines = append(view.Lines, orderLineView{
			ProductID: l.ProductUUID,
			Name:      l.ProductName,
			Quantity:  l.Quantity,
		})
	}
	return view
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	claims := authhttp.PrincipalFrom(r.Context())
	order, err := h.service.Checkout(r.Context(), claims.CartID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, renderOrder(order))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	claims := authhttp.PrincipalFrom(r.Context())
	if claims.Role != authdomain.RoleAdmin && order.UserUUID != claims.UserID {
		httpx.Error(w, http.StatusNotFound, "order_not_found", application.ErrOrderNotFound.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, renderOrder(order))
}

// list returns the caller's own orders; admins see everyone's, paged.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	claims := authhttp.PrincipalFrom(r.Context())

	var orders []domain.Order
	var err error
	if claims.Role == authdomain.RoleAdmin {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		orders, err = h.service.List(r.Context(), limit, offset)
	} else {
		orders, err = h.service.ListForUser(r.Context(), claims.UserID)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, renderOrder(o))
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, application.ErrEmptyCart):
		httpx.Error(w, http.StatusConflict, "empty_cart", err.Error())
	case errors.Is(err, application.ErrOrderNotFound):
		httpx.Error(w, http.StatusNotFound, "order_not_found", err.Error())
	case errors.Is(err, cartapp.ErrCartNotFound):
		httpx.Error(w, http.StatusNotFound, "cart_not_found", err.Error())
	default:
		h.log.Error("order request failed", "error", err)
		httpx.Error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
