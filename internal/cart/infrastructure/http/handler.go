package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	authhttp "github.com/andresvco/storefront-core/internal/auth/infrastructure/http"
	"github.com/andresvco/storefront-core/internal/cart/application"
	"github.com/andresvco/storefront-core/internal/cart/domain"
	"github.com/andresvco/storefront-core/internal/stock"
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
	r.Get("/", h.get)
	r.Post("/items", h.addItem)
	r.Delete("/items/{productID}", h.removeItem)
	return r
}

type cartView struct {
	ID    string     `json:"id"`
	Total string     `json:"total"`
	Lines []lineView `json:"lines"`
}

type lineView struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int32  `json:"quantity"`
}

func renderCart(c domain.Cart) cartView {
	view := cartView{ID: c.UUID, Total: c.Total.StringFixed(2), Lines: []lineView{}}
	for _, l := range c.Lines {
		view.Lines = append(view.Lines, lineView{
			ProductID: l.ProductUUID,
			Name:      l.ProductName,
			UnitPrice: l.UnitPrice.StringFixed(2),
			Quantity:  l.Quantity,
		})
	}
	return view
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	claims := authhttp.PrincipalFrom(r.Context())
	cart, err := h.service.Get(r.Context(), claims.CartID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, renderCart(cart))
}

type addItemReq struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int32  `json:"quantity"`
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	claims := authhttp.PrincipalFrom(r.Context())
	cart, err := h.service.AddItem(r.Context(), claims.CartID, req.ProductID, req.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, renderCart(cart))
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	claims := authhttp.PrincipalFrom(r.Context())
	cart, err := h.service.RemoveItem(r.Context(), claims.CartID, chi.URLParam(r, "productID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, renderCart(cart))
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, application.ErrInvalidQuantity):
		httpx.Error(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, application.ErrCartNotFound):
		httpx.Error(w, http.StatusNotFound, "cart_not_found", err.Error())
	case errors.Is(err, application.ErrLineNotFound):
		httpx.Error(w, http.StatusNotFound, "line_not_found", err.Error())
	case errors.Is(err, stock.ErrProductNotFound):
		httpx.Error(w, http.StatusNotFound, "product_not_found", err.Error())
	case errors.Is(err, stock.ErrInsufficientStock):
		httpx.Error(w, http.StatusConflict, "insufficient_stock", err.Error())
	default:
		h.log.Error("cart request failed", "error", err)
		httpx.Error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
