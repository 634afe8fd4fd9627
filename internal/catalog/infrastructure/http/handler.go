package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	authhttp "github.com/andresvco/storefront-core/internal/auth/infrastructure/http"
	"github.com/andresvco/storefront-core/internal/catalog/application"
	"github.com/andresvco/storefront-core/internal/catalog/domain"
	"github.com/andresvco/storefront-core/pkg/httpx"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	auth    *authhttp.Handler
}

func NewHandler(log *slog.Logger, service *application.Service, auth *authhttp.Handler) *Handler {
	return &Handler{log: log, service: service, auth: auth}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	// Browsing is public.
	r.Get("/products", h.listProducts)
	r.Get("/products/{id}", h.getProduct)
	r.Get("/products/{id}/images", h.listImages)
	r.Get("/categories", h.listCategories)
	r.Get("/categories/{id}/products", h.listByCategory)

	// Likes need a session.
	r.Group(func(r chi.Router) {
		r.Use(h.auth.Middleware)
		r.Post("/products/{id}/like", h.like)
		r.Delete("/products/{id}/like", h.unlike)
	})

	// Catalog management is admin only.
	r.Group(func(r chi.Router) {
		r.Use(h.auth.Middleware, authhttp.RequireAdmin)
		r.Post("/products", h.createProduct)
		r.Put("/products/{id}", h.updateProduct)
		r.Delete("/products/{id}", h.deleteProduct)
		r.Post("/products/{id}/images", h.attachImage)
		r.Post("/categories", h.createCategory)
		r.Put("/categories/{id}", h.updateCategory)
		r.Delete("/categories/{id}", h.deleteCategory)
	})

	return r
}

type productView struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Price      string   `json:"price"`
	Stock      int32    `json:"stock"`
	Active     bool     `json:"active"`
	Likes      int64    `json:"likes"`
	Categories []string `json:"categories"`
}

func renderProduct(p domain.Product) productView {
	categories := p.Categories
	if categories == nil {
		categories = []string{}
	}
	return productView{
		ID:         p.UUID,
		Name:       p.Name,
		Price:      p.Price.StringFixed(2),
		Stock:      p.Stock,
		Active:     p.Active,
		Likes:      p.Likes,
		Categories: categories,
	}
}

type productReq struct {
	Name       string   `json:"name" validate:"required"`
	Price      string   `json:"price" validate:"required"`
	Stock      int32    `json:"stock" validate:"gte=0"`
	Active     *bool    `json:"active"`
	Categories []string `json:"categories"`
}

// active defaults to true when the field is omitted.
func (r productReq) active() bool {
	return r.Active == nil || *r.Active
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "bad_request", "price must be a decimal string")
		return
	}

	product, err := h.service.CreateProduct(r.Context(), application.NewProduct{
		Name: req.Name, Price: price, Stock: req.Stock, Active: req.active(), Categories: req.Categories,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, renderProduct(product))
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, renderProduct(product))
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	products, err := h.service.ListProducts(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeProducts(w, products)
}

func (h *Handler) listByCategory(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListByCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeProducts(w, products)
}

func (h *Handler) writeProducts(w http.ResponseWriter, products []domain.Product) {
	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, renderProduct(p))
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req productReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "bad_request", "price must be a decimal string")
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), application.ProductUpdate{
		Name: req.Name, Price: price, Stock: req.Stock, Active: req.active(), Categories: req.Categories,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, renderProduct(product))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type categoryReq struct {
	Name string `json:"name" validate:"required"`
}

type categoryView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	views := make([]categoryView, 0, len(categories))
	for _, c := range categories {
		views = append(views, categoryView{ID: c.UUID, Name: c.Name})
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	category, err := h.service.CreateCategory(r.Context(), req.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, categoryView{ID: category.UUID, Name: category.Name})
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	category, err := h.service.UpdateCategory(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, categoryView{ID: category.UUID, Name: category.Name})
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) like(w http.ResponseWriter, r *http.Request) {
	claims := authhttp.PrincipalFrom(r.Context())
	if err := h.service.Like(r.Context(), chi.URLParam(r, "id"), claims.UserID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) unlike(w http.ResponseWriter, r *http.Request) {
	claims := authhttp.PrincipalFrom(r.Context())
	if err := h.service.Unlike(r.Context(), chi.URLParam(r, "id"), claims.UserID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type imageReq struct {
	ObjectKey   string `json:"object_key" validate:"required"`
	ContentType string `json:"content_type" validate:"required"`
}

type imageView struct {
	ID          int64  `json:"id"`
	ObjectKey   string `json:"object_key"`
	ContentType string `json:"content_type"`
}

func (h *Handler) attachImage(w http.ResponseWriter, r *http.Request) {
	var req imageReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	img, err := h.service.AttachImage(r.Context(), chi.URLParam(r, "id"), req.ObjectKey, req.ContentType)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, imageView{ID: img.ID, ObjectKey: img.ObjectKey, ContentType: img.ContentType})
}

func (h *Handler) listImages(w http.ResponseWriter, r *http.Request) {
	images, err := h.service.ListImages(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	views := make([]imageView, 0, len(images))
	for _, img := range images {
		views = append(views, imageView{ID: img.ID, ObjectKey: img.ObjectKey, ContentType: img.ContentType})
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, application.ErrInvalidInput), errors.Is(err, application.ErrInvalidName):
		httpx.Error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, application.ErrProductNotFound):
		httpx.Error(w, http.StatusNotFound, "product_not_found", err.Error())
	case errors.Is(err, application.ErrCategoryNotFound):
		httpx.Error(w, http.StatusNotFound, "category_not_found", err.Error())
	case errors.Is(err, application.ErrProductInUse):
		httpx.Error(w, http.StatusConflict, "product_in_use", err.Error())
	case errors.Is(err, application.ErrAlreadyLiked):
		httpx.Error(w, http.StatusConflict, "already_liked", err.Error())
	case errors.Is(err, application.ErrLikeNotFound):
		httpx.Error(w, http.StatusNotFound, "like_not_found", err.Error())
	default:
		h.log.Error("catalog request failed", "error", err)
		httpx.Error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
