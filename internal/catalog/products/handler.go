package products

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stockroom-hq/stockroom/internal/platform/httpx"
	"github.com/stockroom-hq/stockroom/internal/shared"
	"github.com/stockroom-hq/stockroom/internal/tenancy"
)

// Handler serves product endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers product routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type productRequest struct {
	Name              string `json:"name" validate:"required,max=128"`
	SKU               string `json:"sku" validate:"max=64"`
	Description       string `json:"description" validate:"max=1024"`
	PriceCents        int64  `json:"price_cents" validate:"gte=0"`
	InitialQuantity   int64  `json:"initial_quantity" validate:"gte=0"`
	LowStockThreshold int64  `json:"low_stock_threshold" validate:"gte=0"`
	CategoryID        int64  `json:"category_id" validate:"gte=0"`
	SupplierID        int64  `json:"supplier_id" validate:"gte=0"`
}

type productPatch struct {
	Name              *string `json:"name" validate:"omitempty,max=128"`
	SKU               *string `json:"sku" validate:"omitempty,max=64"`
	Description       *string `json:"description" validate:"omitempty,max=1024"`
	PriceCents        *int64  `json:"price_cents" validate:"omitempty,gte=0"`
	Quantity          *int64  `json:"quantity" validate:"omitempty,gte=0"`
	LowStockThreshold *int64  `json:"low_stock_threshold" validate:"omitempty,gte=0"`
	CategoryID        *int64  `json:"category_id" validate:"omitempty,gte=0"`
	SupplierID        *int64  `json:"supplier_id" validate:"omitempty,gte=0"`
}

type productListResponse struct {
	Products   []Product         `json:"products"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	scope, ok := tenancy.FromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	q := r.URL.Query()
	filter := ListFilter{Search: q.Get("search")}
	filter.CategoryID, _ = strconv.ParseInt(q.Get("category_id"), 10, 64)
	filter.SupplierID, _ = strconv.ParseInt(q.Get("supplier_id"), 10, 64)
	filter.LowStock = q.Get("low_stock") == "true"

	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	pagination := shared.NewPagination(page, perPage, 0)
	filter.Limit = pagination.PerPage
	filter.Offset = pagination.Offset()

	out, total, err := h.service.List(r.Context(), scope, filter)
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if out == nil {
		out = []Product{}
	}
	httpx.JSON(w, http.StatusOK, productListResponse{
		Products:   out,
		Pagination: shared.NewPagination(pagination.Page, pagination.PerPage, total),
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	scope, ok := tenancy.FromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req productRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	p, err := h.service.Create(r.Context(), scope, CreateInput{
		Name:              req.Name,
		SKU:               req.SKU,
		Description:       req.Description,
		PriceCents:        req.PriceCents,
		InitialQuantity:   req.InitialQuantity,
		LowStockThreshold: req.LowStockThreshold,
		CategoryID:        req.CategoryID,
		SupplierID:        req.SupplierID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	scope, ok := tenancy.FromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid product id")
		return
	}
	p, err := h.service.Get(r.Context(), scope, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	scope, ok := tenancy.FromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid product id")
		return
	}
	var req productPatch
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	p, err := h.service.Update(r.Context(), scope, id, UpdateInput{
		Name:              req.Name,
		SKU:               req.SKU,
		Description:       req.Description,
		PriceCents:        req.PriceCents,
		Quantity:          req.Quantity,
		LowStockThreshold: req.LowStockThreshold,
		CategoryID:        req.CategoryID,
		SupplierID:        req.SupplierID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	scope, ok := tenancy.FromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid product id")
		return
	}
	if err := h.service.Delete(r.Context(), scope, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}
