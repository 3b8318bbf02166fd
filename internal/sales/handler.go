package sales

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stockroom-hq/stockroom/internal/platform/httpx"
	"github.com/stockroom-hq/stockroom/internal/tenancy"
)

// Handler serves sale endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers sale routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.record)
	r.Get("/{id}", h.get)
}

type saleRequest struct {
	ProductID      int64  `json:"product_id" validate:"required,gt=0"`
	Quantity       int64  `json:"quantity" validate:"required,gt=0"`
	UnitPriceCents int64  `json:"unit_price_cents" validate:"gte=0"`
	SaleDate       string `json:"sale_date"`
	Notes          string `json:"notes" validate:"max=1024"`
}

type saleListResponse struct {
	Sales []Sale `json:"sales"`
	Total int    `json:"total"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	scope, ok := tenancy.FromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	q := r.URL.Query()
	filter := ListFilter{}
	filter.ProductID, _ = strconv.ParseInt(q.Get("product_id"), 10, 64)
	if v := q.Get("from"); v != "" {
		filter.From, _ = time.Parse(time.RFC3339, v)
	}
	if v := q.Get("to"); v != "" {
		filter.To, _ = time.Parse(time.RFC3339, v)
	}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))

	out, total, err := h.service.List(r.Context(), scope, filter)
	if err != nil {
		h.logger.Error("list sales", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if out == nil {
		out = []Sale{}
	}
	httpx.JSON(w, http.StatusOK, saleListResponse{Sales: out, Total: total})
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	scope, ok := tenancy.FromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req saleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	var saleDate time.Time
	if req.SaleDate != "" {
		parsed, err := time.Parse(time.RFC3339, req.SaleDate)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "sale_date must be RFC 3339")
			return
		}
		saleDate = parsed
	}
	sale, err := h.service.Record(r.Context(), scope, RecordInput{
		ProductID:      req.ProductID,
		Quantity:       req.Quantity,
		UnitPriceCents: req.UnitPriceCents,
		SaleDate:       saleDate,
		Notes:          req.Notes,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sale)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	scope, ok := tenancy.FromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid sale id")
		return
	}
	sale, err := h.service.Get(r.Context(), scope, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}
