package procurement

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

// Handler serves purchase order endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers purchase order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type orderRequest struct {
	SupplierID      int64  `json:"supplier_id" validate:"gte=0"`
	ProductID       int64  `json:"product_id" validate:"required,gt=0"`
	QuantityOrdered int64  `json:"quantity_ordered" validate:"required,gt=0"`
	UnitCostCents   int64  `json:"unit_cost_cents" validate:"gte=0"`
	Notes           string `json:"notes" validate:"max=1024"`
	OrderDate       string `json:"order_date"`
}

type orderPatch struct {
	SupplierID      *int64  `json:"supplier_id" validate:"omitempty,gte=0"`
	QuantityOrdered *int64  `json:"quantity_ordered" validate:"omitempty,gt=0"`
	UnitCostCents   *int64  `json:"unit_cost_cents" validate:"omitempty,gte=0"`
	Status          *string `json:"status" validate:"omitempty,oneof=pending completed cancelled"`
	Notes           *string `json:"notes" validate:"omitempty,max=1024"`
	OnTimeDelivery  *int32  `json:"on_time_delivery" validate:"omitempty,gte=1,lte=5"`
	QualityScore    *int32  `json:"quality_score" validate:"omitempty,gte=1,lte=5"`
	CostEfficiency  *int32  `json:"cost_efficiency" validate:"omitempty,gte=1,lte=5"`
	OverallRating   *int32  `json:"overall_rating" validate:"omitempty,gte=1,lte=5"`
}

type orderListResponse struct {
	Orders []PurchaseOrder `json:"orders"`
	Total  int             `json:"total"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	scope, ok := tenancy.FromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	q := r.URL.Query()
	filter := ListFilter{Status: Status(q.Get("status"))}
	if filter.Status != "" && !filter.Status.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "unknown status filter")
		return
	}
	filter.SupplierID, _ = strconv.ParseInt(q.Get("supplier_id"), 10, 64)
	filter.ProductID, _ = strconv.ParseInt(q.Get("product_id"), 10, 64)
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))

	out, total, err := h.service.List(r.Context(), scope, filter)
	if err != nil {
		h.logger.Error("list purchase orders", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if out == nil {
		out = []PurchaseOrder{}
	}
	httpx.JSON(w, http.StatusOK, orderListResponse{Orders: out, Total: total})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	scope, ok := tenancy.FromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req orderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	var orderDate time.Time
	if req.OrderDate != "" {
		parsed, err := time.Parse(time.RFC3339, req.OrderDate)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "order_date must be RFC 3339")
			return
		}
		orderDate = parsed
	}
	order, err := h.service.Create(r.Context(), scope, CreateInput{
		SupplierID:      req.SupplierID,
		ProductID:       req.ProductID,
		QuantityOrdered: req.QuantityOrdered,
		UnitCostCents:   req.UnitCostCents,
		Notes:           req.Notes,
		OrderDate:       orderDate,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	scope, ok := tenancy.FromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid order id")
		return
	}
	order, err := h.service.Get(r.Context(), scope, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	scope, ok := tenancy.FromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid order id")
		return
	}
	var req orderPatch
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input := UpdateInput{
		SupplierID:      req.SupplierID,
		QuantityOrdered: req.QuantityOrdered,
		UnitCostCents:   req.UnitCostCents,
		Notes:           req.Notes,
		OnTimeDelivery:  req.OnTimeDelivery,
		QualityScore:    req.QualityScore,
		CostEfficiency:  req.CostEfficiency,
		OverallRating:   req.OverallRating,
	}
	if req.Status != nil {
		status := Status(*req.Status)
		input.Status = &status
	}
	order, err := h.service.Update(r.Context(), scope, id, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	scope, ok := tenancy.FromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid order id")
		return
	}
	if err := h.service.Delete(r.Context(), scope, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}
