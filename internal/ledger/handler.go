package ledger

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stockroom-hq/stockroom/internal/platform/httpx"
	"github.com/stockroom-hq/stockroom/internal/tenancy"
)

// Handler serves the movement log endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches movement routes under a product.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
}

type movementListResponse struct {
	Movements []Movement `json:"movements"`
	Total     int        `json:"total"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	scope, ok := tenancy.FromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid product id")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	filter := ListFilter{
		ProductID: productID,
		Type:      MovementType(r.URL.Query().Get("type")),
		Limit:     limit,
		Offset:    offset,
	}

	movements, total, err := h.service.ListMovements(r.Context(), scope, filter)
	if err != nil {
		h.logger.Error("list movements", slog.Any("error", err), slog.Int64("product_id", productID))
		httpx.RespondError(w, err)
		return
	}
	if movements == nil {
		movements = []Movement{}
	}
	httpx.JSON(w, http.StatusOK, movementListResponse{Movements: movements, Total: total})
}
