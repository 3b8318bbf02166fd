package importer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stockroom-hq/stockroom/internal/platform/httpx"
	"github.com/stockroom-hq/stockroom/internal/tenancy"
)

// Handler serves CSV import endpoints. Files arrive as multipart
// uploads under the "file" field.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers import routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/products", h.importKind(func(ctx context.Context, scope tenancy.Scope, _ string, file io.Reader) (Report, error) {
		return h.service.ImportProducts(ctx, scope, file)
	}))
	r.Post("/suppliers", h.importKind(func(ctx context.Context, scope tenancy.Scope, _ string, file io.Reader) (Report, error) {
		return h.service.ImportSuppliers(ctx, scope, file)
	}))
	r.Post("/categories", h.importKind(func(ctx context.Context, scope tenancy.Scope, _ string, file io.Reader) (Report, error) {
		return h.service.ImportCategories(ctx, scope, file)
	}))
	r.Post("/sales/{sku}", h.importKind(func(ctx context.Context, scope tenancy.Scope, sku string, file io.Reader) (Report, error) {
		return h.service.ImportSales(ctx, scope, sku, file)
	}))
}

const maxUploadBytes = 10 << 20

func (h *Handler) importKind(run func(ctx context.Context, scope tenancy.Scope, sku string, file io.Reader) (Report, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := tenancy.FromContext(r.Context())
		if !ok {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "expected multipart upload with a file field")
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "missing file field")
			return
		}
		defer file.Close()

		report, err := run(r.Context(), scope, chi.URLParam(r, "sku"), file)
		if err != nil {
			if errors.Is(err, ErrBadFile) {
				httpx.Problem(w, http.StatusBadRequest, "Bad File", err.Error())
				return
			}
			h.logger.Error("csv import failed", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, report)
	}
}
