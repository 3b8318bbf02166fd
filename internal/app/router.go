package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/stockroom-hq/stockroom/internal/auth"
	"github.com/stockroom-hq/stockroom/internal/catalog/categories"
	"github.com/stockroom-hq/stockroom/internal/catalog/products"
	"github.com/stockroom-hq/stockroom/internal/catalog/suppliers"
	"github.com/stockroom-hq/stockroom/internal/importer"
	"github.com/stockroom-hq/stockroom/internal/ledger"
	"github.com/stockroom-hq/stockroom/internal/observability"
	"github.com/stockroom-hq/stockroom/internal/procurement"
	"github.com/stockroom-hq/stockroom/internal/restock"
	"github.com/stockroom-hq/stockroom/internal/sales"
	"github.com/stockroom-hq/stockroom/jobs"
)

// RouterParams lists everything the HTTP router needs.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	TokenIssuer *auth.TokenIssuer

	AuthHandler        *auth.Handler
	ProductsHandler    *products.Handler
	CategoriesHandler  *categories.Handler
	SuppliersHandler   *suppliers.Handler
	SalesHandler       *sales.Handler
	MovementsHandler   *ledger.Handler
	ProcurementHandler *procurement.Handler
	RestockHandler     *restock.Handler
	ImporterHandler    *importer.Handler
	JobsHandler        *jobs.Handler
}

// NewRouter wires the middleware stack and all route groups.
func NewRouter(params RouterParams) chi.Router {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}
	if params.Config == nil || !params.Config.IsProduction() {
		r.Use(chimw.Logger)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(params.TokenIssuer))

		r.Route("/auth", func(r chi.Router) {
			params.AuthHandler.MountProtectedRoutes(r)
		})
		r.Route("/products", func(r chi.Router) {
			params.ProductsHandler.MountRoutes(r)
			r.Route("/{productID}/movements", func(r chi.Router) {
				params.MovementsHandler.MountRoutes(r)
			})
		})
		r.Route("/categories", func(r chi.Router) {
			params.CategoriesHandler.MountRoutes(r)
		})
		r.Route("/suppliers", func(r chi.Router) {
			params.SuppliersHandler.MountRoutes(r)
		})
		r.Route("/sales", func(r chi.Router) {
			params.SalesHandler.MountRoutes(r)
		})
		r.Route("/restock", func(r chi.Router) {
			params.RestockHandler.MountRoutes(r)
			r.Route("/orders", func(r chi.Router) {
				params.ProcurementHandler.MountRoutes(r)
			})
		})
		r.Route("/import", func(r chi.Router) {
			params.ImporterHandler.MountRoutes(r)
		})
		if params.JobsHandler != nil {
			r.Route("/jobs", func(r chi.Router) {
				params.JobsHandler.MountRoutes(r)
			})
		}
	})

	return r
}
