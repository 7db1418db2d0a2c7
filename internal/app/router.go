package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dentastock/dentastock/internal/auth"
	"github.com/dentastock/dentastock/internal/catalog"
	"github.com/dentastock/dentastock/internal/describer"
	"github.com/dentastock/dentastock/internal/partners"
	"github.com/dentastock/dentastock/internal/procurement"
	"github.com/dentastock/dentastock/internal/reports"
	"github.com/dentastock/dentastock/internal/sales"
	"github.com/dentastock/dentastock/internal/shared"
	"github.com/dentastock/dentastock/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	SessionManager     *shared.SessionManager
	AuthHandler        *auth.Handler
	UsersHandler       *users.Handler
	CatalogHandler     *catalog.Handler
	PartnersHandler    *partners.Handler
	SalesHandler       *sales.Handler
	ProcurementHandler *procurement.Handler
	ReportsHandler     *reports.Handler
	DescriberHandler   *describer.Handler
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)

		r.Route("/users", func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			params.UsersHandler.MountRoutes(r)
		})
		r.Route("/products", params.CatalogHandler.MountRoutes)
		r.Route("/customers", params.PartnersHandler.MountCustomerRoutes)
		r.Route("/suppliers", params.PartnersHandler.MountSupplierRoutes)
		r.Route("/sales", params.SalesHandler.MountSaleRoutes)
		r.Route("/sales-orders", params.SalesHandler.MountOrderRoutes)
		r.Route("/purchase-orders", params.ProcurementHandler.MountOrderRoutes)
		r.Route("/purchase-requests", params.ProcurementHandler.MountRequestRoutes)
		r.Route("/reports", params.ReportsHandler.MountRoutes)
	})

	// The description generator mirrors a serverless function surface:
	// it performs its own method checks and is open to unauthenticated
	// calls from the storefront widget.
	r.HandleFunc("/api/generate-description", params.DescriberHandler.Generate)

	return r
}
