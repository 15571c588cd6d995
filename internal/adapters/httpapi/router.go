package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/andrescamacho/flowtrading-go/internal/application/autosolve"
	"github.com/andrescamacho/flowtrading-go/internal/application/compiler"
	"github.com/andrescamacho/flowtrading-go/internal/application/runner"
	"github.com/andrescamacho/flowtrading-go/internal/domain/batch"
	"github.com/andrescamacho/flowtrading-go/internal/domain/bidbook"
	"github.com/andrescamacho/flowtrading-go/internal/domain/product"
	"github.com/andrescamacho/flowtrading-go/internal/domain/shared"
)

// Deps collects the application-layer services the router wires into
// handlers. Every port here is satisfied by either the memstore or
// the GORM persistence adapter, per spec section 6.2.
type Deps struct {
	Book       *bidbook.Book
	Registry   *product.Registry
	EdgeStore  product.EdgeStore
	BatchStore batch.Store
	Runner     *runner.Runner
	Gather     *compiler.GatherBatchHandler
	Mailbox    *autosolve.Mailbox
	Verifier   *TokenVerifier
	Clock      shared.Clock
}

// NewRouter assembles the chi.Mux serving spec section 6.1's full
// route table. /health is unauthenticated; every other route passes
// through TokenVerifier.Authenticate before its capability check.
func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	r.Get("/health", healthHandler)

	r.Group(func(authed chi.Router) {
		authed.Use(deps.Verifier.Authenticate)

		NewDemandHandlers(deps.Book, deps.Clock, deps.Mailbox).Mount(authed)
		NewPortfolioHandlers(deps.Book, deps.BatchStore, deps.Clock, deps.Mailbox).Mount(authed)
		NewProductHandlers(deps.Registry, deps.EdgeStore, deps.BatchStore, deps.Clock).Mount(authed)
		NewBatchHandlers(deps.Runner, deps.Gather, deps.Clock).Mount(authed)
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
