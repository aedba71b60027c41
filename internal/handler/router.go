// Package handler exposes the finance store over HTTP with chi.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/boddenberg/finance-store-go/internal/infra/observability"
	"github.com/boddenberg/finance-store-go/internal/port"
	"github.com/boddenberg/finance-store-go/internal/service"
	"github.com/boddenberg/finance-store-go/internal/store"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
// replays may be nil to disable Idempotency-Key handling.
func NewRouter(svc *service.FinanceService, replays port.Cache[Replay], metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	logger = observability.Named(logger, "http")
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler(svc))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		if replays != nil {
			r.Use(Idempotency(replays, metrics, logger))
		}

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", listAccountsHandler(svc, logger))
			r.Post("/", createAccountHandler(svc, logger))
			r.Get("/{id}", getAccountHandler(svc, logger))
			r.Patch("/{id}", updateAccountHandler(svc, logger))
			r.Delete("/{id}", deleteAccountHandler(svc, logger))
			r.Get("/{id}/deletable", canDeleteAccountHandler(svc, logger))
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", listTransactionsHandler(svc, logger))
			r.Post("/", postTransactionHandler(svc, logger))
			r.Get("/{id}", getTransactionHandler(svc, logger))
			r.Patch("/{id}", updateTransactionHandler(svc, logger))
			r.Delete("/{id}", voidTransactionHandler(svc, logger))
		})

		r.Route("/budgets", func(r chi.Router) {
			r.Get("/", listBudgetsHandler(svc, logger))
			r.Post("/", createBudgetHandler(svc, logger))
			r.Get("/{id}", getBudgetHandler(svc, logger))
			r.Patch("/{id}", updateBudgetHandler(svc, logger))
			r.Delete("/{id}", deleteBudgetHandler(svc, logger))
		})

		r.Route("/investments", func(r chi.Router) {
			r.Get("/", listInvestmentsHandler(svc, logger))
			r.Post("/", createInvestmentHandler(svc, logger))
			r.Get("/{id}", getInvestmentHandler(svc, logger))
			r.Patch("/{id}", updateInvestmentHandler(svc, logger))
			r.Delete("/{id}", deleteInvestmentHandler(svc, logger))
		})

		r.Route("/goals", func(r chi.Router) {
			r.Get("/", listGoalsHandler(svc, logger))
			r.Post("/", createGoalHandler(svc, logger))
			r.Get("/{id}", getGoalHandler(svc, logger))
			r.Patch("/{id}", updateGoalHandler(svc, logger))
			r.Delete("/{id}", deleteGoalHandler(svc, logger))
			r.Post("/{id}/contributions", contributeToGoalHandler(svc, logger))
		})

		r.Get("/dashboard", dashboardHandler(svc, logger))
		r.Get("/analytics", analyticsHandler(svc, logger))
		r.Get("/stats", statsHandler(svc, logger))
	})

	return r
}

// ============================================================
// Operational endpoints
// ============================================================

type statusResponse struct {
	Status string `json:"status"`
}

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
	}
}

// readyzHandler reports 200 only once the store has been opened.
func readyzHandler(svc *service.FinanceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := svc.State()
		if state != store.StateReady {
			writeJSON(w, http.StatusServiceUnavailable, statusResponse{Status: state.String()})
			return
		}
		writeJSON(w, http.StatusOK, statusResponse{Status: state.String()})
	}
}
