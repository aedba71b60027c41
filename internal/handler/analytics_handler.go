package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/boddenberg/finance-store-go/internal/service"
)

// ============================================================
// Dashboard, analytics & stats
// ============================================================

func dashboardHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard")
		defer span.End()

		summary, err := svc.Dashboard(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

// analyticsHandler accepts ?months, ?windowDays and ?days.
func analyticsHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/analytics")
		defer span.End()

		var opts service.AnalyticsOptions
		var err error
		for name, dst := range map[string]*int{
			"months":     &opts.Months,
			"windowDays": &opts.WindowDays,
			"days":       &opts.Days,
		} {
			if *dst, err = queryInt(r, name); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
		}

		report, err := svc.Analytics(ctx, opts)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func statsHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/stats")
		defer span.End()

		stats, err := svc.Stats()
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}
