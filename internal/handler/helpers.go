package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/boddenberg/finance-store-go/internal/domain"
	"github.com/boddenberg/finance-store-go/internal/infra/resilience"
	"github.com/boddenberg/finance-store-go/internal/store"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error      string             `json:"error"`
	Violations []domain.Violation `json:"violations,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// decodeBody decodes a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// decodeFields decodes a JSON object body into a patch.
func decodeFields(r *http.Request) (store.Fields, error) {
	var fields store.Fields
	if err := decodeBody(r, &fields); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errors.New("patch must set at least one field")
	}
	return fields, nil
}

// queryInt reads a non-negative integer query parameter, 0 when absent.
func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}

// queryMillis reads a timestamp given either as epoch milliseconds or as
// an RFC 3339 / YYYY-MM-DD date. 0 when absent.
func queryMillis(r *http.Request, name string) (int64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return ms, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, v); err == nil {
			return domain.Millis(t), nil
		}
	}
	return 0, fmt.Errorf("%s must be epoch milliseconds or a date", name)
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var validation *domain.ErrValidation
	var notFound *domain.ErrNotFound
	var duplicate *domain.ErrDuplicateKey
	var inUse *domain.ErrAccountInUse
	var notReady *domain.ErrNotReady
	var initErr *domain.ErrInitialization

	switch {
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Violations: validation.Violations})
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &duplicate):
		logger.Debug("duplicate key", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &inUse):
		logger.Info("account delete blocked",
			zap.String("account_id", inUse.AccountID),
			zap.Int("transactions", inUse.Transactions),
		)
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &notReady):
		logger.Warn("store not ready", zap.String("state", notReady.State))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &initErr):
		logger.Error("store initialization failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case resilience.IsOpen(err):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "storage temporarily unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		logger.Error("request timeout", zap.Error(err))
		writeError(w, http.StatusGatewayTimeout, err.Error())
	default:
		logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
