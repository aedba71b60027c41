package handler

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/boddenberg/finance-store-go/internal/infra/observability"
	"github.com/boddenberg/finance-store-go/internal/port"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"
	idempotencyCache  = "idempotency"
)

// Replay is a response stored under an idempotency key.
type Replay struct {
	Status      int
	ContentType string
	Body        []byte
}

// Idempotency replays the stored response for a write request that repeats
// an Idempotency-Key. Keys are scoped by method and path. Server errors are
// not stored so the client can retry them.
func Idempotency(replays port.Cache[Replay], metrics *observability.Metrics, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(idempotencyHeader)
			if key == "" || !isWrite(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			cacheKey := r.Method + " " + r.URL.Path + " " + key

			if rep, ok := replays.Get(cacheKey); ok {
				metrics.IncrCacheHit(idempotencyCache)
				logger.Debug("idempotent replay", zap.String("idempotency_key", key))
				w.Header().Set("Content-Type", rep.ContentType)
				w.Header().Set(replayedHeader, "true")
				w.WriteHeader(rep.Status)
				w.Write(rep.Body)
				return
			}
			metrics.IncrCacheMiss(idempotencyCache)

			var body bytes.Buffer
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&body)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if status < http.StatusInternalServerError {
				replays.Set(cacheKey, Replay{
					Status:      status,
					ContentType: ww.Header().Get("Content-Type"),
					Body:        body.Bytes(),
				})
			}
		})
	}
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
