package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/finance-store-go/internal/domain"
	"github.com/boddenberg/finance-store-go/internal/service"
)

// ============================================================
// Transactions: /v1/transactions
// ============================================================

// listTransactionsHandler supports ?accountId, ?type, ?category, ?from,
// ?to and ?limit. Results are newest first.
func listTransactionsHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transactions")
		defer span.End()

		q := r.URL.Query()
		filter := service.TransactionFilter{
			AccountID: q.Get("accountId"),
			Type:      domain.TransactionType(q.Get("type")),
			Category:  q.Get("category"),
		}
		var err error
		if filter.From, err = queryMillis(r, "from"); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if filter.To, err = queryMillis(r, "to"); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if filter.Limit, err = queryInt(r, "limit"); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		txs, err := svc.ListTransactions(ctx, filter)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, txs)
	}
}

// postTransactionHandler records a transaction and applies it to the
// account balance. The response carries both records.
func postTransactionHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transactions")
		defer span.End()

		var tx domain.Transaction
		if err := decodeBody(r, &tx); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		span.SetAttributes(attribute.String("account.id", tx.AccountID))

		posting, err := svc.PostTransaction(ctx, tx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, posting)
	}
}

func getTransactionHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transactions/{id}")
		defer span.End()

		tx, err := svc.GetTransaction(ctx, chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, tx)
	}
}

func updateTransactionHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/transactions/{id}")
		defer span.End()

		fields, err := decodeFields(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		posting, err := svc.UpdateTransaction(ctx, chi.URLParam(r, "id"), fields)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, posting)
	}
}

// voidTransactionHandler deletes a transaction and returns the account
// with the balance effect reversed.
func voidTransactionHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/transactions/{id}")
		defer span.End()

		acct, err := svc.VoidTransaction(ctx, chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, acct)
	}
}
