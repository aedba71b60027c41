package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/boddenberg/finance-store-go/internal/config"
	"github.com/boddenberg/finance-store-go/internal/domain"
	"github.com/boddenberg/finance-store-go/internal/handler"
	"github.com/boddenberg/finance-store-go/internal/infra/cache"
	"github.com/boddenberg/finance-store-go/internal/infra/observability"
)

// startServer wires the store, service and router the way serve does and
// returns a running test server plus a stop function that closes the store.
func startServer(t *testing.T, c *config.Config) (*httptest.Server, func()) {
	t.Helper()
	metrics := observability.NewMetrics()
	facade := newFacade(c, metrics, zap.NewNop())
	if _, err := facade.Open(context.Background()); err != nil {
		t.Fatalf("open store: %v", err)
	}
	replays := cache.New[handler.Replay](c.IdempotencyTTL)
	srv := httptest.NewServer(handler.NewRouter(newService(c, facade, metrics, zap.NewNop()), replays, metrics, zap.NewNop()))
	return srv, func() {
		srv.Close()
		replays.Stop()
		if err := facade.Close(context.Background()); err != nil {
			t.Errorf("close store: %v", err)
		}
	}
}

func send(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

// TestIntegration_SQLiteFullFlow posts through the HTTP API, restarts the
// server on the same database file and reads the data back.
func TestIntegration_SQLiteFullFlow(t *testing.T) {
	t.Setenv("STORE_BACKEND", config.BackendSQLite)
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "finance.db"))
	t.Setenv("DEFAULT_CURRENCY", "EUR")
	c := config.Load()
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}

	srv, stop := startServer(t, c)

	var acct domain.Account
	if code := send(t, http.MethodPost, srv.URL+"/v1/accounts", map[string]any{
		"name": "Girokonto", "type": "checking", "balance": 500,
	}, &acct); code != http.StatusCreated {
		t.Fatalf("create account: %d", code)
	}
	if acct.Currency != "EUR" {
		t.Errorf("currency = %q, want EUR", acct.Currency)
	}

	var posting domain.Posting
	if code := send(t, http.MethodPost, srv.URL+"/v1/transactions", map[string]any{
		"accountId": acct.ID, "type": "expense", "amount": 120.25, "category": "rent",
		"date": domain.Millis(time.Now()),
	}, &posting); code != http.StatusCreated {
		t.Fatalf("post transaction: %d", code)
	}
	if posting.Account.Balance != 379.75 {
		t.Errorf("balance = %v, want 379.75", posting.Account.Balance)
	}
	stop()

	srv, stop = startServer(t, c)
	defer stop()

	var reloaded domain.Account
	if code := send(t, http.MethodGet, srv.URL+"/v1/accounts/"+acct.ID, nil, &reloaded); code != http.StatusOK {
		t.Fatalf("get account after restart: %d", code)
	}
	if reloaded.Balance != 379.75 {
		t.Errorf("balance after restart = %v, want 379.75", reloaded.Balance)
	}

	var txs []domain.Transaction
	if code := send(t, http.MethodGet, srv.URL+"/v1/transactions?accountId="+acct.ID, nil, &txs); code != http.StatusOK {
		t.Fatalf("list transactions: %d", code)
	}
	if len(txs) != 1 || txs[0].ID != posting.Transaction.ID {
		t.Errorf("transactions after restart = %+v", txs)
	}

	if code := send(t, http.MethodDelete, srv.URL+"/v1/accounts/"+acct.ID, nil, nil); code != http.StatusConflict {
		t.Errorf("delete referenced account: %d, want 409", code)
	}
}
