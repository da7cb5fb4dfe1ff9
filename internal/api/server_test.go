package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/stockrobo/stockrobo/internal/auth"
	"github.com/stockrobo/stockrobo/internal/config"
	"github.com/stockrobo/stockrobo/internal/data"
	"github.com/stockrobo/stockrobo/internal/execution"
	"github.com/stockrobo/stockrobo/internal/scanner"
	"github.com/stockrobo/stockrobo/pkg/types"
)

type fakeProvider struct {
	bars map[string][]types.PriceBar
}

func (f *fakeProvider) History(_ context.Context, symbol, _, _ string) ([]types.PriceBar, error) {
	if bars, ok := f.bars[symbol]; ok {
		return bars, nil
	}
	return nil, fmt.Errorf("no data for %s", symbol)
}

func (f *fakeProvider) RealtimePrice(context.Context, string) (float64, error) {
	return 0, fmt.Errorf("not implemented")
}

func testBars(n int) []types.PriceBar {
	bars := make([]types.PriceBar, n)
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		c := 100 + float64(i)
		bars[i] = types.PriceBar{
			Timestamp: base.AddDate(0, 0, i),
			Open:      c, High: c + 1, Low: c - 1, Close: c,
			Volume: 1000,
		}
	}
	return bars
}

func newTestServer(t *testing.T, authn *auth.Authenticator) (*Server, *data.Store) {
	t.Helper()
	dir := t.TempDir()

	store, err := data.NewStore(zap.NewNop(), filepath.Join(dir, "bars"))
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	provider := &fakeProvider{bars: map[string][]types.PriceBar{"AAPL": testBars(40)}}
	ledger := execution.NewLedger(zap.NewNop(), filepath.Join(dir, "state.json"), execution.DefaultCashBalance, nil)

	s := NewServer(zap.NewNop(), config.ServerConfig{Host: "127.0.0.1", Port: 8080}, Deps{
		Store:         store,
		Ledger:        ledger,
		Scanner:       scanner.NewScanner(zap.NewNop(), provider, nil),
		Auth:          authn,
		Symbols:       []string{"AAPL"},
		WatchlistFile: filepath.Join(dir, "watchlist.json"),
	})
	return s, store
}

func TestHandleHealth(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", body["status"])
	}
}

func TestHandlePortfolio(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/portfolio", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		CashBalance float64        `json:"cash_balance"`
		Portfolio   map[string]int `json:"portfolio"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.CashBalance != execution.DefaultCashBalance {
		t.Errorf("expected starting cash, got %f", body.CashBalance)
	}
}

func TestHandleHistory(t *testing.T) {
	s, store := newTestServer(t, nil)
	if err := store.SaveBars("MSFT", data.PeriodSixMonths, testBars(5)); err != nil {
		t.Fatalf("seeding store: %v", err)
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/data/history/MSFT", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Symbol string           `json:"symbol"`
		Count  int              `json:"count"`
		Bars   []types.PriceBar `json:"bars"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.Symbol != "MSFT" || body.Count != 5 {
		t.Errorf("unexpected history response: %+v", body)
	}

	// Unknown symbol is a 404, not a 500.
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/data/history/NOPE", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown symbol, got %d", rec.Code)
	}
}

func TestHandleWatchlistNotGenerated(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/watchlist", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 without a generated watchlist, got %d", rec.Code)
	}
}

func TestScanJobLifecycle(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/scan/run", strings.NewReader(`{}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 starting scan, got %d", rec.Code)
	}
	var started struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &started); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if started.Status != "running" || started.ID == "" {
		t.Fatalf("unexpected start response: %+v", started)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		rec = httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/scan/"+started.ID, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 polling scan, got %d", rec.Code)
		}
		var state ScanState
		if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
			t.Fatalf("decoding scan state: %v", err)
		}
		if state.Status == "completed" {
			if state.Result == nil || len(state.Result.Symbols) != 1 {
				t.Errorf("unexpected scan result: %+v", state.Result)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("scan did not complete, state %+v", state)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestScanNotFound(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/scan/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown scan, got %d", rec.Code)
	}
}

func TestRequireAuth(t *testing.T) {
	authn := auth.NewAuthenticator("api-secret")
	s, _ := newTestServer(t, authn)

	// Without a code the mutating route is rejected.
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/scan/run", strings.NewReader(`{}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without auth code, got %d", rec.Code)
	}

	// A fresh code passes.
	req := httptest.NewRequest("POST", "/api/v1/scan/run", strings.NewReader(`{}`))
	req.Header.Set("X-Auth-Code", authn.Code())
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid auth code, got %d", rec.Code)
	}

	// Read-only routes stay open.
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected open health route, got %d", rec.Code)
	}
}
