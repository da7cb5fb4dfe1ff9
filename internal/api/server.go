// Package api provides the HTTP and WebSocket server.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/stockrobo/stockrobo/internal/auth"
	"github.com/stockrobo/stockrobo/internal/config"
	"github.com/stockrobo/stockrobo/internal/data"
	"github.com/stockrobo/stockrobo/internal/execution"
	"github.com/stockrobo/stockrobo/internal/metrics"
	"github.com/stockrobo/stockrobo/internal/scanner"
	"github.com/stockrobo/stockrobo/pkg/types"
)

// webSocketPath is where streaming clients connect.
const webSocketPath = "/ws"

// Deps bundles everything the server exposes.
type Deps struct {
	Store         *data.Store
	Ledger        *execution.Ledger
	Scanner       *scanner.Scanner
	Auth          *auth.Authenticator // nil disables the auth check
	Metrics       *metrics.Registry
	Symbols       []string
	WatchlistFile string
}

// Server is the HTTP/WebSocket API server
type Server struct {
	mu         sync.RWMutex
	logger     *zap.Logger
	config     config.ServerConfig
	deps       Deps
	router     *mux.Router
	httpServer *http.Server
	upgrader   websocket.Upgrader
	clients    map[string]*Client
	scans      map[string]*ScanState
}

// ScanState tracks an async scan job.
type ScanState struct {
	ID      string           `json:"id"`
	Status  string           `json:"status"`
	Started time.Time        `json:"started"`
	Result  *scanner.Results `json:"result,omitempty"`
	Err     string           `json:"error,omitempty"`
}

// NewServer creates a new API server
func NewServer(logger *zap.Logger, cfg config.ServerConfig, deps Deps) *Server {
	server := &Server{
		logger:  logger,
		config:  cfg,
		deps:    deps,
		router:  mux.NewRouter(),
		clients: make(map[string]*Client),
		scans:   make(map[string]*ScanState),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for development
			},
		},
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures HTTP routes
func (s *Server) setupRoutes() {
	// Health check
	s.router.HandleFunc("/api/v1/health", s.handleHealth).Methods("GET")

	// Portfolio endpoints
	s.router.HandleFunc("/api/v1/portfolio", s.handlePortfolio).Methods("GET")
	s.router.HandleFunc("/api/v1/orders", s.handleOrders).Methods("GET")

	// Data endpoints
	s.router.HandleFunc("/api/v1/data/symbols", s.handleSymbols).Methods("GET")
	s.router.HandleFunc("/api/v1/data/history/{symbol}", s.handleHistory).Methods("GET")
	s.router.HandleFunc("/api/v1/watchlist", s.handleWatchlist).Methods("GET")

	// Scan endpoints; starting a scan is a mutating action and requires a
	// valid one-time code when auth is configured.
	s.router.HandleFunc("/api/v1/scan/run", s.requireAuth(s.handleRunScan)).Methods("POST")
	s.router.HandleFunc("/api/v1/scan/{id}", s.handleGetScan).Methods("GET")

	if s.deps.Metrics != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.deps.Metrics.Registry, promhttp.HandlerOpts{}))
	}

	// WebSocket
	s.router.HandleFunc(webSocketPath, s.handleWebSocket)
}

// requireAuth rejects requests without a fresh one-time code in the
// X-Auth-Code header. A nil authenticator leaves the route open.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.deps.Auth != nil && !s.deps.Auth.Verify(r.Header.Get("X-Auth-Code")) {
			http.Error(w, "Invalid or missing auth code", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	handler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(s.router)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.logger.Info("Starting API server", zap.String("addr", addr))

	return s.httpServer.ListenAndServe()
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	// Close all WebSocket connections
	s.mu.Lock()
	for _, client := range s.clients {
		client.Conn.Close()
	}
	s.mu.Unlock()

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the routed handler, primarily for tests.
func (s *Server) Handler() http.Handler { return s.router }

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// handlePortfolio returns the current paper portfolio.
func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]interface{}{
		"cash_balance": s.deps.Ledger.Cash().InexactFloat64(),
		"portfolio":    s.deps.Ledger.Positions(),
		"orders":       len(s.deps.Ledger.Orders()),
	})
}

// handleOrders returns the retained order history.
func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	orders := s.deps.Ledger.Orders()
	json.NewEncoder(w).Encode(map[string]interface{}{
		"orders": orders,
		"count":  len(orders),
	})
}

// handleSymbols returns symbols with cached history
func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	symbols := s.deps.Store.Symbols()

	// Fall back to the scan universe when the cache is cold.
	if len(symbols) == 0 {
		symbols = s.deps.Symbols
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"symbols": symbols,
	})
}

// handleHistory returns cached historical bars for a symbol
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	symbol := vars["symbol"]

	period := r.URL.Query().Get("period")
	if period == "" {
		period = data.PeriodSixMonths
	}

	bars, err := s.deps.Store.LoadBars(symbol, period)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"symbol": symbol,
		"period": period,
		"bars":   bars,
		"count":  len(bars),
	})
}

// handleWatchlist serves the last generated watchlist document.
func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	raw, err := os.ReadFile(s.deps.WatchlistFile)
	if err != nil {
		http.Error(w, "No watchlist generated yet", http.StatusNotFound)
		return
	}

	var doc types.WatchlistDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		http.Error(w, "Stored watchlist is unreadable", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(doc)
}

// handleRunScan starts an async scan over the configured universe.
func (s *Server) handleRunScan(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Symbols []string `json:"symbols"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&body)
	}
	symbols := body.Symbols
	if len(symbols) == 0 {
		symbols = s.deps.Symbols
	}

	state := &ScanState{
		ID:      uuid.New().String(),
		Status:  "running",
		Started: time.Now(),
	}

	s.mu.Lock()
	s.scans[state.ID] = state
	s.mu.Unlock()

	go s.runScanAsync(state, symbols)

	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":      state.ID,
		"status":  state.Status,
		"started": state.Started.Unix(),
	})
}

// handleGetScan returns a scan job's status and results
func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.scans[id]
	if !ok {
		http.Error(w, "Scan not found", http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(state)
}

// runScanAsync runs a scan and broadcasts completion to streaming clients.
func (s *Server) runScanAsync(state *ScanState, symbols []string) {
	results, err := s.deps.Scanner.Scan(context.Background(), symbols)

	s.mu.Lock()
	if err != nil {
		state.Status = "failed"
		state.Err = err.Error()
		s.logger.Error("Scan job failed", zap.String("id", state.ID), zap.Error(err))
	} else {
		state.Status = "completed"
		state.Result = results
	}
	s.mu.Unlock()

	payload := map[string]interface{}{"id": state.ID, "status": state.Status}
	if results != nil {
		payload["buys"] = len(results.BuySignals)
		payload["sells"] = len(results.SellSignals)
		payload["heavy_drops"] = len(results.HeavyDrops)
	}
	s.broadcast(&Message{
		ID:        uuid.New().String(),
		Type:      "event",
		Method:    "scan:complete",
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	})
}
