package data

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/stockrobo/stockrobo/pkg/types"
)

// Store caches bar series as JSON files under a data directory. It backs
// offline backtests and cuts repeat fetches during a scan batch.
type Store struct {
	mu       sync.RWMutex
	logger   *zap.Logger
	dataDir  string
	cache    map[string][]types.PriceBar
	metadata map[string]*SymbolMetadata
}

// SymbolMetadata describes the cached range for a symbol.
type SymbolMetadata struct {
	Symbol    string    `json:"symbol"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	BarCount  int       `json:"barCount"`
	Period    string    `json:"period"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// NewStore creates a bar store rooted at dataDir.
func NewStore(logger *zap.Logger, dataDir string) (*Store, error) {
	store := &Store{
		logger:   logger,
		dataDir:  dataDir,
		cache:    make(map[string][]types.PriceBar),
		metadata: make(map[string]*SymbolMetadata),
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := store.loadMetadata(); err != nil {
		logger.Warn("failed to load bar metadata", zap.Error(err))
	}

	return store, nil
}

// LoadBars returns the cached series for a symbol/period, from memory or
// disk. A missing cache entry is an error; callers fall back to the
// provider.
func (s *Store) LoadBars(symbol, period string) ([]types.PriceBar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := cacheKey(symbol, period)
	if cached, ok := s.cache[key]; ok {
		return cached, nil
	}

	raw, err := os.ReadFile(s.barFile(symbol, period))
	if err != nil {
		return nil, fmt.Errorf("no cached bars for %s/%s: %w", symbol, period, err)
	}

	var bars []types.PriceBar
	if err := json.Unmarshal(raw, &bars); err != nil {
		return nil, fmt.Errorf("failed to parse cached bars: %w", err)
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})

	s.cache[key] = bars
	return bars, nil
}

// SaveBars persists a series for a symbol/period and updates metadata.
func (s *Store) SaveBars(symbol, period string, bars []types.PriceBar) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.MarshalIndent(bars, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal bars: %w", err)
	}
	if err := os.WriteFile(s.barFile(symbol, period), raw, 0o644); err != nil {
		return fmt.Errorf("failed to write bar file: %w", err)
	}

	s.cache[cacheKey(symbol, period)] = bars

	if len(bars) > 0 {
		s.metadata[symbol] = &SymbolMetadata{
			Symbol:    symbol,
			StartDate: bars[0].Timestamp,
			EndDate:   bars[len(bars)-1].Timestamp,
			BarCount:  len(bars),
			Period:    period,
			FetchedAt: time.Now().UTC(),
		}
		if err := s.saveMetadata(); err != nil {
			s.logger.Warn("failed to save bar metadata", zap.Error(err))
		}
	}

	return nil
}

// Symbols returns the symbols with cached data.
func (s *Store) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	symbols := make([]string, 0, len(s.metadata))
	for symbol := range s.metadata {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

// ClearCache drops the in-memory cache, keeping files on disk.
func (s *Store) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string][]types.PriceBar)
}

func (s *Store) barFile(symbol, period string) string {
	return filepath.Join(s.dataDir, fmt.Sprintf("%s_%s.json", symbol, period))
}

func cacheKey(symbol, period string) string {
	return symbol + "_" + period
}

func (s *Store) loadMetadata() error {
	raw, err := os.ReadFile(filepath.Join(s.dataDir, "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var metadata map[string]*SymbolMetadata
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return err
	}
	s.metadata = metadata
	return nil
}

func (s *Store) saveMetadata() error {
	raw, err := json.MarshalIndent(s.metadata, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dataDir, "metadata.json"), raw, 0o644)
}

// CachingProvider wraps a Provider with a write-through Store: every
// successful fetch is persisted, so offline runs can replay it later.
type CachingProvider struct {
	inner Provider
	store *Store
}

// NewCachingProvider wraps provider with the store.
func NewCachingProvider(inner Provider, store *Store) *CachingProvider {
	return &CachingProvider{inner: inner, store: store}
}

// History fetches through to the inner provider and caches the result.
func (p *CachingProvider) History(ctx context.Context, symbol, period, interval string) ([]types.PriceBar, error) {
	bars, err := p.inner.History(ctx, symbol, period, interval)
	if err != nil {
		// Upstream failure: serve stale cache if there is one.
		if cached, cacheErr := p.store.LoadBars(symbol, period); cacheErr == nil {
			p.store.logger.Warn("provider failed, serving cached bars",
				zap.String("symbol", symbol), zap.Error(err))
			return cached, nil
		}
		return nil, err
	}
	if saveErr := p.store.SaveBars(symbol, period, bars); saveErr != nil {
		p.store.logger.Warn("failed to cache bars",
			zap.String("symbol", symbol), zap.Error(saveErr))
	}
	return bars, nil
}

// RealtimePrice passes through to the inner provider.
func (p *CachingProvider) RealtimePrice(ctx context.Context, symbol string) (float64, error) {
	return p.inner.RealtimePrice(ctx, symbol)
}
