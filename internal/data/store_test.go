package data

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/stockrobo/stockrobo/pkg/types"
)

func sampleBars(n int) []types.PriceBar {
	bars := make([]types.PriceBar, n)
	base := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = types.PriceBar{
			Timestamp: base.AddDate(0, 0, i),
			Open:      100 + float64(i),
			High:      101 + float64(i),
			Low:       99 + float64(i),
			Close:     100.5 + float64(i),
			Volume:    1000,
		}
	}
	return bars
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	store, err := NewStore(zap.NewNop(), t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	bars := sampleBars(5)
	if err := store.SaveBars("AAPL", PeriodSixMonths, bars); err != nil {
		t.Fatalf("SaveBars: %v", err)
	}

	// Drop the memory cache to force a disk read.
	store.ClearCache()

	loaded, err := store.LoadBars("AAPL", PeriodSixMonths)
	if err != nil {
		t.Fatalf("LoadBars: %v", err)
	}
	if len(loaded) != 5 {
		t.Fatalf("loaded %d bars, want 5", len(loaded))
	}
	if !loaded[0].Timestamp.Equal(bars[0].Timestamp) || loaded[4].Close != bars[4].Close {
		t.Error("loaded bars differ from saved bars")
	}

	symbols := store.Symbols()
	if len(symbols) != 1 || symbols[0] != "AAPL" {
		t.Errorf("symbols = %v, want [AAPL]", symbols)
	}
}

func TestStoreMissingSymbol(t *testing.T) {
	store, err := NewStore(zap.NewNop(), t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := store.LoadBars("NOPE", PeriodOneYear); err == nil {
		t.Error("expected an error for an uncached symbol")
	}
}

type stubProvider struct {
	bars []types.PriceBar
	err  error
}

func (s *stubProvider) History(context.Context, string, string, string) ([]types.PriceBar, error) {
	return s.bars, s.err
}

func (s *stubProvider) RealtimePrice(context.Context, string) (float64, error) {
	return 0, errors.New("not implemented")
}

func TestCachingProviderWritesThrough(t *testing.T) {
	store, err := NewStore(zap.NewNop(), t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	provider := NewCachingProvider(&stubProvider{bars: sampleBars(3)}, store)
	bars, err := provider.History(context.Background(), "MSFT", PeriodSixMonths, "1d")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(bars) != 3 {
		t.Fatalf("got %d bars, want 3", len(bars))
	}

	cached, err := store.LoadBars("MSFT", PeriodSixMonths)
	if err != nil {
		t.Fatalf("fetch was not cached: %v", err)
	}
	if len(cached) != 3 {
		t.Errorf("cached %d bars, want 3", len(cached))
	}
}

func TestCachingProviderServesStaleOnFailure(t *testing.T) {
	store, err := NewStore(zap.NewNop(), t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.SaveBars("NVDA", PeriodSixMonths, sampleBars(4)); err != nil {
		t.Fatalf("SaveBars: %v", err)
	}

	provider := NewCachingProvider(&stubProvider{err: errors.New("upstream down")}, store)
	bars, err := provider.History(context.Background(), "NVDA", PeriodSixMonths, "1d")
	if err != nil {
		t.Fatalf("expected stale cache, got error: %v", err)
	}
	if len(bars) != 4 {
		t.Errorf("got %d stale bars, want 4", len(bars))
	}

	// No cache for this symbol: the upstream error surfaces.
	if _, err := provider.History(context.Background(), "TSLA", PeriodSixMonths, "1d"); err == nil {
		t.Error("expected upstream error without a cache entry")
	}
}
