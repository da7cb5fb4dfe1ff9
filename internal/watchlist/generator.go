// Package watchlist builds the combined trend/mean-reversion watchlist
// document from a symbol universe.
package watchlist

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/stockrobo/stockrobo/internal/data"
	"github.com/stockrobo/stockrobo/internal/metrics"
	"github.com/stockrobo/stockrobo/internal/strategy"
	"github.com/stockrobo/stockrobo/pkg/types"
)

const (
	// MinBars is the history required before a symbol is eligible.
	MinBars = 120

	// Entry filters and caps.
	strongChangePct   = 2.0
	minRetracementPct = 50.0
	maxRetracementPct = 78.6
	deepDiscountPct   = 65.0
	maxTrendEntries   = 20
	maxFiboEntries    = 10

	// Strategy labels as written in the watchlist document.
	labelCDC  = "CDC"
	labelFibo = "Fibo"
)

// Generator scans a universe with both classifiers and assembles the
// combined watchlist document.
type Generator struct {
	logger    *zap.Logger
	provider  data.Provider
	trend     *strategy.TrendClassifier
	reversion *strategy.MeanReversionClassifier
	metrics   *metrics.Registry
	period    string
}

// NewGenerator creates a watchlist generator. The metrics registry may be
// nil.
func NewGenerator(logger *zap.Logger, provider data.Provider, reg *metrics.Registry) *Generator {
	return &Generator{
		logger:    logger,
		provider:  provider,
		trend:     strategy.NewTrendClassifier(),
		reversion: strategy.NewMeanReversionClassifier(),
		metrics:   reg,
		period:    data.PeriodOneYear,
	}
}

// Generate sweeps the universe and builds the document. Per-symbol failures
// are logged and skipped; Generate fails only on context cancellation.
func (g *Generator) Generate(ctx context.Context, symbols []string) (*types.WatchlistDoc, error) {
	var cdcEntries, fiboEntries []types.WatchlistEntry

	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		bars, err := g.provider.History(ctx, symbol, g.period, data.IntervalDaily)
		if err != nil {
			g.logger.Warn("History fetch failed", zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		if len(bars) < MinBars {
			continue
		}

		if entry, ok := g.trendEntry(symbol, bars); ok {
			cdcEntries = append(cdcEntries, entry)
		}
		if entry, ok := g.reversionEntry(symbol, bars); ok {
			fiboEntries = append(fiboEntries, entry)
		}
	}

	sort.SliceStable(cdcEntries, func(i, j int) bool {
		return math.Abs(*cdcEntries[i].ChangePct) > math.Abs(*cdcEntries[j].ChangePct)
	})
	if len(cdcEntries) > maxTrendEntries {
		cdcEntries = cdcEntries[:maxTrendEntries]
	}

	sort.SliceStable(fiboEntries, func(i, j int) bool {
		return *fiboEntries[i].RetracementPct > *fiboEntries[j].RetracementPct
	})
	if len(fiboEntries) > maxFiboEntries {
		fiboEntries = fiboEntries[:maxFiboEntries]
	}

	doc := &types.WatchlistDoc{
		GeneratedAt:  time.Now().UTC().Format(time.RFC3339),
		TotalScanned: len(symbols),
		CDCSignals:   len(cdcEntries),
		FiboSignals:  len(fiboEntries),
		CDCList:      symbolsOf(cdcEntries),
		FiboList:     symbolsOf(fiboEntries),
		Details:      append(append([]types.WatchlistEntry{}, cdcEntries...), fiboEntries...),
	}
	doc.Watchlist = mergeUnique(doc.CDCList, doc.FiboList)

	if g.metrics != nil {
		g.metrics.SetWatchlistSize(len(doc.Watchlist))
	}

	g.logger.Info("Watchlist generated",
		zap.Int("scanned", doc.TotalScanned),
		zap.Int("cdc", doc.CDCSignals),
		zap.Int("fibo", doc.FiboSignals),
		zap.Int("combined", len(doc.Watchlist)))

	return doc, nil
}

// trendEntry reports a trend entry when the latest bar classifies Green.
func (g *Generator) trendEntry(symbol string, bars []types.PriceBar) (types.WatchlistEntry, bool) {
	states := g.trend.Classify(bars)
	last := states[len(states)-1]
	if last.Color != types.ColorGreen {
		return types.WatchlistEntry{}, false
	}

	changePct := 0.0
	if prev := bars[len(bars)-2].Close; prev > 0 {
		changePct = (last.Close - prev) / prev * 100
	}
	strength := "Moderate"
	if changePct > strongChangePct {
		strength = "Strong"
	}

	return types.WatchlistEntry{
		Symbol:         symbol,
		Strategy:       labelCDC,
		Price:          last.Close,
		ChangePct:      &changePct,
		Color:          string(types.ColorGreen),
		SignalStrength: strength,
	}, true
}

// reversionEntry reports a mean-reversion entry when the latest bar sits in
// the discount zone with an acceptable retracement depth.
func (g *Generator) reversionEntry(symbol string, bars []types.PriceBar) (types.WatchlistEntry, bool) {
	states := g.reversion.Classify(bars)
	last := states[len(states)-1]
	if !last.Valid || !last.InZone {
		return types.WatchlistEntry{}, false
	}

	retracement, ok := strategy.RetracementPct(last.SwingHigh, last.SwingLow, last.Close)
	if !ok || retracement < minRetracementPct || retracement > maxRetracementPct {
		return types.WatchlistEntry{}, false
	}
	discount := "Moderate"
	if retracement > deepDiscountPct {
		discount = "Deep"
	}

	high, low := last.SwingHigh, last.SwingLow
	fibo500, fibo786 := last.Fibo500, last.Fibo786
	return types.WatchlistEntry{
		Symbol:         symbol,
		Strategy:       labelFibo,
		Price:          last.Close,
		SwingHigh:      &high,
		SwingLow:       &low,
		RetracementPct: &retracement,
		Fibo500:        &fibo500,
		Fibo786:        &fibo786,
		Discount:       discount,
	}, true
}

// Save writes the document as indented JSON, creating the directory as
// needed.
func (g *Generator) Save(doc *types.WatchlistDoc, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating watchlist dir: %w", err)
	}
	payload, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding watchlist: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("writing watchlist: %w", err)
	}
	g.logger.Info("Watchlist saved", zap.String("path", path))
	return nil
}

func symbolsOf(entries []types.WatchlistEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Symbol
	}
	return out
}

// mergeUnique keeps trend symbols first, then appends reversion symbols not
// already present.
func mergeUnique(first, second []string) []string {
	seen := make(map[string]struct{}, len(first)+len(second))
	out := make([]string, 0, len(first)+len(second))
	for _, s := range first {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	for _, s := range second {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
