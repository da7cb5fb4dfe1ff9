// Package scanner sweeps a symbol universe for fresh trend transitions and
// heavy single-day drops.
package scanner

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/stockrobo/stockrobo/internal/data"
	"github.com/stockrobo/stockrobo/internal/metrics"
	"github.com/stockrobo/stockrobo/internal/strategy"
	"github.com/stockrobo/stockrobo/pkg/types"
)

const (
	// MinBars is the minimum history required before a symbol is scanned.
	MinBars = 30

	// HeavyDropPct flags symbols whose last close fell at least this much.
	HeavyDropPct = -3.0

	defaultPeriod = data.PeriodSixMonths
)

// Outcome classifies how a symbol fared during a sweep.
type Outcome string

const (
	OutcomeScanned Outcome = "scanned"
	OutcomeSkipped Outcome = "skipped"
	OutcomeError   Outcome = "error"
)

// SymbolResult records the outcome for a single symbol.
type SymbolResult struct {
	Symbol  string  `json:"symbol"`
	Outcome Outcome `json:"outcome"`
	Reason  string  `json:"reason,omitempty"`
}

// Results aggregates a full sweep.
type Results struct {
	BuySignals  []types.Signal `json:"buy_signals"`
	SellSignals []types.Signal `json:"sell_signals"`
	HeavyDrops  []types.Signal `json:"heavy_drops"`
	Symbols     []SymbolResult `json:"symbols"`
}

// Scanner classifies each symbol's recent history and reports transitions.
type Scanner struct {
	logger     *zap.Logger
	provider   data.Provider
	classifier *strategy.TrendClassifier
	metrics    *metrics.Registry
	period     string
}

// NewScanner creates a scanner over the given data provider. The metrics
// registry may be nil.
func NewScanner(logger *zap.Logger, provider data.Provider, reg *metrics.Registry) *Scanner {
	return &Scanner{
		logger:     logger,
		provider:   provider,
		classifier: strategy.NewTrendClassifier(),
		metrics:    reg,
		period:     defaultPeriod,
	}
}

// SetPeriod overrides the history period requested per symbol.
func (s *Scanner) SetPeriod(period string) { s.period = period }

// Scan sweeps the universe. Individual symbol failures are recorded and the
// sweep continues; Scan only returns an error when the context is cancelled.
func (s *Scanner) Scan(ctx context.Context, symbols []string) (*Results, error) {
	start := time.Now()
	results := &Results{
		BuySignals:  []types.Signal{},
		SellSignals: []types.Signal{},
		HeavyDrops:  []types.Signal{},
		Symbols:     make([]SymbolResult, 0, len(symbols)),
	}

	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res := s.scanSymbol(ctx, symbol, results)
		results.Symbols = append(results.Symbols, res)
		if s.metrics != nil {
			s.metrics.RecordSymbol(string(res.Outcome))
		}
	}

	if s.metrics != nil {
		s.metrics.RecordScanCycle(time.Since(start).Seconds())
	}

	s.logger.Info("Scan complete",
		zap.Int("symbols", len(symbols)),
		zap.Int("buys", len(results.BuySignals)),
		zap.Int("sells", len(results.SellSignals)),
		zap.Int("heavy_drops", len(results.HeavyDrops)),
		zap.Duration("elapsed", time.Since(start)))

	return results, nil
}

func (s *Scanner) scanSymbol(ctx context.Context, symbol string, results *Results) SymbolResult {
	bars, err := s.provider.History(ctx, symbol, s.period, data.IntervalDaily)
	if err != nil {
		s.logger.Warn("History fetch failed", zap.String("symbol", symbol), zap.Error(err))
		return SymbolResult{Symbol: symbol, Outcome: OutcomeError, Reason: err.Error()}
	}
	if len(bars) < MinBars {
		return SymbolResult{Symbol: symbol, Outcome: OutcomeSkipped, Reason: "insufficient history"}
	}

	states := s.classifier.Classify(bars)
	last := states[len(states)-1]
	prev := states[len(states)-2]

	changePct := 0.0
	prevClose := bars[len(bars)-2].Close
	if prevClose > 0 {
		changePct = (last.Close - prevClose) / prevClose * 100
	}

	base := types.Signal{
		Symbol:    symbol,
		Strategy:  strategy.NameCDCActionZone,
		Price:     last.Close,
		ChangePct: changePct,
		Timestamp: last.Timestamp,
		Trend:     &types.TrendPayload{Color: last.Color},
	}

	// Edge-triggered: only report a transition into the zone, not every bar
	// spent inside it.
	switch {
	case last.Color == types.ColorGreen && prev.Color != types.ColorGreen:
		results.BuySignals = append(results.BuySignals, base)
		if s.metrics != nil {
			s.metrics.RecordSignal(strategy.NameCDCActionZone, "buy")
		}
		s.logger.Info("Buy transition", zap.String("symbol", symbol),
			zap.Float64("price", last.Close), zap.Float64("change_pct", changePct))
	case last.Color == types.ColorRed && prev.Color != types.ColorRed:
		results.SellSignals = append(results.SellSignals, base)
		if s.metrics != nil {
			s.metrics.RecordSignal(strategy.NameCDCActionZone, "sell")
		}
		s.logger.Info("Sell transition", zap.String("symbol", symbol),
			zap.Float64("price", last.Close), zap.Float64("change_pct", changePct))
	}

	if changePct <= HeavyDropPct {
		results.HeavyDrops = append(results.HeavyDrops, base)
		if s.metrics != nil {
			s.metrics.RecordSignal(strategy.NameCDCActionZone, "heavy_drop")
		}
		s.logger.Info("Heavy drop", zap.String("symbol", symbol),
			zap.Float64("change_pct", changePct), zap.String("color", string(last.Color)))
	}

	return SymbolResult{Symbol: symbol, Outcome: OutcomeScanned}
}
