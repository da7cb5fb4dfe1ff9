// Package bot runs the trading loop: scan, prioritize, size, execute,
// reconcile.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stockrobo/stockrobo/internal/data"
	"github.com/stockrobo/stockrobo/internal/execution"
	"github.com/stockrobo/stockrobo/internal/metrics"
	"github.com/stockrobo/stockrobo/internal/notify"
	"github.com/stockrobo/stockrobo/internal/risk"
	"github.com/stockrobo/stockrobo/internal/scanner"
	"github.com/stockrobo/stockrobo/pkg/types"
)

// defaultWinRate is attached to fresh scanner signals until enough closed
// trades exist to measure a real one.
const defaultWinRate = 75.0

// Options configures a Bot.
type Options struct {
	Symbols           []string
	ScanInterval      time.Duration
	HeartbeatInterval time.Duration
	RiskPct           float64
	StopLossPct       float64
	RegimeSymbol      string
}

// Bot wires the scanner, prioritizer, sizer and ledger into one cycle.
type Bot struct {
	logger      *zap.Logger
	opts        Options
	provider    data.Provider
	scanner     *scanner.Scanner
	prioritizer *execution.Prioritizer
	sizer       *risk.Sizer
	regime      *risk.RegimeFilter
	ledger      *execution.Ledger
	alerts      *notify.AlertEngine
	metrics     *metrics.Registry
}

// New creates a bot. The metrics registry may be nil.
func New(logger *zap.Logger, opts Options, provider data.Provider, ledger *execution.Ledger,
	alerts *notify.AlertEngine, reg *metrics.Registry) *Bot {
	if opts.ScanInterval <= 0 {
		opts.ScanInterval = time.Minute
	}
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = 30 * time.Second
	}
	if opts.StopLossPct <= 0 {
		opts.StopLossPct = 5.0
	}
	if opts.RegimeSymbol == "" {
		opts.RegimeSymbol = "SPY"
	}
	return &Bot{
		logger:      logger,
		opts:        opts,
		provider:    provider,
		scanner:     scanner.NewScanner(logger, provider, reg),
		prioritizer: execution.NewPrioritizer(logger),
		sizer:       risk.NewSizer(logger, opts.RiskPct),
		regime:      risk.NewRegimeFilter(logger),
		ledger:      ledger,
		alerts:      alerts,
		metrics:     reg,
	}
}

// Run executes scan cycles until the context is cancelled. A failing cycle
// is alerted and the loop continues.
func (b *Bot) Run(ctx context.Context) error {
	b.alerts.Send(ctx, notify.TitleSystem,
		fmt.Sprintf("StockRobo STARTED in paper mode, scanning %d symbols", len(b.opts.Symbols)),
		types.AlertInfo)

	heartbeat := time.NewTicker(b.opts.HeartbeatInterval)
	defer heartbeat.Stop()
	scanTicker := time.NewTicker(b.opts.ScanInterval)
	defer scanTicker.Stop()

	// First cycle immediately, then on the ticker.
	b.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			b.alerts.Send(context.Background(), notify.TitleSystem, "Bot stopping", types.AlertInfo)
			return ctx.Err()
		case <-heartbeat.C:
			b.logger.Info("Heartbeat",
				zap.String("cash", b.ledger.Cash().StringFixed(2)),
				zap.Int("positions", len(b.ledger.Positions())))
		case <-scanTicker.C:
			b.runCycle(ctx)
		}
	}
}

// RunOnce executes a single cycle and returns its error, for one-shot runs.
func (b *Bot) RunOnce(ctx context.Context) error {
	return b.cycle(ctx)
}

// runCycle shields the loop from a failing cycle.
func (b *Bot) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Cycle panicked", zap.Any("panic", r))
			b.alerts.Send(ctx, notify.TitleSystem, fmt.Sprintf("Cycle panicked: %v", r), types.AlertCritical)
		}
	}()
	if err := b.cycle(ctx); err != nil && ctx.Err() == nil {
		b.alerts.Send(ctx, notify.TitleSystem, fmt.Sprintf("Cycle failed: %v", err), types.AlertWarning)
	}
}

func (b *Bot) cycle(ctx context.Context) error {
	results, err := b.scanner.Scan(ctx, b.opts.Symbols)
	if err != nil {
		return fmt.Errorf("scanning: %w", err)
	}
	b.alerts.Send(ctx, notify.TitleScanner,
		fmt.Sprintf("Cycle complete: %d buys, %d sells, %d heavy drops",
			len(results.BuySignals), len(results.SellSignals), len(results.HeavyDrops)),
		types.AlertInfo)

	for _, drop := range results.HeavyDrops {
		b.alerts.Send(ctx, notify.TitleWatch,
			fmt.Sprintf("%s dropped %.2f%% to %.2f", drop.Symbol, drop.ChangePct, drop.Price),
			types.AlertInfo)
	}

	if len(results.BuySignals) == 0 {
		b.logger.Info("No buy signals this cycle")
		return nil
	}

	signals := make([]types.Signal, len(results.BuySignals))
	copy(signals, results.BuySignals)
	for i := range signals {
		wr := defaultWinRate
		signals[i].WinRate = &wr
		b.alerts.Send(ctx, notify.TitleSignal,
			fmt.Sprintf("%s buy at %.2f (%+.2f%%)", signals[i].Symbol, signals[i].Price, signals[i].ChangePct),
			types.AlertInfo)
	}

	ranked := b.prioritizer.Rank(signals)
	b.alerts.Send(ctx, notify.TitleOpportunity,
		fmt.Sprintf("Top candidate: %s (score %.1f)", ranked[0].Symbol, ranked[0].PriorityScore),
		types.AlertInfo)

	riskPct := b.adjustedRiskPct(ctx)

	orders := b.buildOrders(ranked, riskPct)
	if len(orders) == 0 {
		b.logger.Info("No orders generated", zap.Int("signals", len(ranked)))
		return nil
	}
	b.alerts.Send(ctx, notify.TitleOrderGen,
		fmt.Sprintf("%d order tickets generated", len(orders)), types.AlertInfo)

	batch, err := b.ledger.ExecuteBatch(ctx, orders)
	if err != nil {
		return fmt.Errorf("executing batch: %w", err)
	}
	for _, filled := range batch.Filled {
		b.alerts.Send(ctx, notify.TitleExecution,
			fmt.Sprintf("FILLED %s %d %s at %.2f", filled.Action, filled.Quantity, filled.Symbol, *filled.FilledPrice),
			types.AlertInfo)
		if b.metrics != nil {
			b.metrics.RecordOrder(string(filled.OrderType), string(filled.Status))
		}
	}
	for _, failed := range batch.Failed {
		b.alerts.Send(ctx, notify.TitleExecution,
			fmt.Sprintf("PENDING %s: %v", failed.Order.Symbol, failed.Err),
			types.AlertWarning)
		if b.metrics != nil {
			b.metrics.RecordOrder(string(failed.Order.OrderType), string(failed.Order.Status))
		}
	}

	b.ledger.Reconcile()
	if b.metrics != nil {
		b.metrics.SetCashBalance(b.ledger.Cash().InexactFloat64())
		b.metrics.SetOpenPositions(len(b.ledger.Positions()))
	}
	return nil
}

// adjustedRiskPct halves risk in a cautioned regime. A failed regime fetch
// leaves risk unchanged.
func (b *Bot) adjustedRiskPct(ctx context.Context) float64 {
	riskPct := b.opts.RiskPct
	if riskPct <= 0 {
		riskPct = risk.DefaultRiskPct
	}

	bars, err := b.provider.History(ctx, b.opts.RegimeSymbol, data.PeriodOneYear, data.IntervalDaily)
	if err != nil {
		b.logger.Warn("Regime fetch failed", zap.String("symbol", b.opts.RegimeSymbol), zap.Error(err))
		return riskPct
	}
	regime := b.regime.Assess(b.opts.RegimeSymbol, bars)
	return risk.AdjustRiskPct(riskPct, regime)
}

// buildOrders sizes each ranked signal against a running cash balance so a
// batch never commits more cash than the ledger holds.
func (b *Bot) buildOrders(ranked []types.Signal, riskPct float64) []*types.Order {
	tempCash := b.ledger.Cash()
	stopFactor := decimal.NewFromFloat(1 - b.opts.StopLossPct/100)

	var orders []*types.Order
	for i := range ranked {
		sig := ranked[i]
		entry := decimal.NewFromFloat(sig.Price)
		sizing := b.sizer.Size(&risk.SizingRequest{
			Symbol:         sig.Symbol,
			Entry:          entry,
			StopLoss:       entry.Mul(stopFactor),
			PortfolioValue: tempCash,
			RiskPct:        riskPct,
		})
		order := b.ledger.CreateOrder(&sig, sizing)
		if order == nil {
			continue
		}
		orders = append(orders, order)
		tempCash = tempCash.Sub(entry.Mul(decimal.NewFromInt(int64(order.Quantity))))
	}
	return orders
}
