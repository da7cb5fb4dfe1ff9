// Package backtest replays classifier zone signals over historical bars
// into a single-position trade ledger.
package backtest

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stockrobo/stockrobo/internal/strategy"
	"github.com/stockrobo/stockrobo/pkg/types"
)

// DefaultInitialCapital is the starting capital when none is configured.
var DefaultInitialCapital = decimal.NewFromInt(10000)

// Trade is one entry or exit in the replay ledger.
type Trade struct {
	Date   time.Time         `json:"date"`
	Type   types.OrderAction `json:"type"`
	Price  decimal.Decimal   `json:"price"`
	Shares decimal.Decimal   `json:"shares"`
	Value  decimal.Decimal   `json:"value"`
	PnL    decimal.Decimal   `json:"pnl"`
}

// Result summarizes one simulated run.
type Result struct {
	Symbol         string          `json:"symbol"`
	Strategy       string          `json:"strategy"`
	InitialCapital decimal.Decimal `json:"initial_capital"`
	FinalValue     decimal.Decimal `json:"final_value"`
	ReturnPct      decimal.Decimal `json:"return_pct"`
	Trades         []Trade         `json:"trades"`
	OpenPosition   bool            `json:"open_position"`
}

// WinRate returns the share of closed trades with positive PnL, in percent.
// Zero when no trade was closed.
func (r *Result) WinRate() float64 {
	var closed, wins int
	for _, t := range r.Trades {
		if t.Type != types.ActionSell {
			continue
		}
		closed++
		if t.PnL.IsPositive() {
			wins++
		}
	}
	if closed == 0 {
		return 0
	}
	return float64(wins) / float64(closed) * 100
}

// Simulator replays a strategy's signals over a bar series with a
// single-position, long-only, fully-invested model.
type Simulator struct {
	logger         *zap.Logger
	initialCapital decimal.Decimal
}

// NewSimulator creates a simulator with the given starting capital.
// Non-positive capital falls back to the default.
func NewSimulator(logger *zap.Logger, initialCapital decimal.Decimal) *Simulator {
	if !initialCapital.IsPositive() {
		initialCapital = DefaultInitialCapital
	}
	return &Simulator{logger: logger, initialCapital: initialCapital}
}

// Run walks the bars in order. A +1 signal while flat buys with all capital
// (fractional shares); a -1 signal while long sells the whole position and
// realizes PnL. Signals matching the current state are ignored, so there is
// never more than one open position. A position still open at the end is
// marked to market in FinalValue without a closing trade.
func (s *Simulator) Run(symbol string, strat strategy.Strategy, bars []types.PriceBar) *Result {
	result := &Result{
		Symbol:         symbol,
		Strategy:       strat.Name(),
		InitialCapital: s.initialCapital,
		FinalValue:     s.initialCapital,
		Trades:         []Trade{},
	}
	if len(bars) == 0 {
		result.ReturnPct = decimal.Zero
		return result
	}

	signals := strat.Signals(bars)

	capital := s.initialCapital
	shares := decimal.Zero
	inPosition := false

	for i, bar := range bars {
		price := decimal.NewFromFloat(bar.Close)

		switch {
		case !inPosition && signals[i] == types.ZoneBuy:
			if !price.IsPositive() {
				continue
			}
			shares = capital.Div(price)
			inPosition = true
			result.Trades = append(result.Trades, Trade{
				Date:   bar.Timestamp,
				Type:   types.ActionBuy,
				Price:  price,
				Shares: shares,
				Value:  capital,
				PnL:    decimal.Zero,
			})

		case inPosition && signals[i] == types.ZoneSell:
			newCapital := shares.Mul(price)
			pnl := newCapital.Sub(capital)
			capital = newCapital
			inPosition = false
			result.Trades = append(result.Trades, Trade{
				Date:   bar.Timestamp,
				Type:   types.ActionSell,
				Price:  price,
				Shares: shares,
				Value:  capital,
				PnL:    pnl,
			})
			shares = decimal.Zero
		}
	}

	result.FinalValue = capital
	if inPosition {
		lastPrice := decimal.NewFromFloat(bars[len(bars)-1].Close)
		result.FinalValue = shares.Mul(lastPrice)
		result.OpenPosition = true
	}
	result.ReturnPct = result.FinalValue.Sub(s.initialCapital).
		Div(s.initialCapital).Mul(decimal.NewFromInt(100))

	if s.logger != nil {
		s.logger.Info("backtest complete",
			zap.String("symbol", symbol),
			zap.String("strategy", strat.Name()),
			zap.String("finalValue", result.FinalValue.StringFixed(2)),
			zap.String("returnPct", result.ReturnPct.StringFixed(2)),
			zap.Int("trades", len(result.Trades)),
		)
	}

	return result
}
