package execution

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stockrobo/stockrobo/internal/risk"
	"github.com/stockrobo/stockrobo/pkg/types"
)

const (
	// DefaultCashBalance is the paper portfolio's starting cash.
	DefaultCashBalance = 50000.0

	// LimitOrderThreshold gates order type on recent volatility: a daily
	// move beyond this percentage routes a LIMIT order to avoid slippage.
	LimitOrderThreshold = 2.0

	// orderHistoryLimit bounds the persisted order history. Older entries
	// are dropped on save and unrecoverable.
	orderHistoryLimit = 50

	// fillDelay simulates the network round-trip per order.
	fillDelay = 500 * time.Millisecond
)

// ErrNoQuote is returned when a MARKET order cannot obtain a live fill
// price. The order stays PENDING and no cash moves.
var ErrNoQuote = errors.New("no live quote available for market fill")

// ErrInsufficientCash is returned when a fill would cost more than the
// ledger holds. Orders are sized against the entry estimate, so a MARKET
// fill at a higher live quote can overrun the balance. The order stays
// PENDING and no cash moves.
var ErrInsufficientCash = errors.New("insufficient cash for fill")

// QuoteProvider supplies live prices for MARKET fills.
type QuoteProvider interface {
	RealtimePrice(ctx context.Context, symbol string) (float64, error)
}

// Ledger owns the durable cash/positions/order-history state and fills
// order tickets in a paper-trading model. Single writer: the invoking
// scheduler must ensure at most one concurrent execution cycle per state
// file.
type Ledger struct {
	logger    *zap.Logger
	stateFile string
	quotes    QuoteProvider
	delay     time.Duration

	cash      decimal.Decimal
	positions map[string]int
	orders    []types.Order
}

// NewLedger creates a ledger bound to a state file and loads any previous
// state. Missing or corrupt state is non-fatal: the given starting cash is
// used and a warning logged.
func NewLedger(logger *zap.Logger, stateFile string, startingCash float64, quotes QuoteProvider) *Ledger {
	l := &Ledger{
		logger:    logger,
		stateFile: stateFile,
		quotes:    quotes,
		delay:     fillDelay,
		cash:      decimal.NewFromFloat(startingCash),
		positions: make(map[string]int),
		orders:    []types.Order{},
	}
	l.Load()
	return l
}

// SetFillDelay overrides the simulated per-order delay.
func (l *Ledger) SetFillDelay(d time.Duration) { l.delay = d }

// Cash returns the current cash balance.
func (l *Ledger) Cash() decimal.Decimal { return l.cash }

// Positions returns a copy of the symbol -> quantity map.
func (l *Ledger) Positions() map[string]int {
	out := make(map[string]int, len(l.positions))
	for sym, qty := range l.positions {
		out[sym] = qty
	}
	return out
}

// Orders returns the retained order history, most recent last.
func (l *Ledger) Orders() []types.Order {
	out := make([]types.Order, len(l.orders))
	copy(out, l.orders)
	return out
}

// Load reads the state file. Absent or unreadable state keeps the current
// in-memory defaults.
func (l *Ledger) Load() {
	raw, err := os.ReadFile(l.stateFile)
	if err != nil {
		if os.IsNotExist(err) {
			l.logger.Info("no saved portfolio state, starting fresh",
				zap.String("file", l.stateFile))
		} else {
			l.logger.Warn("failed to read portfolio state, using defaults",
				zap.String("file", l.stateFile), zap.Error(err))
		}
		return
	}

	// Absent fields keep the in-memory defaults, so a partial document
	// never zeroes the balance.
	var state struct {
		CashBalance *float64       `json:"cash_balance"`
		Portfolio   map[string]int `json:"portfolio"`
		Orders      []types.Order  `json:"orders"`
	}
	if err := json.Unmarshal(raw, &state); err != nil {
		l.logger.Warn("corrupt portfolio state, using defaults",
			zap.String("file", l.stateFile), zap.Error(err))
		return
	}

	if state.CashBalance != nil {
		l.cash = decimal.NewFromFloat(*state.CashBalance)
	}
	if state.Portfolio != nil {
		l.positions = state.Portfolio
	}
	if state.Orders != nil {
		l.orders = state.Orders
	}

	l.logger.Info("portfolio state loaded",
		zap.String("file", l.stateFile),
		zap.String("cash", l.cash.StringFixed(2)),
		zap.Int("positions", len(l.positions)),
	)
}

// Save persists the full state, truncating order history to the most
// recent entries. This is the crash-recovery boundary.
func (l *Ledger) Save() error {
	orders := l.orders
	if len(orders) > orderHistoryLimit {
		orders = orders[len(orders)-orderHistoryLimit:]
		l.orders = orders
	}

	cash, _ := l.cash.Float64()
	state := types.PortfolioState{
		Timestamp:   float64(time.Now().UnixNano()) / 1e9,
		CashBalance: cash,
		Portfolio:   l.positions,
		Orders:      orders,
	}

	raw, err := json.MarshalIndent(state, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal portfolio state: %w", err)
	}

	if dir := filepath.Dir(l.stateFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	if err := os.WriteFile(l.stateFile, raw, 0o644); err != nil {
		return fmt.Errorf("write portfolio state: %w", err)
	}

	l.logger.Info("portfolio state saved", zap.String("file", l.stateFile))
	return nil
}

// CreateOrder turns a sized signal into an order ticket, or nil when the
// sizing produced no shares. Volatile names get a LIMIT at the entry price,
// quiet ones a MARKET order for speed.
func (l *Ledger) CreateOrder(sig *types.Signal, sizing *risk.SizingResult) *types.Order {
	if sizing == nil || sizing.Shares <= 0 {
		return nil
	}

	entry, _ := sizing.Entry.Float64()

	orderType := types.OrderTypeMarket
	var limitPrice *float64
	if math.Abs(sig.ChangePct) > LimitOrderThreshold {
		orderType = types.OrderTypeLimit
		limitPrice = &entry
	}

	return &types.Order{
		OrderID:    uuid.NewString()[:8],
		Symbol:     sig.Symbol,
		Action:     types.ActionBuy,
		Quantity:   sizing.Shares,
		OrderType:  orderType,
		LimitPrice: limitPrice,
		Status:     types.OrderStatusPending,
		Timestamp:  float64(time.Now().UnixNano()) / 1e9,
		Notes:      fmt.Sprintf("Strategy: %s | Score: %g", sig.Strategy, sig.PriorityScore),
	}
}

// BatchResult reports one execution batch.
type BatchResult struct {
	Filled []types.Order
	Failed []FailedOrder
}

// FailedOrder pairs an unfilled ticket with its failure.
type FailedOrder struct {
	Order types.Order
	Err   error
}

// ExecuteBatch processes orders strictly in sequence: each PENDING ticket
// is filled, its cost deducted from cash and its quantity added to the
// position map. LIMIT orders fill at their limit price; MARKET orders
// require a live quote and fail without one, leaving the ticket PENDING
// and cash untouched. A fill that would overdraw the balance fails the
// same way. State is saved once after the batch.
func (l *Ledger) ExecuteBatch(ctx context.Context, orders []*types.Order) (*BatchResult, error) {
	result := &BatchResult{}

	l.logger.Info("processing order batch", zap.Int("orders", len(orders)))

	for _, order := range orders {
		if order.Status != types.OrderStatusPending {
			continue
		}

		if err := l.sleep(ctx); err != nil {
			return result, err
		}

		fillPrice, err := l.fillPrice(ctx, order)
		if err != nil {
			l.logger.Warn("order not filled",
				zap.String("orderId", order.OrderID),
				zap.String("symbol", order.Symbol),
				zap.Error(err),
			)
			result.Failed = append(result.Failed, FailedOrder{Order: *order, Err: err})
			continue
		}

		cost := decimal.NewFromFloat(fillPrice).Mul(decimal.NewFromInt(int64(order.Quantity)))
		if cost.GreaterThan(l.cash) {
			err := fmt.Errorf("%w: cost %s exceeds cash %s",
				ErrInsufficientCash, cost.StringFixed(2), l.cash.StringFixed(2))
			l.logger.Warn("order not filled",
				zap.String("orderId", order.OrderID),
				zap.String("symbol", order.Symbol),
				zap.Error(err),
			)
			result.Failed = append(result.Failed, FailedOrder{Order: *order, Err: err})
			continue
		}

		order.Status = types.OrderStatusFilled
		order.FilledPrice = &fillPrice

		l.cash = l.cash.Sub(cost)
		l.positions[order.Symbol] += order.Quantity
		l.orders = append(l.orders, *order)
		result.Filled = append(result.Filled, *order)

		l.logger.Info("order filled",
			zap.String("orderId", order.OrderID),
			zap.String("symbol", order.Symbol),
			zap.String("type", string(order.OrderType)),
			zap.Int("quantity", order.Quantity),
			zap.Float64("fillPrice", fillPrice),
			zap.String("cash", l.cash.StringFixed(2)),
		)
	}

	if err := l.Save(); err != nil {
		return result, err
	}
	return result, nil
}

func (l *Ledger) fillPrice(ctx context.Context, order *types.Order) (float64, error) {
	if order.OrderType == types.OrderTypeLimit && order.LimitPrice != nil {
		return *order.LimitPrice, nil
	}
	if l.quotes == nil {
		return 0, ErrNoQuote
	}
	price, err := l.quotes.RealtimePrice(ctx, order.Symbol)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoQuote, err)
	}
	if price <= 0 {
		return 0, ErrNoQuote
	}
	return price, nil
}

func (l *Ledger) sleep(ctx context.Context) error {
	if l.delay <= 0 {
		return nil
	}
	timer := time.NewTimer(l.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ReconcileReport is the stub broker comparison.
type ReconcileReport struct {
	Matched   bool           `json:"matched"`
	Positions map[string]int `json:"positions"`
}

// Reconcile compares internal state to the broker. Without a real broker
// integration this always reports matched with the current positions.
func (l *Ledger) Reconcile() ReconcileReport {
	l.logger.Info("reconciliation check",
		zap.Int("positions", len(l.positions)),
		zap.String("broker", "matched (simulated)"),
	)
	return ReconcileReport{Matched: true, Positions: l.Positions()}
}
