// Package types provides shared type definitions for the trading engine.
package types

import (
	"time"
)

// TrendColor is the CDC Action Zone classification of a single bar.
type TrendColor string

const (
	ColorGreen   TrendColor = "Green"
	ColorBlue    TrendColor = "Blue"
	ColorRed     TrendColor = "Red"
	ColorYellow  TrendColor = "Yellow"
	ColorNeutral TrendColor = "Neutral"
)

// Zone signal values shared by all classifiers.
const (
	ZoneBuy     = 1
	ZoneSell    = -1
	ZoneNeutral = 0
)

// OrderAction represents the side of an order ticket.
type OrderAction string

const (
	ActionBuy  OrderAction = "BUY"
	ActionSell OrderAction = "SELL"
)

// OrderType selects how an order is priced.
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// OrderStatus represents the lifecycle state of an order ticket.
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "PENDING"
	OrderStatusFilled  OrderStatus = "FILLED"
)

// RegimeType labels the broad market trend.
type RegimeType string

const (
	RegimeBullish RegimeType = "Bullish"
	RegimeBearish RegimeType = "Bearish"
	RegimeUnknown RegimeType = "Unknown"
)

// RegimeAdvice is the trade-safety guidance attached to a regime.
type RegimeAdvice string

const (
	AdviceSafe    RegimeAdvice = "Safe"
	AdviceCaution RegimeAdvice = "Caution"
	AdviceNeutral RegimeAdvice = "Neutral"
)

// PriceBar represents a single daily candlestick.
type PriceBar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// TrendState is the per-bar output of the trend classifier.
type TrendState struct {
	Timestamp  time.Time  `json:"timestamp"`
	Close      float64    `json:"close"`
	EMAFast    float64    `json:"ema_fast"`
	EMASlow    float64    `json:"ema_slow"`
	Color      TrendColor `json:"color"`
	ZoneSignal int        `json:"zone_signal"`
}

// ReversionState is the per-bar output of the mean-reversion classifier.
// Valid is false until the rolling swing window has filled.
type ReversionState struct {
	Timestamp  time.Time `json:"timestamp"`
	Close      float64   `json:"close"`
	SwingHigh  float64   `json:"swing_high"`
	SwingLow   float64   `json:"swing_low"`
	Fibo500    float64   `json:"fibo_500"`
	Fibo786    float64   `json:"fibo_786"`
	InZone     bool      `json:"in_zone"`
	ZoneSignal int       `json:"zone_signal"`
	Valid      bool      `json:"valid"`
}

// Signal is a trade opportunity produced during a scan cycle. The common
// fields are shared by every strategy; exactly one payload pointer is set
// according to the strategy tag. Signals live for one cycle and are never
// persisted.
type Signal struct {
	Symbol        string    `json:"symbol"`
	Strategy      string    `json:"strategy"`
	Price         float64   `json:"price"`
	ChangePct     float64   `json:"change_pct"`
	WinRate       *float64  `json:"win_rate,omitempty"`
	PriorityScore float64   `json:"priority_score,omitempty"`
	Timestamp     time.Time `json:"timestamp"`

	Trend     *TrendPayload     `json:"trend,omitempty"`
	Reversion *ReversionPayload `json:"reversion,omitempty"`
}

// TrendPayload carries the trend-strategy specific signal fields.
type TrendPayload struct {
	Color    TrendColor `json:"color"`
	Strength string     `json:"signal_strength"`
}

// ReversionPayload carries the mean-reversion specific signal fields.
type ReversionPayload struct {
	SwingHigh      float64 `json:"swing_high"`
	SwingLow       float64 `json:"swing_low"`
	RetracementPct float64 `json:"retracement_pct"`
	Fibo500        float64 `json:"fibo_500"`
	Fibo786        float64 `json:"fibo_786"`
	Discount       string  `json:"discount"`
}

// Order is an order ticket as persisted in the portfolio state document.
type Order struct {
	OrderID     string      `json:"order_id"`
	Symbol      string      `json:"symbol"`
	Action      OrderAction `json:"action"`
	Quantity    int         `json:"quantity"`
	OrderType   OrderType   `json:"order_type"`
	LimitPrice  *float64    `json:"limit_price"`
	Status      OrderStatus `json:"status"`
	Timestamp   float64     `json:"timestamp"`
	Notes       string      `json:"notes"`
	FilledPrice *float64    `json:"filled_price,omitempty"`
}

// PortfolioState is the durable execution state document.
// Orders holds at most the 50 most recent tickets.
type PortfolioState struct {
	Timestamp   float64        `json:"timestamp"`
	CashBalance float64        `json:"cash_balance"`
	Portfolio   map[string]int `json:"portfolio"`
	Orders      []Order        `json:"orders"`
}

// Regime is the market-regime assessment for an index symbol.
type Regime struct {
	Symbol  string       `json:"symbol"`
	Type    RegimeType   `json:"regime"`
	Advice  RegimeAdvice `json:"advice"`
	Close   float64      `json:"close"`
	SMA200  float64      `json:"sma_200"`
	Bars    int          `json:"bars"`
	AsOf    time.Time    `json:"as_of"`
	Message string       `json:"message,omitempty"`
}

// WatchlistDoc is the combined watchlist document persisted after a scan.
type WatchlistDoc struct {
	GeneratedAt  string           `json:"generated_at"`
	TotalScanned int              `json:"total_scanned"`
	CDCSignals   int              `json:"cdc_signals"`
	FiboSignals  int              `json:"fibo_signals"`
	Watchlist    []string         `json:"watchlist"`
	CDCList      []string         `json:"cdc_list"`
	FiboList     []string         `json:"fibo_list"`
	Details      []WatchlistEntry `json:"details"`
}

// WatchlistEntry is one detail record in the watchlist document. Trend
// entries fill the change/color/strength fields, mean-reversion entries the
// swing/retracement fields; the rest are omitted.
type WatchlistEntry struct {
	Symbol         string   `json:"symbol"`
	Strategy       string   `json:"strategy"`
	Price          float64  `json:"price"`
	ChangePct      *float64 `json:"change_pct,omitempty"`
	Color          string   `json:"color,omitempty"`
	SignalStrength string   `json:"signal_strength,omitempty"`
	SwingHigh      *float64 `json:"swing_high,omitempty"`
	SwingLow       *float64 `json:"swing_low,omitempty"`
	RetracementPct *float64 `json:"retracement_pct,omitempty"`
	Fibo500        *float64 `json:"fibo_500,omitempty"`
	Fibo786        *float64 `json:"fibo_786,omitempty"`
	Discount       string   `json:"discount,omitempty"`
}

// AlertLevel classifies notification severity.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)
