// Package risk provides risk-capped position sizing and the market-regime
// filter that scales risk appetite.
package risk

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultRiskPct is the per-trade risk cap as a percentage of portfolio.
const DefaultRiskPct = 2.0

// SizingRequest contains inputs for position sizing.
type SizingRequest struct {
	Symbol         string
	Entry          decimal.Decimal
	StopLoss       decimal.Decimal
	PortfolioValue decimal.Decimal
	RiskPct        float64 // e.g. 2.0 means 2% of portfolio per trade
}

// SizingResult contains the calculated position size. A zero-share result
// carries the rejection reason.
type SizingResult struct {
	Shares        int             `json:"shares"`
	Entry         decimal.Decimal `json:"entry"`
	StopLoss      decimal.Decimal `json:"stop_loss"`
	PositionValue decimal.Decimal `json:"position_value"`
	RiskPerShare  decimal.Decimal `json:"risk_per_share"`
	TotalRisk     decimal.Decimal `json:"total_risk_dollars"`
	RiskPctOfPort float64         `json:"risk_pct_of_port"`
	CashLimited   bool            `json:"cash_limited"`
	Reason        string          `json:"reason,omitempty"`
}

// Sizer turns an (entry, stop) pair into a share count bounded by the risk
// cap and by buying power. Long-only.
type Sizer struct {
	logger  *zap.Logger
	riskPct float64
}

// NewSizer creates a sizer with the given per-trade risk percentage.
// Non-positive values fall back to the default.
func NewSizer(logger *zap.Logger, riskPct float64) *Sizer {
	if riskPct <= 0 {
		riskPct = DefaultRiskPct
	}
	return &Sizer{logger: logger, riskPct: riskPct}
}

// Size calculates the position. Money risked = (entry - stop) x shares,
// capped at portfolio x risk%; the share count is then clipped to what cash
// can actually buy, in which case realized risk falls below the cap.
func (s *Sizer) Size(req *SizingRequest) *SizingResult {
	riskPct := req.RiskPct
	if riskPct <= 0 {
		riskPct = s.riskPct
	}

	result := &SizingResult{Entry: req.Entry, StopLoss: req.StopLoss}

	if req.Entry.LessThanOrEqual(req.StopLoss) {
		result.Reason = "stop loss is above or equal to entry price (invalid for long)"
		return result
	}
	if !req.Entry.IsPositive() || !req.PortfolioValue.IsPositive() {
		result.Reason = "entry price and portfolio value must be positive"
		return result
	}

	riskPerShare := req.Entry.Sub(req.StopLoss)
	maxRisk := req.PortfolioValue.Mul(decimal.NewFromFloat(riskPct / 100))

	shares := maxRisk.Div(riskPerShare).Floor()

	// Buying-power check: with tight stops risk usually limits size before
	// cash does, but not always.
	if shares.Mul(req.Entry).GreaterThan(req.PortfolioValue) {
		shares = req.PortfolioValue.Div(req.Entry).Floor()
		result.CashLimited = true
	}

	result.Shares = int(shares.IntPart())
	result.RiskPerShare = riskPerShare
	result.PositionValue = shares.Mul(req.Entry)
	result.TotalRisk = shares.Mul(riskPerShare)

	result.RiskPctOfPort, _ = result.TotalRisk.Div(req.PortfolioValue).
		Mul(decimal.NewFromInt(100)).Float64()

	if s.logger != nil {
		s.logger.Debug("position sized",
			zap.String("symbol", req.Symbol),
			zap.Int("shares", result.Shares),
			zap.String("positionValue", result.PositionValue.StringFixed(2)),
			zap.String("totalRisk", result.TotalRisk.StringFixed(2)),
			zap.Bool("cashLimited", result.CashLimited),
		)
	}

	return result
}
