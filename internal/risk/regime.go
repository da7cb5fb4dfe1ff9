package risk

import (
	"go.uber.org/zap"

	"github.com/stockrobo/stockrobo/pkg/types"
)

// SMAWindow is the moving-average window for the regime filter.
const SMAWindow = 200

// RegimeFilter classifies the broad market by comparing a reference index
// close against its 200-day simple moving average.
type RegimeFilter struct {
	logger *zap.Logger
}

// NewRegimeFilter creates a regime filter.
func NewRegimeFilter(logger *zap.Logger) *RegimeFilter {
	return &RegimeFilter{logger: logger}
}

// Assess classifies the regime from an index bar series. Less than a full
// SMA window yields Unknown/Neutral and callers proceed unscaled.
func (f *RegimeFilter) Assess(symbol string, bars []types.PriceBar) types.Regime {
	regime := types.Regime{Symbol: symbol, Bars: len(bars)}

	if len(bars) < SMAWindow {
		regime.Type = types.RegimeUnknown
		regime.Advice = types.AdviceNeutral
		regime.Message = "insufficient history for regime assessment"
		return regime
	}

	var sum float64
	for _, bar := range bars[len(bars)-SMAWindow:] {
		sum += bar.Close
	}
	sma := sum / SMAWindow

	last := bars[len(bars)-1]
	regime.Close = last.Close
	regime.SMA200 = sma
	regime.AsOf = last.Timestamp

	if last.Close > sma {
		regime.Type = types.RegimeBullish
		regime.Advice = types.AdviceSafe
		regime.Message = "price is above 200-day SMA"
	} else {
		regime.Type = types.RegimeBearish
		regime.Advice = types.AdviceCaution
		regime.Message = "price is below 200-day SMA, caution advised"
	}

	if f.logger != nil {
		f.logger.Info("market regime assessed",
			zap.String("symbol", symbol),
			zap.String("regime", string(regime.Type)),
			zap.String("advice", string(regime.Advice)),
			zap.Float64("close", regime.Close),
			zap.Float64("sma200", regime.SMA200),
		)
	}

	return regime
}

// AdjustRiskPct scales a risk percentage by the regime advice: halved under
// Caution, unchanged otherwise.
func AdjustRiskPct(riskPct float64, regime types.Regime) float64 {
	if regime.Advice == types.AdviceCaution {
		return riskPct / 2
	}
	return riskPct
}
