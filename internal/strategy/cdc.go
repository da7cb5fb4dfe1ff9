package strategy

import (
	"github.com/stockrobo/stockrobo/pkg/types"
)

// Default EMA spans for the trend classifier.
const (
	DefaultFastSpan = 12
	DefaultSlowSpan = 26
)

// TrendClassifier implements the CDC Action Zone color system: a fast and a
// slow EMA over closes partition each bar into Green, Blue, Red, Yellow or
// Neutral, with Green and Red mapping to buy and sell zones.
type TrendClassifier struct {
	fastSpan int
	slowSpan int
}

// NewTrendClassifier creates a classifier with the default 12/26 spans.
func NewTrendClassifier() *TrendClassifier {
	return &TrendClassifier{fastSpan: DefaultFastSpan, slowSpan: DefaultSlowSpan}
}

// NewTrendClassifierWithSpans creates a classifier with custom EMA spans.
func NewTrendClassifierWithSpans(fast, slow int) *TrendClassifier {
	return &TrendClassifier{fastSpan: fast, slowSpan: slow}
}

// Name implements Strategy.
func (c *TrendClassifier) Name() string { return NameCDCActionZone }

// Classify computes the per-bar trend state for the full series. The EMAs
// are seeded with the first close, so every bar gets a defined color.
func (c *TrendClassifier) Classify(bars []types.PriceBar) []types.TrendState {
	if len(bars) == 0 {
		return nil
	}

	states := make([]types.TrendState, len(bars))
	fastAlpha := 2.0 / float64(c.fastSpan+1)
	slowAlpha := 2.0 / float64(c.slowSpan+1)

	emaFast := bars[0].Close
	emaSlow := bars[0].Close

	for i, bar := range bars {
		if i > 0 {
			emaFast = fastAlpha*bar.Close + (1-fastAlpha)*emaFast
			emaSlow = slowAlpha*bar.Close + (1-slowAlpha)*emaSlow
		}

		color := classifyColor(bar.Close, emaFast, emaSlow)

		states[i] = types.TrendState{
			Timestamp:  bar.Timestamp,
			Close:      bar.Close,
			EMAFast:    emaFast,
			EMASlow:    emaSlow,
			Color:      color,
			ZoneSignal: zoneForColor(color),
		}
	}

	return states
}

// Signals implements Strategy.
func (c *TrendClassifier) Signals(bars []types.PriceBar) []int {
	states := c.Classify(bars)
	signals := make([]int, len(states))
	for i, s := range states {
		signals[i] = s.ZoneSignal
	}
	return signals
}

// classifyColor partitions a bar by the relative order of close and the two
// EMAs. Exact EMA equality falls through to Neutral.
func classifyColor(close, emaFast, emaSlow float64) types.TrendColor {
	switch {
	case emaFast > emaSlow && close > emaFast:
		return types.ColorGreen
	case emaFast > emaSlow:
		return types.ColorBlue
	case emaFast < emaSlow && close < emaFast:
		return types.ColorRed
	case emaFast < emaSlow:
		return types.ColorYellow
	default:
		return types.ColorNeutral
	}
}

func zoneForColor(color types.TrendColor) int {
	switch color {
	case types.ColorGreen:
		return types.ZoneBuy
	case types.ColorRed:
		return types.ZoneSell
	default:
		return types.ZoneNeutral
	}
}
