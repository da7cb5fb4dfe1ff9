package strategy

import (
	"github.com/stockrobo/stockrobo/pkg/types"
)

// Default rolling window for the swing high/low anchor range.
const DefaultLookback = 120

// Retracement fractions measured down from the swing high.
const (
	fiboHalf   = 0.5
	fiboGolden = 0.786
)

// MeanReversionClassifier implements the Fibo Zone pullback system: a
// rolling swing range anchors two retracement levels, and closes inside the
// deep-discount band between them are buy zones. Recovery above the 50%
// level or a break below the swing low are sell zones.
type MeanReversionClassifier struct {
	lookback int
}

// NewMeanReversionClassifier creates a classifier with the default
// 120-bar window.
func NewMeanReversionClassifier() *MeanReversionClassifier {
	return &MeanReversionClassifier{lookback: DefaultLookback}
}

// NewMeanReversionClassifierWithLookback creates a classifier with a
// custom swing window.
func NewMeanReversionClassifierWithLookback(lookback int) *MeanReversionClassifier {
	return &MeanReversionClassifier{lookback: lookback}
}

// Name implements Strategy.
func (c *MeanReversionClassifier) Name() string { return NameFiboZone }

// Classify computes the per-bar reversion state. States before the window
// fills carry Valid=false and a neutral signal.
func (c *MeanReversionClassifier) Classify(bars []types.PriceBar) []types.ReversionState {
	if len(bars) == 0 {
		return nil
	}

	states := make([]types.ReversionState, len(bars))

	for i, bar := range bars {
		state := types.ReversionState{
			Timestamp: bar.Timestamp,
			Close:     bar.Close,
		}

		if i >= c.lookback-1 {
			high, low := swingRange(bars[i-c.lookback+1 : i+1])
			rng := high - low

			state.Valid = true
			state.SwingHigh = high
			state.SwingLow = low
			state.Fibo500 = high - rng*fiboHalf
			state.Fibo786 = high - rng*fiboGolden
			state.InZone = rng > 0 && bar.Close >= state.Fibo786 && bar.Close <= state.Fibo500

			if state.InZone {
				state.ZoneSignal = types.ZoneBuy
			}
			// Sell conditions win over the zone entry: recovery above the
			// 50% level takes profit, a break below the swing low stops out.
			if bar.Close > state.Fibo500 || bar.Close < low {
				state.ZoneSignal = types.ZoneSell
			}
		}

		states[i] = state
	}

	return states
}

// Signals implements Strategy.
func (c *MeanReversionClassifier) Signals(bars []types.PriceBar) []int {
	states := c.Classify(bars)
	signals := make([]int, len(states))
	for i, s := range states {
		signals[i] = s.ZoneSignal
	}
	return signals
}

// RetracementPct reports how deep a close sits in a swing range, as a
// percentage measured down from the swing high. Returns false when the
// range is not positive.
func RetracementPct(swingHigh, swingLow, close float64) (float64, bool) {
	rng := swingHigh - swingLow
	if rng <= 0 {
		return 0, false
	}
	return (swingHigh - close) / rng * 100, true
}

func swingRange(window []types.PriceBar) (high, low float64) {
	high = window[0].High
	low = window[0].Low
	for _, bar := range window[1:] {
		if bar.High > high {
			high = bar.High
		}
		if bar.Low < low {
			low = bar.Low
		}
	}
	return high, low
}
