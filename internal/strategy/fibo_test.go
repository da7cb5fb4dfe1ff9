package strategy

import (
	"math"
	"testing"
	"time"

	"github.com/stockrobo/stockrobo/pkg/types"
)

// rangeBars builds a window whose first bar spans the full swing range and
// whose remaining bars close at the given prices inside it.
func rangeBars(swingHigh, swingLow float64, closes []float64) []types.PriceBar {
	bars := make([]types.PriceBar, 0, len(closes)+1)
	base := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	bars = append(bars, types.PriceBar{
		Timestamp: base,
		Open:      swingLow,
		High:      swingHigh,
		Low:       swingLow,
		Close:     swingLow,
		Volume:    1000,
	})
	for i, c := range closes {
		bars = append(bars, types.PriceBar{
			Timestamp: base.AddDate(0, 0, i+1),
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
			Volume:    1000,
		})
	}
	return bars
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMeanReversionLevels(t *testing.T) {
	c := NewMeanReversionClassifierWithLookback(3)
	bars := rangeBars(150, 100, []float64{120, 118})

	states := c.Classify(bars)
	last := states[len(states)-1]

	if !last.Valid {
		t.Fatal("window is full, state should be valid")
	}
	if last.SwingHigh != 150 || last.SwingLow != 100 {
		t.Fatalf("swing = %v/%v, want 150/100", last.SwingHigh, last.SwingLow)
	}
	if !almostEqual(last.Fibo500, 125.0) {
		t.Errorf("fibo_500 = %v, want 125.0", last.Fibo500)
	}
	if !almostEqual(last.Fibo786, 110.7) {
		t.Errorf("fibo_786 = %v, want 110.7", last.Fibo786)
	}
	if !last.InZone {
		t.Error("close=118 is inside [110.7, 125.0], want in_zone=true")
	}
	if last.ZoneSignal != types.ZoneBuy {
		t.Errorf("zone signal = %d, want +1", last.ZoneSignal)
	}
}

func TestMeanReversionZoneBoundaries(t *testing.T) {
	tests := []struct {
		name       string
		close      float64
		wantInZone bool
		wantSignal int
	}{
		{"inside the zone", 118, true, types.ZoneBuy},
		{"on the 50% level", 125.0, true, types.ZoneBuy},
		{"on the 78.6% level", 110.7, true, types.ZoneBuy},
		{"recovered above 50%", 130, false, types.ZoneSell},
		{"between zone and low", 105, false, types.ZoneNeutral},
		{"broke the swing low", 99, false, types.ZoneSell},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewMeanReversionClassifierWithLookback(3)
			bars := rangeBars(150, 100, []float64{120, tt.close})
			// The probe close must not widen the swing range itself.
			if tt.close < 100 {
				bars[2].High = 100
				bars[2].Low = 100
			}

			last := c.Classify(bars)[len(bars)-1]
			if last.InZone != tt.wantInZone {
				t.Errorf("close=%v in_zone = %v, want %v", tt.close, last.InZone, tt.wantInZone)
			}
			if last.ZoneSignal != tt.wantSignal {
				t.Errorf("close=%v signal = %d, want %d", tt.close, last.ZoneSignal, tt.wantSignal)
			}
		})
	}
}

func TestMeanReversionInvalidBeforeWindowFills(t *testing.T) {
	c := NewMeanReversionClassifier()
	bars := barsFromCloses([]float64{100, 101, 102})

	for i, s := range c.Classify(bars) {
		if s.Valid {
			t.Errorf("bar %d: valid state with only %d bars of a %d-bar window",
				i, len(bars), DefaultLookback)
		}
		if s.ZoneSignal != types.ZoneNeutral {
			t.Errorf("bar %d: signal = %d before window fills, want 0", i, s.ZoneSignal)
		}
	}
}

func TestMeanReversionFlatRangeNeverInZone(t *testing.T) {
	c := NewMeanReversionClassifierWithLookback(3)
	bars := barsFromCloses([]float64{100, 100, 100, 100})

	for i, s := range c.Classify(bars) {
		if s.InZone {
			t.Errorf("bar %d: in_zone=true on a zero-width range", i)
		}
	}
}

func TestRetracementPct(t *testing.T) {
	pct, ok := RetracementPct(150, 100, 118)
	if !ok {
		t.Fatal("positive range should compute")
	}
	if !almostEqual(pct, 64.0) {
		t.Errorf("retracement = %v, want 64.0", pct)
	}

	if _, ok := RetracementPct(100, 100, 100); ok {
		t.Error("zero range must not compute a retracement")
	}
}
