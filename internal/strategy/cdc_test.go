package strategy

import (
	"testing"
	"time"

	"github.com/stockrobo/stockrobo/pkg/types"
)

func barsFromCloses(closes []float64) []types.PriceBar {
	bars := make([]types.PriceBar, len(closes))
	base := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = types.PriceBar{
			Timestamp: base.AddDate(0, 0, i),
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
			Volume:    1000,
		}
	}
	return bars
}

func TestTrendClassifierEmptyInput(t *testing.T) {
	c := NewTrendClassifier()
	if states := c.Classify(nil); states != nil {
		t.Errorf("expected nil states for empty input, got %d", len(states))
	}
	if signals := c.Signals(nil); len(signals) != 0 {
		t.Errorf("expected no signals for empty input, got %d", len(signals))
	}
}

func TestTrendClassifierSeedsWithFirstClose(t *testing.T) {
	c := NewTrendClassifier()
	states := c.Classify(barsFromCloses([]float64{100, 102}))

	if states[0].EMAFast != 100 || states[0].EMASlow != 100 {
		t.Fatalf("first bar EMAs should equal first close, got fast=%v slow=%v",
			states[0].EMAFast, states[0].EMASlow)
	}
	if states[0].Color != types.ColorNeutral {
		t.Errorf("first bar is an exact EMA tie, expected Neutral, got %s", states[0].Color)
	}

	// alpha_fast = 2/13, alpha_slow = 2/27
	wantFast := 2.0/13.0*102 + 11.0/13.0*100
	wantSlow := 2.0/27.0*102 + 25.0/27.0*100
	if diff := states[1].EMAFast - wantFast; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("EMAFast = %v, want %v", states[1].EMAFast, wantFast)
	}
	if diff := states[1].EMASlow - wantSlow; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("EMASlow = %v, want %v", states[1].EMASlow, wantSlow)
	}
}

func TestTrendClassifierColorPartition(t *testing.T) {
	tests := []struct {
		name                    string
		close, emaFast, emaSlow float64
		want                    types.TrendColor
	}{
		{"strong uptrend", 110, 105, 100, types.ColorGreen},
		{"pullback in uptrend", 103, 105, 100, types.ColorBlue},
		{"on fast ema in uptrend", 105, 105, 100, types.ColorBlue},
		{"strong downtrend", 90, 95, 100, types.ColorRed},
		{"rebound in downtrend", 97, 95, 100, types.ColorYellow},
		{"on fast ema in downtrend", 95, 95, 100, types.ColorYellow},
		{"exact ema tie", 110, 100, 100, types.ColorNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyColor(tt.close, tt.emaFast, tt.emaSlow)
			if got != tt.want {
				t.Errorf("classifyColor(%v, %v, %v) = %s, want %s",
					tt.close, tt.emaFast, tt.emaSlow, got, tt.want)
			}
		})
	}
}

func TestTrendClassifierZoneSignals(t *testing.T) {
	if got := zoneForColor(types.ColorGreen); got != types.ZoneBuy {
		t.Errorf("Green zone = %d, want %d", got, types.ZoneBuy)
	}
	if got := zoneForColor(types.ColorRed); got != types.ZoneSell {
		t.Errorf("Red zone = %d, want %d", got, types.ZoneSell)
	}
	for _, color := range []types.TrendColor{types.ColorBlue, types.ColorYellow, types.ColorNeutral} {
		if got := zoneForColor(color); got != types.ZoneNeutral {
			t.Errorf("%s zone = %d, want 0", color, got)
		}
	}
}

func TestTrendClassifierRallyTurnsGreen(t *testing.T) {
	// Flat series then a sustained rally: the last bar must be Green with a
	// buy signal, since close leads the fast EMA which leads the slow EMA.
	closes := make([]float64, 0, 60)
	for i := 0; i < 40; i++ {
		closes = append(closes, 100)
	}
	for i := 1; i <= 20; i++ {
		closes = append(closes, 100+float64(i)*2)
	}

	c := NewTrendClassifier()
	states := c.Classify(barsFromCloses(closes))
	last := states[len(states)-1]

	if last.Color != types.ColorGreen {
		t.Errorf("rally tail color = %s, want Green", last.Color)
	}
	if last.ZoneSignal != types.ZoneBuy {
		t.Errorf("rally tail signal = %d, want +1", last.ZoneSignal)
	}
}

func TestRegistryCreate(t *testing.T) {
	r := NewRegistry(nil)

	for _, name := range []string{NameCDCActionZone, NameFiboZone} {
		s, ok := r.Create(name)
		if !ok {
			t.Fatalf("Create(%q) not found", name)
		}
		if s.Name() != name {
			t.Errorf("strategy name = %q, want %q", s.Name(), name)
		}
	}

	if _, ok := r.Create("nope"); ok {
		t.Error("Create should report unknown strategies")
	}
	if got := len(r.List()); got != 2 {
		t.Errorf("List() returned %d names, want 2", got)
	}
}
