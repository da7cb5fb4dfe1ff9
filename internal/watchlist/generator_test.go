package watchlist

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/stockrobo/stockrobo/pkg/types"
)

type fakeProvider struct {
	bars map[string][]types.PriceBar
}

func (f *fakeProvider) History(_ context.Context, symbol, _, _ string) ([]types.PriceBar, error) {
	if bars, ok := f.bars[symbol]; ok {
		return bars, nil
	}
	return nil, fmt.Errorf("no data for %s", symbol)
}

func (f *fakeProvider) RealtimePrice(context.Context, string) (float64, error) {
	return 0, fmt.Errorf("not implemented")
}

// trendBars holds flat at 100 then closes with a final bar at lastClose,
// which classifies Green when lastClose is well above 100.
func trendBars(n int, lastClose float64) []types.PriceBar {
	bars := make([]types.PriceBar, n)
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		c := 100.0
		if i == n-1 {
			c = lastClose
		}
		bars[i] = types.PriceBar{
			Timestamp: base.AddDate(0, 0, i),
			Open:      c, High: c + 1, Low: c - 1, Close: c,
			Volume: 1000,
		}
	}
	return bars
}

// zoneBars pins the swing range to 100..200 with every close at the given
// level, so the discount zone spans 121.4 to 150.
func zoneBars(n int, close float64) []types.PriceBar {
	bars := make([]types.PriceBar, n)
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = types.PriceBar{
			Timestamp: base.AddDate(0, 0, i),
			Open:      close, High: 200, Low: 100, Close: close,
			Volume: 1000,
		}
	}
	return bars
}

func TestGenerateTrendEntries(t *testing.T) {
	provider := &fakeProvider{bars: map[string][]types.PriceBar{
		"STRONG": trendBars(130, 130), // +30% on the day
		"MILD":   trendBars(130, 101), // +1%
	}}
	g := NewGenerator(zap.NewNop(), provider, nil)

	doc, err := g.Generate(context.Background(), []string{"MILD", "STRONG"})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if doc.CDCSignals != 2 {
		t.Fatalf("expected 2 trend signals, got %d", doc.CDCSignals)
	}
	// Sorted by absolute daily change, largest first.
	if doc.CDCList[0] != "STRONG" || doc.CDCList[1] != "MILD" {
		t.Errorf("unexpected trend order: %v", doc.CDCList)
	}

	byStrength := map[string]string{}
	for _, e := range doc.Details {
		byStrength[e.Symbol] = e.SignalStrength
	}
	if byStrength["STRONG"] != "Strong" {
		t.Errorf("expected Strong for STRONG, got %q", byStrength["STRONG"])
	}
	if byStrength["MILD"] != "Moderate" {
		t.Errorf("expected Moderate for MILD, got %q", byStrength["MILD"])
	}
}

func TestGenerateReversionEntries(t *testing.T) {
	provider := &fakeProvider{bars: map[string][]types.PriceBar{
		"DEEP": zoneBars(130, 130), // retracement 70
		"MODR": zoneBars(130, 145), // retracement 55
		"HIGH": zoneBars(130, 160), // above the midpoint, not in zone
	}}
	g := NewGenerator(zap.NewNop(), provider, nil)

	doc, err := g.Generate(context.Background(), []string{"DEEP", "MODR", "HIGH"})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if doc.FiboSignals != 2 {
		t.Fatalf("expected 2 reversion signals, got %d", doc.FiboSignals)
	}
	// Sorted by retracement depth, deepest first.
	if doc.FiboList[0] != "DEEP" || doc.FiboList[1] != "MODR" {
		t.Errorf("unexpected reversion order: %v", doc.FiboList)
	}

	for _, e := range doc.Details {
		switch e.Symbol {
		case "DEEP":
			if e.Discount != "Deep" {
				t.Errorf("expected Deep discount, got %q", e.Discount)
			}
			if e.RetracementPct == nil || *e.RetracementPct != 70 {
				t.Errorf("unexpected retracement for DEEP: %v", e.RetracementPct)
			}
			if e.Fibo500 == nil || *e.Fibo500 != 150 {
				t.Errorf("unexpected fibo 0.5 level: %v", e.Fibo500)
			}
		case "MODR":
			if e.Discount != "Moderate" {
				t.Errorf("expected Moderate discount, got %q", e.Discount)
			}
		}
	}
}

func TestGenerateSkipsThinHistory(t *testing.T) {
	provider := &fakeProvider{bars: map[string][]types.PriceBar{
		"THIN": trendBars(MinBars-1, 130),
	}}
	g := NewGenerator(zap.NewNop(), provider, nil)

	doc, err := g.Generate(context.Background(), []string{"THIN", "MISSING"})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if doc.TotalScanned != 2 {
		t.Errorf("expected total_scanned 2, got %d", doc.TotalScanned)
	}
	if len(doc.Watchlist) != 0 {
		t.Errorf("expected empty watchlist, got %v", doc.Watchlist)
	}
}

func TestGenerateCapsTrendEntries(t *testing.T) {
	bars := map[string][]types.PriceBar{}
	symbols := make([]string, 0, maxTrendEntries+2)
	for i := 0; i < maxTrendEntries+2; i++ {
		sym := fmt.Sprintf("S%02d", i)
		// Larger index, larger daily move.
		bars[sym] = trendBars(130, 110+float64(i))
		symbols = append(symbols, sym)
	}
	g := NewGenerator(zap.NewNop(), &fakeProvider{bars: bars}, nil)

	doc, err := g.Generate(context.Background(), symbols)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if doc.CDCSignals != maxTrendEntries {
		t.Fatalf("expected %d trend signals after cap, got %d", maxTrendEntries, doc.CDCSignals)
	}
	if doc.CDCList[0] != "S21" {
		t.Errorf("expected S21 ranked first, got %s", doc.CDCList[0])
	}
	for _, sym := range doc.CDCList {
		if sym == "S00" || sym == "S01" {
			t.Errorf("expected weakest symbols cut by cap, found %s", sym)
		}
	}
}

func TestGenerateMergesUniqueSymbols(t *testing.T) {
	watchlist := mergeUnique([]string{"AAPL", "MSFT"}, []string{"MSFT", "NVDA"})
	want := []string{"AAPL", "MSFT", "NVDA"}
	if len(watchlist) != len(want) {
		t.Fatalf("expected %v, got %v", want, watchlist)
	}
	for i := range want {
		if watchlist[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], watchlist[i])
		}
	}
}

func TestSaveWritesDocument(t *testing.T) {
	provider := &fakeProvider{bars: map[string][]types.PriceBar{
		"STRONG": trendBars(130, 130),
	}}
	g := NewGenerator(zap.NewNop(), provider, nil)

	doc, err := g.Generate(context.Background(), []string{"STRONG"})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "data", "watchlist.json")
	if err := g.Save(doc, path); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved watchlist: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("saved watchlist is not valid JSON: %v", err)
	}
	for _, key := range []string{"generated_at", "total_scanned", "cdc_signals", "fibo_signals", "watchlist", "cdc_list", "fibo_list", "details"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("saved document missing key %q", key)
		}
	}
}
