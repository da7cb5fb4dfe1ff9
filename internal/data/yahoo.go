package data

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/stockrobo/stockrobo/pkg/types"
)

const defaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// validSymbol matches US-style tickers like AAPL, BRK.B, SPY.
var validSymbol = regexp.MustCompile(`^[A-Za-z0-9]{1,10}(\.[A-Za-z]{1,4})?$`)

// YahooClient fetches bars and quotes from the Yahoo Finance chart API.
// Requests are rate limited to stay under the unauthenticated quota.
type YahooClient struct {
	logger  *zap.Logger
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
}

// NewYahooClient creates a rate-limited Yahoo Finance client.
func NewYahooClient(logger *zap.Logger) *YahooClient {
	return &YahooClient{
		logger:  logger,
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Every(250*time.Millisecond), 4),
		baseURL: defaultBaseURL,
	}
}

// SetBaseURL overrides the API endpoint. Used by tests.
func (y *YahooClient) SetBaseURL(url string) { y.baseURL = url }

func validateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if !validSymbol.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}

// History implements Provider. Bars with missing quote fields are skipped.
func (y *YahooClient) History(ctx context.Context, symbol, period, interval string) ([]types.PriceBar, error) {
	if err := validateSymbol(symbol); err != nil {
		return nil, err
	}
	if period == "" {
		period = PeriodOneYear
	}
	if interval == "" {
		interval = "1d"
	}

	url := fmt.Sprintf("%s/%s?interval=%s&range=%s", y.baseURL, symbol, interval, period)
	result, err := y.fetchChart(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching history for %s: %w", symbol, err)
	}

	r := result.Chart.Result[0]
	if len(r.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no quote data for symbol: %s", symbol)
	}
	quotes := r.Indicators.Quote[0]

	// Upstream occasionally returns ragged arrays; only index positions
	// present in every field.
	n := len(r.Timestamp)
	for _, arr := range [][]*float64{quotes.Open, quotes.High, quotes.Low, quotes.Close} {
		if len(arr) < n {
			n = len(arr)
		}
	}

	bars := make([]types.PriceBar, 0, n)
	for i, ts := range r.Timestamp[:n] {
		if quotes.Open[i] == nil || quotes.High[i] == nil ||
			quotes.Low[i] == nil || quotes.Close[i] == nil {
			continue
		}
		bar := types.PriceBar{
			Timestamp: time.Unix(int64(ts), 0).UTC(),
			Open:      *quotes.Open[i],
			High:      *quotes.High[i],
			Low:       *quotes.Low[i],
			Close:     *quotes.Close[i],
		}
		if i < len(quotes.Volume) && quotes.Volume[i] != nil {
			bar.Volume = *quotes.Volume[i]
		}
		bars = append(bars, bar)
	}

	y.logger.Debug("history fetched",
		zap.String("symbol", symbol),
		zap.String("period", period),
		zap.Int("bars", len(bars)),
	)
	return bars, nil
}

// RealtimePrice implements Provider using the chart meta's regular market
// price (delayed real-time).
func (y *YahooClient) RealtimePrice(ctx context.Context, symbol string) (float64, error) {
	if err := validateSymbol(symbol); err != nil {
		return 0, err
	}

	url := fmt.Sprintf("%s/%s?interval=1d&range=1d", y.baseURL, symbol)
	result, err := y.fetchChart(ctx, url)
	if err != nil {
		return 0, fmt.Errorf("fetching quote for %s: %w", symbol, err)
	}

	price := result.Chart.Result[0].Meta.RegularMarketPrice
	if price <= 0 {
		return 0, fmt.Errorf("no market price for symbol: %s", symbol)
	}
	return price, nil
}

func (y *YahooClient) fetchChart(ctx context.Context, url string) (*chartResponse, error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "stockrobo/1.0")

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if result.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo error: %s", result.Chart.Error.Description)
	}
	if len(result.Chart.Result) == 0 {
		return nil, fmt.Errorf("empty chart result")
	}
	return &result, nil
}

// Yahoo chart API response types.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta       chartMeta  `json:"meta"`
	Timestamp  []int      `json:"timestamp"`
	Indicators indicators `json:"indicators"`
}

type chartMeta struct {
	Symbol              string  `json:"symbol"`
	RegularMarketPrice  float64 `json:"regularMarketPrice"`
	RegularMarketVolume int     `json:"regularMarketVolume"`
	RegularMarketTime   int     `json:"regularMarketTime"`
}

type indicators struct {
	Quote []quoteIndicator `json:"quote"`
}

type quoteIndicator struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}
