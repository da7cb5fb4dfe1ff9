// Package data provides market data access: a remote quote/history
// provider and a local JSON bar cache.
package data

import (
	"context"

	"github.com/stockrobo/stockrobo/pkg/types"
)

// Common fetch periods and intervals.
const (
	PeriodSixMonths = "6mo"
	PeriodOneYear   = "1y"
	PeriodTwoYears  = "2y"

	IntervalDaily = "1d"
)

// Provider supplies historical bars and delayed real-time prices. History
// returns an empty slice on upstream failure only at the batch layer; at
// this boundary errors are explicit so callers decide how to skip.
type Provider interface {
	History(ctx context.Context, symbol, period, interval string) ([]types.PriceBar, error)
	RealtimePrice(ctx context.Context, symbol string) (float64, error)
}
