// Package execution ranks competing signals and owns the persisted order
// and portfolio ledger behind paper-trade fills.
package execution

import (
	"sort"

	"go.uber.org/zap"

	"github.com/stockrobo/stockrobo/internal/strategy"
	"github.com/stockrobo/stockrobo/pkg/types"
)

// DefaultWinRate is assumed when a signal carries no backtest win rate.
const DefaultWinRate = 50.0

// strategyWeights is the fixed preference table: mean reversion (deep
// value) over trend following, anything else unweighted.
var strategyWeights = map[string]float64{
	strategy.NameFiboZone:      50,
	strategy.NameCDCActionZone: 30,
}

// Prioritizer ranks a batch of signals for capital allocation: the highest
// score consumes scarce cash first.
type Prioritizer struct {
	logger *zap.Logger
}

// NewPrioritizer creates a prioritizer.
func NewPrioritizer(logger *zap.Logger) *Prioritizer {
	return &Prioritizer{logger: logger}
}

// Rank scores each signal as strategy weight + win rate and returns a new
// slice sorted by descending score. The sort is stable, so equal scores
// keep their original relative order.
func (p *Prioritizer) Rank(signals []types.Signal) []types.Signal {
	ranked := make([]types.Signal, len(signals))
	copy(ranked, signals)

	for i := range ranked {
		winRate := DefaultWinRate
		if ranked[i].WinRate != nil {
			winRate = *ranked[i].WinRate
		}
		ranked[i].PriorityScore = strategyWeights[ranked[i].Strategy] + winRate
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].PriorityScore > ranked[j].PriorityScore
	})

	if p.logger != nil {
		for i, sig := range ranked {
			p.logger.Info("signal ranked",
				zap.Int("rank", i+1),
				zap.String("symbol", sig.Symbol),
				zap.String("strategy", sig.Strategy),
				zap.Float64("score", sig.PriorityScore),
			)
		}
	}

	return ranked
}
