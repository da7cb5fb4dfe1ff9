package main

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stockrobo/stockrobo/internal/backtest"
	"github.com/stockrobo/stockrobo/internal/data"
	"github.com/stockrobo/stockrobo/internal/notify"
	"github.com/stockrobo/stockrobo/internal/strategy"
)

var (
	backtestStrategy string
	backtestPeriod   string
	backtestCapital  float64
)

var backtestCmd = &cobra.Command{
	Use:   "backtest [symbols...]",
	Short: "Backtest a strategy over cached or fetched history",
	RunE:  runBacktest,
}

func init() {
	backtestCmd.Flags().StringVar(&backtestStrategy, "strategy", "",
		"strategy name (default: all registered strategies)")
	backtestCmd.Flags().StringVar(&backtestPeriod, "period", data.PeriodTwoYears, "history period")
	backtestCmd.Flags().Float64Var(&backtestCapital, "capital", 10000, "initial capital per run")
	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	symbols := args
	if len(symbols) == 0 {
		symbols = a.cfg.Scan.Symbols
	}

	registry := strategy.NewRegistry(a.logger)
	names := registry.List()
	if backtestStrategy != "" {
		if _, ok := registry.Create(backtestStrategy); !ok {
			return fmt.Errorf("unknown strategy %q (available: %v)", backtestStrategy, names)
		}
		names = []string{backtestStrategy}
	}

	sim := backtest.NewSimulator(a.logger, decimal.NewFromFloat(backtestCapital))

	var results []*backtest.Result
	for _, symbol := range symbols {
		bars, err := a.provider.History(cmd.Context(), symbol, backtestPeriod, data.IntervalDaily)
		if err != nil {
			a.logger.Warn("Skipping symbol, no history",
				zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		for _, name := range names {
			strat, _ := registry.Create(name)
			results = append(results, sim.Run(symbol, strat, bars))
		}
	}

	notify.PrintBacktestReport(os.Stdout, results)
	return nil
}
