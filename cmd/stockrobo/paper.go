package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stockrobo/stockrobo/internal/bot"
	"github.com/stockrobo/stockrobo/internal/notify"
)

var paperCmd = &cobra.Command{
	Use:   "paper [symbols...]",
	Short: "Run one scan-size-execute cycle against the paper portfolio",
	Long: `paper runs a single trading cycle: scan the universe, prioritize buy
signals, size them against the risk budget and running cash, execute the
tickets and persist the portfolio state. Intended for scheduled one-shot
runs; a fatal error exits non-zero.`,
	RunE: runPaper,
}

func init() {
	rootCmd.AddCommand(paperCmd)
}

func runPaper(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	symbols := args
	if len(symbols) == 0 {
		symbols = a.cfg.Scan.Symbols
	}

	ledger := a.newLedger()
	b := bot.New(a.logger, bot.Options{
		Symbols:      symbols,
		RiskPct:      a.cfg.Risk.RiskPct,
		StopLossPct:  a.cfg.Risk.StopLossPct,
		RegimeSymbol: a.cfg.Scan.RegimeSymbol,
	}, a.provider, ledger, a.newAlerts(), a.metrics)

	if err := b.RunOnce(cmd.Context()); err != nil {
		return err
	}

	notify.PrintOrderReport(os.Stdout, ledger.Orders())
	a.logger.Info("Cycle complete",
		zap.String("cash", ledger.Cash().StringFixed(2)),
		zap.Int("positions", len(ledger.Positions())))
	return nil
}
