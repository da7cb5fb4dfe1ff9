package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stockrobo/stockrobo/internal/bot"
)

var runCmd = &cobra.Command{
	Use:   "run [symbols...]",
	Short: "Run the trading loop until interrupted",
	RunE:  runLoop,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runLoop(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	symbols := args
	if len(symbols) == 0 {
		symbols = a.cfg.Scan.Symbols
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b := bot.New(a.logger, bot.Options{
		Symbols:           symbols,
		ScanInterval:      time.Duration(a.cfg.Scan.IntervalSeconds) * time.Second,
		HeartbeatInterval: time.Duration(a.cfg.Scan.HeartbeatSeconds) * time.Second,
		RiskPct:           a.cfg.Risk.RiskPct,
		StopLossPct:       a.cfg.Risk.StopLossPct,
		RegimeSymbol:      a.cfg.Scan.RegimeSymbol,
	}, a.provider, a.newLedger(), a.newAlerts(), a.metrics)

	a.logger.Info("Starting trading loop",
		zap.Strings("symbols", symbols),
		zap.Int("intervalSeconds", a.cfg.Scan.IntervalSeconds))

	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.logger.Info("Trading loop stopped")
	return nil
}
