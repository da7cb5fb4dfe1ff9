// Package main provides the stockrobo command line interface: a paper
// trading bot for US equities with trend and mean-reversion scanning,
// risk-capped position sizing and a persisted order ledger.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "stockrobo",
	Short: "StockRobo - US equities paper trading bot",
	Long: `StockRobo scans US equities for trend and mean-reversion entries,
sizes positions against a fixed risk budget and executes them against a
simulated, persisted portfolio.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
