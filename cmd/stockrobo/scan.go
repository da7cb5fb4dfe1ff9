package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/stockrobo/stockrobo/internal/notify"
	"github.com/stockrobo/stockrobo/internal/scanner"
)

var scanCmd = &cobra.Command{
	Use:   "scan [symbols...]",
	Short: "Run one scan sweep and print the signals",
	RunE:  runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	symbols := args
	if len(symbols) == 0 {
		symbols = a.cfg.Scan.Symbols
	}

	s := scanner.NewScanner(a.logger, a.provider, a.metrics)
	if a.cfg.Scan.Period != "" {
		s.SetPeriod(a.cfg.Scan.Period)
	}

	results, err := s.Scan(cmd.Context(), symbols)
	if err != nil {
		return err
	}

	notify.PrintScanReport(os.Stdout, results)
	return nil
}
