package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stockrobo/stockrobo/internal/watchlist"
)

var watchlistFullUniverse bool

var watchlistCmd = &cobra.Command{
	Use:   "watchlist [symbols...]",
	Short: "Generate the combined trend/mean-reversion watchlist",
	RunE:  runWatchlist,
}

func init() {
	watchlistCmd.Flags().BoolVar(&watchlistFullUniverse, "full", false,
		"scan the built-in full universe instead of the configured symbols")
	rootCmd.AddCommand(watchlistCmd)
}

func runWatchlist(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	symbols := args
	if len(symbols) == 0 {
		if watchlistFullUniverse {
			symbols = watchlist.DefaultUniverse
		} else {
			symbols = a.cfg.Scan.Symbols
		}
	}

	g := watchlist.NewGenerator(a.logger, a.provider, a.metrics)
	doc, err := g.Generate(cmd.Context(), symbols)
	if err != nil {
		return err
	}
	if err := g.Save(doc, a.cfg.Data.WatchlistFile); err != nil {
		return err
	}

	a.logger.Info("Watchlist written",
		zap.String("file", a.cfg.Data.WatchlistFile),
		zap.Strings("symbols", doc.Watchlist))
	fmt.Printf("Watchlist: %d symbols (%d trend, %d mean-reversion) -> %s\n",
		len(doc.Watchlist), doc.CDCSignals, doc.FiboSignals, a.cfg.Data.WatchlistFile)
	return nil
}
