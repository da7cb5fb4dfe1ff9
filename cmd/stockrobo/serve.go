package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stockrobo/stockrobo/internal/api"
	"github.com/stockrobo/stockrobo/internal/auth"
	"github.com/stockrobo/stockrobo/internal/scanner"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP/WebSocket API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	var authn *auth.Authenticator
	if a.cfg.Auth.Enabled {
		authn = auth.NewAuthenticator(a.cfg.Auth.Secret)
	}

	server := api.NewServer(a.logger, a.cfg.Server, api.Deps{
		Store:         a.store,
		Ledger:        a.newLedger(),
		Scanner:       scanner.NewScanner(a.logger, a.provider, a.metrics),
		Auth:          authn,
		Metrics:       a.metrics,
		Symbols:       a.cfg.Scan.Symbols,
		WatchlistFile: a.cfg.Data.WatchlistFile,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		a.logger.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Stop(shutdownCtx); err != nil {
			a.logger.Warn("Shutdown error", zap.Error(err))
		}
	}
	return nil
}
