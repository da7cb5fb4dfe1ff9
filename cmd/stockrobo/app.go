package main

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/stockrobo/stockrobo/internal/config"
	"github.com/stockrobo/stockrobo/internal/data"
	"github.com/stockrobo/stockrobo/internal/execution"
	"github.com/stockrobo/stockrobo/internal/metrics"
	"github.com/stockrobo/stockrobo/internal/notify"
)

// app holds the shared wiring every subcommand starts from.
type app struct {
	logger   *zap.Logger
	cfg      *config.Config
	store    *data.Store
	provider data.Provider
	metrics  *metrics.Registry
}

// newApp builds the logger, configuration and data plumbing.
func newApp() (*app, error) {
	logger := setupLogger(logLevel)

	var cfg *config.Config
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	} else {
		cfg = config.Defaults()
		logger.Warn("No config file specified, using defaults")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	store, err := data.NewStore(logger, cfg.Data.Dir)
	if err != nil {
		return nil, fmt.Errorf("initializing data store: %w", err)
	}

	return &app{
		logger:   logger,
		cfg:      cfg,
		store:    store,
		provider: data.NewCachingProvider(data.NewYahooClient(logger), store),
		metrics:  metrics.NewRegistry(),
	}, nil
}

func (a *app) close() {
	a.logger.Sync()
}

// newLedger opens the persisted portfolio ledger.
func (a *app) newLedger() *execution.Ledger {
	ledger := execution.NewLedger(a.logger, a.cfg.Data.StateFile, a.cfg.Risk.StartingCash, a.provider)
	if a.cfg.Execution.FillDelayMS >= 0 {
		ledger.SetFillDelay(time.Duration(a.cfg.Execution.FillDelayMS) * time.Millisecond)
	}
	return ledger
}

// newAlerts builds the alert engine from the configured channels.
func (a *app) newAlerts() *notify.AlertEngine {
	return notify.NewAlertEngine(a.logger, a.cfg.Data.AlertLogFile, notify.TelegramConfig{
		BotToken: a.cfg.Telegram.BotToken,
		ChatID:   a.cfg.Telegram.ChatID,
	}, a.metrics)
}

// setupLogger builds a console zap logger at the requested level.
func setupLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:       zap.NewAtomicLevelAt(zapLevel),
		Development: false,
		Encoding:    "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "time",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := config.Build()
	if err != nil {
		panic(err)
	}

	return logger
}
