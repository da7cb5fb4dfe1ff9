// Package config loads and validates the bot configuration.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full bot configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Data      DataConfig      `mapstructure:"data"`
	Scan      ScanConfig      `mapstructure:"scan"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Execution ExecutionConfig `mapstructure:"execution"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Auth      AuthConfig      `mapstructure:"auth"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DataConfig holds market-data and persistence locations.
type DataConfig struct {
	Dir           string `mapstructure:"dir"`
	StateFile     string `mapstructure:"state_file"`
	WatchlistFile string `mapstructure:"watchlist_file"`
	AlertLogFile  string `mapstructure:"alert_log_file"`
}

// ScanConfig holds scan loop settings.
type ScanConfig struct {
	Symbols          []string `mapstructure:"symbols"`
	Period           string   `mapstructure:"period"`
	IntervalSeconds  int      `mapstructure:"interval_seconds"`
	HeartbeatSeconds int      `mapstructure:"heartbeat_seconds"`
	RegimeSymbol     string   `mapstructure:"regime_symbol"`
}

// RiskConfig holds position sizing settings.
type RiskConfig struct {
	RiskPct      float64 `mapstructure:"risk_pct"`
	StopLossPct  float64 `mapstructure:"stop_loss_pct"`
	StartingCash float64 `mapstructure:"starting_cash"`
}

// ExecutionConfig holds paper execution settings.
type ExecutionConfig struct {
	FillDelayMS int `mapstructure:"fill_delay_ms"`
}

// TelegramConfig holds the Telegram alert channel settings. An empty token
// disables the channel.
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// AuthConfig holds the time-based one-time-code settings for the API.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Secret  string `mapstructure:"secret"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Data: DataConfig{
			Dir:           "data",
			StateFile:     "data/portfolio_state.json",
			WatchlistFile: "data/watchlist.json",
			AlertLogFile:  "data/alerts.log",
		},
		Scan: ScanConfig{
			Symbols:          []string{"SPY", "QQQ", "NVDA", "TSLA", "AAPL", "MSFT", "AMZN", "GOOGL", "META", "AMD"},
			Period:           "6mo",
			IntervalSeconds:  60,
			HeartbeatSeconds: 30,
			RegimeSymbol:     "SPY",
		},
		Risk: RiskConfig{
			RiskPct:      2.0,
			StopLossPct:  5.0,
			StartingCash: 50000,
		},
		Execution: ExecutionConfig{
			FillDelayMS: 500,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if len(c.Scan.Symbols) == 0 {
		return fmt.Errorf("scan symbols cannot be empty")
	}
	if c.Scan.IntervalSeconds <= 0 {
		return fmt.Errorf("scan interval must be positive, got %d", c.Scan.IntervalSeconds)
	}
	if c.Risk.RiskPct <= 0 || c.Risk.RiskPct > 100 {
		return fmt.Errorf("risk_pct must be in (0, 100], got %f", c.Risk.RiskPct)
	}
	if c.Risk.StopLossPct <= 0 || c.Risk.StopLossPct >= 100 {
		return fmt.Errorf("stop_loss_pct must be in (0, 100), got %f", c.Risk.StopLossPct)
	}
	if c.Risk.StartingCash <= 0 {
		return fmt.Errorf("starting_cash must be positive, got %f", c.Risk.StartingCash)
	}
	if c.Auth.Enabled && c.Auth.Secret == "" {
		return fmt.Errorf("auth secret required when auth is enabled")
	}
	return nil
}
