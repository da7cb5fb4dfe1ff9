// Package notify delivers alerts to the console, a log file and Telegram,
// and renders console reports.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/stockrobo/stockrobo/internal/metrics"
	"github.com/stockrobo/stockrobo/pkg/types"
)

const telegramTimeout = 5 * time.Second

// Alert titles used across the bot.
const (
	TitleSystem      = "SYSTEM"
	TitleScanner     = "SCANNER"
	TitleSignal      = "SIGNAL"
	TitleOpportunity = "OPPORTUNITY"
	TitleOrderGen    = "ORDER_GEN"
	TitleExecution   = "EXECUTION"
	TitleWatch       = "WATCH"
)

// TelegramConfig configures the Telegram channel. An empty token disables
// it.
type TelegramConfig struct {
	BotToken string
	ChatID   string
}

// AlertEngine fans alerts out to the console, an append-only log file and
// optionally Telegram. Delivery failures are logged and swallowed so an
// outage in a channel never interrupts a trading cycle.
type AlertEngine struct {
	logger   *zap.Logger
	out      io.Writer
	logPath  string
	telegram *telegramClient
	metrics  *metrics.Registry
	now      func() time.Time
}

// NewAlertEngine creates an alert engine writing to stdout and logPath. The
// metrics registry may be nil.
func NewAlertEngine(logger *zap.Logger, logPath string, tg TelegramConfig, reg *metrics.Registry) *AlertEngine {
	e := &AlertEngine{
		logger:  logger,
		out:     os.Stdout,
		logPath: logPath,
		metrics: reg,
		now:     time.Now,
	}
	if tg.BotToken != "" && tg.ChatID != "" {
		e.telegram = newTelegramClient(tg.BotToken, tg.ChatID)
	}
	return e
}

// SetOutput redirects console output, primarily for tests.
func (e *AlertEngine) SetOutput(w io.Writer) { e.out = w }

// Send delivers an alert to every configured channel.
func (e *AlertEngine) Send(ctx context.Context, title, message string, level types.AlertLevel) {
	line := fmt.Sprintf("[%s] [%s] %s: %s",
		e.now().Format("2006-01-02 15:04:05"), level, title, message)

	fmt.Fprintln(e.out, line)

	if err := e.appendLog(line); err != nil {
		e.logger.Warn("Alert log write failed", zap.Error(err))
	}

	if e.telegram != nil && forwardToTelegram(title, message, level) {
		text := fmt.Sprintf("*%s* [%s]\n%s", title, level, message)
		if err := e.telegram.send(ctx, text); err != nil {
			e.logger.Warn("Telegram delivery failed", zap.Error(err))
			if e.metrics != nil {
				e.metrics.RecordNotification("telegram", "error")
			}
			return
		}
		if e.metrics != nil {
			e.metrics.RecordNotification("telegram", "sent")
		}
	}
}

func (e *AlertEngine) appendLog(line string) error {
	if e.logPath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(e.logPath), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(e.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintln(f, line)
	return err
}

// forwardToTelegram keeps the remote channel to actionable traffic: every
// warning or critical alert, trade-flow titles, and the startup banner.
func forwardToTelegram(title, message string, level types.AlertLevel) bool {
	if level == types.AlertCritical || level == types.AlertWarning {
		return true
	}
	switch title {
	case TitleSignal, TitleOpportunity, TitleExecution:
		return true
	}
	if title == TitleSystem && strings.Contains(message, "STARTED") {
		return true
	}
	return false
}

type telegramClient struct {
	token   string
	chatID  string
	baseURL string
	client  *http.Client
}

func newTelegramClient(token, chatID string) *telegramClient {
	return &telegramClient{
		token:   token,
		chatID:  chatID,
		baseURL: "https://api.telegram.org",
		client:  &http.Client{Timeout: telegramTimeout},
	}
}

func (t *telegramClient) send(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]string{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	})
	if err != nil {
		return fmt.Errorf("encoding telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}
	return nil
}
