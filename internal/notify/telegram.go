package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pkt.systems/pslog"

	"github.com/sosedi-hub/sosedi/internal/loggingutil"
)

// DefaultTelegramTimeout bounds one sendMessage round trip.
const DefaultTelegramTimeout = 5 * time.Second

const telegramAPIBase = "https://api.telegram.org"

// TelegramConfig captures the tunables for the Telegram transport.
type TelegramConfig struct {
	// Token is the bot token. Empty disables the transport entirely.
	Token string
	// BaseURL overrides the Telegram API endpoint, mainly for tests.
	BaseURL string
	// HTTPClient overrides the default client with its 5s timeout.
	HTTPClient *http.Client
	Logger     pslog.Logger
}

// Telegram sends messages through the Bot API's sendMessage call.
type Telegram struct {
	base    string
	client  *http.Client
	enabled bool
	logger  pslog.Logger
}

// NewTelegram builds the transport. With an empty token every send becomes a
// logged no-op, which keeps the portal usable without a bot configured.
func NewTelegram(cfg TelegramConfig) *Telegram {
	token := strings.TrimSpace(cfg.Token)
	base := cfg.BaseURL
	if base == "" {
		base = telegramAPIBase
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DefaultTelegramTimeout}
	}
	return &Telegram{
		base:    strings.TrimRight(base, "/") + "/bot" + token,
		client:  client,
		enabled: token != "",
		logger:  loggingutil.EnsureLogger(cfg.Logger),
	}
}

// Enabled reports whether a bot token is configured.
func (t *Telegram) Enabled() bool {
	return t.enabled
}

// NotifySingle sends text to one chat. Empty target or text short-circuits
// without an error, same as a disabled transport.
func (t *Telegram) NotifySingle(ctx context.Context, target, text string) error {
	if !t.enabled {
		t.logger.Debug("notify.telegram.disabled")
		return nil
	}
	target = strings.TrimSpace(target)
	text = strings.TrimSpace(text)
	if target == "" || text == "" {
		return nil
	}
	form := url.Values{
		"chat_id": {target},
		"text":    {text},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.base+"/sendMessage", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: send: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notify: telegram responded %s", resp.Status)
	}
	t.logger.Debug("notify.telegram.sent", "chat_id", target)
	return nil
}

// NotifyMany fans text out to all targets and returns how many succeeded.
// Individual failures are logged and do not stop the remaining sends.
func (t *Telegram) NotifyMany(ctx context.Context, targets []string, text string) int {
	sent := 0
	for _, target := range targets {
		if err := t.NotifySingle(ctx, target, text); err != nil {
			t.logger.Warn("notify.telegram.send_failed", "chat_id", target, "error", err)
			continue
		}
		sent++
	}
	return sent
}

var _ Notifier = (*Telegram)(nil)
