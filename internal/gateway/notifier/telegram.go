package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTelegramBaseURL = "https://api.telegram.org"
	telegramMaxAttempts    = 3
)

// Telegram posts to the Bot API sendMessage endpoint.
type Telegram struct {
	BotToken string
	ChatID   string
	BaseURL  string
	Client   *http.Client

	limiter *rate.Limiter
	backoff time.Duration
}

// NewTelegram builds a sender limited to perSecond messages per second
// (burst 1). perSecond <= 0 disables limiting.
func NewTelegram(botToken, chatID string, perSecond float64) *Telegram {
	t := &Telegram{
		BotToken: botToken,
		ChatID:   chatID,
		BaseURL:  defaultTelegramBaseURL,
		Client:   &http.Client{Timeout: 15 * time.Second},
		backoff:  time.Second,
	}
	if perSecond > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
	return t
}

// SendText sends text, retrying up to three times on transport errors and
// non-2xx replies. 4xx replies other than 429 are not retried.
func (t *Telegram) SendText(ctx context.Context, chatID, text string) error {
	if chatID == "" {
		chatID = t.ChatID
	}
	if t.BotToken == "" || chatID == "" {
		return ErrNotConfigured
	}
	base := strings.TrimRight(t.BaseURL, "/")
	if base == "" {
		base = defaultTelegramBaseURL
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", base, t.BotToken)
	body, err := json.Marshal(map[string]any{
		"chat_id":                  chatID,
		"text":                     text,
		"disable_web_page_preview": true,
	})
	if err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < telegramMaxAttempts; i++ {
		if t.limiter != nil {
			if err := t.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		retry, err := t.post(ctx, url, body)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(i+1) * t.backoff):
		}
	}
	return lastErr
}

func (t *Telegram) post(ctx context.Context, url string, body []byte) (retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return ctx.Err() == nil, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode/100 == 2 {
		return false, nil
	}
	err = fmt.Errorf("telegram status=%d", resp.StatusCode)
	return resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests, err
}
