package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"us30bot/internal/config"
	"us30bot/internal/gateway/notifier"
	"us30bot/internal/gateway/price"
	"us30bot/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	for _, k := range []string{config.EnvTelegramToken, config.EnvTelegramChatID, config.EnvTelegramWebhookSecret, config.EnvHTTPAddr, config.EnvLogLevel} {
		t.Setenv(k, "")
	}
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.App.HTTPAddr = "127.0.0.1:0"
	cfg.Book.StateBackend = "memory"
	cfg.Book.JournalBackend = "none"
	cfg.Price.Provider = "none"
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := NewApp(cfg, "", WithVersion("test"), WithStateStore(store.NewMemory()), WithPriceSource(price.Disabled{}), WithSender(notifier.Log{}))
	require.NoError(t, err)
	return a
}

func TestNewAppRejectsNilConfig(t *testing.T) {
	_, err := NewApp(nil, "")
	assert.Error(t, err)
}

func TestSignalWebhookThroughApp(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	a.book.Start()
	a.dispatcher.Start(context.Background())
	t.Cleanup(func() {
		a.book.Stop()
		a.dispatcher.Stop()
	})

	req := httptest.NewRequest(http.MethodPost, "/signal", strings.NewReader("RSI below 30"))
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "signal", body["kind"])
	assert.Len(t, a.Book().Snapshot().Signals, 1)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "US30-Bot vtest running", rec.Body.String())
}

func TestBuildPersistentBackends(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	cfg.Book.StateBackend = "sqlite"
	cfg.Book.StatePath = filepath.Join(dir, "state.db")
	cfg.Book.JournalBackend = "sqlite"
	cfg.Book.JournalPath = filepath.Join(dir, "journal.db")

	a, err := NewApp(cfg, "", WithSender(notifier.Log{}))
	require.NoError(t, err)
	a.book.Start()
	a.book.Stop()
	assert.Equal(t, "none", a.Summary.Price)

	cfg.Book.StateBackend = "json"
	cfg.Book.StatePath = filepath.Join(dir, "state.json")
	cfg.Book.JournalBackend = "file"
	cfg.Book.JournalPath = filepath.Join(dir, "journal.jsonl")
	a, err = NewApp(cfg, "", WithSender(notifier.Log{}))
	require.NoError(t, err)
	a.book.Start()
	a.book.Stop()
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.AutoAnalyze.Enabled = true
	a := newTestApp(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, a.analyzer.Running, time.Second, 10*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return")
	}
	assert.False(t, a.analyzer.Running())
}

func TestApplyConfigHotReload(t *testing.T) {
	cfg := testConfig(t)
	a := newTestApp(t, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.runCtx = ctx
	defer a.analyzer.Stop()

	next := *cfg
	next.AutoAnalyze.Enabled = true
	next.AutoAnalyze.IntervalSeconds = 120
	next.AutoAnalyze.CooldownSeconds = 300
	a.applyConfig(cfg, &next)
	assert.True(t, a.analyzer.Running())
	assert.Equal(t, 2*time.Minute, a.analyzer.Interval())
	assert.Contains(t, a.analyzer.StatusText(), "cooldown 5m0s")

	off := next
	off.AutoAnalyze.Enabled = false
	a.applyConfig(&next, &off)
	assert.False(t, a.analyzer.Running())
	assert.Same(t, &off, a.cfg)
}

func TestStartupSummary(t *testing.T) {
	cfg := testConfig(t)
	cfg.Notify.Telegram.ChatID = "123456789"
	s := newStartupSummary(cfg, "1.2.0", "yahoo", 2, 75)
	out := s.String()
	assert.Contains(t, out, "US30-Bot v1.2.0")
	assert.Contains(t, out, "positions=2 score=75/high")
	assert.Contains(t, out, "operator=*****6789")
	assert.Contains(t, out, "journal=none")
	assert.Contains(t, out, "source=yahoo")
}
