// Package app wires configuration into the running bot: the book actor,
// the notification dispatcher, the auto analyzer and the HTTP server.
package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"us30bot/internal/book"
	"us30bot/internal/bot"
	"us30bot/internal/config"
	"us30bot/internal/gateway/notifier"
	"us30bot/internal/logger"
	"us30bot/internal/metrics"
	apihttp "us30bot/internal/transport/http/api"

	"golang.org/x/sync/errgroup"
)

// App owns every long-running component.
type App struct {
	cfg        *config.Config
	configPath string
	book       *book.Book
	dispatcher *notifier.Dispatcher
	analyzer   *bot.Analyzer
	service    *bot.Service
	server     *apihttp.Server
	metrics    *metrics.Metrics
	Summary    *StartupSummary

	mu     sync.Mutex
	runCtx context.Context
}

// NewApp builds the application without starting it. configPath enables
// hot reload when non-empty.
func NewApp(cfg *config.Config, configPath string, opts ...AppBuilderOption) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	a, err := buildAppWithWire(context.Background(), cfg, opts)
	if err != nil {
		return nil, err
	}
	a.configPath = strings.TrimSpace(configPath)
	return a, nil
}

// Run starts the services and blocks until ctx is cancelled or the HTTP
// server fails. Everything is stopped before it returns.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.Summary != nil {
		a.Summary.Print()
	}

	group, gctx := errgroup.WithContext(ctx)
	a.mu.Lock()
	a.runCtx = gctx
	a.mu.Unlock()

	a.book.Start()
	a.dispatcher.Start(gctx)
	if a.cfg.AutoAnalyze.Enabled {
		a.analyzer.Start(gctx)
		logger.Infof("auto analysis enabled, every %s", a.analyzer.Interval())
	}
	if a.configPath != "" {
		if _, err := config.Watch(a.configPath, a.cfg, a.applyConfig); err != nil {
			logger.Warnf("config watch disabled: %v", err)
		}
	}

	group.Go(func() error {
		if err := a.server.Start(gctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		a.analyzer.Stop()
		return nil
	})

	err := group.Wait()
	a.shutdown()
	return err
}

func (a *App) shutdown() {
	a.analyzer.Stop()
	a.book.Stop()
	a.dispatcher.Stop()
	logger.Infof("shutdown complete")
}

// Handler exposes the HTTP routes without listening.
func (a *App) Handler() http.Handler { return a.server.Handler() }

// Book returns the book actor.
func (a *App) Book() *book.Book { return a.book }

// applyConfig hot-applies the settings that do not need a restart.
func (a *App) applyConfig(prev, next *config.Config) {
	if prev == nil || next == nil {
		return
	}
	if !strings.EqualFold(prev.App.LogLevel, next.App.LogLevel) {
		logger.SetLevel(next.App.LogLevel)
		logger.Infof("log level set to %s", next.App.LogLevel)
	}
	if prev.AutoAnalyze.Interval() != next.AutoAnalyze.Interval() {
		a.analyzer.SetInterval(next.AutoAnalyze.Interval())
	}
	if prev.AutoAnalyze.Cooldown() != next.AutoAnalyze.Cooldown() {
		a.analyzer.SetCooldown(next.AutoAnalyze.Cooldown())
	}
	if prev.AutoAnalyze.Enabled != next.AutoAnalyze.Enabled {
		if next.AutoAnalyze.Enabled {
			a.mu.Lock()
			ctx := a.runCtx
			a.mu.Unlock()
			if ctx != nil {
				a.analyzer.Start(ctx)
			}
		} else {
			a.analyzer.Stop()
		}
	}
	if prev.Book != next.Book || prev.App.HTTPAddr != next.App.HTTPAddr || prev.Price.Provider != next.Price.Provider {
		logger.Warnf("book, price or http settings changed; restart to apply")
	}
	a.mu.Lock()
	a.cfg = next
	a.mu.Unlock()
}
