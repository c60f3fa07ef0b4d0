package app

import (
	"context"
	"fmt"

	"us30bot/internal/book"
	"us30bot/internal/bot"
	"us30bot/internal/config"
	"us30bot/internal/gateway/notifier"
	"us30bot/internal/gateway/price"
	"us30bot/internal/journal"
	"us30bot/internal/logger"
	"us30bot/internal/metrics"
	"us30bot/internal/signal"
	"us30bot/internal/store"
	"us30bot/internal/store/gormstore"
	"us30bot/internal/store/jsonfile"
	apihttp "us30bot/internal/transport/http/api"
)

// AppBuilder assembles the App from configuration. The constructor hooks
// can be replaced with options, mainly for tests.
type AppBuilder struct {
	cfg     *config.Config
	version string

	stateStoreFn func(config.BookConfig) (store.StateStore, error)
	journalFn    func(config.BookConfig) (journal.Journal, error)
	priceFn      func(config.PriceConfig) (price.Source, error)
	senderFn     func(config.NotifyConfig) notifier.TextNotifier
}

type AppBuilderOption func(*AppBuilder)

// WithVersion sets the version reported by / and /help.
func WithVersion(v string) AppBuilderOption {
	return func(b *AppBuilder) { b.version = v }
}

// WithStateStore replaces the configured state backend.
func WithStateStore(st store.StateStore) AppBuilderOption {
	return func(b *AppBuilder) {
		b.stateStoreFn = func(config.BookConfig) (store.StateStore, error) { return st, nil }
	}
}

// WithPriceSource replaces the configured price provider.
func WithPriceSource(src price.Source) AppBuilderOption {
	return func(b *AppBuilder) {
		b.priceFn = func(config.PriceConfig) (price.Source, error) { return src, nil }
	}
}

// WithSender replaces the outbound chat transport.
func WithSender(n notifier.TextNotifier) AppBuilderOption {
	return func(b *AppBuilder) {
		b.senderFn = func(config.NotifyConfig) notifier.TextNotifier { return n }
	}
}

func NewAppBuilder(cfg *config.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:          cfg,
		version:      "dev",
		stateStoreFn: buildStateStore,
		journalFn:    buildJournal,
		priceFn:      buildPriceSource,
		senderFn:     buildSender,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg
	logger.SetLevel(cfg.App.LogLevel)

	st, err := b.stateStoreFn(cfg.Book)
	if err != nil {
		return nil, fmt.Errorf("init state store failed: %w", err)
	}
	jr, err := b.journalFn(cfg.Book)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("init journal failed: %w", err)
	}
	prices, err := b.priceFn(cfg.Price)
	if err != nil {
		_ = st.Close()
		_ = jr.Close()
		return nil, fmt.Errorf("init price source failed: %w", err)
	}

	m := metrics.New()
	bk := book.New(book.Options{
		Symbol:    cfg.Book.Symbol,
		Window:    signal.DefaultWindow,
		QueueSize: cfg.Book.QueueSize,
		Observer:  m,
	}, st, jr)
	bk.Load(ctx)

	dispatcher := notifier.NewDispatcher(b.senderFn(cfg.Notify), cfg.Notify.QueueSize, cfg.Notify.SendTimeout(), m)
	operator := cfg.Notify.Telegram.ChatID
	analyzer := bot.NewAnalyzer(bk, prices, dispatcher, bot.AnalyzerOptions{
		Interval:       cfg.AutoAnalyze.Interval(),
		Cooldown:       cfg.AutoAnalyze.Cooldown(),
		OperatorChatID: operator,
		Align:          cfg.AutoAnalyze.Align,
	})
	svc := bot.NewService(bk, prices, dispatcher, analyzer, bot.Options{
		Version:        b.version,
		OperatorChatID: operator,
		Recorder:       m,
	})
	server, err := apihttp.NewServer(apihttp.ServerConfig{
		Addr:              cfg.App.HTTPAddr,
		Version:           b.version,
		Bot:               svc,
		Book:              bk,
		Replies:           dispatcher,
		WebhookSecret:     cfg.Notify.Telegram.WebhookSecret,
		Metrics:           m.Handler(),
		RequestsPerSecond: cfg.App.RequestsPerSecond,
	})
	if err != nil {
		bk.Stop()
		return nil, fmt.Errorf("init http server failed: %w", err)
	}

	score := bk.Score()
	status := bk.Snapshot().Status()
	m.SetScore(score.Total)
	m.SetPositions(len(status.Long.Positions), len(status.Short.Positions))

	return &App{
		cfg:        cfg,
		book:       bk,
		dispatcher: dispatcher,
		analyzer:   analyzer,
		service:    svc,
		server:     server,
		metrics:    m,
		Summary:    newStartupSummary(cfg, b.version, prices.Name(), len(status.Long.Positions)+len(status.Short.Positions), score.Total),
	}, nil
}

func buildStateStore(cfg config.BookConfig) (store.StateStore, error) {
	switch cfg.StateBackend {
	case "memory":
		return store.NewMemory(), nil
	case "sqlite":
		return gormstore.NewGormStore(cfg.StatePath)
	default:
		return jsonfile.New(cfg.StatePath)
	}
}

func buildJournal(cfg config.BookConfig) (journal.Journal, error) {
	switch cfg.JournalBackend {
	case "none":
		return journal.Nop{}, nil
	case "sqlite":
		return journal.NewSQLite(cfg.JournalPath)
	default:
		return journal.NewFile(cfg.JournalPath)
	}
}

func buildPriceSource(cfg config.PriceConfig) (price.Source, error) {
	return price.New(price.Config{
		Provider:         cfg.Provider,
		Timeout:          cfg.Timeout(),
		SymbolMap:        cfg.SymbolMap,
		YahooBaseURL:     cfg.YahooBaseURL,
		BinanceBaseURL:   cfg.BinanceBaseURL,
		BreakerThreshold: cfg.BreakerThreshold,
		BreakerCooldown:  cfg.BreakerCooldown(),
	})
}

func buildSender(cfg config.NotifyConfig) notifier.TextNotifier {
	if !cfg.Telegram.Enabled {
		logger.Infof("telegram disabled, outbound messages go to the log")
		return notifier.Log{}
	}
	return notifier.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MessagesPerSecond)
}
