package apihttp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"us30bot/internal/book"
	"us30bot/internal/bot"
	"us30bot/internal/gateway/notifier"
	"us30bot/internal/logger"

	"github.com/gin-gonic/gin"
)

// Server exposes the Telegram webhook, the signal webhook and a read-only
// JSON API over the book.
type Server struct {
	addr   string
	router *gin.Engine
}

// ServerConfig lists the server's dependencies.
type ServerConfig struct {
	Addr          string
	Version       string
	Bot           *bot.Service
	Book          *book.Book
	Replies       notifier.TextNotifier
	WebhookSecret string
	Metrics       http.Handler
	// RequestsPerSecond limits each client IP on the webhook routes; 0
	// disables limiting.
	RequestsPerSecond float64
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Bot == nil || cfg.Book == nil {
		return nil, errors.New("api http server requires bot and book")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.Replies == nil {
		cfg.Replies = notifier.Log{}
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), requestLogger())

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, fmt.Sprintf("US30-Bot v%s running", cfg.Version))
	})
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	hooks := &webhookHandlers{bot: cfg.Bot, replies: cfg.Replies, secret: cfg.WebhookSecret}
	limited := router.Group("/")
	if cfg.RequestsPerSecond > 0 {
		limited.Use(newIPLimiter(cfg.RequestsPerSecond, int(cfg.RequestsPerSecond*2)+1).middleware())
	}
	limited.POST("/telegram", hooks.handleTelegram)
	limited.POST("/signal", hooks.handleSignal)

	api := &apiHandlers{book: cfg.Book}
	api.register(router.Group("/api"))
	router.GET("/charts/zones", api.handleZoneChart)

	return &Server{addr: cfg.Addr, router: router}, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Start serves until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	logger.Infof("http: listening on %s", s.addr)

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
