package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"us30bot/internal/app"
	"us30bot/internal/config"
	"us30bot/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "1.0.0"

func main() {
	defaultPath := os.Getenv("US30BOT_CONFIG")
	if defaultPath == "" {
		defaultPath = "configs/config.yaml"
	}
	cfgPath := flag.String("config", defaultPath, "path to the YAML or TOML config file; empty uses defaults")
	envPath := flag.String("env", ".env", "dotenv file loaded before the config")
	flag.Parse()

	if err := config.LoadDotEnv(*envPath); err != nil {
		log.Fatalf("load %s failed: %v", *envPath, err)
	}
	path := strings.TrimSpace(*cfgPath)
	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			log.Printf("config %s not found, using defaults", path)
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	logger.SetFormat(cfg.App.LogFormat)
	logFile, err := setupLogOutput(cfg.App.LogPath)
	if err != nil {
		log.Fatalf("open log file failed: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	logger.SetLevel(cfg.App.LogLevel)
	if warnings, err := config.Lint(path); err != nil {
		logger.Warnf("config lint failed: %v", err)
	} else {
		for _, w := range warnings {
			logger.Warnf("config: %s", w)
		}
	}
	logger.Infof("config loaded (env=%s, path=%s)", cfg.App.Env, displayPath(path))

	application, err := app.NewApp(cfg, path, app.WithVersion(version))
	if err != nil {
		log.Fatalf("init app failed: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := application.Run(ctx); err != nil {
		log.Fatalf("run failed: %v", err)
	}
}

func displayPath(path string) string {
	if path == "" {
		return "(defaults)"
	}
	return path
}

func setupLogOutput(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		logger.SetOutput(os.Stdout)
		return nil, nil
	}
	dir := filepath.Dir(trimmed)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	mw := io.MultiWriter(os.Stdout, file)
	log.SetOutput(mw)
	logger.SetOutput(mw)
	return file, nil
}
