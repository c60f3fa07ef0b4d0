package config

import (
	"fmt"
	"strings"
	"sync"

	"us30bot/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ChangeFunc receives the previous and the freshly loaded configuration.
type ChangeFunc func(prev, next *Config)

// Watcher reloads the configuration when the main file changes.
type Watcher struct {
	path string
	v    *viper.Viper

	mu       sync.RWMutex
	current  *Config
	onChange ChangeFunc
}

// Watch starts watching path. A reload that fails to load or validate is
// logged and the previous configuration stays current.
func Watch(path string, current *Config, onChange ChangeFunc) (*Watcher, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config watch requires path")
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config failed: %w", err)
	}
	w := &Watcher{path: path, v: v, current: current, onChange: onChange}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if evt.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			return
		}
		w.reload()
	})
	v.WatchConfig()
	return w, nil
}

// Current returns the last successfully loaded configuration.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

func (w *Watcher) reload() bool {
	next, err := Load(w.path)
	if err != nil {
		logger.Errorf("config reload failed: %v", err)
		return false
	}
	w.mu.Lock()
	prev := w.current
	w.current = next
	w.mu.Unlock()
	logger.Infof("config reloaded from %s", w.path)
	if w.onChange != nil {
		w.onChange(prev, next)
	}
	return true
}
