package config

import (
	"context"
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/tripsentry/tripsentry-core/pkg/logger"
)

// Watcher reloads the configuration when the config file changes and
// notifies subscribers. Used to adjust channel caps and cooldowns without a
// restart; cache and database endpoints are only read at startup.
type Watcher struct {
	configPath string
	logger     logger.Logger
	mu         sync.RWMutex
	current    *Config
	subs       []func(*Config)
	stopCh     chan struct{}
}

func NewWatcher(configPath string, initial *Config, log logger.Logger) *Watcher {
	return &Watcher{
		configPath: configPath,
		logger:     log,
		current:    initial,
		stopCh:     make(chan struct{}),
	}
}

// Subscribe registers a callback invoked with each successfully reloaded
// configuration.
func (w *Watcher) Subscribe(fn func(*Config)) {
	w.mu.Lock()
	w.subs = append(w.subs, fn)
	w.mu.Unlock()
}

// Current returns the most recently loaded configuration.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Start blocks watching for file changes until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.configPath); err != nil {
		return fmt.Errorf("failed to watch config file: %w", err)
	}

	w.logger.Info("configuration watcher started", "path", w.configPath)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Write == fsnotify.Write {
				w.logger.Info("configuration file changed, reloading", "file", event.Name)
				if err := w.reload(); err != nil {
					w.logger.Error("failed to reload configuration", "error", err)
					continue
				}
				w.notify()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("configuration watcher error", "error", err)

		case <-w.stopCh:
			return nil

		case <-ctx.Done():
			w.logger.Info("configuration watcher stopping")
			return nil
		}
	}
}

// Stop terminates the watcher independently of the context.
func (w *Watcher) Stop() { close(w.stopCh) }

func (w *Watcher) reload() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.current = cfg
	w.mu.Unlock()
	return nil
}

func (w *Watcher) notify() {
	w.mu.RLock()
	cfg := w.current
	subs := make([]func(*Config), len(w.subs))
	copy(subs, w.subs)
	w.mu.RUnlock()

	for _, fn := range subs {
		fn(cfg)
	}
}
