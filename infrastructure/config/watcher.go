package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const debounceDelay = 500 * time.Millisecond

// Watcher hot reloads the relationship defaults from the YAML config file.
// Other settings need a restart.
type Watcher struct {
	path      string
	defaults  RelationshipDefaults
	callbacks []func(RelationshipDefaults)
	mu        sync.RWMutex
	logger    *zap.Logger
	watcher   *fsnotify.Watcher
	check     func(RelationshipDefaults) error
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// WatcherOption configures a Watcher
type WatcherOption func(*Watcher)

// WithDefaultsCheck rejects defaults the caller cannot serve, such as an
// unregistered strategy. It runs on the initial defaults and on every reload.
func WithDefaultsCheck(check func(RelationshipDefaults) error) WatcherOption {
	return func(w *Watcher) {
		w.check = check
	}
}

// NewWatcher starts watching cfg.ConfigFile in development. Elsewhere, or
// without a config file, it serves the initial defaults unchanged.
func NewWatcher(cfg *Config, logger *zap.Logger, opts ...WatcherOption) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Watcher{
		path:     cfg.ConfigFile,
		defaults: cfg.Relationship,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if err := w.checkDefaults(w.defaults); err != nil {
		return nil, err
	}
	if cfg.ConfigFile == "" || !cfg.IsDevelopment() {
		logger.Info("Configuration hot reloading disabled",
			zap.String("environment", cfg.Environment),
		)
		return w, nil
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	// editors replace files on save, so watch the directory
	if err := fsWatcher.Add(filepath.Dir(cfg.ConfigFile)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", cfg.ConfigFile, err)
	}
	w.watcher = fsWatcher
	go w.watchLoop()

	logger.Info("Configuration hot reloading enabled", zap.String("file", cfg.ConfigFile))
	return w, nil
}

// RelationshipDefaults returns the current defaults
func (w *Watcher) RelationshipDefaults() RelationshipDefaults {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.defaults
}

// OnChange registers a callback run after the defaults change
func (w *Watcher) OnChange(callback func(RelationshipDefaults)) {
	w.mu.Lock()
	w.callbacks = append(w.callbacks, callback)
	w.mu.Unlock()
}

// Stop stops the watcher
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}

func (w *Watcher) watchLoop() {
	defer w.watcher.Close()

	target := filepath.Clean(w.path)
	var debounceTimer *time.Timer

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.logger.Debug("Configuration file changed",
				zap.String("file", event.Name),
				zap.String("operation", event.Op.String()),
			)
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))

		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			w.logger.Info("Stopping configuration watcher")
			return
		}
	}
}

// reload re-reads the file; an invalid file keeps the previous defaults
func (w *Watcher) reload() {
	cfg, err := LoadFile(w.path)
	if err != nil {
		w.logger.Error("Invalid configuration after reload", zap.Error(err))
		return
	}
	if err := w.checkDefaults(cfg.Relationship); err != nil {
		w.logger.Error("Rejected relationship defaults after reload", zap.Error(err))
		return
	}

	w.mu.Lock()
	old := w.defaults
	if old == cfg.Relationship {
		w.mu.Unlock()
		return
	}
	w.defaults = cfg.Relationship
	callbacks := make([]func(RelationshipDefaults), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	w.logger.Info("Relationship defaults reloaded",
		zap.String("strategy", cfg.Relationship.Strategy),
		zap.Float64("threshold", cfg.Relationship.Threshold),
		zap.String("previousStrategy", old.Strategy),
		zap.Float64("previousThreshold", old.Threshold),
	)
	for _, callback := range callbacks {
		callback(cfg.Relationship)
	}
}

func (w *Watcher) checkDefaults(defaults RelationshipDefaults) error {
	if w.check == nil {
		return nil
	}
	if err := w.check(defaults); err != nil {
		return fmt.Errorf("invalid relationship defaults: %w", err)
	}
	return nil
}
