package config

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the limits block when the config file changes on disk.
// Credentials are deliberately not hot-reloaded; clients hold them for the
// life of the process.
type Watcher struct {
	mu     sync.RWMutex
	limits Limits

	path string
	log  *zap.Logger

	ready     chan struct{}
	readyOnce sync.Once
}

// NewWatcher wraps the loaded config for live limit reads.
func NewWatcher(cfg *Config, path string, log *zap.Logger) *Watcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{limits: cfg.Limits, path: path, log: log, ready: make(chan struct{})}
}

// Ready is closed once Run has installed the filesystem watch; writes made
// before that point are not observed.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

func (w *Watcher) markReady() {
	w.readyOnce.Do(func() { close(w.ready) })
}

// Limits returns the current limits snapshot.
func (w *Watcher) Limits() Limits {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.limits
}

// Run watches the config file until ctx is done. Reload failures keep the
// previous limits and log a warning; a bad edit never takes the server down.
func (w *Watcher) Run(ctx context.Context) error {
	if w.path == "" {
		w.markReady()
		<-ctx.Done()
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	// Watch the directory: editors often replace the file, which drops a
	// watch held on the file itself.
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	w.markReady()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			w.reload()
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("config watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.log.Warn("config reload failed, keeping previous limits",
			zap.String("path", w.path), zap.Error(err))
		return
	}

	w.mu.Lock()
	w.limits = cfg.Limits
	w.mu.Unlock()
	w.log.Info("limits reloaded", zap.String("path", w.path))
}
