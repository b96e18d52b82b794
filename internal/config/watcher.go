package config

import (
	"errors"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/ian-h-chamberlain/vscode-neovim/internal/log"
)

// ErrWatcherClosed indicates the watcher has been shut down.
var ErrWatcherClosed = errors.New("config watcher closed")

// ReloadHandler receives the freshly loaded configuration after the watched
// file changes.
type ReloadHandler func(cfg Config)

// Watcher reloads the configuration file when it changes on disk and hands
// the result to a handler, which typically forwards into the sync manager's
// ApplyConfig.
type Watcher struct {
	mu      sync.Mutex
	watcher *fsnotify.Watcher
	logger  *log.Logger
	path    string
	handler ReloadHandler
	closed  bool
	done    chan struct{}
}

// NewWatcher starts watching path. The handler is invoked from the watch
// goroutine on every successful reload.
func NewWatcher(path string, logger *log.Logger, handler ReloadHandler) (*Watcher, error) {
	if logger == nil {
		logger = log.Null
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory: editors replace config files by rename, which
	// drops a watch on the file itself.
	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w := &Watcher{
		watcher: fsw,
		logger:  logger.WithComponent("config"),
		path:    absPath,
		handler: handler,
		done:    make(chan struct{}),
	}
	go w.watchLoop()
	return w, nil
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watch error: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Error("reloading config: %v", err)
		return
	}
	w.logger.Info("config reloaded from %s", w.path)
	if w.handler != nil {
		w.handler(cfg)
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	w.closed = true
	close(w.done)
	return w.watcher.Close()
}
