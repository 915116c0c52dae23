package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const debounceDelay = 100 * time.Millisecond

// Watcher watches the config file and invokes a callback with the
// freshly loaded config after each change. Editors typically produce
// bursts of write/rename events, so changes are debounced. Reloads
// that fail to parse or validate are logged and otherwise ignored;
// the previous config stays active.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onReload func(*Config)
	log      zerolog.Logger

	mu       sync.Mutex
	debounce *time.Timer

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher starts watching the directory containing path. Watching
// the directory instead of the file survives atomic-rename saves.
func NewWatcher(path string, log zerolog.Logger, onReload func(*Config)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fsw.Add(filepath.Dir(path)); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		path:     path,
		watcher:  fsw,
		onReload: onReload,
		log:      log.With().Str("component", "config-watcher").Logger(),
		cancel:   cancel,
	}

	w.wg.Add(1)
	go w.run(ctx)

	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.cancel()

	w.mu.Lock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.mu.Unlock()

	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("watch error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	if filepath.Clean(event.Name) != filepath.Clean(w.path) {
		return
	}

	w.mu.Lock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(debounceDelay, w.reload)
	w.mu.Unlock()
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.log.Warn().Err(err).Msg("config reload failed, keeping previous config")
		return
	}

	w.log.Info().Str("path", w.path).Msg("config reloaded")
	w.onReload(cfg)
}
