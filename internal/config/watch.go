package config

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/buildtrack/buildtrack/pkg/types"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// debounce coalesces the burst of events produced by an atomic save.
const debounce = 100 * time.Millisecond

// Watcher reloads the bootstrap file whenever it changes.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	onChange func(*types.Bootstrap)
	stopCh   chan struct{}
	doneCh   chan struct{}
	started  bool
	mu       sync.Mutex
}

// Watch creates a watcher for the bootstrap file at path. onChange receives
// every successfully reloaded configuration. The file does not need to exist
// yet; its directory is created if missing.
func Watch(path string, onChange func(*types.Bootstrap)) (*Watcher, error) {
	if path == "" {
		path = Path()
	}
	path = filepath.Clean(path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory: Save replaces the file by rename, which drops
	// a watch placed on the file itself.
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}

	return &Watcher{
		watcher:  w,
		path:     path,
		onChange: onChange,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()
	go w.run()
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Str("path", w.path).Msg("config watcher error")
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		log.Warn().Err(err).Str("path", w.path).Msg("ignoring invalid bootstrap config")
		return
	}
	log.Debug().Str("path", w.path).Str("dbPath", cfg.DBPath).Msg("bootstrap config reloaded")
	if w.onChange != nil {
		w.onChange(cfg)
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()

	select {
	case <-w.stopCh:
	default:
		close(w.stopCh)
	}

	if started {
		<-w.doneCh
	}

	return w.watcher.Close()
}
