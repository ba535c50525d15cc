package config

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watcher reloads configuration on SIGHUP or when a settings file changes.
type Watcher struct {
	loader   *Loader
	onReload func(*Config)
	debounce time.Duration
}

// NewWatcher creates a watcher that calls onReload with each fresh config.
func NewWatcher(loader *Loader, onReload func(*Config)) *Watcher {
	return &Watcher{loader: loader, onReload: onReload, debounce: 200 * time.Millisecond}
}

// Run blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	// Watch directories: editors replace files by rename.
	watched := map[string]bool{}
	names := map[string]bool{}
	for _, f := range w.loader.Files {
		abs, err := filepath.Abs(f)
		if err != nil {
			continue
		}
		names[abs] = true
		dir := filepath.Dir(abs)
		if watched[dir] {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("Cannot watch settings directory")
			continue
		}
		watched[dir] = true
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hup:
			log.Info().Msg("SIGHUP received, reloading configuration")
			w.reload()
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !names[ev.Name] {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			pending = time.After(w.debounce)
		case <-pending:
			pending = nil
			log.Info().Msg("Settings file changed, reloading configuration")
			w.reload()
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("Settings watcher error")
		}
	}
}

func (w *Watcher) reload() {
	cfg := w.loader.Load()
	for _, err := range cfg.Invalid {
		log.Warn().Err(err).Msg("Configuration section disabled")
	}
	w.onReload(cfg)
}
