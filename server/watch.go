package server

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// watcher calls onChange for a single file once its changes settle.
//
// The parent directory is watched rather than the file, so editors that
// replace the file by rename are still seen.
type watcher struct {
	path     string
	debounce time.Duration
	onChange func(path string)
	log      *slog.Logger
	fs       *fsnotify.Watcher
	stopOnce sync.Once
}

func newWatcher(path string, debounce time.Duration, onChange func(string), logger *slog.Logger) (*watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", path)
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create watcher")
	}
	if err := fs.Add(filepath.Dir(abs)); err != nil {
		fs.Close()
		return nil, errors.Wrapf(err, "watch %s", filepath.Dir(abs))
	}
	return &watcher{
		path:     abs,
		debounce: debounce,
		onChange: onChange,
		log:      logger,
		fs:       fs,
	}, nil
}

// Run delivers debounced changes until ctx is done or Stop is called
func (w *watcher) Run(ctx context.Context) {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.log.Debug("payload changed", "path", w.path, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.onChange(w.path)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("payload watcher error", "error", err)
		}
	}
}

// Stop releases the underlying watcher
func (w *watcher) Stop() {
	w.stopOnce.Do(func() {
		w.fs.Close()
	})
}
