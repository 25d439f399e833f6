package scpfwk

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// ConfigWatcher watches a configuration file and posts a configured event
// into the loop whenever the file is written. The framework config itself
// is fixed at boot; the watcher exists so a configuration-owning module can
// reload its own settings and notify interested parties.
//
// The watcher runs on its own goroutine and therefore enters the core
// through the ISR path.
type ConfigWatcher struct {
	core    *Core
	watcher *fsnotify.Watcher
	path    string
	event   Event
	logger  Logger
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewConfigWatcher creates a watcher for path that posts event on every
// write. The file's directory is watched, so the common
// rename-and-replace update pattern is caught too.
func NewConfigWatcher(core *Core, path string, event Event) (*ConfigWatcher, error) {
	if err := core.validateEvent(&event); err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watching %q: %w", path, err)
	}
	return &ConfigWatcher{
		core:    core,
		watcher: w,
		path:    filepath.Clean(path),
		event:   event,
		logger:  core.Logger(),
	}, nil
}

// Start begins delivering change events until Stop or context
// cancellation.
func (cw *ConfigWatcher) Start(ctx context.Context) {
	ctx, cw.cancel = context.WithCancel(ctx)
	cw.done = make(chan struct{})
	go cw.run(ctx)
}

func (cw *ConfigWatcher) run(ctx context.Context) {
	defer close(cw.done)
	for {
		select {
		case <-ctx.Done():
			return
		case fsEvent, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(fsEvent.Name) != cw.path {
				continue
			}
			if !fsEvent.Has(fsnotify.Write) && !fsEvent.Has(fsnotify.Create) {
				continue
			}
			cw.logger.Info("Config file changed", "path", cw.path)
			ev := cw.event
			if err := cw.core.PutEventFromISR(&ev); err != nil {
				cw.logger.Warn("Config change event dropped", "error", err)
			}
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.Error("Config watcher error", "path", cw.path, "error", err)
		}
	}
}

// Stop halts the watcher and releases its resources.
func (cw *ConfigWatcher) Stop() {
	if cw.cancel != nil {
		cw.cancel()
	}
	cw.watcher.Close()
	if cw.done != nil {
		<-cw.done
	}
}
