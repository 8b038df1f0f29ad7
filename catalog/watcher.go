package catalog

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"

	"cadenza/logger"
)

// Watcher reloads the library when the media or playlist directories change.
// Events are debounced: a reload runs only after the directories have been
// quiet for the stability window, so bulk copies trigger one rescan.
type Watcher struct {
	lib      Watched
	fsw      *fsnotify.Watcher
	settle   time.Duration
	reloaded chan struct{} // signaled after each reload, for tests
}

// Watched is the subset of Library the watcher needs.
type Watched interface {
	Reload() error
}

// NewWatcher watches the given directories on behalf of lib.
func NewWatcher(lib Watched, dirs ...string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return &Watcher{
		lib:      lib,
		fsw:      fsw,
		settle:   500 * time.Millisecond,
		reloaded: make(chan struct{}, 1),
	}, nil
}

// Run processes events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer w.fsw.Close()

	var pending bool
	var lastEvent time.Time
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				pending = true
				lastEvent = time.Now()
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("catalog watcher error", logger.ErrorField(err))

		case <-ticker.C:
			if !pending || time.Since(lastEvent) < w.settle {
				continue
			}
			pending = false
			if err := w.lib.Reload(); err != nil {
				logger.Error("catalog reload failed", logger.ErrorField(err))
				continue
			}
			select {
			case w.reloaded <- struct{}{}:
			default:
			}
		}
	}
}

// Reloaded signals once per completed reload.
func (w *Watcher) Reloaded() <-chan struct{} {
	return w.reloaded
}
