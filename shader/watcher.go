package shader

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/toxichemicals/GO/shaderview/input"
)

// Watcher turns filesystem notifications for a set of files into
// input.ReloadRequested events. It watches the parent directories rather
// than the files so editors that save by rename are still seen.
//
// Watcher is an input.Source; events are buffered until PollEvents.
type Watcher struct {
	watcher *fsnotify.Watcher
	log     *zap.Logger
	files   map[string]struct{}
	events  input.Queue

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

var _ input.Source = (*Watcher)(nil)

// NewWatcher starts watching paths.
func NewWatcher(log *zap.Logger, paths ...string) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		watcher: fw,
		log:     log,
		files:   make(map[string]struct{}),
		done:    make(chan struct{}),
	}
	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		log.Debug("watching shader directory", zap.String("dir", dir))
	}

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("file watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return
	}
	name, err := filepath.Abs(ev.Name)
	if err != nil {
		return
	}
	if _, ok := w.files[name]; !ok {
		return
	}
	w.log.Debug("shader source changed", zap.String("file", name), zap.Stringer("op", ev.Op))
	w.events.Push(input.ReloadRequested{Reason: name})
}

// PollEvents returns the reload requests gathered since the last call.
func (w *Watcher) PollEvents() []input.Event {
	return w.events.PollEvents()
}

// Close stops the watcher and waits for its goroutine.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}
