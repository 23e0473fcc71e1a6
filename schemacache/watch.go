package schemacache

import (
	"errors"
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/reoring/annoskema/template"
)

// Watcher invalidates cache entries when their template files change.
type Watcher struct {
	cache   *Cache
	src     *template.FSSource
	watcher *fsnotify.Watcher
	stop    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// Watch starts watching the directory behind src. Any write, create, remove
// or rename of a template file invalidates its id.
func (c *Cache) Watch(src *template.FSSource) (*Watcher, error) {
	if src == nil || src.Dir == "" {
		return nil, errors.New("schemacache: watch requires a directory source")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("schemacache: create watcher: %w", err)
	}
	if err := fw.Add(src.Dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("schemacache: watch %s: %w", src.Dir, err)
	}
	w := &Watcher{cache: c, src: src, watcher: fw, stop: make(chan struct{})}
	w.wg.Add(1)
	go w.run()
	c.log.Info("watching templates", zap.String("dir", src.Dir))
	return w, nil
}

func (w *Watcher) run() {
	defer w.wg.Done()
	const relevant = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&relevant == 0 {
				continue
			}
			id, ok := w.src.IDForFile(ev.Name)
			if !ok {
				continue
			}
			w.cache.log.Info("template changed", zap.String("template", id), zap.Stringer("op", ev.Op))
			w.cache.Invalidate(id)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.cache.log.Warn("template watcher error", zap.Error(err))
		case <-w.stop:
			return
		}
	}
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.stop)
		w.wg.Wait()
		err = w.watcher.Close()
	})
	return err
}
