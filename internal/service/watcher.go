package service

import (
	"path/filepath"
	"sync"
	"time"

	"pdf-reader-session/internal/domain"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
)

const documentSettleDelay = 500 * time.Millisecond

// documentWatcher reports rewrites of open document files. Directories are watched
// rather than files so editors that replace a file by rename are still seen.
type documentWatcher struct {
	watcher  *fsnotify.Watcher
	onChange func(sessionID string)
	settle   time.Duration
	logger   domain.Logger

	mu         sync.Mutex
	paths      map[string]string
	dirs       map[string]int
	debouncers map[string]func(f func())
	done       chan struct{}
}

func newDocumentWatcher(onChange func(sessionID string), logger domain.Logger) (*documentWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &documentWatcher{
		watcher:    watcher,
		onChange:   onChange,
		settle:     documentSettleDelay,
		logger:     logger,
		paths:      make(map[string]string),
		dirs:       make(map[string]int),
		debouncers: make(map[string]func(f func())),
		done:       make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Add watches path on behalf of sessionID.
func (w *documentWatcher) Add(path, sessionID string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(absPath)

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.paths[absPath]; ok {
		w.paths[absPath] = sessionID
		return nil
	}
	if w.dirs[dir] == 0 {
		if err := w.watcher.Add(dir); err != nil {
			return err
		}
	}
	w.dirs[dir]++
	w.paths[absPath] = sessionID
	w.debouncers[absPath] = debounce.New(w.settle)
	return nil
}

// Remove stops watching path.
func (w *documentWatcher) Remove(path string) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return
	}
	dir := filepath.Dir(absPath)

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.paths[absPath]; !ok {
		return
	}
	delete(w.paths, absPath)
	delete(w.debouncers, absPath)
	w.dirs[dir]--
	if w.dirs[dir] <= 0 {
		delete(w.dirs, dir)
		if err := w.watcher.Remove(dir); err != nil {
			w.logger.Debug("Failed to unwatch directory", "dir", dir, "error", err)
		}
	}
}

// Close stops the watch loop.
func (w *documentWatcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *documentWatcher) run() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.handle(event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Document watcher error", "error", err)
		}
	}
}

func (w *documentWatcher) handle(name string) {
	absPath, err := filepath.Abs(name)
	if err != nil {
		return
	}

	w.mu.Lock()
	sessionID, ok := w.paths[absPath]
	debounced := w.debouncers[absPath]
	w.mu.Unlock()
	if !ok {
		return
	}

	debounced(func() {
		w.mu.Lock()
		current, still := w.paths[absPath]
		w.mu.Unlock()
		if !still || current != sessionID {
			return
		}
		w.logger.Info("Document changed on disk", "path", absPath, "session_id", sessionID)
		w.onChange(sessionID)
	})
}
