// Package inbox watches a directory for flow documents dropped into it.
package inbox

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the burst of write events an editor or copy
// produces into one callback.
const DefaultDebounce = 500 * time.Millisecond

// DocumentHandler is called with the content of a settled .json file.
type DocumentHandler func(path string, content []byte)

// Watcher delivers .json files created or rewritten in one directory.
type Watcher struct {
	watcher  *fsnotify.Watcher
	dir      string
	debounce time.Duration
	onDoc    DocumentHandler

	mu     sync.Mutex
	timers map[string]*time.Timer
	done   chan struct{}
}

// New starts watching dir, creating it if needed. A zero debounce uses
// DefaultDebounce.
func New(dir string, debounce time.Duration, onDoc DocumentHandler) (*Watcher, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(absDir, 0755); err != nil {
		return nil, fmt.Errorf("create inbox: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(absDir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", absDir, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{
		watcher:  fw,
		dir:      absDir,
		debounce: debounce,
		onDoc:    onDoc,
		timers:   make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}
	go w.watchLoop()
	log.Printf("[WATCH] watching %s", absDir)
	return w, nil
}

// Dir returns the absolute directory being watched.
func (w *Watcher) Dir() string { return w.dir }

// Close stops the watcher and any pending callbacks.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	w.mu.Lock()
	for p, t := range w.timers {
		t.Stop()
		delete(w.timers, p)
	}
	w.mu.Unlock()
	return err
}

func (w *Watcher) watchLoop() {
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
			if !strings.EqualFold(filepath.Ext(event.Name), ".json") {
				continue
			}
			absPath, _ := filepath.Abs(event.Name)
			w.schedule(absPath)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[WATCH] watcher error: %v", err)
		}
	}
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, exists := w.timers[path]; exists {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		content, err := os.ReadFile(path)
		if err != nil {
			log.Printf("[WATCH] read %s: %v", path, err)
			return
		}
		if w.onDoc != nil {
			w.onDoc(path, content)
		}
	})
}
