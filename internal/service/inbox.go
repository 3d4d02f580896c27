package service

import (
	"context"
	"log"
	"os"
	"time"

	"flowboard/internal/inbox"
)

// InboxImporter imports every document dropped into a directory. A file
// that imports cleanly is renamed to "<name>.imported" so it is not picked
// up again; a rejected file is left where it is.
type InboxImporter struct {
	watcher *inbox.Watcher
	guard   jobGuard
}

// WatchInbox starts importing documents from dir into editor.
func WatchInbox(ctx context.Context, editor *Editor, dir string, debounce time.Duration) (*InboxImporter, error) {
	imp := &InboxImporter{}
	w, err := inbox.New(dir, debounce, func(path string, content []byte) {
		if !imp.guard.begin(path) {
			return
		}
		defer imp.guard.end(path)
		imp.importFile(ctx, editor, path, content)
	})
	if err != nil {
		return nil, err
	}
	imp.watcher = w
	return imp, nil
}

func (i *InboxImporter) importFile(ctx context.Context, editor *Editor, path string, content []byte) {
	doc, err := editor.Import(ctx, content)
	if err != nil {
		log.Printf("[WATCH] import %s rejected: %v", path, err)
		return
	}
	log.Printf("[WATCH] imported %s (%s, %d blocks)", path, doc.Meta.ProjectName, len(doc.Blocks))
	if err := os.Rename(path, path+".imported"); err != nil {
		log.Printf("[WATCH] mark %s imported: %v", path, err)
	}
}

// Dir returns the absolute directory being watched.
func (i *InboxImporter) Dir() string { return i.watcher.Dir() }

// Close stops watching and waits up to five seconds for a running import.
func (i *InboxImporter) Close() error {
	err := i.watcher.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	i.guard.wait(ctx)
	return err
}
