package inbox_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"flowboard/internal/inbox"
)

type delivery struct {
	path    string
	content string
}

func TestWatcher_DeliversSettledJSON(t *testing.T) {
	dir := t.TempDir()
	got := make(chan delivery, 4)
	w, err := inbox.New(dir, 50*time.Millisecond, func(path string, content []byte) {
		got <- delivery{path, string(content)}
	})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}
	target := filepath.Join(dir, "flow.json")
	if err := os.WriteFile(target, []byte(`{"blocks":`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(target, []byte(`{"blocks":[],"connections":[]}`), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case d := <-got:
		if filepath.Base(d.path) != "flow.json" {
			t.Errorf("expected flow.json, got %s", d.path)
		}
		if d.content != `{"blocks":[],"connections":[]}` {
			t.Errorf("expected the final content, got %q", d.content)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no document delivered")
	}

	select {
	case d := <-got:
		t.Errorf("expected a single debounced delivery, got another for %s", d.path)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "inbox")
	w, err := inbox.New(dir, 0, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Close()

	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("expected inbox directory: %v", err)
	}
	if w.Dir() != dir {
		t.Errorf("expected %s, got %s", dir, w.Dir())
	}
}
