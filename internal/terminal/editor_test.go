package terminal_test

import (
	"os"
	"path/filepath"
	"testing"

	"flowboard/internal/terminal"
)

func TestParseBlock(t *testing.T) {
	tests := []struct {
		raw, title, body string
	}{
		{"Opening\n\nWhy this matters.\n", "Opening", "Why this matters."},
		{"  Opening  \r\n\r\nline one\r\nline two\r\n\r\n", "Opening", "line one\nline two"},
		{"Only a title", "Only a title", ""},
		{"", "", ""},
		{"\n\nbody without title\n", "", "body without title"},
	}
	for _, tt := range tests {
		title, body := terminal.ParseBlock([]byte(tt.raw))
		if title != tt.title || body != tt.body {
			t.Errorf("ParseBlock(%q) = %q, %q; want %q, %q", tt.raw, title, body, tt.title, tt.body)
		}
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	title, body := terminal.ParseBlock(terminal.FormatBlock("INTRO 1", "first\nsecond"))
	if title != "INTRO 1" || body != "first\nsecond" {
		t.Errorf("round trip = %q, %q", title, body)
	}
}

func TestSession(t *testing.T) {
	s, err := terminal.Open("code --wait", 4, "Title", "Body")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if s.BlockID != 4 {
		t.Errorf("BlockID = %d", s.BlockID)
	}
	cmd := s.Command()
	if n := len(cmd.Args); n != 3 || cmd.Args[1] != "--wait" || cmd.Args[2] != s.Path() {
		t.Errorf("args = %v", cmd.Args)
	}

	if err := os.WriteFile(s.Path(), []byte("New title\n\nNew body\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	title, body, err := s.Read()
	if err != nil || title != "New title" || body != "New body" {
		t.Errorf("Read = %q, %q, %v", title, body, err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Errorf("block file still exists: %v", err)
	}
}

func TestResolveEditor(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "myeditor")
	if got := terminal.ResolveEditor(abs); got != abs {
		t.Errorf("absolute path changed: %q", got)
	}
	if got := terminal.ResolveEditor("definitely-not-an-editor-xyz"); got != "definitely-not-an-editor-xyz" {
		t.Errorf("unknown editor = %q", got)
	}
}

func TestDefaultEditor_PrefersVisual(t *testing.T) {
	t.Setenv("VISUAL", "hx")
	t.Setenv("EDITOR", "nano")
	if got := terminal.DefaultEditor(); got != "hx" {
		t.Errorf("DefaultEditor = %q, want hx", got)
	}
	t.Setenv("VISUAL", "")
	if got := terminal.DefaultEditor(); got != "nano" {
		t.Errorf("DefaultEditor = %q, want nano", got)
	}
}
