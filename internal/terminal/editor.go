// Package terminal hands a block's text to the user's own editor and reads
// it back when the editor exits.
package terminal

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultEditor picks $VISUAL, then $EDITOR, then nvim, then vi.
func DefaultEditor() string {
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v
		}
	}
	if p := ResolveEditor("nvim"); filepath.IsAbs(p) {
		return p
	}
	return "vi"
}

// ResolveEditor finds the absolute path for the editor binary. Processes
// started outside a login shell often have a minimal $PATH, so common
// install locations are probed as well.
func ResolveEditor(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	if p, err := exec.LookPath(name); err == nil {
		return p
	}
	candidates := []string{
		filepath.Join("/opt/homebrew/bin", name),
		filepath.Join("/usr/local/bin", name),
		filepath.Join("/run/current-system/sw/bin", name),
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".local/bin", name),
			filepath.Join(home, ".nix-profile/bin", name),
		)
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	// Let exec fail with a clear error.
	return name
}

// FormatBlock lays out a block for editing: the title on the first line,
// a blank line, then the body.
func FormatBlock(title, body string) []byte {
	return []byte(title + "\n\n" + body + "\n")
}

// ParseBlock reverses FormatBlock. Surrounding blank lines of the body are
// dropped; a file without a newline is all title.
func ParseBlock(raw []byte) (title, body string) {
	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	title, rest, _ := strings.Cut(text, "\n")
	return strings.TrimSpace(title), strings.Trim(rest, "\n \t")
}

// Session is one block opened in an external editor.
type Session struct {
	BlockID int
	path    string
	editor  string
}

// Open writes the block to a temporary file for editor to work on.
func Open(editor string, blockID int, title, body string) (*Session, error) {
	f, err := os.CreateTemp("", fmt.Sprintf("flowboard-block-%d-*.md", blockID))
	if err != nil {
		return nil, fmt.Errorf("create block file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(FormatBlock(title, body)); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("write block file: %w", err)
	}
	return &Session{BlockID: blockID, path: f.Name(), editor: editor}, nil
}

func (s *Session) Path() string { return s.path }

// Command starts the editor on the block file. The editor setting may carry
// arguments, e.g. "code --wait".
func (s *Session) Command() *exec.Cmd {
	fields := strings.Fields(s.editor)
	if len(fields) == 0 {
		fields = []string{"vi"}
	}
	args := append(fields[1:], s.path)
	return exec.Command(ResolveEditor(fields[0]), args...)
}

// Read returns the edited title and body.
func (s *Session) Read() (title, body string, err error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return "", "", fmt.Errorf("read block file: %w", err)
	}
	title, body = ParseBlock(raw)
	return title, body, nil
}

// Close removes the block file.
func (s *Session) Close() error {
	return os.Remove(s.path)
}
