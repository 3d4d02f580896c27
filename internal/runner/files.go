package runner

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

var ErrNoDocuments = errors.New("no flow documents found")

// DocumentFile is a .json file found by ListDocuments.
type DocumentFile struct {
	Name    string
	Path    string
	ModTime time.Time
}

// ListDocuments returns the .json files directly inside dir, newest first.
func ListDocuments(dir string) ([]DocumentFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var files []DocumentFile
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, DocumentFile{
			Name:    e.Name(),
			Path:    filepath.Join(dir, e.Name()),
			ModTime: info.ModTime(),
		})
	}
	sort.SliceStable(files, func(i, j int) bool { return files[i].ModTime.After(files[j].ModTime) })
	return files, nil
}

// Select prints a numbered menu of files to w and reads choices from r
// until one is valid.
func Select(r io.Reader, w io.Writer, files []DocumentFile) (DocumentFile, error) {
	if len(files) == 0 {
		return DocumentFile{}, ErrNoDocuments
	}
	fmt.Fprintln(w, strings.Repeat("=", 30))
	for i, f := range files {
		fmt.Fprintf(w, "[%d] %s\n", i+1, f.Name)
	}
	fmt.Fprintln(w, strings.Repeat("=", 30))

	sc := bufio.NewScanner(r)
	for {
		fmt.Fprintf(w, "Select a file (1-%d): ", len(files))
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return DocumentFile{}, err
			}
			return DocumentFile{}, io.EOF
		}
		n, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
		if err != nil {
			fmt.Fprintln(w, "Please enter a number.")
			continue
		}
		if n < 1 || n > len(files) {
			fmt.Fprintln(w, "No such file, try again.")
			continue
		}
		return files[n-1], nil
	}
}
