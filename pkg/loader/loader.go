// Package loader maintains the auto-load file a host reads at startup: one
// "@load" directive per loaded package.
package loader

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/glorpus-work/zpkg/internal/logger"
	"github.com/glorpus-work/zpkg/pkg/fsutil"
	"github.com/glorpus-work/zpkg/pkg/model"
)

const (
	directive = "@load "
	header    = "# Generated by zpkg. Do not edit; use 'zpkg load' and 'zpkg unload'."
)

// Writer rewrites the auto-load file.
type Writer struct {
	path string
}

// NewWriter creates a writer for the file at path.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Path returns the auto-load file location.
func (w *Writer) Path() string {
	return w.path
}

// Render returns the file content for the loaded packages among installed,
// ordered by qualified name.
func Render(installed []*model.InstalledPackage) []byte {
	var buf bytes.Buffer
	buf.WriteString(header)
	buf.WriteByte('\n')

	loaded := make([]*model.InstalledPackage, 0, len(installed))
	for _, ip := range installed {
		if ip.Status.IsLoaded {
			loaded = append(loaded, ip)
		}
	}
	sortByName(loaded)
	for _, ip := range loaded {
		fmt.Fprintf(&buf, "%s%s\n", directive, ip.LoadPath())
	}
	return buf.Bytes()
}

// Write atomically replaces the auto-load file.
func (w *Writer) Write(installed []*model.InstalledPackage) error {
	if w.path == "" {
		return nil
	}
	if err := fsutil.EnsureFileDir(w.path); err != nil {
		return fmt.Errorf("failed to create load file directory: %w", err)
	}
	if err := fsutil.WriteFileAtomic(w.path, Render(installed), fsutil.FileModeDefault); err != nil {
		return fmt.Errorf("failed to write load file: %w", err)
	}
	logger.Debug("Wrote load file", logger.Fields{"path": w.path})
	return nil
}

// Read returns the paths listed in the auto-load file. A missing file is empty.
func (w *Writer) Read() ([]string, error) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var paths []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, directive) {
			paths = append(paths, strings.TrimSpace(strings.TrimPrefix(line, directive)))
		}
	}
	return paths, scanner.Err()
}

func sortByName(list []*model.InstalledPackage) {
	slices.SortFunc(list, func(a, b *model.InstalledPackage) int {
		return strings.Compare(a.Name(), b.Name())
	})
}
