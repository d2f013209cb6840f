// Package materialize turns a generated reply into output files: the verbatim text, a
// spreadsheet rebuilt from a markdown table, or a styled word-processor document.
package materialize

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// WriteText writes text to path verbatim, creating parent directories.
func WriteText(path, text string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// AvailablePath returns "base.ext" if no such file exists, otherwise the first of
// "base (1).ext", "base (2).ext", ... that does not exist. ext has no leading dot.
func AvailablePath(base, ext string) string {
	candidate := base + "." + ext
	for n := 1; exists(candidate); n++ {
		candidate = fmt.Sprintf("%s (%d).%s", base, n, ext)
	}
	return candidate
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}

func ensureDir(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	return nil
}
