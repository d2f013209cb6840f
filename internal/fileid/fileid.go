// Package fileid provides deterministic identifiers for source files: one derived from the
// path and one from the content.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	pathPrefix    = "file:"
	contentPrefix = "sha256:"
)

// PathID returns a stable ID for the given path. Same cleaned path always yields the same ID.
func PathID(path string) string {
	normalized := filepath.Clean(path)
	hash := sha256.Sum256([]byte(normalized))
	return pathPrefix + hex.EncodeToString(hash[:])
}

// Fingerprint returns a content hash of the file at path. Identical bytes give identical
// fingerprints regardless of name or location.
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return contentPrefix + hex.EncodeToString(h.Sum(nil)), nil
}
