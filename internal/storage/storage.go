// Package storage is the blob side of persistence: user-uploaded files
// saved under a public path and addressed by URL.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store saves a blob under a relative path and returns its public URL.
type Store interface {
	Save(path string, data []byte) (string, error)
}

// Disk stores blobs on the local filesystem, served by the HTTP layer
// under baseURL.
type Disk struct {
	root    string
	baseURL string
}

// NewDisk creates a disk store rooted at dir.
func NewDisk(dir, baseURL string) *Disk {
	return &Disk{root: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

// Save writes the blob, creating parent directories as needed. The
// relative path must not escape the root.
func (d *Disk) Save(path string, data []byte) (string, error) {
	clean := filepath.Clean(path)
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("storage: invalid path %q", path)
	}

	full := filepath.Join(d.root, clean)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("storage: create dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write file: %w", err)
	}
	return d.baseURL + "/" + filepath.ToSlash(clean), nil
}
