// Package localfs archives raw document text on the local filesystem,
// keyed by content hash.
package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type Archive struct {
	root string
}

func NewArchive(root string) (*Archive, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create archive root: %w", err)
	}
	return &Archive{root: root}, nil
}

// Save writes atomically: content lands in a temp file first and is
// renamed into place, so readers never observe a partial archive entry.
func (a *Archive) Save(ctx context.Context, key string, data io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := a.resolve(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(a.root, ".archive-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, data); err != nil {
		tmp.Close()
		return fmt.Errorf("write archive entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close archive entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("commit archive entry: %w", err)
	}
	return nil
}

func (a *Archive) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := a.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive entry: %w", err)
	}
	return f, nil
}

// resolve rejects keys that would escape the archive root.
func (a *Archive) resolve(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, "/\\") || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid archive key %q", key)
	}
	return filepath.Join(a.root, key+".txt"), nil
}
