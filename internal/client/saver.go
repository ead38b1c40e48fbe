package client

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DirSaver writes exports into a directory. It implements grid.FileSaver.
type DirSaver struct {
	dir string
}

// NewDirSaver creates the directory if needed and returns a saver for it.
func NewDirSaver(dir string) (*DirSaver, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	return &DirSaver{dir: dir}, nil
}

// Save writes data to name inside the directory. The file appears complete or
// not at all: data goes to a temp file that is renamed into place.
func (s *DirSaver) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid export file name %q", name)
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close export: %w", err)
	}

	dest := filepath.Join(s.dir, name)
	if err := os.Rename(tmpName, dest); err != nil {
		return "", fmt.Errorf("rename export: %w", err)
	}

	abs, err := filepath.Abs(dest)
	if err != nil {
		return dest, nil
	}
	return abs, nil
}
