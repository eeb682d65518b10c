package ioutils

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DirStore is a download destination backed by a directory.
//
// Names passed to DirStore are plain file names; DirStore refuses names that
// would escape its root.
//
// Example:
//
//	store := NewDirStore("/music/Road Trip")
//	exists, _ := store.Exists(ctx, "01 - Song.mp3")
//	err := store.Write(ctx, "01 - Song.mp3", data)
type DirStore struct {
	root string
}

// NewDirStore creates a DirStore rooted at root. The directory is created on
// the first write.
func NewDirStore(root string) *DirStore {
	return &DirStore{root: root}
}

// Root returns the directory files are written to.
func (s *DirStore) Root() string {
	return s.root
}

// Path returns the full path of name inside the store.
func (s *DirStore) Path(name string) (string, error) {
	if name == "" || filepath.Base(name) != name || name == "." || name == ".." {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return filepath.Join(s.root, name), nil
}

// Exists reports whether a file called name is present.
func (s *DirStore) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	path, err := s.Path(name)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(path)
	switch {
	case err == nil:
		return info.Mode().IsRegular(), nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// Write stores data under name, replacing any existing file.
func (s *DirStore) Write(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := EnsureDir(s.root); err != nil {
		return err
	}
	return WriteFile(ctx, path, data)
}

// WriteFile writes data to a file, creating it if necessary.
//
// The data is written to a temporary file in the same directory which is
// then renamed over path, so readers never observe a partial file. The
// final file has mode 0644.
//
// Example:
//
//	playlistContent := []byte("#EXTM3U\n...")
//	err := WriteFile(ctx, "/music/playlist.m3u", playlistContent)
func WriteFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.part")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// Directories are created with mode 0755 (rwxr-xr-x).
// If the directory already exists, no error is returned.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
