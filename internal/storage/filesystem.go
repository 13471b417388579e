package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

var _ Storage = (*FileSystem)(nil)

// FileSystem implements Storage using the local filesystem, adapted from
// a-h-depot's storage.FileSystem.
type FileSystem struct {
	basePath string
}

// NewFileSystem creates a new FileSystem storage backend rooted at basePath.
func NewFileSystem(basePath string) *FileSystem {
	return &FileSystem{basePath: basePath}
}

func (fs *FileSystem) Stat(ctx context.Context, filename string) (size int64, exists bool, err error) {
	info, err := os.Stat(filepath.Join(fs.basePath, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return info.Size(), true, nil
}

func (fs *FileSystem) Read(ctx context.Context, filename string) (io.ReadCloser, bool, error) {
	file, err := os.Open(filepath.Join(fs.basePath, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return file, true, nil
}

func (fs *FileSystem) Write(ctx context.Context, filename string, data io.Reader) error {
	fullPath := filepath.Join(fs.basePath, filename)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, data); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

func (fs *FileSystem) Delete(ctx context.Context, filename string) error {
	if err := os.Remove(filepath.Join(fs.basePath, filename)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
