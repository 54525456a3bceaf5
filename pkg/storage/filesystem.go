package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileSystemStore implements FileStore on the local filesystem. Stored files
// get a random hex name so uploads can never collide or traverse paths.
type FileSystemStore struct {
	rootDir string
}

// NewFileSystemStore creates a filesystem-backed file store rooted at rootDir
func NewFileSystemStore(rootDir string) (*FileSystemStore, error) {
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	return &FileSystemStore{rootDir: rootDir}, nil
}

// Save implements FileStore.Save
func (s *FileSystemStore) Save(content io.Reader, fileName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	name := strings.ReplaceAll(uuid.New().String(), "-", "") + ext
	path := filepath.Join(s.rootDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, content); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return path, nil
}

// Remove implements FileStore.Remove. Removing a path outside the media root
// is refused.
func (s *FileSystemStore) Remove(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	root, err := filepath.Abs(s.rootDir)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(abs, root+string(filepath.Separator)) {
		return fmt.Errorf("path %q is outside the media root", path)
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
