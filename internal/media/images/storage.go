// Package images provides recipe image processing and storage.
package images

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Storage manages image filesystem operations.
// Thread-safe for concurrent operations.
type Storage struct {
	basePath string
	mu       sync.RWMutex // Protects file operations
}

// NewStorage creates a new Storage instance for recipe images.
// basePath should be the data directory (e.g., ~/Simmer/data).
// Images will be stored in {basePath}/recipes/.
// This is a convenience wrapper around NewStorageWithSubdir.
func NewStorage(basePath string) (*Storage, error) {
	return NewStorageWithSubdir(basePath, "recipes")
}

// NewStorageWithSubdir creates a new Storage instance with a custom subdirectory.
// Images will be stored in {basePath}/{subdir}/.
func NewStorageWithSubdir(basePath, subdir string) (*Storage, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	if subdir == "" {
		return nil, fmt.Errorf("subdirectory cannot be empty")
	}

	storagePath := filepath.Join(basePath, subdir)

	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", subdir, err)
	}

	return &Storage{
		basePath: storagePath,
	}, nil
}

// Save stores image data under the given name.
// Filename format: {name}.jpg.
func (s *Storage) Save(name string, imgData []byte) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}

	if len(imgData) == 0 {
		return fmt.Errorf("image data cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(name)

	if err := os.WriteFile(path, imgData, 0644); err != nil {
		return fmt.Errorf("failed to write image file: %w", err)
	}

	return nil
}

// Get retrieves stored image data.
func (s *Storage) Get(name string) ([]byte, error) {
	if name == "" {
		return nil, fmt.Errorf("name cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.Path(name)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("image not found for %s: %w", name, err)
		}
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}

	return data, nil
}

// Exists checks if an image with the given name exists.
func (s *Storage) Exists(name string) bool {
	if name == "" {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.Path(name))
	return err == nil
}

// Delete removes a stored image.
func (s *Storage) Delete(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path(name)); err != nil {
		if os.IsNotExist(err) {
			// Already deleted, not an error.
			return nil
		}
		return fmt.Errorf("failed to delete image file: %w", err)
	}

	return nil
}

// Hash computes SHA256 hash of a stored image.
// Returns hex-encoded string for ETag/cache validation.
func (s *Storage) Hash(name string) (string, error) {
	data, err := s.Get(name)
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash), nil
}

// Path returns the full filesystem path for a stored image.
func (s *Storage) Path(name string) string {
	return filepath.Join(s.basePath, fmt.Sprintf("%s.jpg", name))
}
