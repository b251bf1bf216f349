// Package media stores batch images on local disk. Files are renamed to
// random UUIDs on save so uploaded names never reach the filesystem.
package media

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store writes and removes image files under a single base directory.
type Store struct {
	baseDir string
}

func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// allowed image extensions, lowercase
var allowedExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Save streams the upload to disk and returns the stored file name. The name
// is what goes into the batch record, not a full path.
func (s *Store) Save(r io.Reader, originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExts[ext] {
		return "", fmt.Errorf("unsupported image type %q", ext)
	}

	name := uuid.NewString() + ext
	f, err := os.Create(filepath.Join(s.baseDir, name))
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write image file: %w", err)
	}
	return name, nil
}

// Delete removes a stored file. A missing file is not an error; cleanup
// messages can arrive more than once.
func (s *Store) Delete(name string) error {
	if name == "" {
		return nil
	}
	// Stored names are flat UUIDs; reject anything that resolves outside the
	// base directory.
	if filepath.Base(name) != name {
		return fmt.Errorf("invalid image name %q", name)
	}
	err := os.Remove(filepath.Join(s.baseDir, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete image file: %w", err)
	}
	return nil
}

// List returns the names of all stored files, for the orphan sweep.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read media dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Open returns a reader over a stored file for serving.
func (s *Store) Open(name string) (*os.File, error) {
	if filepath.Base(name) != name {
		return nil, fmt.Errorf("invalid image name %q", name)
	}
	return os.Open(filepath.Join(s.baseDir, name))
}
