package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store writes uploaded documents into a single directory. Stored names
// are namespaced with a timestamp and a UUID so two uploads of the same
// filename never collide.
type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Save streams r into the store and returns the absolute path of the
// written file. At most maxBytes are accepted; anything longer aborts
// the write, removes the partial file and returns an error.
func (s *Store) Save(filename string, r io.Reader, maxBytes int64) (string, error) {
	name := fmt.Sprintf("%d_%s_%s", time.Now().Unix(), uuid.NewString(), SanitizeFilename(filename))
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}

	written, err := io.Copy(f, io.LimitReader(r, maxBytes+1))
	closeErr := f.Close()
	switch {
	case err != nil:
		os.Remove(path)
		return "", fmt.Errorf("failed to write upload: %w", err)
	case closeErr != nil:
		os.Remove(path)
		return "", fmt.Errorf("failed to finish upload: %w", closeErr)
	case written > maxBytes:
		os.Remove(path)
		return "", fmt.Errorf("upload exceeds %d bytes", maxBytes)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return path, nil
	}
	return abs, nil
}

// Remove deletes a previously stored file. Paths outside the store
// directory are refused so a bad caller cannot turn the compensating
// delete into an arbitrary file removal.
func (s *Store) Remove(path string) error {
	absDir, err := filepath.Abs(s.dir)
	if err != nil {
		return fmt.Errorf("failed to resolve upload dir: %w", err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	if filepath.Dir(absPath) != absDir {
		return fmt.Errorf("path %s is outside the upload dir", path)
	}
	if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove upload: %w", err)
	}
	return nil
}

// SanitizeFilename strips path components and anything outside a safe
// character set, keeping the extension intact.
func SanitizeFilename(filename string) string {
	base := filepath.Base(filename)
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	cleaned := strings.Trim(b.String(), ".")
	if cleaned == "" {
		return "upload"
	}
	return cleaned
}
