package infrastructure

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileManager owns the temp directory used for downloads, frames and GIFs
type FileManager struct {
	tempDir string
}

// NewFileManager creates a file manager rooted at tempDir
func NewFileManager(tempDir string) *FileManager {
	return &FileManager{tempDir: tempDir}
}

// TempDir returns the temp directory path
func (m *FileManager) TempDir() string {
	return m.tempDir
}

// EnsureTempDir creates the temp directory if needed
func (m *FileManager) EnsureTempDir() error {
	if err := os.MkdirAll(m.tempDir, 0755); err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	return nil
}

// TempPath returns a fresh, unique path of the form prefix_<uuid>.ext.
// The file itself is not created.
func (m *FileManager) TempPath(prefix, ext string) (string, error) {
	if err := m.EnsureTempDir(); err != nil {
		return "", err
	}
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = "tmp"
	}
	name := fmt.Sprintf("%s_%s.%s", prefix, uuid.New().String(), ext)
	return filepath.Join(m.tempDir, name), nil
}

// Remove deletes path, ignoring files that are already gone
func (m *FileManager) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

// Exists reports whether path is a non-empty regular file
func (m *FileManager) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// CleanupOlderThan deletes temp files last modified more than maxAge ago and
// returns how many were removed
func (m *FileManager) CleanupOlderThan(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(m.tempDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read temp directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(m.tempDir, entry.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

// MoveTo moves path into dir, keeping its base name, and returns the new path
func (m *FileManager) MoveTo(path, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	dest := filepath.Join(dir, filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		// cross-device moves need a copy
		if copyErr := copyFile(path, dest); copyErr != nil {
			return "", fmt.Errorf("failed to move %s: %w", path, copyErr)
		}
		_ = os.Remove(path)
	}
	return dest, nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}
