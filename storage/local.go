package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"leadprep/models"
)

// LocalStore keeps files in a single directory on disk.
type LocalStore struct {
	root string
}

// NewLocalStore returns a store rooted at dir, creating the directory if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("local: create dir %q: %w", dir, err)
	}
	return &LocalStore{root: dir}, nil
}

// Root returns the directory the store writes to.
func (s *LocalStore) Root() string {
	return s.root
}

// Path returns the on-disk path of key.
func (s *LocalStore) Path(key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(s.root, key), nil
}

func (s *LocalStore) Read(ctx context.Context, key string) (*models.Table, error) {
	rc, err := s.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	t, err := DecodeTable(rc)
	if err != nil {
		return nil, fmt.Errorf("local: read %q: %w", key, err)
	}
	return t, nil
}

// Write encodes the whole table before touching disk, then swaps the file in
// with a rename so readers never see a half-written file.
func (s *LocalStore) Write(ctx context.Context, key string, t *models.Table) error {
	var buf bytes.Buffer
	if err := EncodeTable(&buf, t); err != nil {
		return fmt.Errorf("local: encode %q: %w", key, err)
	}
	return s.Put(ctx, key, &buf)
}

func (s *LocalStore) List(ctx context.Context) ([]models.FileInfo, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("local: list %q: %w", s.root, err)
	}

	files := make([]models.FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		files = append(files, models.FileInfo{
			Name:     e.Name(),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}
	return files, nil
}

func (s *LocalStore) Delete(ctx context.Context, key string) error {
	path, err := s.Path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("local: delete %q: %w", key, ErrNotFound)
		}
		return fmt.Errorf("local: delete %q: %w", key, err)
	}
	return nil
}

func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := s.Path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("local: open %q: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("local: open %q: %w", key, err)
	}
	return f, nil
}

func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader) error {
	path, err := s.Path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return fmt.Errorf("local: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("local: write %q: %w", key, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("local: chmod %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("local: close %q: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("local: rename into %q: %w", key, err)
	}
	return nil
}

// ValidateKey rejects keys that are empty, hidden or not a bare file name.
func ValidateKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.HasPrefix(key, ".") ||
		strings.ContainsAny(key, `/\`) || filepath.Base(key) != key {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
