package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"leadprep/models"
	"leadprep/storage"
	"leadprep/utils"
)

// ErrNameRequired is returned when an upload has no name.
var ErrNameRequired = errors.New("a file name is required")

// FileService is the file-management shell around the store: upload, list,
// search, download and delete.
type FileService struct {
	store  storage.Store
	logger *utils.Logger
}

func NewFileService(store storage.Store, logger *utils.Logger) *FileService {
	return &FileService{store: store, logger: logger}
}

// UploadKey maps a user-supplied name to its stored key.
func UploadKey(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNameRequired
	}
	key := name
	if !strings.HasSuffix(strings.ToLower(key), ".csv") {
		key += ".csv"
	}
	if err := storage.ValidateKey(key); err != nil {
		return "", err
	}
	return key, nil
}

// Upload stores r as "<name>.csv" and returns the key, replacing any file
// already stored under that name.
func (s *FileService) Upload(ctx context.Context, name string, r io.Reader) (string, error) {
	key, err := UploadKey(name)
	if err != nil {
		return "", err
	}
	if err := s.store.Put(ctx, key, r); err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	s.logger.Info("[files] saved upload as %s", key)
	return key, nil
}

// ListProcessed returns every cleaned file, newest first, with its row count.
// A non-empty search keeps files whose name contains it (any case) or whose
// row count contains it as digits.
func (s *FileService) ListProcessed(ctx context.Context, search string) ([]models.FileInfo, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}

	files := make([]models.FileInfo, 0, len(all))
	for _, f := range all {
		if !IsProcessedKey(f.Name) {
			continue
		}
		rows, err := s.countRows(ctx, f.Name)
		if err != nil {
			s.logger.Warn("[files] counting rows of %s: %v", f.Name, err)
		}
		f.Rows = rows
		if search != "" && !matchesSearch(f, search) {
			continue
		}
		files = append(files, f)
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Modified.After(files[j].Modified)
	})
	return files, nil
}

func matchesSearch(f models.FileInfo, term string) bool {
	return strings.Contains(strings.ToLower(f.Name), strings.ToLower(term)) ||
		strings.Contains(strconv.Itoa(f.Rows), term)
}

func (s *FileService) countRows(ctx context.Context, key string) (int, error) {
	rc, err := s.store.Open(ctx, key)
	if err != nil {
		return 0, err
	}
	defer rc.Close()
	return storage.CountRows(rc)
}

// Open returns the raw bytes of a stored file.
func (s *FileService) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.store.Open(ctx, key)
}

// Delete removes a stored file.
func (s *FileService) Delete(ctx context.Context, key string) error {
	if err := s.store.Delete(ctx, key); err != nil {
		return err
	}
	s.logger.Info("[files] deleted %s", key)
	return nil
}
