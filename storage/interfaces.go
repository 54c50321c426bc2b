package storage

import (
	"context"
	"errors"
	"io"

	"leadprep/models"
)

var (
	// ErrNotFound is returned when a key does not exist in the store.
	ErrNotFound = errors.New("storage: file not found")
	// ErrInvalidKey is returned for keys that are empty or address outside the store.
	ErrInvalidKey = errors.New("storage: invalid file key")
	// ErrMalformedTable is returned when a file is not a delimited table with a header row.
	ErrMalformedTable = errors.New("malformed table")
)

// Store is the file collaborator the reshaper, pusher and file shell work through.
// Keys are bare file names such as "leads.csv".
type Store interface {
	Read(ctx context.Context, key string) (*models.Table, error)
	Write(ctx context.Context, key string, t *models.Table) error
	List(ctx context.Context) ([]models.FileInfo, error)
	Delete(ctx context.Context, key string) error

	// Open and Put move raw bytes for uploads and downloads.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Put(ctx context.Context, key string, r io.Reader) error
}

// PushRecorder is the interface for persisting push runs.
type PushRecorder interface {
	Record(ctx context.Context, res *models.PushResult) error
	Close() error
}
