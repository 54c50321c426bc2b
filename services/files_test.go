package services

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadprep/storage"
	"leadprep/utils"
)

func newFileService(t *testing.T) (*FileService, *storage.LocalStore) {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return NewFileService(store, utils.NewNopLogger()), store
}

func TestUploadKey(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"leads", "leads.csv", false},
		{"leads.csv", "leads.csv", false},
		{"Leads.CSV", "Leads.CSV", false},
		{"  march  ", "march.csv", false},
		{"", "", true},
		{"   ", "", true},
		{"../escape", "", true},
		{"a/b", "", true},
	}

	for _, tt := range tests {
		got, err := UploadKey(tt.name)
		if tt.wantErr {
			assert.Error(t, err, tt.name)
			continue
		}
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got)
	}

	_, err := UploadKey("")
	assert.ErrorIs(t, err, ErrNameRequired)
}

func TestUploadReplacesExisting(t *testing.T) {
	svc, store := newFileService(t)
	ctx := context.Background()

	key, err := svc.Upload(ctx, "leads", strings.NewReader("a,b\n1,2\n"))
	require.NoError(t, err)
	assert.Equal(t, "leads.csv", key)

	_, err = svc.Upload(ctx, "leads", strings.NewReader("a,b\n3,4\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(store.Root(), "leads.csv"))
	require.NoError(t, err)
	assert.Equal(t, "a,b\n3,4\n", string(data))
}

func TestListProcessed(t *testing.T) {
	svc, store := newFileService(t)
	root := store.Root()

	write := func(name, body string, age time.Duration) {
		path := filepath.Join(root, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
		ts := time.Now().Add(-age)
		require.NoError(t, os.Chtimes(path, ts, ts))
	}
	write("raw.csv", "a\n1\n", 0)
	write("old_processed.csv", "Email\nx@a.com\ny@a.com\n", 2*time.Hour)
	write("new_processed.csv", "Email\n"+strings.Repeat("z@a.com\n", 12), time.Minute)
	write("mid_processed.csv", "Email\n", time.Hour)

	files, err := svc.ListProcessed(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "new_processed.csv", files[0].Name)
	assert.Equal(t, 12, files[0].Rows)
	assert.Equal(t, "mid_processed.csv", files[1].Name)
	assert.Equal(t, 0, files[1].Rows)
	assert.Equal(t, "old_processed.csv", files[2].Name)
	assert.Equal(t, 2, files[2].Rows)

	t.Run("search by name", func(t *testing.T) {
		files, err := svc.ListProcessed(context.Background(), "OLD")
		require.NoError(t, err)
		require.Len(t, files, 1)
		assert.Equal(t, "old_processed.csv", files[0].Name)
	})

	t.Run("search by row count", func(t *testing.T) {
		files, err := svc.ListProcessed(context.Background(), "12")
		require.NoError(t, err)
		require.Len(t, files, 1)
		assert.Equal(t, "new_processed.csv", files[0].Name)
	})

	t.Run("no match", func(t *testing.T) {
		files, err := svc.ListProcessed(context.Background(), "nothing")
		require.NoError(t, err)
		assert.Empty(t, files)
	})
}

func TestOpenAndDelete(t *testing.T) {
	svc, _ := newFileService(t)
	ctx := context.Background()

	_, err := svc.Upload(ctx, "leads_processed", strings.NewReader("Email\nx@a.com\n"))
	require.NoError(t, err)

	rc, err := svc.Open(ctx, "leads_processed.csv")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "Email\nx@a.com\n", string(data))

	require.NoError(t, svc.Delete(ctx, "leads_processed.csv"))
	assert.ErrorIs(t, svc.Delete(ctx, "leads_processed.csv"), storage.ErrNotFound)

	_, err = svc.Open(ctx, "leads_processed.csv")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
