package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, k := range []string{"STORAGE_BACKEND", "UPLOAD_DIR", "PUSH_TIMEOUT_SECONDS", "PUSH_CONCURRENCY", "PUSH_LOG_ENABLED"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendLocal, cfg.StorageBackend)
	assert.Equal(t, "uploads", cfg.UploadDir)
	assert.Equal(t, 10*time.Second, cfg.PushTimeout())
	assert.Equal(t, 1, cfg.PushConcurrency)
	assert.Equal(t, time.Duration(0), cfg.PushInterval())
	assert.Equal(t, int64(50<<20), cfg.MaxUploadBytes())
	assert.False(t, cfg.PushLogEnabled)
}

func TestLoadFromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PUSH_TIMEOUT_SECONDS", "3")
	t.Setenv("PUSH_RATE_LIMIT_MS", "250")
	t.Setenv("UPLOAD_DIR", "/data/leads")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.PushTimeout())
	assert.Equal(t, 250*time.Millisecond, cfg.PushInterval())
	assert.Equal(t, "/data/leads", cfg.UploadDir)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{StorageBackend: BackendLocal, UploadDir: "uploads", PushTimeoutSeconds: 10, PostgresHost: "db"}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
		errText string
	}{
		{name: "valid local", mutate: func(*Config) {}},
		{name: "s3 without bucket", mutate: func(c *Config) { c.StorageBackend = BackendS3 }, wantErr: ErrMissingRequired},
		{name: "s3 with bucket", mutate: func(c *Config) { c.StorageBackend = BackendS3; c.S3Bucket = "leads" }},
		{name: "local without dir", mutate: func(c *Config) { c.UploadDir = "" }, wantErr: ErrMissingRequired},
		{name: "unknown backend", mutate: func(c *Config) { c.StorageBackend = "ftp" }, errText: "unknown STORAGE_BACKEND"},
		{name: "zero timeout", mutate: func(c *Config) { c.PushTimeoutSeconds = 0 }, errText: "PUSH_TIMEOUT_SECONDS"},
		{name: "push log without host", mutate: func(c *Config) { c.PushLogEnabled = true; c.PostgresHost = "" }, wantErr: ErrMissingRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errText != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errText)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	c := &Config{
		PostgresHost: "db", PostgresPort: "5432", PostgresUser: "u",
		PostgresPassword: "p", PostgresDB: "leads", PostgresSSLMode: "disable",
	}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=leads sslmode=disable", c.DSN())
}

func TestLoadRules(t *testing.T) {
	t.Run("empty path uses defaults", func(t *testing.T) {
		r, err := LoadRules("")
		require.NoError(t, err)
		assert.Equal(t, DefaultBlockedKeywords, r.BlockedKeywords)
	})

	t.Run("file overrides keywords", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte("blocked_keywords:\n  - \" .EDU \"\n  - ''\n  - acme\n"), 0o644))

		r, err := LoadRules(path)
		require.NoError(t, err)
		assert.Equal(t, []string{".edu", "acme"}, r.BlockedKeywords)
	})

	t.Run("file without keywords uses defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))

		r, err := LoadRules(path)
		require.NoError(t, err)
		assert.Len(t, r.BlockedKeywords, len(DefaultBlockedKeywords))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRules(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("bad yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte("blocked_keywords: [unterminated\n"), 0o644))
		_, err := LoadRules(path)
		assert.Error(t, err)
	})

	t.Run("defaults are copied", func(t *testing.T) {
		r := DefaultRules()
		r.BlockedKeywords[0] = "mutated"
		assert.Equal(t, ".gov", DefaultBlockedKeywords[0])
	})
}
