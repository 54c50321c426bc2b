package commands

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const leadsCSV = "Name,State,chain_info.chain,email_1,email_1_first_name,email_2\n" +
	"Acme Inc,TX,,j@acme.com,J,info@acme.gov\n" +
	"Bolt,CA,False,bo@bolt.com,Bo,cy@bolt.com\n" +
	"MegaMart,NY,True,a@megamart.com,Al,\n"

// setupEnv points the CLI at a fresh upload dir and returns it.
func setupEnv(t *testing.T) string {
	t.Helper()
	chdir(t, t.TempDir())
	dir := filepath.Join(t.TempDir(), "uploads")
	t.Setenv("UPLOAD_DIR", dir)
	t.Setenv("STORAGE_BACKEND", "local")
	t.Setenv("PUSH_LOG_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "error")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "leads.csv"), []byte(leadsCSV), 0644))
	return dir
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestProcessCommand(t *testing.T) {
	dir := setupEnv(t)

	out, _, err := run(t, "process", "leads.csv")
	require.NoError(t, err)
	assert.Contains(t, out, "leads.csv → leads_processed.csv")
	assert.Contains(t, out, "written     : 3")
	assert.Contains(t, out, "chain")

	_, err = os.Stat(filepath.Join(dir, "leads_processed.csv"))
	assert.NoError(t, err)
}

func TestProcessCommandMissingFile(t *testing.T) {
	setupEnv(t)
	_, _, err := run(t, "process", "nope.csv")
	assert.Error(t, err)
}

func TestListAndDeleteCommands(t *testing.T) {
	setupEnv(t)
	_, _, err := run(t, "process", "leads.csv")
	require.NoError(t, err)

	out, _, err := run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "leads_processed.csv")
	assert.NotContains(t, out, "leads.csv")

	out, _, err = run(t, "list", "--search", "nothing")
	require.NoError(t, err)
	assert.Contains(t, out, "No processed files found.")

	out, _, err = run(t, "delete", "leads_processed.csv")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted leads_processed.csv")

	_, _, err = run(t, "delete", "leads_processed.csv")
	assert.Error(t, err)
}

func TestSummaryCommand(t *testing.T) {
	setupEnv(t)
	_, _, err := run(t, "process", "leads.csv")
	require.NoError(t, err)

	out, _, err := run(t, "summary", "leads_processed.csv")
	require.NoError(t, err)
	assert.Contains(t, out, "Bolt")
	assert.Contains(t, out, "CA")
}

func TestPushCommand(t *testing.T) {
	setupEnv(t)
	_, _, err := run(t, "process", "leads.csv")
	require.NoError(t, err)

	var calls int32
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 3 {
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer hook.Close()

	out, errOut, err := run(t, "push", "leads_processed.csv", "--webhook", hook.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Pushed 2 of 3 rows")
	assert.Contains(t, out, "1 failed")
	assert.Contains(t, errOut, "row 4 (cy@bolt.com)")
}

func TestPushCommandRequiresWebhook(t *testing.T) {
	setupEnv(t)
	_, _, err := run(t, "push", "leads_processed.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--webhook")
}

func TestHistoryCommandDisabled(t *testing.T) {
	setupEnv(t)
	_, _, err := run(t, "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PUSH_LOG_ENABLED")
}

func TestInvalidBackend(t *testing.T) {
	setupEnv(t)
	t.Setenv("STORAGE_BACKEND", "ftp")
	_, _, err := run(t, "list")
	assert.Error(t, err)
}
