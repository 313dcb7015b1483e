package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olafkfreund/comunicado-sub006/pkg/maildir"
	"github.com/olafkfreund/comunicado-sub006/pkg/mock"
	"github.com/olafkfreund/comunicado-sub006/pkg/models/message"
	"github.com/olafkfreund/comunicado-sub006/pkg/testutil"
)

func newTestHandler(t *testing.T) (*Handler, *testutil.MemoryStore, string) {
	s := testutil.NewMemoryStore()
	s.Add(
		testutil.NewTestMessage("m1", "acct", "INBOX", "Hello"),
		testutil.NewTestMessage("m2", "acct", "INBOX/Work", "Report", message.FlagSeen),
	)
	base := t.TempDir()
	return New(s, maildir.DefaultExportConfig(), maildir.DefaultImportConfig(), base, mock.SetupLogger(t)), s, base
}

func doRequest(t *testing.T, h *Handler, method, path, body string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := h.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestHealth(t *testing.T) {
	h, _, _ := newTestHandler(t)
	status, body := doRequest(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestPreview(t *testing.T) {
	h, _, _ := newTestHandler(t)
	status, body := doRequest(t, h, http.MethodGet, "/accounts/acct/preview", "")
	require.Equal(t, http.StatusOK, status)

	var preview maildir.ExportPreview
	require.NoError(t, json.Unmarshal(body, &preview))
	assert.Equal(t, 2, preview.TotalFolders)
	assert.Equal(t, 2, preview.TotalMessages)
}

func TestExportThenImport(t *testing.T) {
	h, _, base := newTestHandler(t)
	out := filepath.Join(base, "export")

	status, body := doRequest(t, h, http.MethodPost, "/accounts/acct/export", `{"output_dir":"`+filepath.ToSlash(out)+`"}`)
	require.Equal(t, http.StatusOK, status, string(body))
	var exported maildir.ExportStats
	require.NoError(t, json.Unmarshal(body, &exported))
	assert.Equal(t, 2, exported.MessagesExported)

	status, body = doRequest(t, h, http.MethodPost, "/accounts/copy/import", `{"root":"export"}`)
	require.Equal(t, http.StatusOK, status, string(body))
	var imported maildir.ImportStats
	require.NoError(t, json.Unmarshal(body, &imported))
	assert.Equal(t, 2, imported.MaildirFoldersFound)
	assert.Equal(t, 2, imported.MessagesImported)
}

func TestExportRequiresOutputDir(t *testing.T) {
	h, _, _ := newTestHandler(t)
	status, body := doRequest(t, h, http.MethodPost, "/accounts/acct/export", `{}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "output_dir is required")
}

func TestImportMissingRoot(t *testing.T) {
	h, _, _ := newTestHandler(t)
	status, body := doRequest(t, h, http.MethodPost, "/accounts/acct/import", `{"root":"missing"}`)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, string(body), "I/O error")
}

func TestPathsOutsideBaseDir(t *testing.T) {
	h, s, _ := newTestHandler(t)
	outside := filepath.ToSlash(t.TempDir())

	tests := []struct {
		name string
		path string
		body string
	}{
		{"export absolute", "/accounts/acct/export", `{"output_dir":"` + outside + `"}`},
		{"export traversal", "/accounts/acct/export", `{"output_dir":"../escape"}`},
		{"import absolute", "/accounts/acct/import", `{"root":"` + outside + `"}`},
		{"import traversal", "/accounts/acct/import", `{"root":"a/../../escape"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doRequest(t, h, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Contains(t, string(body), "outside the base directory")
		})
	}

	entries, err := os.ReadDir(outside)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Len(t, s.Messages("acct", "INBOX"), 1)
}

func TestNotFound(t *testing.T) {
	h, _, _ := newTestHandler(t)
	status, _ := doRequest(t, h, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAccountPage(t *testing.T) {
	h, _, _ := newTestHandler(t)
	status, body := doRequest(t, h, http.MethodGet, "/accounts/acct", "")
	require.Equal(t, http.StatusOK, status, string(body))
	page := string(body)
	assert.Contains(t, page, "<h1>acct</h1>")
	assert.Contains(t, page, "<td>INBOX/Work</td>")
	assert.Contains(t, page, "Total: 2 folders, 2 messages")
}
