package announcer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoPostsSummary(t *testing.T) {
	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, webhookAnnouncePath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	a := New(WithWebhookURL(server.URL + "/"))
	require.NoError(t, a.Do(context.Background(), "export", "acct", 3, 1))
	assert.Equal(t, "export: account \"acct\" processed 3 messages, 1 failed\n", got["message"])
}

func TestDoReportsStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	err := New(WithWebhookURL(server.URL)).Do(context.Background(), "import", "acct", 0, 0)
	assert.ErrorContains(t, err, "502")
}

func TestDoWithoutWebhook(t *testing.T) {
	assert.NoError(t, New(WithWebhookURL("  ")).Do(context.Background(), "import", "acct", 1, 0))
}
