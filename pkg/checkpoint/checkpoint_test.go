package checkpoint

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olafkfreund/comunicado-sub006/pkg/maildir"
)

func testCheckpoint() *maildir.Checkpoint {
	return &maildir.Checkpoint{
		Root:             "/tmp/export",
		AccountID:        "acct",
		CompletedFolders: []string{"INBOX", "INBOX/Work"},
		MessagesImported: 42,
		UpdatedAt:        time.Date(2024, time.March, 14, 9, 26, 53, 0, time.UTC),
	}
}

func exerciseStore(t *testing.T, s maildir.CheckpointStore) {
	ctx := context.Background()
	key := maildir.CheckpointKey("/tmp/export", "acct")

	cp, err := s.Load(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, cp)

	require.NoError(t, s.Save(ctx, key, testCheckpoint()))
	cp, err = s.Load(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, []string{"INBOX", "INBOX/Work"}, cp.CompletedFolders)
	assert.Equal(t, 42, cp.MessagesImported)
	assert.True(t, cp.UpdatedAt.Equal(testCheckpoint().UpdatedAt))

	require.NoError(t, s.Clear(ctx, key))
	cp, err = s.Load(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, cp)

	assert.NoError(t, s.Clear(ctx, key))
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("COMUNICADO_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("COMUNICADO_TEST_REDIS_ADDR not set")
	}
	s := NewRedisStore(addr, "comunicado:test:"+t.Name()+":")
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Ping(context.Background()))
	exerciseStore(t, s)
}
