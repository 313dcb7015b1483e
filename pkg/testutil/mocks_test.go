package testutil

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olafkfreund/comunicado-sub006/pkg/store"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.Add(
		NewTestMessage("m1", "acct", "INBOX", "First"),
		NewTestMessage("m2", "acct", "INBOX", "Second"),
		NewTestMessage("m3", "acct", "Archive", "Third"),
	)

	folders, err := s.GetFolders(ctx, "acct")
	require.NoError(t, err)
	require.Len(t, folders, 2)
	assert.Equal(t, "Archive", folders[0].Name)
	assert.Equal(t, 2, folders[1].MessageCount)

	msgs, err := s.GetMessages(ctx, "acct", "INBOX", 1, 1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Second", msgs[0].Subject)

	found, err := s.GetMessageByMessageID(ctx, "acct", "INBOX", "<m1@example.com>")
	require.NoError(t, err)
	assert.Equal(t, "m1", found.ID)

	_, err = s.GetMessageByMessageID(ctx, "acct", "Archive", "<m1@example.com>")
	assert.ErrorIs(t, err, store.ErrNotFound)

	updated := NewTestMessage("m1", "acct", "INBOX", "Renamed")
	require.NoError(t, s.UpdateMessage(ctx, updated))
	assert.Equal(t, "Renamed", s.Messages("acct", "INBOX")[0].Subject)
}

func TestMemoryStoreErrors(t *testing.T) {
	s := NewMemoryStore()
	s.StoreErr = errors.New("disk full")

	err := s.StoreMessage(context.Background(), NewTestMessage("m1", "acct", "INBOX", "First"))
	assert.EqualError(t, err, "disk full")
	assert.Equal(t, 1, s.StoreCalls)
}

func TestMockFileManager(t *testing.T) {
	mock := NewMockFileManager()
	path := filepath.Join(t.TempDir(), "test.txt")

	err := mock.WriteFile(path, []byte("content"), 0o644)
	assert.NoError(t, err)
	assert.Equal(t, []byte("content"), mock.WrittenFiles[path])

	data, err := mock.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, []byte("content"), data)
	assert.Contains(t, mock.ReadFiles, path)

	mock.Reset()
	assert.Empty(t, mock.WrittenFiles)
}

func TestMaildirFixtures(t *testing.T) {
	folder := filepath.Join(t.TempDir(), "INBOX")
	CreateMaildir(t, folder)
	path := WriteMaildirFile(t, folder, "new", "1234567890.msg1.hostname", RawMessage("Hello", "<msg1@example.com>"))

	mock := NewMockFileManager()
	exists, err := mock.Exists(path)
	require.NoError(t, err)
	assert.True(t, exists)
}
