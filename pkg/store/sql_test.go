package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olafkfreund/comunicado-sub006/pkg/models/message"
)

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "mail.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testMessage(id, folder string, date time.Time) *message.StoredMessage {
	return &message.StoredMessage{
		ID:          id,
		AccountID:   "acct",
		FolderName:  folder,
		MessageID:   "<" + id + "@example.com>",
		References:  []string{"<root@example.com>"},
		Subject:     "Subject " + id,
		FromAddr:    "alice@example.com",
		FromName:    "Alice",
		ToAddrs:     []string{"bob@example.com", "carol@example.com"},
		CcAddrs:     []string{},
		Date:        date,
		BodyText:    message.StringPtr("hello"),
		Attachments: []message.Attachment{{Filename: "a.txt", ContentType: "text/plain", Size: 3}},
		Flags:       []string{message.FlagSeen},
		Size:        120,
		CreatedAt:   date,
		UpdatedAt:   date,
		LastSynced:  date,
		SyncVersion: 1,
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "")
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestSQLStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	date := time.Date(2024, time.March, 14, 9, 26, 53, 0, time.UTC)

	require.NoError(t, s.StoreMessage(ctx, testMessage("m2", "INBOX", date.Add(time.Hour))))
	require.NoError(t, s.StoreMessage(ctx, testMessage("m1", "INBOX", date)))
	require.NoError(t, s.EnsureFolder(ctx, "acct", "Archive"))
	require.NoError(t, s.EnsureFolder(ctx, "acct", "Archive"))

	folders, err := s.GetFolders(ctx, "acct")
	require.NoError(t, err)
	require.Len(t, folders, 2)
	assert.Equal(t, "Archive", folders[0].Name)
	assert.Equal(t, "INBOX", folders[1].Name)
	assert.Equal(t, 2, folders[1].MessageCount)
	assert.Equal(t, 0, folders[1].UnreadCount)

	msgs, err := s.GetMessages(ctx, "acct", "INBOX", 0, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	got := msgs[0]
	assert.Equal(t, "m1", got.ID)
	assert.True(t, date.Equal(got.Date))
	assert.Equal(t, []string{"bob@example.com", "carol@example.com"}, got.ToAddrs)
	assert.Equal(t, []string{message.FlagSeen}, got.Flags)
	require.NotNil(t, got.BodyText)
	assert.Equal(t, "hello", *got.BodyText)
	assert.Nil(t, got.BodyHTML)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, "a.txt", got.Attachments[0].Filename)

	page, err := s.GetMessages(ctx, "acct", "INBOX", 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "m2", page[0].ID)
}

func TestSQLStoreMessageIDLookup(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	msg := testMessage("m1", "INBOX", time.Now().UTC())
	require.NoError(t, s.StoreMessage(ctx, msg))

	found, err := s.GetMessageByMessageID(ctx, "acct", "INBOX", "<m1@example.com>")
	require.NoError(t, err)
	assert.Equal(t, "m1", found.ID)

	_, err = s.GetMessageByMessageID(ctx, "acct", "Archive", "<m1@example.com>")
	assert.ErrorIs(t, err, ErrNotFound)

	msg.Subject = "Updated"
	msg.SyncVersion = 2
	require.NoError(t, s.UpdateMessage(ctx, msg))
	found, err = s.GetMessageByMessageID(ctx, "acct", "INBOX", "<m1@example.com>")
	require.NoError(t, err)
	assert.Equal(t, "Updated", found.Subject)
	assert.Equal(t, int64(2), found.SyncVersion)

	assert.ErrorIs(t, s.UpdateMessage(ctx, testMessage("missing", "INBOX", time.Now())), ErrNotFound)
}

func TestRebind(t *testing.T) {
	pg := &SQLStore{driver: DriverPostgres}
	assert.Equal(t, "a = $1 AND b = $2", pg.rebind("a = ? AND b = ?"))
	assert.Equal(t, "VALUES ($1, $2, $3)", pg.rebind("VALUES (?, ?, ?)"))

	lite := &SQLStore{driver: DriverSQLite}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}
