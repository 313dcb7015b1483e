// Package testutil provides in-memory stores, file manager mocks and fixtures
// shared by the Maildir exporter, importer and CLI tests.
package testutil

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/olafkfreund/comunicado-sub006/pkg/models/message"
	"github.com/olafkfreund/comunicado-sub006/pkg/store"
	"github.com/olafkfreund/comunicado-sub006/pkg/utils"
)

// MemoryStore is a store.MessageStore kept in memory.
// Error fields, when set, are returned by the matching method.
type MemoryStore struct {
	mu       sync.Mutex
	folders  map[string][]string
	messages map[string][]*message.StoredMessage

	GetFoldersErr  error
	GetMessagesErr error
	StoreErr       error
	StoreCalls     int
	UpdateCalls    int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		folders:  make(map[string][]string),
		messages: make(map[string][]*message.StoredMessage),
	}
}

func folderKey(accountID, folderName string) string {
	return accountID + "\x00" + folderName
}

// Add seeds msg, creating its folder when needed.
func (s *MemoryStore) Add(msgs ...*message.StoredMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, msg := range msgs {
		s.ensureFolder(msg.AccountID, msg.FolderName)
		key := folderKey(msg.AccountID, msg.FolderName)
		s.messages[key] = append(s.messages[key], msg)
	}
}

// Messages returns the messages stored in a folder.
func (s *MemoryStore) Messages(accountID, folderName string) []*message.StoredMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*message.StoredMessage(nil), s.messages[folderKey(accountID, folderName)]...)
}

func (s *MemoryStore) ensureFolder(accountID, folderName string) {
	for _, name := range s.folders[accountID] {
		if name == folderName {
			return
		}
	}
	s.folders[accountID] = append(s.folders[accountID], folderName)
}

func (s *MemoryStore) GetFolders(_ context.Context, accountID string) ([]message.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetFoldersErr != nil {
		return nil, s.GetFoldersErr
	}
	names := append([]string(nil), s.folders[accountID]...)
	sort.Strings(names)
	folders := make([]message.Folder, 0, len(names))
	for _, name := range names {
		folders = append(folders, message.Folder{
			AccountID:    accountID,
			Name:         name,
			FullName:     name,
			Delimiter:    "/",
			MessageCount: len(s.messages[folderKey(accountID, name)]),
		})
	}
	return folders, nil
}

func (s *MemoryStore) GetMessages(_ context.Context, accountID, folderName string, limit, offset int) ([]*message.StoredMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetMessagesErr != nil {
		return nil, s.GetMessagesErr
	}
	msgs := s.messages[folderKey(accountID, folderName)]
	if offset >= len(msgs) {
		return []*message.StoredMessage{}, nil
	}
	msgs = msgs[offset:]
	if limit > 0 && limit < len(msgs) {
		msgs = msgs[:limit]
	}
	return append([]*message.StoredMessage(nil), msgs...), nil
}

func (s *MemoryStore) GetMessageByMessageID(_ context.Context, accountID, folderName, messageID string) (*message.StoredMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, msg := range s.messages[folderKey(accountID, folderName)] {
		if msg.MessageID == messageID {
			return msg, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *MemoryStore) EnsureFolder(_ context.Context, accountID, folderName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureFolder(accountID, folderName)
	return nil
}

func (s *MemoryStore) StoreMessage(_ context.Context, msg *message.StoredMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.StoreCalls++
	if s.StoreErr != nil {
		return s.StoreErr
	}
	s.ensureFolder(msg.AccountID, msg.FolderName)
	key := folderKey(msg.AccountID, msg.FolderName)
	s.messages[key] = append(s.messages[key], msg)
	return nil
}

func (s *MemoryStore) UpdateMessage(_ context.Context, msg *message.StoredMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UpdateCalls++
	key := folderKey(msg.AccountID, msg.FolderName)
	for i, existing := range s.messages[key] {
		if existing.ID == msg.ID {
			s.messages[key][i] = msg
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *MemoryStore) Close() error {
	return nil
}

// MockFileManager provides a utils.FileManager backed by the real filesystem.
// Function fields override single operations and written files are tracked.
type MockFileManager struct {
	utils.OSFileManager

	WriteFileFunc func(filename string, data []byte, perm fs.FileMode) error
	ReadFileFunc  func(filename string) ([]byte, error)
	RenameFunc    func(oldpath, newpath string) error

	mu           sync.Mutex
	WrittenFiles map[string][]byte
	ReadFiles    []string
}

func NewMockFileManager() *MockFileManager {
	return &MockFileManager{
		WrittenFiles: make(map[string][]byte),
		ReadFiles:    make([]string, 0),
	}
}

func (m *MockFileManager) WriteFile(filename string, data []byte, perm fs.FileMode) error {
	m.mu.Lock()
	m.WrittenFiles[filename] = data
	m.mu.Unlock()
	if m.WriteFileFunc != nil {
		return m.WriteFileFunc(filename, data, perm)
	}
	return m.OSFileManager.WriteFile(filename, data, perm)
}

func (m *MockFileManager) ReadFile(filename string) ([]byte, error) {
	m.mu.Lock()
	m.ReadFiles = append(m.ReadFiles, filename)
	m.mu.Unlock()
	if m.ReadFileFunc != nil {
		return m.ReadFileFunc(filename)
	}
	return m.OSFileManager.ReadFile(filename)
}

func (m *MockFileManager) Rename(oldpath, newpath string) error {
	if m.RenameFunc != nil {
		return m.RenameFunc(oldpath, newpath)
	}
	return m.OSFileManager.Rename(oldpath, newpath)
}

// Reset clears all tracked operations.
func (m *MockFileManager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WrittenFiles = make(map[string][]byte)
	m.ReadFiles = make([]string, 0)
}

// NewTestMessage builds a well-formed message in folderName.
func NewTestMessage(id, accountID, folderName, subject string, flags ...string) *message.StoredMessage {
	date := time.Date(2024, time.March, 14, 9, 26, 53, 0, time.UTC)
	if flags == nil {
		flags = []string{}
	}
	return &message.StoredMessage{
		ID:          id,
		AccountID:   accountID,
		FolderName:  folderName,
		MessageID:   "<" + id + "@example.com>",
		Subject:     subject,
		FromAddr:    "alice@example.com",
		FromName:    "Alice Example",
		ToAddrs:     []string{"bob@example.com"},
		CcAddrs:     []string{},
		Date:        date,
		BodyText:    message.StringPtr("Hello from " + subject),
		Flags:       flags,
		CreatedAt:   date,
		UpdatedAt:   date,
		LastSynced:  date,
		SyncVersion: 1,
	}
}

// CreateMaildir creates a Maildir folder at path.
func CreateMaildir(t *testing.T, path string) {
	t.Helper()
	for _, sub := range []string{"new", "cur", "tmp"} {
		require.NoError(t, os.MkdirAll(filepath.Join(path, sub), 0o755))
	}
}

// WriteMaildirFile writes content as a message file in the sub directory of a Maildir folder.
func WriteMaildirFile(t *testing.T, folder, sub, name, content string) string {
	t.Helper()
	path := filepath.Join(folder, sub, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// RawMessage is a small well-formed RFC 822 message.
func RawMessage(subject, messageID string) string {
	return "From: alice@example.com\r\n" +
		"To: bob@example.com\r\n" +
		"Subject: " + subject + "\r\n" +
		"Message-ID: " + messageID + "\r\n" +
		"Date: Thu, 14 Mar 2024 09:26:53 +0000\r\n" +
		"\r\n" +
		"Body of " + subject + "\r\n"
}
