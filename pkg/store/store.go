// Package store defines the message store consumed by the Maildir exporter and
// importer, and a database/sql implementation of it.
package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/olafkfreund/comunicado-sub006/pkg/models/message"
)

//go:generate mockgen -destination=../mock/mockstore.go -package=mock . MessageStore

var (
	ErrNotFound      = errors.New("message not found")
	ErrUnknownDriver = errors.New("unknown store driver")
)

// MessageStore is the typed message store.
// GetMessages returns every message of the folder when limit is not positive.
// StoreMessage is atomic per call.
type MessageStore interface {
	GetFolders(ctx context.Context, accountID string) ([]message.Folder, error)
	GetMessages(ctx context.Context, accountID, folderName string, limit, offset int) ([]*message.StoredMessage, error)
	GetMessageByMessageID(ctx context.Context, accountID, folderName, messageID string) (*message.StoredMessage, error)
	EnsureFolder(ctx context.Context, accountID, folderName string) error
	StoreMessage(ctx context.Context, msg *message.StoredMessage) error
	UpdateMessage(ctx context.Context, msg *message.StoredMessage) error
	Close() error
}
