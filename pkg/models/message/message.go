// Package message holds the records exchanged with the message store.
package message

import (
	"time"

	"github.com/emersion/go-imap"
)

// Canonical flag strings as stored on a message.
const (
	FlagSeen      = imap.SeenFlag
	FlagAnswered  = imap.AnsweredFlag
	FlagFlagged   = imap.FlaggedFlag
	FlagDeleted   = imap.DeletedFlag
	FlagDraft     = imap.DraftFlag
	FlagForwarded = "$Forwarded"
)

// Attachment describes a stored attachment. Contents are not carried through Maildir.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	ContentID   string `json:"content_id,omitempty"`
}

// StoredMessage is a flat message record owned by the store.
type StoredMessage struct {
	ID          string       `json:"id"`
	AccountID   string       `json:"account_id"`
	FolderName  string       `json:"folder_name"`
	IMAPUID     uint32       `json:"imap_uid,omitempty"`
	MessageID   string       `json:"message_id,omitempty"`
	ThreadID    string       `json:"thread_id,omitempty"`
	InReplyTo   string       `json:"in_reply_to,omitempty"`
	References  []string     `json:"references,omitempty"`
	Subject     string       `json:"subject"`
	FromAddr    string       `json:"from_addr"`
	FromName    string       `json:"from_name,omitempty"`
	ToAddrs     []string     `json:"to_addrs,omitempty"`
	CcAddrs     []string     `json:"cc_addrs,omitempty"`
	BccAddrs    []string     `json:"bcc_addrs,omitempty"`
	ReplyTo     string       `json:"reply_to,omitempty"`
	Date        time.Time    `json:"date"`
	BodyText    *string      `json:"body_text,omitempty"`
	BodyHTML    *string      `json:"body_html,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Flags       []string     `json:"flags,omitempty"`
	Size        int64        `json:"size"`
	Priority    string       `json:"priority,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	LastSynced  time.Time    `json:"last_synced"`
	SyncVersion int64        `json:"sync_version"`
	IsDraft     bool         `json:"is_draft"`
	IsDeleted   bool         `json:"is_deleted"`
}

// HasFlag reports whether the message carries flag.
func (m *StoredMessage) HasFlag(flag string) bool {
	for _, f := range m.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// Folder describes a logical folder of an account.
type Folder struct {
	AccountID    string `json:"account_id"`
	Name         string `json:"name"`
	FullName     string `json:"full_name"`
	Delimiter    string `json:"delimiter,omitempty"`
	MessageCount int    `json:"message_count"`
	UnreadCount  int    `json:"unread_count"`
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
