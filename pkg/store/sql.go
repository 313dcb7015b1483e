package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/olafkfreund/comunicado-sub006/pkg/models/message"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// SQLStore is a MessageStore on top of sqlx. It speaks to SQLite and PostgreSQL.
type SQLStore struct {
	db     *sqlx.DB
	driver string
}

// Open connects to dsn with driver ("sqlite", "sqlite3" or "postgres") and creates the schema.
func Open(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	switch driver {
	case "sqlite", DriverSQLite:
		driver = DriverSQLite
	case "postgresql", DriverPostgres:
		driver = DriverPostgres
	default:
		return nil, errors.Wrapf(ErrUnknownDriver, "%q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	s := &SQLStore{db: db, driver: driver}
	if err := s.createSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create %s schema: %w", driver, err)
	}
	return s, nil
}

func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLStore) createSchema(ctx context.Context) error {
	timestamp, boolean, blob := "DATETIME", "BOOLEAN", "BLOB"
	if s.driver == DriverPostgres {
		timestamp, blob = "TIMESTAMPTZ", "BYTEA"
	}
	statements := []string{
		`CREATE TABLE IF NOT EXISTS folders (
			account_id TEXT NOT NULL,
			name TEXT NOT NULL,
			full_name TEXT NOT NULL,
			delimiter TEXT NOT NULL,
			PRIMARY KEY (account_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			account_id TEXT NOT NULL,
			folder_name TEXT NOT NULL,
			imap_uid BIGINT NOT NULL DEFAULT 0,
			message_id TEXT NOT NULL DEFAULT '',
			thread_id TEXT NOT NULL DEFAULT '',
			in_reply_to TEXT NOT NULL DEFAULT '',
			refs TEXT NOT NULL DEFAULT '[]',
			subject TEXT NOT NULL DEFAULT '',
			from_addr TEXT NOT NULL DEFAULT '',
			from_name TEXT NOT NULL DEFAULT '',
			to_addrs TEXT NOT NULL DEFAULT '[]',
			cc_addrs TEXT NOT NULL DEFAULT '[]',
			bcc_addrs TEXT NOT NULL DEFAULT '[]',
			reply_to TEXT NOT NULL DEFAULT '',
			date ` + timestamp + ` NOT NULL,
			body_text TEXT,
			body_html TEXT,
			attachments ` + blob + `,
			flags TEXT NOT NULL DEFAULT '[]',
			size BIGINT NOT NULL DEFAULT 0,
			priority TEXT NOT NULL DEFAULT '',
			created_at ` + timestamp + ` NOT NULL,
			updated_at ` + timestamp + ` NOT NULL,
			last_synced ` + timestamp + ` NOT NULL,
			sync_version BIGINT NOT NULL DEFAULT 1,
			is_draft ` + boolean + ` NOT NULL DEFAULT FALSE,
			is_deleted ` + boolean + ` NOT NULL DEFAULT FALSE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_folder ON messages (account_id, folder_name, date)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_message_id ON messages (account_id, folder_name, message_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders into the driver's bind style.
func (s *SQLStore) rebind(query string) string {
	return sqlx.Rebind(sqlx.BindType(s.driver), query)
}

func (s *SQLStore) GetFolders(ctx context.Context, accountID string) ([]message.Folder, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT f.name, f.full_name, f.delimiter,
			(SELECT COUNT(*) FROM messages m WHERE m.account_id = f.account_id AND m.folder_name = f.name),
			(SELECT COUNT(*) FROM messages m WHERE m.account_id = f.account_id AND m.folder_name = f.name AND m.flags NOT LIKE '%Seen%')
		FROM folders f WHERE f.account_id = ? ORDER BY f.name`), accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	defer rows.Close()

	folders := []message.Folder{}
	for rows.Next() {
		f := message.Folder{AccountID: accountID}
		if err := rows.Scan(&f.Name, &f.FullName, &f.Delimiter, &f.MessageCount, &f.UnreadCount); err != nil {
			return nil, fmt.Errorf("failed to read folder: %w", err)
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

func (s *SQLStore) EnsureFolder(ctx context.Context, accountID, folderName string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO folders (account_id, name, full_name, delimiter) VALUES (?, ?, ?, ?)
		ON CONFLICT (account_id, name) DO NOTHING`),
		accountID, folderName, folderName, "/")
	if err != nil {
		return fmt.Errorf("failed to create folder %s: %w", folderName, err)
	}
	return nil
}

const messageColumns = `id, account_id, folder_name, imap_uid, message_id, thread_id, in_reply_to, refs,
	subject, from_addr, from_name, to_addrs, cc_addrs, bcc_addrs, reply_to, date, body_text, body_html,
	attachments, flags, size, priority, created_at, updated_at, last_synced, sync_version, is_draft, is_deleted`

func (s *SQLStore) GetMessages(ctx context.Context, accountID, folderName string, limit, offset int) ([]*message.StoredMessage, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE account_id = ? AND folder_name = ? ORDER BY date, id`
	args := []any{accountID, folderName}
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	msgs := []*message.StoredMessage{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

func (s *SQLStore) GetMessageByMessageID(ctx context.Context, accountID, folderName, messageID string) (*message.StoredMessage, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+messageColumns+`
		FROM messages WHERE account_id = ? AND folder_name = ? AND message_id = ? LIMIT 1`),
		accountID, folderName, messageID)
	msg, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return msg, err
}

// StoreMessage inserts msg and its folder in one transaction.
func (s *SQLStore) StoreMessage(ctx context.Context, msg *message.StoredMessage) error {
	args, err := messageArgs(msg)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, s.rebind(`
		INSERT INTO folders (account_id, name, full_name, delimiter) VALUES (?, ?, ?, ?)
		ON CONFLICT (account_id, name) DO NOTHING`),
		msg.AccountID, msg.FolderName, msg.FolderName, "/"); err != nil {
		return fmt.Errorf("failed to create folder %s: %w", msg.FolderName, err)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")
	if _, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO messages (`+messageColumns+`) VALUES (`+placeholders+`)`), args...); err != nil {
		return fmt.Errorf("failed to store message: %w", err)
	}
	return tx.Commit()
}

func (s *SQLStore) UpdateMessage(ctx context.Context, msg *message.StoredMessage) error {
	args, err := messageArgs(msg)
	if err != nil {
		return err
	}
	columns := strings.Split(messageColumns, ",")
	sets := make([]string, 0, len(columns)-1)
	for _, c := range columns[1:] {
		sets = append(sets, strings.TrimSpace(c)+" = ?")
	}
	args = append(args[1:], msg.ID)
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE messages SET `+strings.Join(sets, ", ")+` WHERE id = ?`), args...)
	if err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func messageArgs(msg *message.StoredMessage) ([]any, error) {
	encoded := make([]string, 0, 6)
	for _, v := range []any{msg.References, msg.ToAddrs, msg.CcAddrs, msg.BccAddrs, msg.Attachments, msg.Flags} {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode message %s: %w", msg.ID, err)
		}
		encoded = append(encoded, string(b))
	}
	return []any{
		msg.ID, msg.AccountID, msg.FolderName, int64(msg.IMAPUID), msg.MessageID, msg.ThreadID, msg.InReplyTo, encoded[0],
		msg.Subject, msg.FromAddr, msg.FromName, encoded[1], encoded[2], encoded[3], msg.ReplyTo, msg.Date.UTC(),
		nullString(msg.BodyText), nullString(msg.BodyHTML),
		[]byte(encoded[4]), encoded[5], msg.Size, msg.Priority, msg.CreatedAt.UTC(), msg.UpdatedAt.UTC(), msg.LastSynced.UTC(),
		msg.SyncVersion, msg.IsDraft, msg.IsDeleted,
	}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(row scanner) (*message.StoredMessage, error) {
	var (
		msg                          message.StoredMessage
		uid                          int64
		refs, to, cc, bcc, flags     string
		attachments                  []byte
		bodyText, bodyHTML           sql.NullString
		date, created, updated, sync time.Time
	)
	err := row.Scan(&msg.ID, &msg.AccountID, &msg.FolderName, &uid, &msg.MessageID, &msg.ThreadID, &msg.InReplyTo, &refs,
		&msg.Subject, &msg.FromAddr, &msg.FromName, &to, &cc, &bcc, &msg.ReplyTo, &date, &bodyText, &bodyHTML,
		&attachments, &flags, &msg.Size, &msg.Priority, &created, &updated, &sync, &msg.SyncVersion, &msg.IsDraft, &msg.IsDeleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read message: %w", err)
	}

	msg.IMAPUID = uint32(uid)
	msg.Date, msg.CreatedAt, msg.UpdatedAt, msg.LastSynced = date.UTC(), created.UTC(), updated.UTC(), sync.UTC()
	if bodyText.Valid {
		msg.BodyText = &bodyText.String
	}
	if bodyHTML.Valid {
		msg.BodyHTML = &bodyHTML.String
	}
	targets := []struct {
		raw  []byte
		dest any
	}{
		{[]byte(refs), &msg.References},
		{[]byte(to), &msg.ToAddrs},
		{[]byte(cc), &msg.CcAddrs},
		{[]byte(bcc), &msg.BccAddrs},
		{[]byte(flags), &msg.Flags},
		{attachments, &msg.Attachments},
	}
	for _, t := range targets {
		if len(t.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(t.raw, t.dest); err != nil {
			return nil, fmt.Errorf("failed to decode message %s: %w", msg.ID, err)
		}
	}
	return &msg, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
