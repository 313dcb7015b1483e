package maildir

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/olafkfreund/comunicado-sub006/pkg/models/message"
	"github.com/olafkfreund/comunicado-sub006/pkg/store"
)

const DefaultMaxDepth = 10

// ImportConfig controls how Maildir files are turned into store records.
type ImportConfig struct {
	MaxMessages        int  `yaml:"max_messages" json:"max_messages"`
	SkipDuplicates     bool `yaml:"skip_duplicates" json:"skip_duplicates"`
	ValidateFormat     bool `yaml:"validate_format" json:"validate_format"`
	UpdateExisting     bool `yaml:"update_existing" json:"update_existing"`
	PreserveTimestamps bool `yaml:"preserve_timestamps" json:"preserve_timestamps"`
	ShowProgress       bool `yaml:"show_progress" json:"show_progress"`
	MaxDepth           int  `yaml:"max_depth" json:"max_depth"`
	RetryAttempts      int  `yaml:"retry_attempts" json:"retry_attempts"`
}

func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		SkipDuplicates:     true,
		ValidateFormat:     true,
		PreserveTimestamps: true,
		ShowProgress:       true,
		MaxDepth:           DefaultMaxDepth,
		RetryAttempts:      DefaultRetryAttempts,
	}
}

// MaildirFolderInfo describes a Maildir folder found while scanning.
type MaildirFolderInfo struct {
	Path         string `json:"path"`
	IMAPName     string `json:"imap_name"`
	MessageCount int    `json:"message_count"`
	NewMessages  int    `json:"new_messages"`
	CurMessages  int    `json:"cur_messages"`
}

// ScanResult is the outcome of walking a Maildir tree.
type ScanResult struct {
	Folders            []MaildirFolderInfo
	DirectoriesScanned int
	Errors             []string
}

type importOutcome int

const (
	outcomeImported importOutcome = iota
	outcomeSkipped
)

var errMaxMessages = errors.New("message limit reached")

// Importer reads a Maildir tree into a store.
type Importer struct {
	store  store.MessageStore
	config ImportConfig
	opts   options
	tel    *telemetry
	now    func() time.Time
}

func NewImporter(s store.MessageStore, cfg ImportConfig, opts ...Option) *Importer {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	return &Importer{
		store:  s,
		config: cfg,
		opts:   buildOptions(opts),
		tel:    newTelemetry(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ImportFromDirectory scans root for Maildir folders and imports them into accountID.
// A failing folder is recorded in the stats and the remaining folders are still imported.
func (imp *Importer) ImportFromDirectory(ctx context.Context, root, accountID string, token *CancellationToken) (*ImportStats, error) {
	return imp.importFrom(ctx, root, accountID, token, nil)
}

// ResumeFromCheckpoint continues an interrupted import, skipping the folders
// recorded in its checkpoint. Without a checkpoint it is a full import.
func (imp *Importer) ResumeFromCheckpoint(ctx context.Context, root, accountID string, token *CancellationToken) (*ImportStats, error) {
	root, err := absRoot(root)
	if err != nil {
		return &ImportStats{Errors: []string{}}, err
	}
	if imp.opts.checkpoints == nil {
		imp.opts.logger.WarnContext(ctx, "No checkpoint store configured, starting a full import")
		return imp.importFrom(ctx, root, accountID, token, nil)
	}
	cp, err := imp.opts.checkpoints.Load(ctx, CheckpointKey(root, accountID))
	if err != nil {
		return &ImportStats{Errors: []string{}}, newError(KindIO, "load checkpoint", root, err)
	}
	if cp == nil {
		imp.opts.logger.InfoContext(ctx, "No checkpoint found, starting a full import")
	}
	return imp.importFrom(ctx, root, accountID, token, cp)
}

func (imp *Importer) importFrom(ctx context.Context, root, accountID string, token *CancellationToken, cp *Checkpoint) (*ImportStats, error) {
	stats := &ImportStats{Errors: []string{}}
	root, err := absRoot(root)
	if err != nil {
		return stats, err
	}
	log := imp.opts.logger.With(slog.String("account", accountID), slog.String("root", root))

	ctx, span := imp.tel.tracer.Start(ctx, "maildir.import_directory",
		trace.WithAttributes(attribute.String("account", accountID)))
	defer span.End()

	info, err := imp.opts.files.Stat(root)
	if err != nil {
		return stats, imp.fail(span, ioError("open maildir root", root, err))
	}
	if !info.IsDir() {
		return stats, imp.fail(span, newError(KindInvalidStructure, "open maildir root", root, errors.New("not a directory")))
	}

	scan, err := imp.ScanDirectory(ctx, root, token)
	if err != nil {
		return stats, imp.fail(span, err)
	}
	stats.DirectoriesScanned = scan.DirectoriesScanned
	stats.MaildirFoldersFound = len(scan.Folders)
	stats.Errors = append(stats.Errors, scan.Errors...)

	completed := map[string]struct{}{}
	if cp != nil {
		completed = cp.completed()
	} else {
		cp = &Checkpoint{}
	}
	cp.Root, cp.AccountID = root, accountID

	pending := make([]MaildirFolderInfo, 0, len(scan.Folders))
	for _, f := range scan.Folders {
		if _, ok := completed[f.IMAPName]; ok {
			log.InfoContext(ctx, "Skipping folder completed by a previous run", slog.String("folder", f.IMAPName))
			continue
		}
		pending = append(pending, f)
		stats.MessagesFound += f.MessageCount
	}
	log.InfoContext(ctx, "Starting import",
		slog.Int("folders", len(pending)),
		slog.Int("messages", stats.MessagesFound))

	for _, f := range pending {
		if err := checkCancelled(ctx, token, "import directory"); err != nil {
			return stats, imp.fail(span, err)
		}

		before := stats.MessagesImported + stats.MessagesFailed + stats.DuplicatesSkipped
		err := imp.importFolder(ctx, f, accountID, token, stats)
		if errors.Is(err, errMaxMessages) {
			log.InfoContext(ctx, "Message limit reached", slog.Int("max_messages", imp.config.MaxMessages))
			break
		}
		if err != nil {
			if IsCancelled(err) {
				return stats, imp.fail(span, err)
			}
			processed := stats.MessagesImported + stats.MessagesFailed + stats.DuplicatesSkipped - before
			stats.MessagesFailed += f.MessageCount - processed
			stats.addError("Failed to import folder '%s': %v", f.IMAPName, err)
			log.ErrorContext(ctx, "Failed to import folder", slog.String("folder", f.IMAPName), slog.String("error", err.Error()))
			continue
		}

		cp.CompletedFolders = append(cp.CompletedFolders, f.IMAPName)
		cp.MessagesImported += stats.MessagesImported + stats.DuplicatesSkipped - before
		imp.saveCheckpoint(ctx, root, accountID, cp)
	}

	if imp.opts.checkpoints != nil {
		if err := imp.opts.checkpoints.Clear(ctx, CheckpointKey(root, accountID)); err != nil {
			log.WarnContext(ctx, "Failed to clear checkpoint", slog.String("error", err.Error()))
		}
	}

	log.InfoContext(ctx, "Import completed",
		slog.Int("folders", stats.MaildirFoldersFound),
		slog.Int("messages_imported", stats.MessagesImported),
		slog.Int("messages_failed", stats.MessagesFailed),
		slog.Int("duplicates_skipped", stats.DuplicatesSkipped))
	return stats, nil
}

// ScanDirectory walks root up to the configured depth and returns every valid Maildir folder.
// A directory is a Maildir folder when it has new, cur and tmp subdirectories.
func (imp *Importer) ScanDirectory(ctx context.Context, root string, token *CancellationToken) (*ScanResult, error) {
	result := &ScanResult{Folders: []MaildirFolderInfo{}, Errors: []string{}}
	root, err := absRoot(root)
	if err != nil {
		return result, err
	}
	var walk func(dir string, depth int) error
	walk = func(dir string, depth int) error {
		if err := checkCancelled(ctx, token, "scan directory"); err != nil {
			return err
		}
		result.DirectoriesScanned++

		isMaildir := imp.isMaildir(dir)
		if isMaildir {
			info, err := imp.analyzeFolder(root, dir)
			if err != nil {
				result.Errors = append(result.Errors, err.Error())
				imp.opts.logger.WarnContext(ctx, "Skipping Maildir folder", slog.String("path", dir), slog.String("error", err.Error()))
			} else {
				result.Folders = append(result.Folders, info)
			}
		}
		if depth >= imp.config.MaxDepth {
			return nil
		}

		entries, err := imp.opts.files.ReadDir(dir)
		if err != nil {
			if depth == 0 {
				return ioError("scan directory", dir, err)
			}
			result.Errors = append(result.Errors, ioError("scan directory", dir, err).Error())
			return nil
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			name := entry.Name()
			if isMaildir && (name == SubdirNew || name == SubdirCur || name == SubdirTmp) {
				continue
			}
			if err := walk(filepath.Join(dir, name), depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root, 0); err != nil {
		return result, err
	}
	return result, nil
}

// absRoot resolves root once so folder names do not depend on how it was spelled.
func absRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return root, ioError("resolve maildir root", root, err)
	}
	return abs, nil
}

func (imp *Importer) isMaildir(dir string) bool {
	for _, sub := range []string{SubdirNew, SubdirCur, SubdirTmp} {
		info, err := imp.opts.files.Stat(filepath.Join(dir, sub))
		if err != nil || !info.IsDir() {
			return false
		}
	}
	return true
}

func (imp *Importer) analyzeFolder(root, dir string) (MaildirFolderInfo, error) {
	name, err := imp.folderName(root, dir)
	if err != nil {
		return MaildirFolderInfo{}, err
	}
	newCount, err := imp.countMessages(filepath.Join(dir, SubdirNew))
	if err != nil {
		return MaildirFolderInfo{}, err
	}
	curCount, err := imp.countMessages(filepath.Join(dir, SubdirCur))
	if err != nil {
		return MaildirFolderInfo{}, err
	}
	return MaildirFolderInfo{
		Path:         dir,
		IMAPName:     name,
		MessageCount: newCount + curCount,
		NewMessages:  newCount,
		CurMessages:  curCount,
	}, nil
}

// folderName recovers the logical folder of dir. The root itself is INBOX, a
// direct child is a folder of a single account directory, and deeper folders
// follow the root/<account>/<folder> layout written by the exporter.
func (imp *Importer) folderName(root, dir string) (string, error) {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return "", newError(KindFolderMapping, "map folder", dir, err)
	}
	if rel == "." {
		return RootFolder, nil
	}
	base := root
	if !strings.Contains(filepath.ToSlash(rel), "/") {
		base = filepath.Dir(filepath.Clean(root))
	}
	h, err := imp.opts.mapper.ExtractHierarchyFromPath(base, dir)
	if err != nil {
		return "", newError(KindFolderMapping, "map folder", dir, err)
	}
	return h.IMAPPath, nil
}

func (imp *Importer) countMessages(dir string) (int, error) {
	entries, err := imp.opts.files.ReadDir(dir)
	if err != nil {
		return 0, ioError("count messages", dir, err)
	}
	n := 0
	for _, entry := range entries {
		if isMessageEntry(entry) {
			n++
		}
	}
	return n, nil
}

func isMessageEntry(entry fs.DirEntry) bool {
	return !entry.IsDir() && !strings.HasPrefix(entry.Name(), ".")
}

func (imp *Importer) importFolder(ctx context.Context, f MaildirFolderInfo, accountID string, token *CancellationToken, stats *ImportStats) error {
	ctx, span := imp.tel.tracer.Start(ctx, "maildir.import_folder",
		trace.WithAttributes(attribute.String("folder", f.IMAPName), attribute.Int("messages", f.MessageCount)))
	defer span.End()

	err := Retry(ctx, imp.config.RetryAttempts, imp.opts.retryDelay, func() error {
		if err := imp.store.EnsureFolder(ctx, accountID, f.IMAPName); err != nil {
			return databaseError("ensure folder", err)
		}
		return nil
	})
	if err != nil {
		return imp.fail(span, err)
	}

	for _, sub := range []string{SubdirNew, SubdirCur} {
		if err := imp.importMessagesFromDir(ctx, f, sub, accountID, token, stats); err != nil {
			return err
		}
	}
	return nil
}

func (imp *Importer) importMessagesFromDir(ctx context.Context, f MaildirFolderInfo, sub, accountID string, token *CancellationToken, stats *ImportStats) error {
	dir := filepath.Join(f.Path, sub)
	entries, err := imp.opts.files.ReadDir(dir)
	if err != nil {
		return ioError("read maildir", dir, err)
	}

	label := "Processing " + f.IMAPName
	for _, entry := range entries {
		if err := checkCancelled(ctx, token, "import folder"); err != nil {
			return err
		}
		if !isMessageEntry(entry) {
			continue
		}
		if imp.config.MaxMessages > 0 && stats.MessagesImported >= imp.config.MaxMessages {
			return errMaxMessages
		}

		path := filepath.Join(dir, entry.Name())
		outcome, err := imp.importFile(ctx, path, sub, accountID, f.IMAPName)
		switch {
		case err != nil:
			stats.MessagesFailed++
			stats.addError("File %s: %v", entry.Name(), err)
			imp.tel.message(ctx, directionImport, outcomeFailed)
			imp.opts.logger.WarnContext(ctx, "Failed to import message",
				slog.String("folder", f.IMAPName),
				slog.String("file", path),
				slog.String("error", err.Error()))
		case outcome == outcomeSkipped:
			stats.DuplicatesSkipped++
			imp.tel.message(ctx, directionImport, outcomeDuplicate)
		default:
			stats.MessagesImported++
			imp.tel.message(ctx, directionImport, outcomeSucceeded)
		}

		if imp.config.ShowProgress && imp.opts.progress != nil {
			imp.opts.progress.Report(ctx, Progress{
				Done:  stats.MessagesImported + stats.MessagesFailed + stats.DuplicatesSkipped,
				Total: stats.MessagesFound,
				Label: label,
			})
		}
	}
	return nil
}

// importFile parses one message file found in the sub ("new" or "cur") directory
// of a folder and writes it to the store.
func (imp *Importer) importFile(ctx context.Context, path, sub, accountID, folderName string) (importOutcome, error) {
	data, err := imp.opts.files.ReadFile(path)
	if err != nil {
		return 0, ioError("read message", path, err)
	}
	parsed, err := imp.opts.parser.Parse(data)
	if err != nil {
		if KindOf(err) == KindUnknown {
			err = newError(KindEmailParsing, "parse message", path, err)
		}
		return 0, err
	}
	msg := imp.newMessage(parsed, accountID, folderName, int64(len(data)))

	if sub == SubdirCur {
		fi, err := imp.opts.codec.ParseFilename(filepath.Base(path))
		if err != nil {
			imp.opts.logger.DebugContext(ctx, "Filename carries no flags", slog.String("file", path), slog.String("error", err.Error()))
		} else {
			msg.Flags = fi.Flags
		}
		msg.IsDraft = msg.HasFlag(message.FlagDraft)
		msg.IsDeleted = msg.HasFlag(message.FlagDeleted)
	}
	if TargetSubdirectory(msg) != sub {
		imp.opts.logger.DebugContext(ctx, "Message placement differs from its flags",
			slog.String("file", path), slog.String("found_in", sub))
	}

	if imp.config.ValidateFormat {
		if err := validateMessage(msg); err != nil {
			return 0, newError(KindEmailParsing, "validate message", path, err)
		}
	}

	if imp.config.PreserveTimestamps {
		if info, err := imp.opts.files.Stat(path); err == nil {
			msg.Date = info.ModTime().UTC()
		}
	}

	if imp.config.SkipDuplicates && msg.MessageID != "" {
		existing, err := imp.store.GetMessageByMessageID(ctx, accountID, folderName, msg.MessageID)
		switch {
		case err == nil && existing != nil:
			if !imp.config.UpdateExisting {
				return outcomeSkipped, nil
			}
			msg.ID = existing.ID
			msg.CreatedAt = existing.CreatedAt
			msg.IMAPUID = existing.IMAPUID
			msg.SyncVersion = existing.SyncVersion + 1
			return outcomeImported, imp.write(ctx, "update message", msg, imp.store.UpdateMessage)
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return 0, databaseError("check duplicate", err)
		}
	}

	return outcomeImported, imp.write(ctx, "store message", msg, imp.store.StoreMessage)
}

func (imp *Importer) write(ctx context.Context, op string, msg *message.StoredMessage, fn func(context.Context, *message.StoredMessage) error) error {
	return Retry(ctx, imp.config.RetryAttempts, imp.opts.retryDelay, func() error {
		if err := fn(ctx, msg); err != nil {
			return databaseError(op, err)
		}
		return nil
	})
}

func (imp *Importer) newMessage(p *ParsedMessage, accountID, folderName string, size int64) *message.StoredMessage {
	now := imp.now()
	msg := &message.StoredMessage{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		FolderName:  folderName,
		MessageID:   p.MessageID,
		InReplyTo:   p.InReplyTo,
		References:  p.References,
		Subject:     p.Subject,
		FromAddr:    p.FromAddr,
		FromName:    p.FromName,
		ToAddrs:     p.ToAddrs,
		CcAddrs:     p.CcAddrs,
		ReplyTo:     p.ReplyTo,
		Date:        now,
		BodyText:    p.BodyText,
		BodyHTML:    p.BodyHTML,
		Attachments: p.Attachments,
		Flags:       []string{},
		Size:        size,
		Priority:    p.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
		LastSynced:  now,
		SyncVersion: 1,
	}
	if !p.Date.IsZero() {
		msg.Date = p.Date.UTC()
	}
	return msg
}

// validateMessage rejects messages without a sender, or with neither subject nor body.
func validateMessage(msg *message.StoredMessage) error {
	if strings.TrimSpace(msg.FromAddr) == "" {
		return errors.Wrap(ErrMalformedMessage, "missing sender")
	}
	hasBody := (msg.BodyText != nil && strings.TrimSpace(*msg.BodyText) != "") ||
		(msg.BodyHTML != nil && strings.TrimSpace(*msg.BodyHTML) != "")
	if strings.TrimSpace(msg.Subject) == "" && !hasBody {
		return errors.Wrap(ErrMalformedMessage, "empty subject and body")
	}
	return nil
}

func (imp *Importer) saveCheckpoint(ctx context.Context, root, accountID string, cp *Checkpoint) {
	if imp.opts.checkpoints == nil {
		return
	}
	cp.UpdatedAt = imp.now()
	if err := imp.opts.checkpoints.Save(ctx, CheckpointKey(root, accountID), cp); err != nil {
		imp.opts.logger.WarnContext(ctx, "Failed to save checkpoint", slog.String("error", err.Error()))
	}
}

func (imp *Importer) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
