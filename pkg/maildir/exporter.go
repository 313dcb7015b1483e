package maildir

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/olafkfreund/comunicado-sub006/pkg/models/message"
	"github.com/olafkfreund/comunicado-sub006/pkg/store"
)

const defaultEstimatedMessageSize = 1024

// ExportConfig controls which messages are exported and how files are written.
type ExportConfig struct {
	IncludeDrafts        bool `yaml:"include_drafts" json:"include_drafts"`
	IncludeDeleted       bool `yaml:"include_deleted" json:"include_deleted"`
	PreserveTimestamps   bool `yaml:"preserve_timestamps" json:"preserve_timestamps"`
	ShowProgress         bool `yaml:"show_progress" json:"show_progress"`
	MaxMessagesPerFolder int  `yaml:"max_messages_per_folder" json:"max_messages_per_folder"`
	OverwriteExisting    bool `yaml:"overwrite_existing" json:"overwrite_existing"`
	RetryAttempts        int  `yaml:"retry_attempts" json:"retry_attempts"`
}

func DefaultExportConfig() ExportConfig {
	return ExportConfig{
		IncludeDrafts:      true,
		PreserveTimestamps: true,
		ShowProgress:       true,
		RetryAttempts:      DefaultRetryAttempts,
	}
}

// Exporter writes the messages of a store into a Maildir tree.
// The store is only read.
type Exporter struct {
	store  store.MessageStore
	config ExportConfig
	opts   options
	tel    *telemetry
}

func NewExporter(s store.MessageStore, cfg ExportConfig, opts ...Option) *Exporter {
	return &Exporter{
		store:  s,
		config: cfg,
		opts:   buildOptions(opts),
		tel:    newTelemetry(),
	}
}

// ExportAccount exports every folder of accountID below outputDir/<account>.
// Message and folder failures are recorded in the stats; only setup failures
// and cancellation are returned as errors. Stats are returned in every case.
func (e *Exporter) ExportAccount(ctx context.Context, accountID, outputDir string, token *CancellationToken) (*ExportStats, error) {
	stats := &ExportStats{Errors: []string{}}
	log := e.opts.logger.With(slog.String("account", accountID), slog.String("output_dir", outputDir))

	ctx, span := e.tel.tracer.Start(ctx, "maildir.export_account",
		trace.WithAttributes(attribute.String("account", accountID)))
	defer span.End()

	if err := e.opts.files.MkdirAll(outputDir, 0o755); err != nil {
		return stats, e.fail(span, ioError("create output directory", outputDir, err))
	}

	folders, err := e.getFolders(ctx, accountID)
	if err != nil {
		return stats, e.fail(span, err)
	}

	batches := make([][]*message.StoredMessage, len(folders))
	for i, folder := range folders {
		if err := checkCancelled(ctx, token, "export account"); err != nil {
			return stats, e.fail(span, err)
		}
		msgs, err := e.fetchMessages(ctx, accountID, folder.Name)
		if err != nil {
			stats.addError("Failed to read folder '%s': %v", folder.Name, err)
			log.ErrorContext(ctx, "Failed to read folder", slog.String("folder", folder.Name), slog.String("error", err.Error()))
			continue
		}
		batches[i] = msgs
		stats.MessagesFound += len(msgs)
	}
	log.InfoContext(ctx, "Starting export",
		slog.Int("folders", len(folders)),
		slog.Int("messages", stats.MessagesFound))

	for i, folder := range folders {
		if err := checkCancelled(ctx, token, "export account"); err != nil {
			return stats, e.fail(span, err)
		}
		if batches[i] == nil {
			continue
		}
		if err := e.exportFolder(ctx, accountID, folder.Name, outputDir, batches[i], token, stats); err != nil {
			if IsCancelled(err) {
				return stats, e.fail(span, err)
			}
			stats.addError("Failed to export folder '%s': %v", folder.Name, err)
			log.ErrorContext(ctx, "Failed to export folder", slog.String("folder", folder.Name), slog.String("error", err.Error()))
		}
	}

	log.InfoContext(ctx, "Export completed",
		slog.Int("folders_exported", stats.FoldersExported),
		slog.Int("messages_exported", stats.MessagesExported),
		slog.Int("messages_failed", stats.MessagesFailed),
		slog.String("bytes_written", stats.BytesWrittenHuman()))
	return stats, nil
}

// ExportFolder exports a single folder of accountID.
func (e *Exporter) ExportFolder(ctx context.Context, accountID, folderName, outputDir string, token *CancellationToken) (*ExportStats, error) {
	stats := &ExportStats{Errors: []string{}}
	if err := checkCancelled(ctx, token, "export folder"); err != nil {
		return stats, err
	}
	msgs, err := e.fetchMessages(ctx, accountID, folderName)
	if err != nil {
		return stats, err
	}
	stats.MessagesFound = len(msgs)
	return stats, e.exportFolder(ctx, accountID, folderName, outputDir, msgs, token, stats)
}

func (e *Exporter) exportFolder(
	ctx context.Context,
	accountID, folderName, outputDir string,
	msgs []*message.StoredMessage,
	token *CancellationToken,
	stats *ExportStats,
) error {
	ctx, span := e.tel.tracer.Start(ctx, "maildir.export_folder",
		trace.WithAttributes(attribute.String("folder", folderName), attribute.Int("messages", len(msgs))))
	defer span.End()

	folderPath, err := e.opts.mapper.CreateMaildirPath(outputDir, accountID, folderName)
	if err != nil {
		return e.fail(span, err)
	}
	if err := e.opts.files.InitMaildir(folderPath); err != nil {
		return e.fail(span, ioError("create maildir", folderPath, err))
	}

	label := "Exporting " + folderName
	for _, msg := range msgs {
		if err := checkCancelled(ctx, token, "export folder"); err != nil {
			return err
		}

		n, err := e.ExportMessage(ctx, folderPath, msg)
		if err != nil {
			stats.MessagesFailed++
			stats.addError("Message %s: %v", msg.ID, err)
			e.tel.message(ctx, directionExport, outcomeFailed)
			e.opts.logger.WarnContext(ctx, "Failed to export message",
				slog.String("folder", folderName),
				slog.String("message", msg.ID),
				slog.String("error", err.Error()))
		} else {
			stats.MessagesExported++
			stats.BytesWritten += n
			e.tel.message(ctx, directionExport, outcomeSucceeded)
			e.tel.written(ctx, n)
		}

		if e.config.ShowProgress && e.opts.progress != nil {
			e.opts.progress.Report(ctx, Progress{
				Done:  stats.MessagesExported + stats.MessagesFailed,
				Total: stats.MessagesFound,
				Label: label,
			})
		}
	}

	stats.FoldersExported++
	return nil
}

// ExportMessage writes msg into the Maildir at folderPath and returns the bytes written.
// The file is written to tmp/ first and renamed into new/ or cur/.
func (e *Exporter) ExportMessage(ctx context.Context, folderPath string, msg *message.StoredMessage) (int64, error) {
	sub := TargetSubdirectory(msg)
	name := e.opts.codec.GenerateFilename(msg, sub == SubdirCur)
	target := filepath.Join(folderPath, sub, name)

	exists, err := e.opts.files.Exists(target)
	if err != nil {
		return 0, ioError("export message", target, err)
	}
	if exists && !e.config.OverwriteExisting {
		return 0, newError(KindIO, "export message", target, fs.ErrExist)
	}

	data := Serialize(msg, e.opts.codec.Hostname())
	tmp := filepath.Join(folderPath, SubdirTmp, name)
	if err := e.opts.files.WriteFile(tmp, data, 0o600); err != nil {
		return 0, ioError("write message", tmp, err)
	}
	if err := e.opts.files.Rename(tmp, target); err != nil {
		_ = e.opts.files.Remove(tmp)
		return 0, ioError("deliver message", target, err)
	}

	if e.config.PreserveTimestamps && !msg.Date.IsZero() {
		if err := e.opts.files.Chtimes(target, msg.Date, msg.Date); err != nil {
			e.opts.logger.WarnContext(ctx, "Failed to preserve timestamp",
				slog.String("file", target),
				slog.String("error", err.Error()))
		}
	}
	return int64(len(data)), nil
}

// Preview reports per-folder message counts and an estimated size without writing anything.
func (e *Exporter) Preview(ctx context.Context, accountID string) (*ExportPreview, error) {
	folders, err := e.getFolders(ctx, accountID)
	if err != nil {
		return nil, err
	}
	preview := &ExportPreview{TotalFolders: len(folders), Folders: []ExportFolderPreview{}}
	for _, folder := range folders {
		msgs, err := e.fetchMessages(ctx, accountID, folder.Name)
		if err != nil {
			return nil, err
		}
		var size int64
		for _, msg := range msgs {
			if msg.Size > 0 {
				size += msg.Size
			} else {
				size += defaultEstimatedMessageSize
			}
		}
		preview.TotalMessages += len(msgs)
		preview.EstimatedSize += size
		preview.Folders = append(preview.Folders, ExportFolderPreview{
			Name:          folder.Name,
			MessageCount:  len(msgs),
			EstimatedSize: size,
		})
	}
	return preview, nil
}

func (e *Exporter) getFolders(ctx context.Context, accountID string) ([]message.Folder, error) {
	var folders []message.Folder
	err := Retry(ctx, e.config.RetryAttempts, e.opts.retryDelay, func() error {
		var err error
		folders, err = e.store.GetFolders(ctx, accountID)
		if err != nil {
			return databaseError("get folders", err)
		}
		return nil
	})
	return folders, err
}

// fetchMessages reads a folder and applies the draft, deleted and limit filters.
func (e *Exporter) fetchMessages(ctx context.Context, accountID, folderName string) ([]*message.StoredMessage, error) {
	var msgs []*message.StoredMessage
	err := Retry(ctx, e.config.RetryAttempts, e.opts.retryDelay, func() error {
		var err error
		msgs, err = e.store.GetMessages(ctx, accountID, folderName, 0, 0)
		if err != nil {
			return databaseError("get messages", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	filtered := make([]*message.StoredMessage, 0, len(msgs))
	for _, msg := range msgs {
		if msg.IsDraft && !e.config.IncludeDrafts {
			continue
		}
		if msg.IsDeleted && !e.config.IncludeDeleted {
			continue
		}
		filtered = append(filtered, msg)
		if e.config.MaxMessagesPerFolder > 0 && len(filtered) >= e.config.MaxMessagesPerFolder {
			break
		}
	}
	return filtered, nil
}

func (e *Exporter) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
