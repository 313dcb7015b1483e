package maildir

import "fmt"

// ExportStats accumulates the outcome of one export call.
type ExportStats struct {
	FoldersExported  int      `json:"folders_exported"`
	MessagesFound    int      `json:"messages_found"`
	MessagesExported int      `json:"messages_exported"`
	MessagesFailed   int      `json:"messages_failed"`
	BytesWritten     int64    `json:"bytes_written"`
	Errors           []string `json:"errors"`
}

// SuccessRate is the exported share of found messages, in percent.
func (s *ExportStats) SuccessRate() float64 {
	return successRate(s.MessagesExported, s.MessagesFound)
}

func (s *ExportStats) IsSuccessful() bool {
	return s.MessagesFailed == 0 && len(s.Errors) == 0
}

func (s *ExportStats) BytesWrittenHuman() string {
	return humanBytes(s.BytesWritten)
}

func (s *ExportStats) addError(format string, args ...any) {
	s.Errors = append(s.Errors, fmt.Sprintf(format, args...))
}

// ImportStats accumulates the outcome of one import call.
type ImportStats struct {
	DirectoriesScanned  int      `json:"directories_scanned"`
	MaildirFoldersFound int      `json:"maildir_folders_found"`
	MessagesFound       int      `json:"messages_found"`
	MessagesImported    int      `json:"messages_imported"`
	MessagesFailed      int      `json:"messages_failed"`
	DuplicatesSkipped   int      `json:"duplicates_skipped"`
	Errors              []string `json:"errors"`
}

// SuccessRate is the imported share of found messages, in percent.
func (s *ImportStats) SuccessRate() float64 {
	return successRate(s.MessagesImported, s.MessagesFound)
}

func (s *ImportStats) IsSuccessful() bool {
	return s.MessagesFailed == 0 && len(s.Errors) == 0
}

func (s *ImportStats) addError(format string, args ...any) {
	s.Errors = append(s.Errors, fmt.Sprintf(format, args...))
}

// ExportPreview summarizes what an export would write.
type ExportPreview struct {
	TotalFolders  int                  `json:"total_folders"`
	TotalMessages int                  `json:"total_messages"`
	EstimatedSize int64                `json:"estimated_size"`
	Folders       []ExportFolderPreview `json:"folders"`
}

type ExportFolderPreview struct {
	Name          string `json:"name"`
	MessageCount  int    `json:"message_count"`
	EstimatedSize int64  `json:"estimated_size"`
}

func (p *ExportPreview) EstimatedSizeHuman() string {
	return humanBytes(p.EstimatedSize)
}

func successRate(done, found int) float64 {
	if found == 0 {
		return 0
	}
	return float64(done) / float64(found) * 100
}

func humanBytes(n int64) string {
	units := []string{"B", "KB", "MB", "GB", "TB"}
	size := float64(n)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	return fmt.Sprintf("%.1f %s", size, units[i])
}
