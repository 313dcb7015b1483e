package mock

import (
	"bytes"
	"log/slog"
	"os"
	"testing"
	"time"

	gomock "go.uber.org/mock/gomock"

	"github.com/olafkfreund/comunicado-sub006/pkg/models/message"
)

// setupLogger sets up a logger that only outputs if the test fails
func SetupLogger(t *testing.T) *slog.Logger {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	t.Cleanup(func() {
		if t.Failed() {
			os.Stdout.Write(buf.Bytes()) //nolint:errcheck
		}
	})

	return logger
}

// Custom matcher to check a stored message by folder and subject
type storedMessageMatcher struct {
	folder  string
	subject string
}

func (m storedMessageMatcher) Matches(x interface{}) bool {
	msg, ok := x.(*message.StoredMessage)
	if !ok {
		return false
	}
	return msg.FolderName == m.folder && msg.Subject == m.subject
}

func (m storedMessageMatcher) String() string {
	return "is a message in " + m.folder + " with subject " + m.subject
}

// NewStoredMessageMatcher matches a *message.StoredMessage by folder and subject
func NewStoredMessageMatcher(folder, subject string) gomock.Matcher {
	return storedMessageMatcher{folder: folder, subject: subject}
}

// Custom matcher to check the Date field is within the tolerance
type messageDateMatcher struct {
	date      time.Time
	tolerance time.Duration
}

func (m messageDateMatcher) Matches(x interface{}) bool {
	msg, ok := x.(*message.StoredMessage)
	if !ok {
		return false
	}
	diff := msg.Date.Sub(m.date)
	return diff <= m.tolerance && diff >= -m.tolerance
}

func (m messageDateMatcher) String() string {
	return "has a date within tolerance"
}

// NewMessageDateMatcher returns a matcher for a message date with a tolerance
func NewMessageDateMatcher(date time.Time, tolerance time.Duration) gomock.Matcher {
	return messageDateMatcher{date: date, tolerance: tolerance}
}
