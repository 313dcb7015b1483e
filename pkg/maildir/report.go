package maildir

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = time.Second
)

// ErrorReport is a short human readable diagnosis of a failed operation.
type ErrorReport struct {
	Kind       Kind   `json:"kind"`
	Title      string `json:"title"`
	Details    string `json:"details"`
	Suggestion string `json:"suggestion,omitempty"`
}

func (r ErrorReport) String() string {
	if r.Suggestion == "" {
		return fmt.Sprintf("%s\n\nDetails: %s", r.Title, r.Details)
	}
	return fmt.Sprintf("%s\n\nDetails: %s\n\nSuggestion: %s", r.Title, r.Details, r.Suggestion)
}

// Report maps err to a diagnosis and a suggested remedy.
func Report(err error) ErrorReport {
	if err == nil {
		return ErrorReport{}
	}
	kind := KindOf(err)
	r := ErrorReport{Kind: kind, Details: err.Error()}
	switch kind {
	case KindIO:
		r.Title = "I/O error"
		r.Suggestion = "Check file permissions and available disk space."
	case KindPermission:
		r.Title = "Permission error"
		r.Suggestion = "Check file permissions and make sure the Maildir directory is readable and writable."
	case KindDiskSpace:
		r.Title = "Disk full"
		r.Suggestion = "Free up disk space or choose another output directory."
	case KindDatabase:
		r.Title = "Database error"
		r.Suggestion = "Check that the message store is reachable and retry."
	case KindInvalidStructure:
		r.Title = "Invalid Maildir structure"
		r.Suggestion = "Make sure the directory contains Maildir folders with 'new', 'cur' and 'tmp' subdirectories."
	case KindFolderMapping:
		r.Title = "Folder mapping error"
		r.Suggestion = "Check the folder layout below the Maildir root."
	case KindPath:
		r.Title = "Unsafe folder name"
		r.Suggestion = "Rename the folder so it contains no '..', leading dots or reserved names."
	case KindEmailParsing:
		r.Title = "Malformed message"
		r.Suggestion = "Check that the message file contains valid RFC 822 headers."
	case KindCancelled:
		r.Title = "Operation cancelled"
		r.Details = "The operation was cancelled by user request."
	default:
		r.Title = "Maildir error"
		r.Suggestion = "Check the error details and try again."
	}
	return r
}

// IsRecoverable reports whether retrying the failed operation may succeed.
func IsRecoverable(err error) bool {
	switch KindOf(err) {
	case KindIO, KindDatabase, KindUnknown:
		return err != nil
	default:
		return false
	}
}

// RequiresUserIntervention reports whether err needs action outside the program to resolve.
func RequiresUserIntervention(err error) bool {
	switch KindOf(err) {
	case KindPermission, KindDiskSpace, KindInvalidStructure:
		return true
	default:
		return false
	}
}

// Retry runs op up to attempts times with a constant delay, stopping early on
// non-recoverable errors or when ctx is done.
func Retry(ctx context.Context, attempts int, delay time.Duration, op func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), uint64(attempts-1)),
		ctx,
	)
	return backoff.Retry(func() error {
		err := op()
		if err != nil && !IsRecoverable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
}
