package maildir

import (
	"fmt"
	"io/fs"
	"syscall"

	"github.com/pkg/errors"
)

// Kind classifies an interchange error.
type Kind int

const (
	KindUnknown Kind = iota
	KindIO
	KindDatabase
	KindInvalidStructure
	KindFolderMapping
	KindEmailParsing
	KindPath
	KindCancelled
	KindPermission
	KindDiskSpace
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindDatabase:
		return "database"
	case KindInvalidStructure:
		return "invalid structure"
	case KindFolderMapping:
		return "folder mapping"
	case KindEmailParsing:
		return "email parsing"
	case KindPath:
		return "path"
	case KindCancelled:
		return "cancelled"
	case KindPermission:
		return "permission"
	case KindDiskSpace:
		return "disk space"
	default:
		return "unknown"
	}
}

var (
	// Path sanitization
	ErrInvalidPath   = errors.New("invalid path")
	ErrPathTraversal = errors.New("path traversal attempt")
	ErrReservedName  = errors.New("reserved name")
	ErrNameTooLong   = errors.New("name too long")

	// Filenames and flags
	ErrInvalidFilename      = errors.New("invalid maildir filename")
	ErrDuplicateFlagMapping = errors.New("flag letter already mapped")

	// Operations
	ErrCancelled        = errors.New("operation cancelled")
	ErrMalformedMessage = errors.New("malformed message")
	ErrNotMaildir       = errors.New("not a maildir folder")
)

// Error is the error type returned by mapper, exporter and importer operations.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String() + " error"
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg += fmt.Sprintf(" (%s)", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, ErrCancelled) {
		return KindCancelled
	}
	return KindUnknown
}

func newError(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

func pathError(op, component string, err error) *Error {
	return newError(KindPath, op, component, err)
}

func cancelledError(op string) *Error {
	return newError(KindCancelled, op, "", ErrCancelled)
}

func databaseError(op string, err error) *Error {
	return newError(KindDatabase, op, "", err)
}

// ioError wraps a filesystem error, promoting permission and disk space failures to their own kinds.
func ioError(op, path string, err error) *Error {
	return newError(classifyIO(err), op, path, err)
}

func classifyIO(err error) Kind {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return KindPermission
	case errors.Is(err, syscall.ENOSPC), errors.Is(err, syscall.EDQUOT):
		return KindDiskSpace
	default:
		return KindIO
	}
}

// IsCancelled reports whether err signals a cancelled operation.
func IsCancelled(err error) bool {
	return KindOf(err) == KindCancelled
}
