package maildir

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"golang.org/x/text/cases"
)

const (
	DefaultSeparator  = "/"
	DefaultJoinToken  = "__"
	RootFolder        = "INBOX"
	MaxComponentBytes = 255
	fallbackComponent = "folder"
)

var reservedNames = map[string]struct{}{
	".":   {},
	"..":  {},
	"con": {},
	"prn": {},
	"aux": {},
	"nul": {},
	"tmp": {},
}

// FolderHierarchy is the derived location of a logical folder on disk.
type FolderHierarchy struct {
	AccountID      string `json:"account_id"`
	IMAPPath       string `json:"imap_path"`
	FilesystemPath string `json:"filesystem_path"`
	Depth          int    `json:"depth"`
}

// IsRootLevel reports whether the folder has no parent.
func (h FolderHierarchy) IsRootLevel() bool {
	return h.Depth == 0
}

// Mapper translates hierarchical mailbox paths to flat filesystem-safe names and back.
//
// The mapping is many-to-one: distinct unsafe characters all collapse to '_', so
// FilesystemToIMAP only inverts IMAPToFilesystem for paths made of safe characters.
// Underscores next to a separator are ambiguous too: "a_/b" and "a/_b" both map to
// "a___b", which reads back as "a/_b". The same holds for components containing the
// join token.
type Mapper struct {
	separator string
	joinToken string
	strict    bool
}

type MapperOption func(*Mapper)

// WithSeparator sets the logical hierarchy separator.
func WithSeparator(sep string) MapperOption {
	return func(m *Mapper) {
		if sep != "" {
			m.separator = sep
		}
	}
}

// WithJoinToken sets the token used to join components on disk.
func WithJoinToken(token string) MapperOption {
	return func(m *Mapper) {
		if token != "" {
			m.joinToken = token
		}
	}
}

// WithStrictValidation toggles traversal and reserved name checks.
func WithStrictValidation(strict bool) MapperOption {
	return func(m *Mapper) {
		m.strict = strict
	}
}

func NewMapper(opts ...MapperOption) *Mapper {
	m := &Mapper{
		separator: DefaultSeparator,
		joinToken: DefaultJoinToken,
		strict:    true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Mapper) Separator() string { return m.separator }

// IMAPToFilesystem sanitizes every component of path and joins them with the join token.
func (m *Mapper) IMAPToFilesystem(path string) (string, error) {
	if path == "" {
		return "", pathError("imap to filesystem", path, errors.Wrap(ErrInvalidPath, "empty path"))
	}
	parts := strings.Split(path, m.separator)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		sanitized, err := m.SanitizeComponent(part)
		if err != nil {
			return "", err
		}
		out = append(out, sanitized)
	}
	return strings.Join(out, m.joinToken), nil
}

// FilesystemToIMAP splits a flat folder name on the join token and rejoins it with the separator.
func (m *Mapper) FilesystemToIMAP(path string) (string, error) {
	if path == "" {
		return "", pathError("filesystem to imap", path, errors.Wrap(ErrInvalidPath, "empty path"))
	}
	parts := strings.Split(path, m.joinToken)
	for _, part := range parts {
		if part == "" {
			return "", pathError("filesystem to imap", path, errors.Wrap(ErrInvalidPath, "empty component"))
		}
		if m.strict {
			if err := m.validateComponent(part); err != nil {
				return "", err
			}
			if len(part) > MaxComponentBytes {
				return "", pathError("filesystem to imap", part, ErrNameTooLong)
			}
		}
	}
	return strings.Join(parts, m.separator), nil
}

// SanitizeComponent makes a single path component safe to use as a directory name.
// Traversal and reserved name checks run on the original input, before any replacement.
func (m *Mapper) SanitizeComponent(component string) (string, error) {
	if component == "" {
		return "", pathError("sanitize", component, errors.Wrap(ErrInvalidPath, "empty component"))
	}
	if m.strict {
		if err := m.validateComponent(component); err != nil {
			return "", err
		}
	}

	replaced := strings.Map(func(r rune) rune {
		if isUnsafeRune(r) {
			return '_'
		}
		return r
	}, component)

	trimmed := strings.TrimSpace(replaced)
	trimmed = strings.Trim(trimmed, ".")
	if trimmed == "" {
		trimmed = fallbackComponent
	}

	if len(trimmed) > MaxComponentBytes {
		return "", pathError("sanitize", component, ErrNameTooLong)
	}
	return trimmed, nil
}

func (m *Mapper) validateComponent(component string) error {
	if strings.Contains(component, "..") || strings.HasPrefix(component, ".") {
		return pathError("validate", component, ErrPathTraversal)
	}
	// Casers carry state, so one is built per call.
	if _, ok := reservedNames[cases.Fold().String(component)]; ok {
		return pathError("validate", component, ErrReservedName)
	}
	return nil
}

func isUnsafeRune(r rune) bool {
	switch r {
	case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
		return true
	case '@', '#', '%', '&', '+', '=':
		return true
	}
	return unicode.IsControl(r)
}

// CreateMaildirPath returns base/<account>/<mapped folder>.
func (m *Mapper) CreateMaildirPath(base, accountID, imapPath string) (string, error) {
	account, err := m.SanitizeComponent(accountID)
	if err != nil {
		return "", err
	}
	folder, err := m.IMAPToFilesystem(imapPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(base, account, folder), nil
}

// ExtractHierarchyFromPath recovers the account and logical folder of a directory below base.
// The first segment is the account; the remainder is reverse-mapped, defaulting to INBOX.
func (m *Mapper) ExtractHierarchyFromPath(base, fullPath string) (FolderHierarchy, error) {
	rel, err := filepath.Rel(filepath.Clean(base), filepath.Clean(fullPath))
	if err != nil {
		return FolderHierarchy{}, newError(KindFolderMapping, "extract hierarchy", fullPath, err)
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return FolderHierarchy{}, newError(KindFolderMapping, "extract hierarchy", fullPath,
			errors.Wrapf(ErrInvalidPath, "%s is not below %s", fullPath, base))
	}

	segments := strings.Split(rel, "/")
	h := FolderHierarchy{
		AccountID:      segments[0],
		IMAPPath:       RootFolder,
		FilesystemPath: rel,
	}
	if len(segments) > 1 {
		imapPath, err := m.FilesystemToIMAP(strings.Join(segments[1:], m.joinToken))
		if err != nil {
			return FolderHierarchy{}, err
		}
		h.IMAPPath = imapPath
	}
	h.Depth = strings.Count(h.IMAPPath, m.separator)
	return h, nil
}

// GetParentFolders lists every ancestor of path, outermost first.
func (m *Mapper) GetParentFolders(path string) []string {
	parts := strings.Split(path, m.separator)
	parents := make([]string, 0, len(parts))
	for i := 1; i < len(parts); i++ {
		parents = append(parents, strings.Join(parts[:i], m.separator))
	}
	return parents
}

// GetParentFolder returns the direct parent of path, if any.
func (m *Mapper) GetParentFolder(path string) (string, bool) {
	idx := strings.LastIndex(path, m.separator)
	if idx <= 0 {
		return "", false
	}
	return path[:idx], true
}

// GetFolderName returns the last component of path.
func (m *Mapper) GetFolderName(path string) string {
	idx := strings.LastIndex(path, m.separator)
	if idx < 0 {
		return path
	}
	return path[idx+len(m.separator):]
}

// IsParentFolder reports whether parent is a strict ancestor of child.
func (m *Mapper) IsParentFolder(parent, child string) bool {
	if parent == "" || parent == child {
		return false
	}
	return strings.HasPrefix(child, parent+m.separator)
}
