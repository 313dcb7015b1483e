package maildir

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIMAPToFilesystem(t *testing.T) {
	m := NewMapper()
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{"nested", "INBOX/Work/Project", "INBOX__Work__Project", nil},
		{"special characters", "INBOX/Folder:With*Special?Chars", "INBOX__Folder_With_Special_Chars", nil},
		{"trailing dot and spaces", "Archive/ 2024. ", "Archive__2024", nil},
		{"only unsafe characters", "INBOX/***", "INBOX_____", nil},
		{"traversal", "INBOX/../etc", "", ErrPathTraversal},
		{"hidden component", "INBOX/.hidden", "", ErrPathTraversal},
		{"reserved", "CON", "", ErrReservedName},
		{"reserved mixed case", "INBOX/Nul", "", ErrReservedName},
		{"empty", "", "", ErrInvalidPath},
		{"empty component", "INBOX//Work", "", ErrInvalidPath},
		{"too long", strings.Repeat("a", 256), "", ErrNameTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.IMAPToFilesystem(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, KindPath, KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeComponentFallback(t *testing.T) {
	got, err := NewMapper().SanitizeComponent(" ")
	require.NoError(t, err)
	assert.Equal(t, "folder", got)
}

func TestSanitizeComponentLengthIsBytes(t *testing.T) {
	m := NewMapper()
	_, err := m.SanitizeComponent(strings.Repeat("é", 128))
	assert.ErrorIs(t, err, ErrNameTooLong)

	got, err := m.SanitizeComponent(strings.Repeat("a", 255))
	require.NoError(t, err)
	assert.Len(t, got, 255)
}

func TestLenientMapperAllowsReservedNames(t *testing.T) {
	m := NewMapper(WithStrictValidation(false))
	got, err := m.IMAPToFilesystem("INBOX/con")
	require.NoError(t, err)
	assert.Equal(t, "INBOX__con", got)

	got, err = m.IMAPToFilesystem("a..b")
	require.NoError(t, err)
	assert.Equal(t, "a..b", got)
}

func TestFilesystemToIMAP(t *testing.T) {
	m := NewMapper()
	got, err := m.FilesystemToIMAP("INBOX__Work__Project")
	require.NoError(t, err)
	assert.Equal(t, "INBOX/Work/Project", got)

	_, err = m.FilesystemToIMAP("INBOX____Work")
	assert.ErrorIs(t, err, ErrInvalidPath)

	_, err = m.FilesystemToIMAP("INBOX__..")
	assert.ErrorIs(t, err, ErrPathTraversal)
}

func TestMappingRoundTrip(t *testing.T) {
	m := NewMapper()
	for _, path := range []string{"INBOX", "INBOX/Work", "Archive/2024/Q1", "Sent Items/Project X"} {
		fsName, err := m.IMAPToFilesystem(path)
		require.NoError(t, err)
		back, err := m.FilesystemToIMAP(fsName)
		require.NoError(t, err)
		assert.Equal(t, path, back)
	}
}

func TestUnderscoreBesideSeparatorIsAmbiguous(t *testing.T) {
	m := NewMapper()

	trailing, err := m.IMAPToFilesystem("a_/b")
	require.NoError(t, err)
	leading, err := m.IMAPToFilesystem("a/_b")
	require.NoError(t, err)
	assert.Equal(t, "a___b", trailing)
	assert.Equal(t, trailing, leading)

	back, err := m.FilesystemToIMAP(trailing)
	require.NoError(t, err)
	assert.Equal(t, "a/_b", back)
}

func TestCustomSeparatorAndJoinToken(t *testing.T) {
	m := NewMapper(WithSeparator("."), WithJoinToken("--"))
	got, err := m.IMAPToFilesystem("INBOX.Work")
	require.NoError(t, err)
	assert.Equal(t, "INBOX--Work", got)
	assert.Equal(t, ".", m.Separator())
}

func TestCreateMaildirPath(t *testing.T) {
	m := NewMapper()
	got, err := m.CreateMaildirPath("/export", "user@example.com", "INBOX/Work")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/export", "user_example.com", "INBOX__Work"), got)

	_, err = m.CreateMaildirPath("/export", "acct", "../../etc")
	assert.ErrorIs(t, err, ErrPathTraversal)
}

func TestExtractHierarchyFromPath(t *testing.T) {
	m := NewMapper()
	base := filepath.Join("/export")

	h, err := m.ExtractHierarchyFromPath(base, filepath.Join(base, "acct", "INBOX__Work__Project"))
	require.NoError(t, err)
	assert.Equal(t, FolderHierarchy{
		AccountID:      "acct",
		IMAPPath:       "INBOX/Work/Project",
		FilesystemPath: "acct/INBOX__Work__Project",
		Depth:          2,
	}, h)
	assert.False(t, h.IsRootLevel())

	h, err = m.ExtractHierarchyFromPath(base, filepath.Join(base, "acct"))
	require.NoError(t, err)
	assert.Equal(t, RootFolder, h.IMAPPath)
	assert.True(t, h.IsRootLevel())

	_, err = m.ExtractHierarchyFromPath(base, "/elsewhere/acct/INBOX")
	assert.ErrorIs(t, err, ErrInvalidPath)
	assert.Equal(t, KindFolderMapping, KindOf(err))

	_, err = m.ExtractHierarchyFromPath(base, base)
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestParentHelpers(t *testing.T) {
	m := NewMapper()
	assert.Equal(t, []string{"INBOX", "INBOX/Work"}, m.GetParentFolders("INBOX/Work/Project"))
	assert.Empty(t, m.GetParentFolders("INBOX"))

	parent, ok := m.GetParentFolder("INBOX/Work/Project")
	assert.True(t, ok)
	assert.Equal(t, "INBOX/Work", parent)
	_, ok = m.GetParentFolder("INBOX")
	assert.False(t, ok)

	assert.Equal(t, "Project", m.GetFolderName("INBOX/Work/Project"))
	assert.Equal(t, "INBOX", m.GetFolderName("INBOX"))

	assert.True(t, m.IsParentFolder("INBOX", "INBOX/Work"))
	assert.True(t, m.IsParentFolder("INBOX", "INBOX/Work/Project"))
	assert.False(t, m.IsParentFolder("INBOX", "INBOX"))
	assert.False(t, m.IsParentFolder("INBOX", "INBOXES/Work"))
}
