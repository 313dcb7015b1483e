package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSFileManager(t *testing.T) {
	fm := OSFileManager{}
	dir := filepath.Join(t.TempDir(), "acct", "INBOX")

	require.NoError(t, fm.InitMaildir(dir))
	for _, sub := range []string{"new", "cur", "tmp"} {
		info, err := fm.Stat(filepath.Join(dir, sub))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	tmp := filepath.Join(dir, "tmp", "1.a.host")
	target := filepath.Join(dir, "new", "1.a.host")
	exists, err := fm.Exists(target)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, fm.WriteFile(tmp, []byte("hello"), 0o600))
	require.NoError(t, fm.Rename(tmp, target))
	exists, err = fm.Exists(target)
	require.NoError(t, err)
	assert.True(t, exists)

	when := time.Date(2020, time.January, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, fm.Chtimes(target, when, when))
	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(when))

	entries, err := fm.ReadDir(filepath.Join(dir, "new"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, fm.Remove(target))
	_, err = fm.ReadFile(target)
	assert.Error(t, err)
}
