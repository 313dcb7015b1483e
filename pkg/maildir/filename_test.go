package maildir

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olafkfreund/comunicado-sub006/pkg/models/message"
	"github.com/olafkfreund/comunicado-sub006/pkg/testutil"
)

func TestGenerateFilename(t *testing.T) {
	c := NewCodec(WithHostname("mail.example.com"))
	msg := testutil.NewTestMessage("1f0c-22ab", "acct", "INBOX", "Hi", message.FlagSeen, message.FlagFlagged)

	assert.Equal(t, "1710408413.1f0c22ab.mail.example.com", c.GenerateFilename(msg, false))
	assert.Equal(t, "1710408413.1f0c22ab.mail.example.com:2,FS", c.GenerateFilename(msg, true))
}

func TestWithHostnameSanitizes(t *testing.T) {
	assert.Equal(t, "host_a_b_c", NewCodec(WithHostname("host/a:b\\c")).Hostname())
	assert.Equal(t, DefaultHostname, NewCodec(WithHostname("  ")).Hostname())
}

func TestFlagsToLettersSortedAndDeduplicated(t *testing.T) {
	c := NewCodec()
	got := c.FlagsToLetters([]string{
		message.FlagSeen,
		message.FlagDeleted,
		message.FlagAnswered,
		message.FlagForwarded,
		message.FlagFlagged,
		message.FlagDraft,
		message.FlagSeen,
		"$Junk",
	})
	assert.Equal(t, "DFPRST", got)
	assert.Empty(t, c.FlagsToLetters(nil))
}

func TestLettersToFlagsDropsUnknown(t *testing.T) {
	got := NewCodec().LettersToFlags("SXR")
	assert.Equal(t, []string{message.FlagSeen, message.FlagAnswered}, got)
}

func TestParseFilename(t *testing.T) {
	c := NewCodec()

	fi, err := c.ParseFilename("1234567891.msg2.hostname:2,S")
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1234567891, 0).UTC(), fi.Timestamp)
	assert.Equal(t, "msg2", fi.UniqueID)
	assert.Equal(t, "hostname", fi.Hostname)
	assert.Equal(t, []string{message.FlagSeen}, fi.Flags)
	assert.True(t, fi.InCur)

	fi, err = c.ParseFilename("1234567890.msg1.mail.example.com")
	require.NoError(t, err)
	assert.Equal(t, "mail.example.com", fi.Hostname)
	assert.Empty(t, fi.Flags)
	assert.False(t, fi.InCur)
}

func TestParseFilenameInvalid(t *testing.T) {
	c := NewCodec()
	for _, name := range []string{
		"invalid",
		"only.two",
		"abc.msg.host",
		"1234567890.msg.host:1,S",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := c.ParseFilename(name)
			assert.ErrorIs(t, err, ErrInvalidFilename)
		})
	}
}

func TestGenerateParseRoundTrip(t *testing.T) {
	c := NewCodec(WithHostname("host"))
	msg := testutil.NewTestMessage("abc-123", "acct", "INBOX", "Hi", message.FlagSeen, message.FlagAnswered)

	fi, err := c.ParseFilename(c.GenerateFilename(msg, true))
	require.NoError(t, err)
	assert.Equal(t, msg.Date, fi.Timestamp)
	assert.Equal(t, "abc123", fi.UniqueID)
	assert.ElementsMatch(t, msg.Flags, fi.Flags)
}

func TestAddCustomMapping(t *testing.T) {
	c := NewCodec()
	require.NoError(t, c.AddCustomMapping("$Important", 'a'))
	assert.Equal(t, "Sa", c.FlagsToLetters([]string{"$Important", message.FlagSeen}))
	assert.Equal(t, []string{"$Important"}, c.LettersToFlags("a"))

	err := c.AddCustomMapping("$Other", 'S')
	assert.ErrorIs(t, err, ErrDuplicateFlagMapping)
}

func TestAddCustomMappingRemap(t *testing.T) {
	c := NewCodec()
	require.NoError(t, c.AddCustomMapping("$Important", 'a'))
	require.NoError(t, c.AddCustomMapping("$Important", 'b'))

	assert.Equal(t, "b", c.FlagsToLetters([]string{"$Important"}))
	assert.Empty(t, c.LettersToFlags("a"))
	assert.Equal(t, []string{"$Important"}, c.LettersToFlags("b"))
	require.NoError(t, c.AddCustomMapping("$Other", 'a'))
}

func TestCodecConcurrentUse(t *testing.T) {
	c := NewCodec()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = c.AddCustomMapping("$Custom", rune('a'+i))
			_ = c.FlagsToLetters([]string{message.FlagSeen, "$Custom"})
		}(i)
	}
	wg.Wait()
	assert.Equal(t, "S", c.FlagsToLetters([]string{message.FlagSeen}))
}

func TestTargetSubdirectory(t *testing.T) {
	seen := testutil.NewTestMessage("a", "acct", "INBOX", "Hi", message.FlagSeen)
	unseen := testutil.NewTestMessage("b", "acct", "INBOX", "Hi", message.FlagFlagged)

	assert.Equal(t, SubdirCur, TargetSubdirectory(seen))
	assert.Equal(t, SubdirNew, TargetSubdirectory(unseen))
	assert.Equal(t, SubdirNew, NewCodec().TargetSubdirectory(unseen))
}
