package maildir

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	gomaildir "github.com/emersion/go-maildir"
	"github.com/pkg/errors"

	"github.com/olafkfreund/comunicado-sub006/pkg/models/message"
)

const (
	SubdirNew = "new"
	SubdirCur = "cur"
	SubdirTmp = "tmp"

	DefaultHostname = "comunicado"
	infoPrefix      = "2,"
)

// FilenameInfo is the decoded form of a Maildir message filename.
type FilenameInfo struct {
	Timestamp time.Time
	UniqueID  string
	Hostname  string
	Flags     []string
	InCur     bool
}

// Codec encodes and decodes Maildir message filenames.
type Codec struct {
	hostname string

	mu       sync.RWMutex
	toLetter map[string]gomaildir.Flag
	toFlag   map[gomaildir.Flag]string
}

type CodecOption func(*Codec)

// WithHostname sets the host token written into generated filenames.
func WithHostname(hostname string) CodecOption {
	return func(c *Codec) {
		if h := sanitizeHostname(hostname); h != "" {
			c.hostname = h
		}
	}
}

func NewCodec(opts ...CodecOption) *Codec {
	c := &Codec{
		hostname: DefaultHostname,
		toLetter: map[string]gomaildir.Flag{
			message.FlagDraft:     gomaildir.FlagDraft,
			message.FlagFlagged:   gomaildir.FlagFlagged,
			message.FlagForwarded: gomaildir.FlagPassed,
			message.FlagAnswered:  gomaildir.FlagReplied,
			message.FlagSeen:      gomaildir.FlagSeen,
			message.FlagDeleted:   gomaildir.FlagTrashed,
		},
		toFlag: map[gomaildir.Flag]string{},
	}
	for flag, letter := range c.toLetter {
		c.toFlag[letter] = flag
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Codec) Hostname() string { return c.hostname }

// AddCustomMapping maps a store flag to a Maildir flag letter. A flag that was
// already mapped releases its previous letter.
func (c *Codec) AddCustomMapping(flag string, letter rune) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.toFlag[gomaildir.Flag(letter)]; ok {
		return errors.Wrapf(ErrDuplicateFlagMapping, "%q is mapped to %s", letter, existing)
	}
	if old, ok := c.toLetter[flag]; ok {
		delete(c.toFlag, old)
	}
	c.toLetter[flag] = gomaildir.Flag(letter)
	c.toFlag[gomaildir.Flag(letter)] = flag
	return nil
}

// GenerateFilename returns "{unix}.{id}.{host}", with a ":2,{letters}" suffix when isSeen.
func (c *Codec) GenerateFilename(msg *message.StoredMessage, isSeen bool) string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(msg.Date.Unix(), 10))
	b.WriteByte('.')
	b.WriteString(strings.ReplaceAll(msg.ID, "-", ""))
	b.WriteByte('.')
	b.WriteString(c.hostname)
	if isSeen {
		b.WriteByte(':')
		b.WriteString(infoPrefix)
		b.WriteString(c.FlagsToLetters(msg.Flags))
	}
	return b.String()
}

// FlagsToLetters encodes flags as sorted Maildir letters. Unknown flags are dropped.
func (c *Codec) FlagsToLetters(flags []string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := make(map[gomaildir.Flag]struct{}, len(flags))
	letters := make([]rune, 0, len(flags))
	for _, f := range flags {
		letter, ok := c.toLetter[f]
		if !ok {
			continue
		}
		if _, dup := seen[letter]; dup {
			continue
		}
		seen[letter] = struct{}{}
		letters = append(letters, rune(letter))
	}
	sort.Slice(letters, func(i, j int) bool { return letters[i] < letters[j] })
	return string(letters)
}

// LettersToFlags decodes Maildir letters into store flags. Unknown letters are dropped.
func (c *Codec) LettersToFlags(letters string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	flags := make([]string, 0, len(letters))
	for _, r := range letters {
		if flag, ok := c.toFlag[gomaildir.Flag(r)]; ok {
			flags = append(flags, flag)
		}
	}
	return flags
}

// ParseFilename decodes a filename produced by GenerateFilename or another Maildir writer.
func (c *Codec) ParseFilename(name string) (FilenameInfo, error) {
	base, info, hasInfo := strings.Cut(name, ":")
	parts := strings.Split(base, ".")
	if len(parts) < 3 {
		return FilenameInfo{}, errors.Wrapf(ErrInvalidFilename, "%q has too few parts", name)
	}
	ts, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return FilenameInfo{}, errors.Wrapf(ErrInvalidFilename, "%q has a non-numeric timestamp", name)
	}

	fi := FilenameInfo{
		Timestamp: time.Unix(ts, 0).UTC(),
		UniqueID:  parts[1],
		Hostname:  strings.Join(parts[2:], "."),
		Flags:     []string{},
	}
	if hasInfo {
		if !strings.HasPrefix(info, infoPrefix) {
			return FilenameInfo{}, errors.Wrapf(ErrInvalidFilename, "%q has an unsupported info section", name)
		}
		fi.InCur = true
		fi.Flags = c.LettersToFlags(strings.TrimPrefix(info, infoPrefix))
	}
	return fi, nil
}

// TargetSubdirectory returns "cur" for seen messages and "new" otherwise.
// Export and import both place messages through this function.
func TargetSubdirectory(msg *message.StoredMessage) string {
	if msg.HasFlag(message.FlagSeen) {
		return SubdirCur
	}
	return SubdirNew
}

// TargetSubdirectory is the method form of the package level TargetSubdirectory.
func (c *Codec) TargetSubdirectory(msg *message.StoredMessage) string {
	return TargetSubdirectory(msg)
}

func sanitizeHostname(hostname string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', ':', '\\':
			return '_'
		}
		return r
	}, strings.TrimSpace(hostname))
}
