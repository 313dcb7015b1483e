package maildir

import (
	"bytes"
	"io"
	"strings"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
	"github.com/pkg/errors"

	msgmodel "github.com/olafkfreund/comunicado-sub006/pkg/models/message"
)

// MIMEParser decodes messages with go-message, recovering separate text and
// HTML bodies and attachment descriptors from multipart messages.
type MIMEParser struct{}

func (MIMEParser) Parse(content []byte) (*ParsedMessage, error) {
	mr, err := mail.CreateReader(bytes.NewReader(content))
	// An unknown charset is not fatal; the reader falls back to the raw bytes.
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, newError(KindEmailParsing, "parse mime", "", errors.Wrap(err, "read message"))
	}
	defer mr.Close()

	p := &ParsedMessage{}
	h := mr.Header
	for _, key := range []string{"Subject", "From", "To", "Cc", "Reply-To", "Date", "Message-Id", "In-Reply-To", "References", "X-Priority"} {
		if v := h.Get(key); v != "" {
			p.HasHeaders = true
			p.applyHeader(key, v)
		}
	}
	if subject, err := h.Subject(); err == nil && subject != "" {
		p.Subject = subject
	}
	if from, err := h.AddressList("From"); err == nil && len(from) > 0 {
		p.FromAddr, p.FromName = from[0].Address, from[0].Name
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if message.IsUnknownCharset(err) {
			continue
		}
		if err != nil {
			return nil, newError(KindEmailParsing, "parse mime", "", errors.Wrap(err, "read part"))
		}

		switch ph := part.Header.(type) {
		case *mail.InlineHeader:
			ct, _, _ := ph.ContentType()
			body, err := io.ReadAll(part.Body)
			if err != nil {
				return nil, newError(KindEmailParsing, "parse mime", "", errors.Wrap(err, "read body"))
			}
			text := strings.ReplaceAll(string(body), crlf, "\n")
			switch {
			case ct == "text/html" && p.BodyHTML == nil:
				p.BodyHTML = &text
			case (ct == "text/plain" || ct == "") && p.BodyText == nil:
				p.BodyText = &text
			}
		case *mail.AttachmentHeader:
			filename, _ := ph.Filename()
			ct, _, _ := ph.ContentType()
			n, _ := io.Copy(io.Discard, part.Body)
			p.Attachments = append(p.Attachments, msgmodel.Attachment{
				Filename:    filename,
				ContentType: ct,
				Size:        n,
				ContentID:   strings.Trim(ph.Get("Content-Id"), "<>"),
			})
		}
	}
	return p, nil
}
