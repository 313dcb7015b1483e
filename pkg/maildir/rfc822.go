package maildir

import (
	"bytes"
	"fmt"
	netmail "net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/olafkfreund/comunicado-sub006/pkg/models/message"
)

const crlf = "\r\n"

// ParsedMessage holds the fields recovered from a message file.
type ParsedMessage struct {
	Subject     string
	FromAddr    string
	FromName    string
	ToAddrs     []string
	CcAddrs     []string
	ReplyTo     string
	Date        time.Time
	MessageID   string
	InReplyTo   string
	References  []string
	Priority    string
	BodyText    *string
	BodyHTML    *string
	Attachments []message.Attachment
	HasHeaders  bool
}

// Parser turns raw message text into ParsedMessage fields.
type Parser interface {
	Parse(content []byte) (*ParsedMessage, error)
}

// Serialize renders msg as RFC 822 text with CRLF line endings.
func Serialize(msg *message.StoredMessage, hostname string) []byte {
	var b bytes.Buffer
	header := func(name, value string) {
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString(crlf)
	}

	if msg.MessageID != "" {
		header("Message-ID", msg.MessageID)
	} else {
		header("Message-ID", fmt.Sprintf("<%d.%s@%s>", msg.Date.Unix(), msg.ID, hostname))
	}
	header("Date", msg.Date.Format(time.RFC1123Z))
	header("From", formatAddress(msg.FromName, msg.FromAddr))
	header("Subject", msg.Subject)
	if len(msg.ToAddrs) > 0 {
		header("To", strings.Join(msg.ToAddrs, ", "))
	}
	if len(msg.CcAddrs) > 0 {
		header("Cc", strings.Join(msg.CcAddrs, ", "))
	}
	if msg.ReplyTo != "" {
		header("Reply-To", msg.ReplyTo)
	}
	if msg.InReplyTo != "" {
		header("In-Reply-To", msg.InReplyTo)
	}
	if len(msg.References) > 0 {
		header("References", strings.Join(msg.References, " "))
	}
	if msg.Priority != "" {
		header("X-Priority", msg.Priority)
	}
	header("MIME-Version", "1.0")

	switch {
	case msg.BodyText != nil && msg.BodyHTML != nil:
		boundary := "boundary_" + strings.ReplaceAll(msg.ID, "-", "")
		header("Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", boundary))
		b.WriteString(crlf)
		writePart(&b, boundary, "text/plain", *msg.BodyText)
		writePart(&b, boundary, "text/html", *msg.BodyHTML)
		b.WriteString("--" + boundary + "--" + crlf)
	case msg.BodyHTML != nil:
		header("Content-Type", "text/html; charset=UTF-8")
		header("Content-Transfer-Encoding", "8bit")
		b.WriteString(crlf)
		b.WriteString(toCRLF(*msg.BodyHTML))
	default:
		header("Content-Type", "text/plain; charset=UTF-8")
		header("Content-Transfer-Encoding", "8bit")
		b.WriteString(crlf)
		if msg.BodyText != nil {
			b.WriteString(toCRLF(*msg.BodyText))
		}
	}
	return b.Bytes()
}

func writePart(b *bytes.Buffer, boundary, contentType, body string) {
	b.WriteString("--" + boundary + crlf)
	b.WriteString("Content-Type: " + contentType + "; charset=UTF-8" + crlf)
	b.WriteString("Content-Transfer-Encoding: 8bit" + crlf)
	b.WriteString(crlf)
	b.WriteString(toCRLF(body))
	b.WriteString(crlf)
}

func formatAddress(name, addr string) string {
	if name == "" {
		return addr
	}
	return (&mail.Address{Name: name, Address: addr}).String()
}

func toCRLF(s string) string {
	s = strings.ReplaceAll(s, crlf, "\n")
	return strings.ReplaceAll(s, "\n", crlf)
}

// NaiveParser splits headers from body at the first blank line.
// A line is a header only if it contains ": ". When a non-header line comes
// before any header, the whole input is treated as body.
type NaiveParser struct{}

func (NaiveParser) Parse(content []byte) (*ParsedMessage, error) {
	text := strings.ReplaceAll(string(content), crlf, "\n")
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")

	p := &ParsedMessage{}
	inHeaders := true
	var body []string
	for _, line := range lines {
		if !inHeaders {
			body = append(body, line)
			continue
		}
		if line == "" {
			inHeaders = false
			continue
		}
		if name, value, ok := strings.Cut(line, ": "); ok {
			p.HasHeaders = true
			p.applyHeader(name, value)
			continue
		}
		if !p.HasHeaders {
			inHeaders = false
			body = append(body, line)
		}
	}

	if len(body) > 0 {
		joined := strings.Join(body, "\n")
		p.BodyText = &joined
	}
	return p, nil
}

func (p *ParsedMessage) applyHeader(name, value string) {
	value = strings.TrimSpace(value)
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "subject":
		p.Subject = value
	case "from":
		p.FromAddr, p.FromName = parseAddress(value)
	case "to":
		p.ToAddrs = parseAddressList(value)
	case "cc":
		p.CcAddrs = parseAddressList(value)
	case "reply-to":
		p.ReplyTo = value
	case "date":
		if t, err := netmail.ParseDate(value); err == nil {
			p.Date = t
		}
	case "message-id":
		p.MessageID = value
	case "in-reply-to":
		p.InReplyTo = value
	case "references":
		p.References = strings.Fields(value)
	case "x-priority":
		p.Priority = priorityFromHeader(value)
	}
}

func parseAddress(value string) (addr, name string) {
	parsed, err := mail.ParseAddress(value)
	if err != nil {
		return value, ""
	}
	return parsed.Address, parsed.Name
}

func parseAddressList(value string) []string {
	if list, err := mail.ParseAddressList(value); err == nil {
		out := make([]string, 0, len(list))
		for _, a := range list {
			out = append(out, a.Address)
		}
		return out
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// priorityFromHeader keeps only the leading digit of an X-Priority value such as "1 (Highest)".
func priorityFromHeader(value string) string {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return ""
	}
	if _, err := strconv.Atoi(fields[0]); err != nil {
		return value
	}
	return fields[0]
}
