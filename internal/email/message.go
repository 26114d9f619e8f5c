package email

import (
	"bytes"
	"fmt"
	"mime"
	"strings"
	"time"
)

const boundary = "----=_RESERVATION_NOTIFICATION_BOUNDARY"

type Message struct {
	ID      string
	From    string
	To      string
	Subject string
	Content Content
}

func safeHeader(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(strings.TrimSpace(s))
}

// Bytes encodes the message as RFC 5322 text: multipart/alternative when an
// HTML body exists, plain text otherwise.
func (m Message) Bytes() []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", safeHeader(m.From))
	fmt.Fprintf(&b, "To: %s\r\n", safeHeader(m.To))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", safeHeader(m.Subject)))
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	if m.ID != "" {
		fmt.Fprintf(&b, "X-Notification-ID: %s\r\n", safeHeader(m.ID))
	}
	b.WriteString("MIME-Version: 1.0\r\n")

	if m.Content.HTML == "" {
		b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
		b.WriteString(m.Content.Text)
		return b.Bytes()
	}

	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", boundary)
	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(m.Content.Text)
	fmt.Fprintf(&b, "\r\n--%s\r\n", boundary)
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(m.Content.HTML)
	fmt.Fprintf(&b, "\r\n--%s--\r\n", boundary)
	return b.Bytes()
}
