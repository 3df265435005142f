// Package mail composes contact form messages and relays them over SMTP.
package mail

import (
	"fmt"
	"mime"
	"net/mail"
	"strings"
	"time"
)

// SubjectPrefix marks relayed contact messages in the reservations inbox.
const SubjectPrefix = "[Contact] "

// Message is a contact form submission.
type Message struct {
	Name     string
	Email    string
	Phone    string
	Location string
	Subject  string
	Body     string
}

var headerCleaner = strings.NewReplacer("\r", " ", "\n", " ") //nolint:gochecknoglobals

// headerValue removes line breaks so a value can not start a new header.
func headerValue(s string) string {
	return strings.TrimSpace(headerCleaner.Replace(s))
}

// crlf normalises line endings to CRLF.
func crlf(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	return strings.ReplaceAll(s, "\n", "\r\n")
}

func optional(s string) string {
	if s == "" {
		return "-"
	}

	return s
}

// Compose renders msg as a plain text RFC 5322 message from the site mailbox
// to the reservations mailbox, with the visitor as Reply-To.
func Compose(msg Message, from, to string, now time.Time) []byte {
	var b strings.Builder

	replyTo := (&mail.Address{Name: headerValue(msg.Name), Address: headerValue(msg.Email)}).String()

	header := func(k, v string) {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\r\n")
	}

	header("From", headerValue(from))
	header("To", headerValue(to))
	header("Reply-To", replyTo)
	header("Subject", mime.QEncoding.Encode("utf-8", SubjectPrefix+headerValue(msg.Subject)))
	header("Date", now.Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	header("Content-Type", "text/plain; charset=UTF-8")
	header("Content-Transfer-Encoding", "8bit")
	b.WriteString("\r\n")

	body := fmt.Sprintf("New message from the website contact form.\n\n"+
		"Name: %s\nEmail: %s\nPhone: %s\nLocation: %s\nSubject: %s\n\n%s\n",
		headerValue(msg.Name),
		headerValue(msg.Email),
		optional(headerValue(msg.Phone)),
		optional(headerValue(msg.Location)),
		headerValue(msg.Subject),
		strings.TrimSpace(msg.Body),
	)

	b.WriteString(crlf(body))

	return []byte(b.String())
}
