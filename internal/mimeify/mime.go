// Package mimeify renders a Mastodon status as a MIME message, the wire
// format the rspamd adapter feeds to rspamc: rspamd's filters are built
// for email and expect message/rfc822, not raw JSON.
package mimeify

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/automod/internal/mastodon"
)

// StatusToMIME renders s as a MIME message for domain. Headers mirror the
// subset of fields a spam filter cares about: identity, visibility,
// sensitivity, thread linkage, subject (content warning), keywords
// (hashtags), and the posting client.
func StatusToMIME(domain string, s *mastodon.Status) []byte {
	var buf bytes.Buffer

	writeHeader(&buf, "MIME-Version", "1.0")
	writeHeader(&buf, "Message-Id", fmt.Sprintf("<%s@%s>", s.ID, domain))
	writeHeader(&buf, "From", fromAddress(domain, s.Account))
	writeHeader(&buf, "Mastodon-Visibility", s.Visibility)
	writeHeader(&buf, "Mastodon-Sensitive", fmt.Sprintf("%t", s.Sensitive))

	if s.InReplyToID != nil {
		writeHeader(&buf, "In-Reply-To", fmt.Sprintf("<%s@%s>", *s.InReplyToID, domain))
	}
	if s.SpoilerText != "" {
		writeHeader(&buf, "Subject", s.SpoilerText)
	}
	if len(s.Mentions) > 0 {
		addrs := make([]string, len(s.Mentions))
		for i, m := range s.Mentions {
			addrs[i] = mentionAddress(domain, m)
		}
		writeHeader(&buf, "To", strings.Join(addrs, ", "))
	}
	if len(s.Tags) > 0 {
		names := make([]string, len(s.Tags))
		for i, tag := range s.Tags {
			names[i] = tag.Name
		}
		writeHeader(&buf, "Keywords", strings.Join(names, ", "))
	}
	if s.Application != nil {
		writeHeader(&buf, "X-Mailer", xMailer(s.Application))
	}

	buf.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(s.Content)

	// TODO: media attachments

	return buf.Bytes()
}

func writeHeader(buf *bytes.Buffer, key, value string) {
	fmt.Fprintf(buf, "%s: %s\r\n", key, foldCRLF(value))
}

// foldCRLF strips embedded CR/LF from header values to prevent header
// injection via status content an attacker controls.
func foldCRLF(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	return strings.ReplaceAll(s, "\n", " ")
}

func fromAddress(domain string, a mastodon.Account) string {
	email := a.Acct
	if !strings.Contains(email, "@") {
		email = fmt.Sprintf("%s@%s", a.Username, domain)
	}
	if a.DisplayName == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", foldCRLF(a.DisplayName), email)
}

func mentionAddress(domain string, m mastodon.Mention) string {
	if strings.Contains(m.Acct, "@") {
		return m.Acct
	}
	return fmt.Sprintf("%s@%s", m.Username, domain)
}

func xMailer(app *mastodon.Application) string {
	if app.Website != "" {
		return fmt.Sprintf("%s <%s>", app.Name, app.Website)
	}
	return app.Name
}
