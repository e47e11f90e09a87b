package mimeify

import (
	"strings"
	"testing"
	"time"

	"github.com/fyrsmithlabs/automod/internal/mastodon"
	"github.com/stretchr/testify/assert"
)

func baseStatus() *mastodon.Status {
	return &mastodon.Status{
		ID:         "123",
		Content:    "<p>hello world</p>",
		Visibility: "public",
		Account: mastodon.Account{
			Username:    "alice",
			Acct:        "alice",
			DisplayName: "Alice",
		},
		CreatedAt: time.Now(),
	}
}

func TestStatusToMIME_BasicHeaders(t *testing.T) {
	out := string(StatusToMIME("mastodon.social", baseStatus()))

	assert.Contains(t, out, "MIME-Version: 1.0\r\n")
	assert.Contains(t, out, "Message-Id: <123@mastodon.social>\r\n")
	assert.Contains(t, out, "From: Alice <alice@mastodon.social>\r\n")
	assert.Contains(t, out, "Mastodon-Visibility: public\r\n")
	assert.Contains(t, out, "Mastodon-Sensitive: false\r\n")
	assert.True(t, strings.HasSuffix(out, "<p>hello world</p>"))
}

func TestStatusToMIME_RemoteAccountKeepsAcct(t *testing.T) {
	s := baseStatus()
	s.Account.Acct = "bob@remote.example"
	s.Account.DisplayName = ""

	out := string(StatusToMIME("mastodon.social", s))
	assert.Contains(t, out, "From: bob@remote.example\r\n")
}

func TestStatusToMIME_SpoilerBecomesSubject(t *testing.T) {
	s := baseStatus()
	s.SpoilerText = "content warning"

	out := string(StatusToMIME("mastodon.social", s))
	assert.Contains(t, out, "Subject: content warning\r\n")
}

func TestStatusToMIME_MentionsAndHashtags(t *testing.T) {
	s := baseStatus()
	s.Mentions = []mastodon.Mention{{Username: "carol", Acct: "carol"}}
	s.Tags = []mastodon.Tag{{Name: "golang"}, {Name: "mastodon"}}

	out := string(StatusToMIME("mastodon.social", s))
	assert.Contains(t, out, "To: carol@mastodon.social\r\n")
	assert.Contains(t, out, "Keywords: golang, mastodon\r\n")
}

func TestStatusToMIME_InReplyTo(t *testing.T) {
	s := baseStatus()
	parent := "456"
	s.InReplyToID = &parent

	out := string(StatusToMIME("mastodon.social", s))
	assert.Contains(t, out, "In-Reply-To: <456@mastodon.social>\r\n")
}

func TestStatusToMIME_ApplicationXMailer(t *testing.T) {
	s := baseStatus()
	s.Application = &mastodon.Application{Name: "MyClient", Website: "https://example.com"}

	out := string(StatusToMIME("mastodon.social", s))
	assert.Contains(t, out, "X-Mailer: MyClient <https://example.com>\r\n")
}

func TestStatusToMIME_HeaderInjectionStripped(t *testing.T) {
	s := baseStatus()
	s.SpoilerText = "evil\r\nX-Injected: true"

	out := string(StatusToMIME("mastodon.social", s))
	assert.NotContains(t, out, "\r\nX-Injected")
	assert.Contains(t, out, "Subject: evil X-Injected: true\r\n")
}
