package extract

import (
	"github.com/fyrsmithlabs/automod/internal/mastodon"
	"github.com/fyrsmithlabs/automod/internal/pattern"
)

// StatusText extracts a TextMatcherInput from a status: visible content
// text and links, then spoiler text, then each media attachment's
// description, then each poll option's title — in that order, each
// appended as its own space-separated field — plus the status's mentions
// and hashtags.
func StatusText(s *mastodon.Status) (pattern.TextMatcherInput, error) {
	content, err := ParseFragment(s.Content)
	if err != nil {
		return pattern.TextMatcherInput{}, err
	}

	in := pattern.TextMatcherInput{
		Text:  Text(content),
		Links: Links(content),
	}

	if s.SpoilerText != "" {
		in.ExtendText(s.SpoilerText)
	}

	for _, media := range s.MediaAttachments {
		if media.Description != "" {
			in.ExtendText(media.Description)
		}
	}

	if s.Poll != nil {
		for _, opt := range s.Poll.Options {
			in.ExtendText(opt.Title)
		}
	}

	for _, m := range s.Mentions {
		in.Mentions = append(in.Mentions, pattern.NewUserMatcherInputFromAcct(m.Acct))
	}

	for _, tag := range s.Tags {
		in.Hashtags = append(in.Hashtags, tag.Name)
	}

	return in, nil
}

// StatusMatcherInput builds the full PostMatcherInput for s.
func StatusMatcherInput(s *mastodon.Status) (pattern.PostMatcherInput, error) {
	text, err := StatusText(s)
	if err != nil {
		return pattern.PostMatcherInput{}, err
	}
	return pattern.PostMatcherInput{Text: text}, nil
}
