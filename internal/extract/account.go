package extract

import (
	"github.com/fyrsmithlabs/automod/internal/mastodon"
	"github.com/fyrsmithlabs/automod/internal/pattern"
)

// AccountText extracts a TextMatcherInput from an account: bio text and
// links, then hashtags recovered from that plain text (see Hashtags),
// then display name, then each profile field's name (as plain text) and
// HTML-parsed value.
func AccountText(a *mastodon.Account) (pattern.TextMatcherInput, error) {
	bio, err := ParseFragment(a.Note)
	if err != nil {
		return pattern.TextMatcherInput{}, err
	}

	bioText := Text(bio)
	in := pattern.TextMatcherInput{
		Text:  bioText,
		Links: Links(bio),
	}

	// The Mastodon API doesn't surface hashtags in account bios like it
	// does for posts. TODO: it doesn't surface mentions either.
	in.Hashtags = append(in.Hashtags, Hashtags(bioText)...)

	in.ExtendText(a.DisplayName)

	for _, field := range a.Fields {
		in.ExtendText(field.Name)
		value, err := ParseFragment(field.Value)
		if err != nil {
			return pattern.TextMatcherInput{}, err
		}
		in.Merge(pattern.TextMatcherInput{
			Text:  Text(value),
			Links: Links(value),
		})
	}

	return in, nil
}

// AccountMatcherInput builds the full AccountMatcherInput for a.
func AccountMatcherInput(a *mastodon.Account) (pattern.AccountMatcherInput, error) {
	text, err := AccountText(a)
	if err != nil {
		return pattern.AccountMatcherInput{}, err
	}
	return pattern.AccountMatcherInput{
		User: pattern.NewUserMatcherInputFromAcct(a.Acct),
		Text: text,
	}, nil
}
