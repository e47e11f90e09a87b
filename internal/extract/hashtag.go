package extract

import "regexp"

// hashtagPattern is a deliberately simple stand-in for Mastodon's own
// hashtag grammar (no twitter-text-equivalent library appears anywhere in
// the example pack): a '#' followed by letters, digits, or underscores.
var hashtagPattern = regexp.MustCompile(`#(\w+)`)

// Hashtags scans plain text for hashtags. It exists because the Mastodon
// account API doesn't surface hashtags in account bios the way it does
// for posts (posts carry a structured "tags" field; bios don't), so bio
// hashtags have to be recovered from the extracted text itself.
func Hashtags(text string) []string {
	matches := hashtagPattern.FindAllStringSubmatch(text, -1)
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, m[1])
	}
	return tags
}
