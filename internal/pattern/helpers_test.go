package pattern

import (
	"net/url"
	"testing"
)

// parseURLs parses each of raws as a URL, failing the test on any error.
func parseURLs(t *testing.T, raws ...string) []*url.URL {
	t.Helper()
	out := make([]*url.URL, len(raws))
	for i, raw := range raws {
		u, err := url.Parse(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		out[i] = u
	}
	return out
}
