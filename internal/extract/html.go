// Package extract turns raw Mastodon HTML (post content, account bios) into
// the plain-text/links/mentions/hashtags shape internal/pattern's
// TextMatcherInput needs.
package extract

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// ParseFragment parses an HTML fragment (Mastodon always sends content as
// a sequence of <p>/<br> wrapped HTML, never a full document) into a node
// tree rooted at an invisible container.
func ParseFragment(fragment string) (*html.Node, error) {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: 0,
	})
	if err != nil {
		return nil, err
	}
	root := &html.Node{Type: html.ElementNode, Data: "body"}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root, nil
}

// Text walks n's descendants and joins every text node's data, collapsing
// runs of whitespace to single spaces.
func Text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return collapseWhitespace(b.String())
}

// Links returns every <a href> descendant of n parsed as a URL. Malformed
// hrefs are skipped, not fatal — moderation extraction shouldn't fail
// outright over one bad link in an otherwise-readable post.
func Links(n *html.Node) []*url.URL {
	var links []*url.URL
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == "a" {
			for _, attr := range node.Attr {
				if attr.Key == "href" {
					if u, err := url.Parse(attr.Val); err == nil {
						links = append(links, u)
					}
					break
				}
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return links
}

func collapseWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
