package util

import (
	"strings"

	"golang.org/x/net/html"
)

// ParseLinks walks a parsed HTML document and returns every href whose value
// ends with suffix (case-insensitive). Used by the fallback discovery path to
// pull dataset links off a plain listing page when the catalog API is down.
func ParseLinks(root *html.Node, suffix string) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, a := range n.Attr {
				if a.Key == "href" && strings.HasSuffix(strings.ToLower(a.Val), suffix) {
					out = append(out, a.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}
