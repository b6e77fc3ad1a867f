// Package assets finds the JavaScript a page loads: external <script src>
// references and inline <script> bodies.
package assets

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// scriptTag matches script tags that appear as text rather than markup:
// tags written by document.write, commented-out tags and similar.
var scriptTag = regexp.MustCompile(`<script[^>]+src=["']([^"']+)["']`)

// Assets lists the scripts found in one HTML document.
type Assets struct {
	// Scripts holds every script reference in document order. Duplicates
	// are kept.
	Scripts []string

	// Inline holds the bodies of <script> elements that contain more than
	// whitespace, in document order.
	Inline []string
}

// Discover parses htmlText and collects its scripts. The HTML parser is
// error-tolerant, so malformed markup yields whatever could be recovered.
//
// A <script> element contributes its src attribute, or failing that the
// last non-empty attribute whose name ends in "src" (data-src and other
// lazy loaders). Script tags embedded in inline bodies and in HTML comments
// are picked up lexically.
func Discover(htmlText string) Assets {
	var a Assets

	root, err := html.Parse(strings.NewReader(htmlText))
	if err != nil {
		return a
	}
	doc := goquery.NewDocumentFromNode(root)

	walk(root, func(n *html.Node) {
		switch {
		case n.Type == html.CommentNode:
			a.Scripts = append(a.Scripts, embedded(n.Data)...)
		case n.Type == html.ElementNode && n.DataAtom == atom.Script:
			s := doc.FindNodes(n)
			if src := scriptSrc(n.Attr); src != "" {
				a.Scripts = append(a.Scripts, src)
			}
			if body := s.Text(); strings.TrimSpace(body) != "" {
				a.Inline = append(a.Inline, body)
				a.Scripts = append(a.Scripts, embedded(body)...)
			}
		}
	})
	return a
}

func walk(n *html.Node, visit func(*html.Node)) {
	visit(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func scriptSrc(attrs []html.Attribute) string {
	for _, a := range attrs {
		if a.Key == "src" && a.Namespace == "" {
			if src := strings.TrimSpace(a.Val); src != "" {
				return src
			}
		}
	}
	for i := len(attrs) - 1; i >= 0; i-- {
		if !strings.HasSuffix(attrs[i].Key, "src") {
			continue
		}
		if v := strings.TrimSpace(attrs[i].Val); v != "" {
			return v
		}
	}
	return ""
}

func embedded(text string) []string {
	var out []string
	for _, m := range scriptTag.FindAllStringSubmatch(text, -1) {
		if src := strings.TrimSpace(m[1]); src != "" {
			out = append(out, src)
		}
	}
	return out
}
