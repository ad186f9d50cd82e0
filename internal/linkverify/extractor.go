// Package linkverify checks that the local references in a published page
// resolve to files next to it.
package linkverify

import (
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	ferrors "github.com/kl543/stmdocs/internal/foundation/errors"
)

// Link represents an extracted link from HTML content.
type Link struct {
	URL       string // as written in the attribute
	Text      string // link text or alt text
	Tag       string // a, img, link, script, source
	Attribute string // href or src
	IsLocal   bool   // relative reference to a file next to the page
}

// ExtractLinks extracts all links from an HTML file.
func ExtractLinks(htmlPath string) ([]Link, error) {
	file, err := os.Open(filepath.Clean(htmlPath))
	if err != nil {
		return nil, ferrors.FileSystemError("open page for link extraction").
			WithCause(err).WithContext("path", htmlPath).Build()
	}
	defer func() {
		_ = file.Close()
	}()

	return ExtractLinksFromReader(file)
}

// ExtractLinksFromReader extracts links in document order.
func ExtractLinksFromReader(r io.Reader) ([]Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, ferrors.ValidationError("parse page HTML").WithCause(err).Build()
	}

	var links []Link
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if link, ok := elementLink(n); ok {
				links = append(links, link)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(doc)
	return links, nil
}

func elementLink(n *html.Node) (Link, bool) {
	var attr, text string
	switch n.Data {
	case "a":
		attr, text = "href", extractText(n)
	case "link":
		attr, text = "href", getAttr(n, "rel")
	case "img":
		attr, text = "src", getAttr(n, "alt")
	case "script", "source":
		attr = "src"
	default:
		return Link{}, false
	}
	val := getAttr(n, attr)
	if val == "" {
		return Link{}, false
	}
	return Link{URL: val, Text: text, Tag: n.Data, Attribute: attr, IsLocal: isLocalLink(val)}, true
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func extractText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}
	var text strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		text.WriteString(extractText(c))
	}
	return strings.TrimSpace(text.String())
}

// isLocalLink reports whether linkURL is a relative file reference. Anchors,
// special schemes, absolute URLs and site-root paths are not local.
func isLocalLink(linkURL string) bool {
	if strings.HasPrefix(linkURL, "#") || strings.HasPrefix(linkURL, "/") {
		return false
	}
	u, err := url.Parse(linkURL)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == "" && u.Path != ""
}
