// Package header resolves the HTML that opens the docs page: a shared site
// header when one is present next to the project, otherwise a built-in one.
package header

import (
	"bytes"
	_ "embed"
	"errors"
	"html"
	"html/template"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/kl543/stmdocs/internal/config"
	ferrors "github.com/kl543/stmdocs/internal/foundation/errors"
	"github.com/kl543/stmdocs/internal/logfields"
)

//go:embed fallback_header.html.tmpl
var fallbackSource string

var fallbackTmpl = template.Must(template.New("fallback_header").Parse(fallbackSource))

// Header is the resolved page header.
type Header struct {
	HTML template.HTML
	// Path is the file the header was read from; empty for the built-in header.
	Path string
}

// Builtin reports whether the built-in fallback was used.
func (h Header) Builtin() bool { return h.Path == "" }

// Resolve returns the first candidate file that can be read, verbatim.
// Missing candidates are skipped quietly, unreadable ones with a warning.
// With no usable candidate the built-in header for site is returned.
func Resolve(candidates []string, site config.SiteConfig) (Header, error) {
	for _, path := range candidates {
		// #nosec G304 -- candidates are derived from the project root.
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				slog.Debug("Header candidate not found", logfields.Path(path))
			} else {
				slog.Warn("Skipping unreadable header candidate", logfields.Path(path), logfields.Error(err))
			}
			continue
		}
		// #nosec G203 -- the shared header is trusted site markup.
		return Header{HTML: template.HTML(data), Path: path}, nil
	}

	fallback, err := Fallback(site)
	if err != nil {
		return Header{}, err
	}
	return Header{HTML: fallback}, nil
}

// fallbackView carries text fields pre-escaped with html.EscapeString, which
// leaves "+" and other harmless punctuation literal.
type fallbackView struct {
	URL     string
	Title   template.HTML
	Tagline template.HTML
}

// Fallback renders the built-in header. It depends only on site.
func Fallback(site config.SiteConfig) (template.HTML, error) {
	// #nosec G203 -- both fields are escaped before conversion.
	view := fallbackView{
		URL:     strings.TrimRight(site.URL, "/"),
		Title:   template.HTML(html.EscapeString(site.Title)),
		Tagline: template.HTML(html.EscapeString(site.Tagline)),
	}
	var buf bytes.Buffer
	if err := fallbackTmpl.Execute(&buf, view); err != nil {
		return "", ferrors.InternalError("render fallback header").WithCause(err).Build()
	}
	// #nosec G203 -- produced by html/template, already escaped.
	return template.HTML(buf.String()), nil
}
