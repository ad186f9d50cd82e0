// Package page renders the single docs page.
package page

import (
	"bytes"
	_ "embed"
	"html/template"
	"time"

	ferrors "github.com/kl543/stmdocs/internal/foundation/errors"
	"github.com/kl543/stmdocs/internal/gallery"
	"github.com/kl543/stmdocs/internal/notebooks"
)

// StampLayout formats the "Last updated" line; the time is always UTC.
const StampLayout = "2006-01-02 15:04 UTC"

//go:embed page.html.tmpl
var pageSource string

var pageTmpl = template.Must(template.New("page").Funcs(template.FuncMap{
	"escapePath": notebooks.EscapePath,
	"stamp":      Stamp,
}).Parse(pageSource))

// Page is the render input.
type Page struct {
	Header      template.HTML
	Intro       template.HTML
	Notebooks   []notebooks.Entry
	Images      []gallery.Entry
	GeneratedAt time.Time
}

// Stamp formats t for the "Last updated" line.
func Stamp(t time.Time) string {
	return t.UTC().Format(StampLayout)
}

// Render produces the complete HTML document. Header and Intro are emitted
// as-is; every other value is escaped for its context.
func Render(p Page) ([]byte, error) {
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, p); err != nil {
		return nil, ferrors.BuildError("render page").WithCause(err).Build()
	}
	return buf.Bytes(), nil
}
