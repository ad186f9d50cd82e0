package page

import (
	"bytes"
	"errors"
	"html/template"
	"io/fs"
	"os"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	ferrors "github.com/kl543/stmdocs/internal/foundation/errors"
)

// IntroFile is looked up inside the notebooks directory.
const IntroFile = "README.md"

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderIntro converts the markdown file at path to HTML. A missing file
// yields an empty intro. Raw HTML in the markdown is not passed through.
func RenderIntro(path string) (template.HTML, error) {
	// #nosec G304 -- path is inside the configured notebooks directory.
	src, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", ferrors.FileSystemError("read intro").WithCause(err).WithContext("path", path).Build()
	}
	var buf bytes.Buffer
	if err := markdown.Convert(src, &buf); err != nil {
		return "", ferrors.BuildError("convert intro markdown").WithCause(err).WithContext("path", path).Build()
	}
	// #nosec G203 -- goldmark output with unsafe HTML disabled.
	return template.HTML(buf.String()), nil
}
