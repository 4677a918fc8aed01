// Package render converts markdown source into the styled HTML preview page.
//
// Rendering is deterministic: the same source bytes always produce the same
// markup. Raw HTML embedded in the source is escaped rather than passed
// through, so a previewed document cannot inject script into the previewer.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	gruperrors "git.home.luguber.info/inful/grup/internal/errors"
)

// Renderer converts markdown bytes into a complete preview page.
type Renderer struct {
	md    goldmark.Markdown
	tmpl  *template.Template
	title string
}

// New creates a Renderer. title is used for the page <title>; typically the
// source file path.
func New(title string) *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(
				// Single newlines become <br>, matching GitHub's comment-style
				// rendering that grup has always used.
				html.WithHardWraps(),
			),
		),
		tmpl:  pageTemplate,
		title: title,
	}
}

// Render converts source into a full HTML page carrying version as the
// client-visible version marker. It returns a render category error when the
// source cannot be rendered; any parseable markdown produces output.
func (r *Renderer) Render(source []byte, version uint64) (string, error) {
	if !utf8.Valid(source) {
		return "", gruperrors.RenderError(fmt.Errorf("source is not valid UTF-8"))
	}

	var body bytes.Buffer
	if err := r.md.Convert(source, &body); err != nil {
		return "", gruperrors.RenderError(err)
	}

	return r.page(pageData{
		Title:   r.title,
		Version: version,
		Content: template.HTML(body.String()), //nolint:gosec // goldmark escapes raw HTML
	})
}

// ErrorPage builds the fallback page shown when rendering or reading the
// source failed. It never fails; a template error degrades to plain text.
func (r *Renderer) ErrorPage(version uint64, cause error) string {
	page, err := r.page(pageData{
		Title:   r.title,
		Version: version,
		Error:   cause.Error(),
	})
	if err != nil {
		return fmt.Sprintf("<!DOCTYPE html><html><body data-version=%q><pre>%s</pre></body></html>",
			fmt.Sprint(version), template.HTMLEscapeString(cause.Error()))
	}
	return page
}

func (r *Renderer) page(data pageData) (string, error) {
	var out bytes.Buffer
	if err := r.tmpl.Execute(&out, data); err != nil {
		return "", gruperrors.RenderError(fmt.Errorf("page template: %w", err))
	}
	return out.String(), nil
}
