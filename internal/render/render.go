package render

import (
	"bytes"
	"fmt"
	"html/template"
	"path/filepath"
	"time"
	"unicode"
)

// Map carries the data handed to a template.
type Map map[string]any

// Renderer turns a page name and its data into a finished HTML body.
// Handlers depend on this interface rather than on html/template directly,
// which lets tests substitute a deterministic renderer.
type Renderer interface {
	Render(name string, data Map) ([]byte, error)
}

var funcs = template.FuncMap{
	"cap": func(s string) string {
		if s == "" {
			return ""
		}
		runes := []rune(s)
		runes[0] = unicode.ToUpper(runes[0])
		return string(runes)
	},
	"formatDate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("02 Jan 2006, 15:04")
	},
	"prevPage": func(n int) int { return n - 1 },
	"nextPage": func(n int) int { return n + 1 },
}

// TemplateRenderer renders pages with html/template. Every page is parsed
// together with the shared base layout and executed through its "base"
// template.
type TemplateRenderer struct {
	templates map[string]*template.Template
}

// NewTemplateRenderer parses every page under dir against dir/base.layout.html
// once at startup, so a broken template fails boot instead of a request.
func NewTemplateRenderer(dir string) (*TemplateRenderer, error) {
	layout := filepath.Join(dir, "base.layout.html")

	pages, err := filepath.Glob(filepath.Join(dir, "*", "*.html"))
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no page templates under %s", dir)
	}
	partials, err := filepath.Glob(filepath.Join(dir, "*.partial.html"))
	if err != nil {
		return nil, err
	}

	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		// Pages are addressed as "<section>/<file>", e.g. "posts/index.html".
		name := filepath.ToSlash(filepath.Join(filepath.Base(filepath.Dir(page)), filepath.Base(page)))
		files := append([]string{layout, page}, partials...)
		ts, err := template.New("").Funcs(funcs).ParseFiles(files...)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		templates[name] = ts
	}

	return &TemplateRenderer{templates: templates}, nil
}

func (r *TemplateRenderer) Render(name string, data Map) ([]byte, error) {
	ts, ok := r.templates[name]
	if !ok {
		return nil, fmt.Errorf("unknown template %q", name)
	}
	var buf bytes.Buffer
	if err := ts.ExecuteTemplate(&buf, "base", data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
