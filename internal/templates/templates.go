// Package templates binds view models to the embedded HTML templates and serves them
// through templ.
package templates

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"finitefield.org/listing-console/internal/format"
	"finitefield.org/listing-console/internal/i18n"
)

//go:embed views/*.tmpl
var views embed.FS

// Renderer executes named templates for a language.
type Renderer struct {
	base   *template.Template
	bundle *i18n.Bundle
}

// New parses the embedded templates.
func New(bundle *i18n.Bundle) (*Renderer, error) {
	if bundle == nil {
		return nil, fmt.Errorf("templates: i18n bundle is required")
	}
	funcs := template.FuncMap{
		"t":     func(key string) string { return key },
		"tf":    func(key string, args ...any) string { return key },
		"lang":  func() string { return bundle.Fallback() },
		"price": format.Price,
		"join":  strings.Join,
		"add":   func(a, b int) int { return a + b },
		"mainImage": func(url, alt string) MainImage {
			return MainImage{URL: url, Alt: alt}
		},
	}
	base, err := template.New("_root").Funcs(funcs).ParseFS(views, "views/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("templates: parse: %w", err)
	}
	return &Renderer{base: base, bundle: bundle}, nil
}

// Bundle returns the message catalogue used by the renderer.
func (r *Renderer) Bundle() *i18n.Bundle { return r.bundle }

// Component returns the named template as a templ component with messages in lang.
func (r *Renderer) Component(lang, name string, data any) (templ.Component, error) {
	set, err := r.base.Clone()
	if err != nil {
		return nil, fmt.Errorf("templates: clone: %w", err)
	}
	set.Funcs(template.FuncMap{
		"t":    func(key string) string { return r.bundle.T(lang, key) },
		"tf":   func(key string, args ...any) string { return r.bundle.Tf(lang, key, args...) },
		"lang": func() string { return lang },
	})
	tmpl := set.Lookup(name)
	if tmpl == nil {
		return nil, fmt.Errorf("templates: %q not defined", name)
	}
	return templ.FromGoHTML(tmpl, data), nil
}

// Part is one named template and its data.
type Part struct {
	Name string
	Data any
}

// Render writes the named template with the given status.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, status int, lang, name string, data any) error {
	return r.RenderParts(w, req, status, lang, Part{Name: name, Data: data})
}

// RenderParts writes several templates back to back, e.g. a fragment followed by
// out-of-band swaps.
func (r *Renderer) RenderParts(w http.ResponseWriter, req *http.Request, status int, lang string, parts ...Part) error {
	components := make([]templ.Component, 0, len(parts))
	for _, p := range parts {
		c, err := r.Component(lang, p.Name, p.Data)
		if err != nil {
			return err
		}
		components = append(components, c)
	}
	templ.Handler(templ.Join(components...), templ.WithStatus(status)).ServeHTTP(w, req)
	return nil
}
