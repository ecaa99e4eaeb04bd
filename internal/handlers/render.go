package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/maheo/foulee/internal/middleware"
	"github.com/maheo/foulee/internal/plan"
)

// TemplateCache maps page filenames to parsed template sets. Each set contains
// the base layout combined with a single page template.
type TemplateCache map[string]*template.Template

// NewTemplateCache parses all page templates from the embedded filesystem.
// Each page is combined with the base layout; the login page is parsed
// standalone since it has no auth context.
func NewTemplateCache(fsys fs.FS) (TemplateCache, error) {
	cache := TemplateCache{}

	pages, err := fs.Glob(fsys, "templates/pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("handlers: glob page templates: %w", err)
	}

	for _, page := range pages {
		name := filepath.Base(page)

		// Login page is standalone — no base layout needed.
		if name == "login.html" {
			ts, err := template.New(name).Funcs(templateFuncs).ParseFS(fsys, page)
			if err != nil {
				return nil, fmt.Errorf("handlers: parse %s: %w", name, err)
			}
			cache[name] = ts
			continue
		}

		// All other pages extend the base layout.
		ts, err := template.New(name).Funcs(templateFuncs).ParseFS(fsys, "templates/layouts/base.html", page)
		if err != nil {
			return nil, fmt.Errorf("handlers: parse %s with layout: %w", name, err)
		}
		cache[name] = ts
	}

	return cache, nil
}

// templateFuncs are the helpers available to every page template.
var templateFuncs = template.FuncMap{
	"markdown": Markdown,
	"slots":    func() []plan.Slot { return plan.Slots[:] },
	"list":     func(items ...string) []string { return items },
}

// markdownRenderer converts plan descriptions and notes to HTML. GFM tables
// and strikethrough show up in coach notes often enough to warrant the
// extension.
var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// Markdown renders a markdown string to HTML. The output is not sanitized,
// so it is only used for coach-authored content. Never feed it athlete input.
func Markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := markdownRenderer.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}

// Render executes a page template with the base layout. It automatically injects
// the authenticated User into the template data for nav rendering. For non-boosted
// htmx requests, only the content fragment is returned.
func (tc TemplateCache) Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	ts, ok := tc[name]
	if !ok {
		return fmt.Errorf("handlers: template %q not found in cache", name)
	}

	if data == nil {
		data = map[string]any{}
	}

	// Inject authenticated user for base layout nav rendering.
	if _, exists := data["User"]; !exists {
		if user := middleware.UserFromContext(r.Context()); user != nil {
			data["User"] = user
		}
	}

	// Inject the CSRF token for form rendering.
	if _, exists := data["CSRFToken"]; !exists {
		data["CSRFToken"] = middleware.CSRFTokenFromContext(r.Context())
	}

	// Standalone pages (login) have no layout; execute them by file name.
	if ts.Lookup("base") == nil {
		return ts.ExecuteTemplate(w, name, data)
	}

	// Non-boosted htmx requests get just the content fragment.
	if r.Header.Get("HX-Request") == "true" && r.Header.Get("HX-Boosted") != "true" {
		return ts.ExecuteTemplate(w, "content", data)
	}

	return ts.ExecuteTemplate(w, "base", data)
}
