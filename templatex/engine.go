package templatex

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	CatalogContentTemplate  = "content-catalog"
	NotFoundContentTemplate = "content-404"
	LayoutTemplate          = "layout"
	ResultsTemplate         = "results"
)

//go:embed theme/*.html theme/partials/*.html
var defaultTheme embed.FS

// Engine is a thin wrapper around Go templates with a built-in default theme.
type Engine struct {
	templates *template.Template
	StaticDir string
}

// PageData represents the data model expected by the layout.
type PageData struct {
	Title             string
	PageTitle         string
	SiteName          string
	Heading           string
	Tagline           string
	Logo              Logo
	Query             string
	SearchPlaceholder string
	Sections          []Section
	NoMatches         bool
	ContentTemplate   string
	RequestedPath     string
	NoticeHTML        template.HTML
	NoticeIcon        string
	HomeURL           string
	ResultsURL        string
	ThemeURL          string
	Live              bool
	Meta              Meta
}

// Logo describes the header image. An empty URL means a text-only header.
type Logo struct {
	URL  string
	Alt  string
	Type string
}

// Section is a rendered category card.
type Section struct {
	ID      string
	Name    string
	Entries []Link
}

// Link is a single form link inside a section.
type Link struct {
	Name string
	URL  string
}

// Meta holds SEO-oriented metadata for the rendered page.
type Meta struct {
	Description   string
	OpenGraphType string
	OpenGraphSite string
}

// Load instantiates an engine. An empty templateDir selects the built-in theme.
func Load(templateDir string) (*Engine, error) {
	var (
		fsys      fs.FS
		staticDir string
	)
	if strings.TrimSpace(templateDir) == "" {
		sub, err := fs.Sub(defaultTheme, "theme")
		if err != nil {
			return nil, fmt.Errorf("default theme: %w", err)
		}
		fsys = sub
	} else {
		info, err := os.Stat(templateDir)
		if err != nil {
			return nil, fmt.Errorf("template directory: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("template directory %s is not a directory", templateDir)
		}
		fsys = os.DirFS(templateDir)
		assetsPath := filepath.Join(templateDir, "assets")
		if info, err := os.Stat(assetsPath); err == nil && info.IsDir() {
			staticDir = assetsPath
		}
	}

	tpl, err := parse(fsys)
	if err != nil {
		return nil, err
	}
	for _, name := range []string{LayoutTemplate, CatalogContentTemplate, NotFoundContentTemplate, ResultsTemplate} {
		if tpl.Lookup(name) == nil {
			return nil, fmt.Errorf("template %q is not defined", name)
		}
	}
	return &Engine{templates: tpl, StaticDir: staticDir}, nil
}

func parse(fsys fs.FS) (*template.Template, error) {
	patterns := []string{"*.html"}
	if matches, _ := fs.Glob(fsys, "partials/*.html"); len(matches) > 0 {
		patterns = append(patterns, "partials/*.html")
	}
	if matches, _ := fs.Glob(fsys, "*.html"); len(matches) == 0 {
		return nil, fmt.Errorf("no templates found")
	}

	tpl, err := template.New("root").ParseFS(fsys, patterns...)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tpl, nil
}

// Render writes the full page layout into the provided writer.
func (e *Engine) Render(w io.Writer, data *PageData) error {
	if e.templates == nil {
		return fmt.Errorf("template engine not initialized")
	}
	if data != nil && strings.TrimSpace(data.ContentTemplate) == "" {
		data.ContentTemplate = CatalogContentTemplate
	}
	return e.templates.ExecuteTemplate(w, LayoutTemplate, data)
}

// RenderResults writes only the results partial, used for live search updates.
func (e *Engine) RenderResults(w io.Writer, data *PageData) error {
	if e.templates == nil {
		return fmt.Errorf("template engine not initialized")
	}
	return e.templates.ExecuteTemplate(w, ResultsTemplate, data)
}
