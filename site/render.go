package site

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/yakdar/formhub/catalog"
	"github.com/yakdar/formhub/templatex"
)

// RenderPage renders and minifies the directory page filtered by query.
func (s *Service) RenderPage(ctx context.Context, query string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data := s.pageData(s.Search(query), s.cfg.Live)

	var buf bytes.Buffer
	if err := s.templates.Render(&buf, data); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return s.renderer.MinifyHTML(buf.Bytes())
}

// RenderResults renders only the results fragment for query.
func (s *Service) RenderResults(ctx context.Context, query string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data := s.pageData(s.Search(query), true)

	var buf bytes.Buffer
	if err := s.templates.RenderResults(&buf, data); err != nil {
		return nil, fmt.Errorf("render results: %w", err)
	}
	return s.renderer.MinifyHTML(buf.Bytes())
}

// RenderNotFoundPage renders a themed 404 page.
func (s *Service) RenderNotFoundPage(ctx context.Context, requestedPath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data := s.pageData(catalog.FilteredCatalog{}, s.cfg.Live)
	data.Title = "404 - Not found"
	data.PageTitle = s.pageTitle(data.Title)
	data.ContentTemplate = templatex.NotFoundContentTemplate
	data.Sections = nil

	sanitized := strings.TrimSpace(requestedPath)
	if sanitized != "" {
		sanitized = sanitizeRequestedPath(sanitized)
	}
	data.RequestedPath = sanitized
	description := "The page you are looking for could not be found."
	if sanitized != "" && sanitized != "/" {
		description = fmt.Sprintf("The requested path %s could not be found.", sanitized)
	}
	data.Meta = s.buildMeta(description, description, "website")

	var buf bytes.Buffer
	if err := s.templates.Render(&buf, data); err != nil {
		return nil, fmt.Errorf("render 404 page: %w", err)
	}
	return s.renderer.MinifyHTML(buf.Bytes())
}

func (s *Service) renderStaticIndex(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data := s.pageData(s.Search(""), false)

	var buf bytes.Buffer
	if err := s.templates.Render(&buf, data); err != nil {
		return nil, fmt.Errorf("render index: %w", err)
	}
	return s.renderer.MinifyHTML(buf.Bytes())
}

func (s *Service) pageData(fc catalog.FilteredCatalog, live bool) *templatex.PageData {
	snapshot := s.layout.Snapshot()

	title := ""
	if fc.Query != "" {
		title = fmt.Sprintf("Search: %s", fc.Query)
	}

	data := &templatex.PageData{
		Title:             title,
		PageTitle:         s.pageTitle(title),
		SiteName:          s.cfg.SiteName,
		Heading:           s.cfg.Heading,
		Tagline:           s.cfg.Tagline,
		Query:             fc.Query,
		SearchPlaceholder: s.cfg.SearchPlaceholder,
		Sections:          sectionsView(fc),
		NoMatches:         catalog.NoMatches(fc),
		ContentTemplate:   templatex.CatalogContentTemplate,
		NoticeHTML:        snapshot.NoticeHTML,
		NoticeIcon:        snapshot.NoticeIcon,
		HomeURL:           s.cfg.Href("/"),
		Live:              live,
	}
	if live {
		data.ResultsURL = s.cfg.Href("results")
	}
	if logo := snapshot.Logo; logo != nil {
		data.Logo = templatex.Logo{URL: s.cfg.Href(logo.Name), Alt: s.cfg.SiteName, Type: logo.ContentType}
	}
	if s.templates.StaticDir != "" {
		data.ThemeURL = s.cfg.Href(themeDirName)
	}
	// without a tagline the footer notice describes the page
	fallback := snapshot.NoticeText
	if fallback == "" {
		fallback = s.cfg.SiteName
	}
	data.Meta = s.buildMeta(s.cfg.Tagline, fallback, "website")
	return data
}

func sectionsView(fc catalog.FilteredCatalog) []templatex.Section {
	out := make([]templatex.Section, 0, len(fc.Sections))
	for _, section := range fc.Sections {
		links := make([]templatex.Link, 0, len(section.Entries))
		for _, entry := range section.Entries {
			links = append(links, templatex.Link{Name: entry.Name, URL: entry.URL})
		}
		out = append(out, templatex.Section{ID: section.ID, Name: section.Name, Entries: links})
	}
	return out
}

func (s *Service) buildMeta(summary, fallback, ogType string) templatex.Meta {
	if ogType == "" {
		ogType = "website"
	}
	description := metaDescription(summary, fallback)
	if description == "" {
		description = s.siteName()
	}
	return templatex.Meta{
		Description:   description,
		OpenGraphType: ogType,
		OpenGraphSite: s.siteName(),
	}
}

func (s *Service) siteName() string {
	name := strings.TrimSpace(s.cfg.SiteName)
	if name == "" {
		return "Form Hub"
	}
	return name
}

func (s *Service) pageTitle(raw string) string {
	title := strings.TrimSpace(raw)
	site := s.siteName()
	if title == "" {
		return site
	}
	return fmt.Sprintf("%s - %s", title, site)
}

func sanitizeRequestedPath(raw string) string {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "/")
	cleaned := path.Clean("/" + trimmed)
	if cleaned == "." || cleaned == "" {
		return "/"
	}
	return cleaned
}
