package site

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakdar/formhub/catalog"
	"github.com/yakdar/formhub/config"
	"github.com/yakdar/formhub/templatex"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Parse([]byte(`
General Surveys:
  "بکارئینانا روژانە": https://ee.kobotoolbox.org/x/ZaOX7d3f
forms: {}
Sumel - Mserik:
  "12.2.2026": https://ee.kobotoolbox.org/x/PFZBZKSB
`))
	require.NoError(t, err)
	return c
}

func newTestService(t *testing.T, mutate func(cfg *config.Config)) (*Service, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.OutputDir = filepath.Join(t.TempDir(), "dist")
	cfg.Tagline = "پورتالا تومارکرنا فورمان"
	if mutate != nil {
		mutate(cfg)
	}
	templates, err := templatex.Load("")
	require.NoError(t, err)

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	svc := NewService(cfg, testCatalog(t), templates, logger)
	require.NoError(t, svc.Warm(context.Background()))
	return svc, logs
}

func parseHTML(t *testing.T, data []byte) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	require.NoError(t, err)
	return doc
}

func sectionNames(doc *goquery.Document) []string {
	var names []string
	doc.Find("#results .card-title").Each(func(_ int, s *goquery.Selection) {
		names = append(names, strings.TrimSpace(s.Text()))
	})
	return names
}

func TestRenderPageEmptyQuery(t *testing.T) {
	svc, logs := newTestService(t, nil)

	out, err := svc.RenderPage(context.Background(), "")
	require.NoError(t, err)
	doc := parseHTML(t, out)

	assert.Equal(t, []string{"General Surveys", "Sumel - Mserik"}, sectionNames(doc))
	assert.Equal(t, 0, doc.Find(".warning").Length())
	assert.Equal(t, "Yakdar Form Hub", doc.Find("title").Text())
	assert.Equal(t, 0, doc.Find("header img").Length(), "no logo configured")
	assert.Contains(t, doc.Find("footer.notice").Text(), "All rights reserved © Yakdar 2024.")
	assert.Contains(t, logs.String(), "catalog placeholders hidden")
}

func TestRenderPageFiltered(t *testing.T) {
	svc, _ := newTestService(t, nil)

	out, err := svc.RenderPage(context.Background(), "12.2")
	require.NoError(t, err)
	doc := parseHTML(t, out)

	assert.Equal(t, []string{"Sumel - Mserik"}, sectionNames(doc))
	assert.Equal(t, "12.2", doc.Find(`input[name="q"]`).AttrOr("value", ""))
	assert.Equal(t, "Search: 12.2 - Yakdar Form Hub", doc.Find("title").Text())
}

func TestRenderPageNoMatches(t *testing.T) {
	svc, _ := newTestService(t, nil)

	out, err := svc.RenderPage(context.Background(), "zzz")
	require.NoError(t, err)
	doc := parseHTML(t, out)

	assert.Empty(t, sectionNames(doc))
	assert.Equal(t, "No forms found matching 'zzz'. Please try another search term.", strings.TrimSpace(doc.Find("#results .warning").Text()))
}

func TestRenderResultsFragment(t *testing.T) {
	svc, _ := newTestService(t, nil)

	out, err := svc.RenderResults(context.Background(), "روژ")
	require.NoError(t, err)

	assert.NotContains(t, string(out), "<html")
	doc := parseHTML(t, out)
	links := doc.Find("a.form-link")
	require.Equal(t, 1, links.Length())
	assert.Equal(t, "https://ee.kobotoolbox.org/x/ZaOX7d3f", links.AttrOr("href", ""))
}

func TestLogoFallsBackToTextHeader(t *testing.T) {
	svc, logs := newTestService(t, func(cfg *config.Config) {
		cfg.Logo = filepath.Join(t.TempDir(), "missing.png")
	})

	_, err := svc.Logo()
	assert.ErrorIs(t, err, ErrNoLogo)
	assert.Contains(t, logs.String(), "logo unavailable")

	out, err := svc.RenderPage(context.Background(), "")
	require.NoError(t, err)
	doc := parseHTML(t, out)
	assert.Equal(t, 0, doc.Find("header img").Length())
	assert.Equal(t, "Yakdar Form Hub", doc.Find("header h1").Text())
}

func TestLogoRejectsNonImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logo.txt")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))
	svc, logs := newTestService(t, func(cfg *config.Config) { cfg.Logo = path })

	_, err := svc.Logo()
	assert.ErrorIs(t, err, ErrNoLogo)
	assert.Contains(t, logs.String(), "not an image")
}

func TestLogoIsServedAndLinked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "icon.png")
	require.NoError(t, os.WriteFile(path, pngHeader, 0o644))
	svc, _ := newTestService(t, func(cfg *config.Config) {
		cfg.Logo = path
		cfg.BaseURL = "forms"
	})

	logo, err := svc.Logo()
	require.NoError(t, err)
	assert.Equal(t, "logo.png", logo.Name)
	assert.Equal(t, "image/png", logo.ContentType)

	out, err := svc.RenderPage(context.Background(), "")
	require.NoError(t, err)
	doc := parseHTML(t, out)
	assert.Equal(t, "/forms/logo.png", doc.Find("header img.logo").AttrOr("src", ""))
	assert.Equal(t, "/forms/logo.png", doc.Find(`link[rel="icon"]`).AttrOr("href", ""))
	assert.Equal(t, "/forms/results", doc.Find("form#search").AttrOr("data-results", ""))
}

func TestNoticeFileFrontMatterIcon(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notice.md")
	require.NoError(t, os.WriteFile(path, []byte("---\nicon: \"⚠️\"\n---\nInternal use **only**.\n"), 0o644))
	svc, _ := newTestService(t, func(cfg *config.Config) {
		cfg.Notice = ""
		cfg.NoticeFile = path
	})

	out, err := svc.RenderPage(context.Background(), "")
	require.NoError(t, err)
	doc := parseHTML(t, out)
	assert.Equal(t, "⚠️", doc.Find("footer.notice .icon").Text())
	assert.Equal(t, "only", doc.Find("footer.notice strong").Text())
}

func TestWarmFailsOnMissingNoticeFile(t *testing.T) {
	cfg := config.Default()
	cfg.Notice = ""
	cfg.NoticeFile = filepath.Join(t.TempDir(), "missing.md")
	templates, err := templatex.Load("")
	require.NoError(t, err)

	svc := NewService(cfg, testCatalog(t), templates, slog.New(slog.NewTextHandler(io.Discard, nil)))
	err = svc.Warm(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCatalogJSON(t *testing.T) {
	svc, _ := newTestService(t, nil)

	var payload struct {
		Query     string            `json:"query"`
		NoMatches bool              `json:"noMatches"`
		Total     int               `json:"total"`
		Sections  []catalog.Section `json:"sections"`
	}

	data, err := svc.CatalogJSON("12.2")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Equal(t, "12.2", payload.Query)
	assert.False(t, payload.NoMatches)
	assert.Equal(t, 1, payload.Total)
	require.Len(t, payload.Sections, 1)
	assert.Equal(t, "sumel-mserik", payload.Sections[0].ID)

	data, err = svc.CatalogJSON("zzz")
	require.NoError(t, err)
	assert.JSONEq(t, `{"query":"zzz","noMatches":true,"total":0,"sections":[]}`, string(data))
}

func TestRenderNotFoundPage(t *testing.T) {
	svc, _ := newTestService(t, nil)

	out, err := svc.RenderNotFoundPage(context.Background(), "/../etc/passwd")
	require.NoError(t, err)
	doc := parseHTML(t, out)
	assert.Equal(t, "/etc/passwd", doc.Find("code").Text())
	assert.Equal(t, "404 - Not found - Yakdar Form Hub", doc.Find("title").Text())
}

func TestRenderHonoursCancellation(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.RenderPage(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, svc.BuildStatic(ctx), context.Canceled)
}

func TestBuildStatic(t *testing.T) {
	logo := filepath.Join(t.TempDir(), "icon.png")
	require.NoError(t, os.WriteFile(logo, pngHeader, 0o644))
	svc, _ := newTestService(t, func(cfg *config.Config) {
		cfg.Logo = logo
		cfg.Live = false
	})
	out := svc.cfg.OutputDir
	require.NoError(t, os.MkdirAll(out, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(out, "stale.html"), []byte("old"), 0o644))

	require.NoError(t, svc.BuildStatic(context.Background()))

	assert.NoFileExists(t, filepath.Join(out, "stale.html"))
	assert.FileExists(t, filepath.Join(out, "404.html"))
	assert.FileExists(t, filepath.Join(out, "forms.json"))

	data, err := os.ReadFile(filepath.Join(out, "logo.png"))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)

	index, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	doc := parseHTML(t, index)
	assert.Equal(t, []string{"General Surveys", "Sumel - Mserik"}, sectionNames(doc))
	assert.Equal(t, "false", doc.Find("form#search").AttrOr("data-live", ""))
	assert.Empty(t, doc.Find("form#search").AttrOr("data-results", ""))
	assert.Equal(t, 1, doc.Find("#no-matches").Length())

	entries, err := os.ReadDir(filepath.Dir(out))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".__build-"), "temp dir left behind: %s", e.Name())
	}
}

func TestMetaDescriptionFallsBackToNotice(t *testing.T) {
	svc, _ := newTestService(t, func(cfg *config.Config) { cfg.Tagline = "" })

	out, err := svc.RenderPage(context.Background(), "")
	require.NoError(t, err)
	doc := parseHTML(t, out)
	assert.Equal(t,
		"All rights reserved © Yakdar 2024. Please do not share any links outside the Yakdar organization.",
		doc.Find(`meta[name="description"]`).AttrOr("content", ""))

	svc, _ = newTestService(t, nil)
	out, err = svc.RenderPage(context.Background(), "")
	require.NoError(t, err)
	doc = parseHTML(t, out)
	assert.Equal(t, "پورتالا تومارکرنا فورمان", doc.Find(`meta[name="description"]`).AttrOr("content", ""))
}
