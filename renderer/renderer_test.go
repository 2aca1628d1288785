package renderer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderNoticeWithFrontMatter(t *testing.T) {
	src := "---\nicon: \"⚠️\"\ntitle: Notice\n---\nAll rights reserved © Yakdar 2024.\nPlease do not share any links.\n"

	res, err := New().Render([]byte(src))
	require.NoError(t, err)

	assert.Equal(t, "⚠️", res.MetaString("icon"))
	assert.Equal(t, "Notice", res.MetaString("title"))
	assert.Empty(t, res.MetaString("missing"))
	html := string(res.HTML)
	assert.Contains(t, html, "All rights reserved © Yakdar 2024.")
	assert.Contains(t, html, "<br")
	assert.NotContains(t, html, "icon:")
	assert.Equal(t, "All rights reserved © Yakdar 2024. Please do not share any links.", res.PlainText)
}

func TestRenderSanitizesRawHTML(t *testing.T) {
	src := "Hello <script>alert(1)</script> <a href=\"javascript:alert(2)\">x</a> <b onclick=\"x()\">bold</b>"

	res, err := New().Render([]byte(src))
	require.NoError(t, err)

	html := string(res.HTML)
	assert.NotContains(t, html, "<script")
	assert.NotContains(t, html, "javascript:")
	assert.NotContains(t, html, "onclick")
	assert.Contains(t, html, "<b>bold</b>")
}

func TestRenderExternalLinksOpenInNewTab(t *testing.T) {
	res, err := New().Render([]byte("[form](https://ee.kobotoolbox.org/x/abc)"))
	require.NoError(t, err)

	html := string(res.HTML)
	assert.Contains(t, html, `href="https://ee.kobotoolbox.org/x/abc"`)
	assert.Contains(t, html, `target="_blank"`)
	assert.Contains(t, html, "nofollow")
}

func TestRenderKeepsHighlightedCode(t *testing.T) {
	res, err := New().Render([]byte("```go\nfunc main() {}\n```\n"))
	require.NoError(t, err)

	html := string(res.HTML)
	assert.Contains(t, html, `class="z-chroma z-code language-go"`)
	assert.Contains(t, html, "<span class=")
}

func TestMinifyHTML(t *testing.T) {
	raw := []byte("<!doctype html>\n<html>\n  <head>\n    <style>\n      body {  color : red ; }\n    </style>\n  </head>\n  <body>\n    <p class=\"note\">  hello   world  </p>\n  </body>\n</html>\n")

	out, err := New().MinifyHTML(raw)
	require.NoError(t, err)

	s := string(out)
	assert.Less(t, len(out), len(raw))
	assert.Contains(t, s, "<html>")
	assert.Contains(t, s, `class="note"`)
	assert.Contains(t, s, "body{color:red}")
	assert.False(t, strings.Contains(s, "\n  "))
}

func TestRenderPlainTextKeepsWordBoundaries(t *testing.T) {
	src := "Don't share... links  \nAsk the *data* team.\n\nSecond paragraph."

	res, err := New().Render([]byte(src))
	require.NoError(t, err)

	assert.Equal(t, "Don’t share… links Ask the data team. Second paragraph.", res.PlainText)
}
