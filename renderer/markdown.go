package renderer

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	htmlRenderer "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var classPattern = regexp.MustCompile(`^[A-Za-z0-9_\- ]+$`)

// RenderResult wraps HTML markup and extracted metadata.
type RenderResult struct {
	HTML      []byte
	PlainText string
	Meta      map[string]any
}

// MetaString returns a front matter value as a trimmed string.
func (r *RenderResult) MetaString(key string) string {
	if r == nil || r.Meta == nil {
		return ""
	}
	switch v := r.Meta[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// Renderer transforms markdown sources into sanitized HTML fragments and
// minifies full pages.
type Renderer struct {
	md       goldmark.Markdown
	policy   *bluemonday.Policy
	minifier *minifier
}

// New constructs a renderer with GitHub-flavored markdown extensions and syntax highlighting.
func New() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			extension.Typographer,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
					chromahtml.ClassPrefix("z-"),
					chromahtml.PreventSurroundingPre(true),
				),
				highlighting.WithWrapperRenderer(codeWrapper),
			),
			meta.Meta,
		),
		goldmark.WithParserOptions(
			parser.WithAttribute(),
		),
		goldmark.WithRendererOptions(
			htmlRenderer.WithHardWraps(),
			htmlRenderer.WithUnsafe(),
		),
	)

	return &Renderer{md: md, policy: newNoticePolicy(), minifier: newMinifier()}
}

// Render converts markdown into sanitized HTML, collecting plain text and front matter.
func (r *Renderer) Render(src []byte) (*RenderResult, error) {
	reader := text.NewReader(src)
	pctx := parser.NewContext()
	doc := r.md.Parser().Parse(reader, parser.WithContext(pctx))

	plainBuilder := &strings.Builder{}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock && plainBuilder.Len() > 0 {
				plainBuilder.WriteByte(' ')
			}
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			plainBuilder.Write(node.Segment.Value(src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				plainBuilder.WriteByte(' ')
			}
		case *ast.String:
			// typographer substitutions are HTML entities
			if node.IsCode() {
				plainBuilder.WriteString(html.UnescapeString(string(node.Value)))
			} else {
				plainBuilder.Write(node.Value)
			}
		}
		return ast.WalkContinue, nil
	})

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, src, doc); err != nil {
		return nil, err
	}

	return &RenderResult{
		HTML:      r.policy.SanitizeBytes(buf.Bytes()),
		PlainText: strings.Join(strings.Fields(plainBuilder.String()), " "),
		Meta:      meta.Get(pctx),
	}, nil
}

func newNoticePolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(classPattern).OnElements("pre", "code", "span", "div")
	policy.AllowAttrs("data-lang").Matching(classPattern).OnElements("pre", "code")
	policy.AllowAttrs("tabindex").Matching(regexp.MustCompile(`^0$`)).OnElements("pre")
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	policy.RequireNoFollowOnLinks(true)
	return policy
}

func codeWrapper(w util.BufWriter, ctx highlighting.CodeBlockContext, entering bool) {
	lang := "text"
	if raw, ok := ctx.Language(); ok && len(raw) > 0 {
		lang = string(raw)
	}
	lang = string(util.EscapeHTML([]byte(lang)))
	if entering {
		_, _ = fmt.Fprintf(w, `<pre tabindex="0" class="z-chroma z-code language-%[1]s" data-lang="%[1]s"><code class="language-%[1]s" data-lang="%[1]s">`, lang)
		return
	}
	_, _ = w.WriteString("</code></pre>\n")
}
