package document

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// RenderOptions configures HTML rendering.
type RenderOptions struct {
	// Extensions names goldmark extensions; empty selects GFM, linkify and
	// task lists. Unknown names are ignored.
	Extensions []string
	// UnsafeHTML passes raw HTML in markdown through to the output. Guide
	// content is untrusted, so this is off unless configured.
	UnsafeHTML bool
	HardWraps  bool
}

// Renderer turns documents into HTML fragments. It is safe for concurrent
// use.
type Renderer struct {
	engine goldmark.Markdown
}

func NewRenderer(opts RenderOptions) *Renderer {
	return &Renderer{engine: newEngine(opts)}
}

// Render returns an HTML fragment for doc. Markdown is rendered by
// goldmark; other formats are rendered from their sections with all text
// escaped.
func (r *Renderer) Render(doc *Document) ([]byte, error) {
	if doc.Markdown != nil {
		var buf bytes.Buffer
		if err := r.engine.Convert(doc.Markdown, &buf); err != nil {
			return nil, fmt.Errorf("render markdown: %w", err)
		}
		return buf.Bytes(), nil
	}

	var buf bytes.Buffer
	for _, s := range doc.Sections {
		writeSection(&buf, s)
	}
	return buf.Bytes(), nil
}

func writeSection(buf *bytes.Buffer, s *Section) {
	if s.Title != "" {
		level := min(max(s.Level, 1), 6)
		fmt.Fprintf(buf, "<h%d>%s</h%d>\n", level, html.EscapeString(s.Title), level)
	}
	for _, para := range strings.Split(s.Text, "\n\n") {
		if para = strings.TrimSpace(para); para != "" {
			escaped := strings.ReplaceAll(html.EscapeString(para), "\n", "<br>\n")
			fmt.Fprintf(buf, "<p>%s</p>\n", escaped)
		}
	}
	for _, c := range s.Sections {
		writeSection(buf, c)
	}
}

func newEngine(opts RenderOptions) goldmark.Markdown {
	rendererOptions := []renderer.Option{}
	if opts.HardWraps {
		rendererOptions = append(rendererOptions, gmhtml.WithHardWraps())
	}
	if opts.UnsafeHTML {
		rendererOptions = append(rendererOptions, gmhtml.WithUnsafe())
	}

	engineOptions := []goldmark.Option{
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	}
	if len(rendererOptions) > 0 {
		engineOptions = append(engineOptions, goldmark.WithRendererOptions(rendererOptions...))
	}
	if exts := collectExtensions(opts.Extensions); len(exts) > 0 {
		engineOptions = append(engineOptions, goldmark.WithExtensions(exts...))
	}
	return goldmark.New(engineOptions...)
}

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"autolink":      extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
	"typographer":   extension.Typographer,
}

func collectExtensions(names []string) []goldmark.Extender {
	if len(names) == 0 {
		return []goldmark.Extender{extension.GFM, extension.Linkify, extension.TaskList}
	}

	var out []goldmark.Extender
	seen := map[string]bool{}
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		ext, ok := extensionRegistry[key]
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ext)
	}
	return out
}
