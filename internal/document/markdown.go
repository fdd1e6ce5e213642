package document

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. YAML or TOML front
// matter is stripped; its title overrides the filename.
type MarkdownParser struct{}

type frontMatter struct {
	Title string `yaml:"title" toml:"title" json:"title"`
}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*Document, error) {
	var meta frontMatter
	body, err := frontmatter.Parse(r, &meta)
	if err != nil {
		return nil, fmt.Errorf("parse front matter: %w", err)
	}

	doc := &Document{
		Title:    stem(filename),
		Format:   "md",
		Markdown: body,
	}
	if t := strings.TrimSpace(meta.Title); t != "" {
		doc.Title = t
	}

	root := goldmark.New().Parser().Parse(text.NewReader(body))

	o := newOutliner()
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			o.heading(h.Level, blockText(h, body))
			continue
		}
		o.block(blockText(n, body))
	}
	doc.Sections = o.sections()
	return doc, nil
}

// blockText gets the plain text of a goldmark AST node. Leaf blocks such as
// code blocks carry their text in Lines; everything else is read from its
// inline children. Nested blocks are separated by a newline.
func blockText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.FirstChild() == nil {
		if n.Type() == ast.TypeBlock {
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				line := lines.At(i)
				buf.Write(line.Value(src))
			}
		}
		return strings.TrimSpace(buf.String())
	}

	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			buf.Write(c.Segment.Value(src))
			if c.HardLineBreak() || c.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(c.Value)
		case *ast.AutoLink:
			buf.Write(c.Label(src))
		default:
			if c.Type() == ast.TypeBlock && buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString(blockText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
