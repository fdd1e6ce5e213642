// Package document loads guide content files into a section tree and
// renders them for display.
package document

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
)

// Document is a parsed content file.
type Document struct {
	Title    string     // front matter title, <title>, or the file stem
	Format   string     // lower-case extension without the dot
	Sections []*Section // top-level sections in source order

	// Markdown is the markdown body with front matter removed. It is nil for
	// other formats.
	Markdown []byte
}

// Section is a heading and its content, nested by heading level.
type Section struct {
	Title    string     // heading (empty for untitled text)
	Text     string     // text directly under the heading
	Level    int        // heading level, 0 for untitled text
	Page     int        // source page (0 if N/A)
	Sections []*Section // subsections
}

// IsEmpty reports whether the document has no text at all.
func (d *Document) IsEmpty() bool {
	if d == nil {
		return true
	}
	for _, s := range d.Sections {
		if !s.isEmpty() {
			return false
		}
	}
	return true
}

func (s *Section) isEmpty() bool {
	if strings.TrimSpace(s.Title) != "" || strings.TrimSpace(s.Text) != "" {
		return false
	}
	for _, c := range s.Sections {
		if !c.isEmpty() {
			return false
		}
	}
	return true
}

// Parser converts raw file bytes into a Document.
type Parser interface {
	Parse(r io.Reader, filename string) (*Document, error)
}

// SupportedExtensions lists the content file extensions that can be shown.
var SupportedExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(path.Ext(filename))
	switch ext {
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".txt":
		return &TextParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: true}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported document type: %q", ext)
	}
}

// IsSupported checks whether a filename has a supported extension.
func IsSupported(filename string) bool {
	return SupportedExtensions[strings.ToLower(path.Ext(filename))]
}

// Load reads and parses a workspace-relative document.
func Load(fsys fs.FS, name string) (*Document, error) {
	p, err := ForFile(name)
	if err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	doc, err := p.Parse(bytes.NewReader(data), path.Base(name))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return doc, nil
}

// stem strips the extension from a base filename.
func stem(filename string) string {
	return strings.TrimSuffix(filename, path.Ext(filename))
}

// outliner builds a section tree from a flat stream of headings and text
// blocks. Every format with headings uses it.
type outliner struct {
	root  *Section
	stack []*Section
	text  strings.Builder
}

func newOutliner() *outliner {
	root := &Section{}
	return &outliner{root: root, stack: []*Section{root}}
}

func (o *outliner) heading(level int, title string) {
	o.flush()
	s := &Section{Title: title, Level: level}
	for len(o.stack) > 1 && o.stack[len(o.stack)-1].Level >= level {
		o.stack = o.stack[:len(o.stack)-1]
	}
	parent := o.stack[len(o.stack)-1]
	parent.Sections = append(parent.Sections, s)
	o.stack = append(o.stack, s)
}

func (o *outliner) block(t string) {
	if t == "" {
		return
	}
	if o.text.Len() > 0 {
		o.text.WriteString("\n\n")
	}
	o.text.WriteString(t)
}

func (o *outliner) flush() {
	t := strings.TrimSpace(o.text.String())
	o.text.Reset()
	if t == "" {
		return
	}
	top := o.stack[len(o.stack)-1]
	if top.Text != "" {
		top.Text += "\n\n" + t
	} else {
		top.Text = t
	}
}

// sections returns the finished tree. Text before the first heading becomes
// a leading untitled section.
func (o *outliner) sections() []*Section {
	o.flush()
	var out []*Section
	if o.root.Text != "" {
		out = append(out, &Section{Text: o.root.Text})
	}
	return append(out, o.root.Sections...)
}
