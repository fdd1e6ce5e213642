package document

import (
	"strings"
	"testing"
)

func TestMarkdownParser_HeadingHierarchy(t *testing.T) {
	input := `# Title

Intro text.

## Section A

Section A content.

### Subsection A1

Subsection A1 content.

## Section B

Section B content.
`
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Title != "doc" {
		t.Errorf("expected title %q, got %q", "doc", doc.Title)
	}
	if len(doc.Sections) != 1 {
		t.Fatalf("expected 1 top-level section (h1), got %d", len(doc.Sections))
	}

	h1 := doc.Sections[0]
	if h1.Title != "Title" {
		t.Errorf("expected h1 title %q, got %q", "Title", h1.Title)
	}
	if h1.Text != "Intro text." {
		t.Errorf("expected h1 text %q, got %q", "Intro text.", h1.Text)
	}
	if len(h1.Sections) != 2 {
		t.Fatalf("expected 2 h2 sections, got %d", len(h1.Sections))
	}

	secA := h1.Sections[0]
	if secA.Title != "Section A" || secA.Level != 2 {
		t.Errorf("expected level 2 %q, got level %d %q", "Section A", secA.Level, secA.Title)
	}
	if secA.Text != "Section A content." {
		t.Errorf("expected %q, got %q", "Section A content.", secA.Text)
	}
	if len(secA.Sections) != 1 || secA.Sections[0].Title != "Subsection A1" {
		t.Fatalf("expected Subsection A1 under Section A, got %+v", secA.Sections)
	}
	if secB := h1.Sections[1]; secB.Title != "Section B" {
		t.Errorf("expected %q, got %q", "Section B", secB.Title)
	}
}

func TestMarkdownParser_NoHeadings(t *testing.T) {
	input := `Just some plain text.

Another paragraph here.`

	doc, err := (&MarkdownParser{}).Parse(strings.NewReader(input), "plain.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Sections) != 1 {
		t.Fatalf("expected 1 section for headingless markdown, got %d", len(doc.Sections))
	}
	want := "Just some plain text.\n\nAnother paragraph here."
	if doc.Sections[0].Text != want {
		t.Errorf("expected %q, got %q", want, doc.Sections[0].Text)
	}
}

func TestMarkdownParser_LeadingTextBeforeHeading(t *testing.T) {
	doc, err := (&MarkdownParser{}).Parse(strings.NewReader("Preface.\n\n# One\n\nBody."), "x.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(doc.Sections))
	}
	if doc.Sections[0].Title != "" || doc.Sections[0].Text != "Preface." {
		t.Errorf("expected untitled preface section, got %+v", doc.Sections[0])
	}
	if doc.Sections[1].Title != "One" {
		t.Errorf("expected %q, got %q", "One", doc.Sections[1].Title)
	}
}

func TestMarkdownParser_MixedContentWithCodeBlocks(t *testing.T) {
	input := "# API Reference\n\nSome intro.\n\n## Endpoints\n\nList of endpoints:\n\n```\nGET /api/users\nPOST /api/users\n```\n\nMore text after code.\n"

	doc, err := (&MarkdownParser{}).Parse(strings.NewReader(input), "api.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Sections) != 1 || len(doc.Sections[0].Sections) != 1 {
		t.Fatalf("expected API Reference > Endpoints, got %+v", doc.Sections)
	}

	endpoints := doc.Sections[0].Sections[0]
	if !strings.Contains(endpoints.Text, "GET /api/users\nPOST /api/users") {
		t.Errorf("expected code block content in text, got %q", endpoints.Text)
	}
	if !strings.Contains(endpoints.Text, "More text after code.") {
		t.Errorf("expected post-code text, got %q", endpoints.Text)
	}
}

func TestMarkdownParser_InlineMarkupAndLists(t *testing.T) {
	input := "Run **uv sync** then open `intro.ipynb`.\n\n- first\n- second\n"
	doc, err := (&MarkdownParser{}).Parse(strings.NewReader(input), "x.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Run uv sync then open intro.ipynb.\n\nfirst\nsecond"
	if doc.Sections[0].Text != want {
		t.Errorf("expected %q, got %q", want, doc.Sections[0].Text)
	}
}

func TestMarkdownParser_FrontMatter(t *testing.T) {
	input := "---\ntitle: Getting Started\nweight: 2\n---\n# Setup\n\nInstall things.\n"

	doc, err := (&MarkdownParser{}).Parse(strings.NewReader(input), "setup.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Getting Started" {
		t.Errorf("expected front matter title, got %q", doc.Title)
	}
	if strings.Contains(string(doc.Markdown), "weight") {
		t.Errorf("expected front matter stripped from body, got %q", doc.Markdown)
	}
	if len(doc.Sections) != 1 || doc.Sections[0].Title != "Setup" {
		t.Fatalf("expected one Setup section, got %+v", doc.Sections)
	}
}

func TestMarkdownParser_EmptyInput(t *testing.T) {
	doc, err := (&MarkdownParser{}).Parse(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Sections) != 0 {
		t.Errorf("expected 0 sections for empty input, got %d", len(doc.Sections))
	}
	if !doc.IsEmpty() {
		t.Error("expected empty document")
	}
}

func TestMarkdownParser_TitleStripping(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"readme.md", "readme"},
		{"notes.markdown", "notes"},
		{"1.1 intro.md", "1.1 intro"},
	}
	p := &MarkdownParser{}
	for _, tt := range tests {
		doc, err := p.Parse(strings.NewReader("text"), tt.filename)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tt.filename, err)
		}
		if doc.Title != tt.want {
			t.Errorf("filename=%q: expected title %q, got %q", tt.filename, tt.want, doc.Title)
		}
	}
}
