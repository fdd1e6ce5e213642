package pager

import (
	"strings"
	"testing"

	"github.com/dgallion1/guidenav/internal/document"
)

func allWords(pages []Page) []string {
	var out []string
	for _, p := range pages {
		out = append(out, strings.Fields(p.Text)...)
	}
	return out
}

func TestPaginate_SmallSectionFitsOnePage(t *testing.T) {
	doc := &document.Document{
		Sections: []*document.Section{
			{Title: "Section", Text: strings.Repeat("word ", 200)},
		},
	}
	pages := Paginate(doc, Config{PageWords: 400})

	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	if pages[0].Index != 0 {
		t.Errorf("expected index 0, got %d", pages[0].Index)
	}
	if CountWords(pages[0].Text) != 200 {
		t.Errorf("expected 200 words, got %d", CountWords(pages[0].Text))
	}
}

func TestPaginate_LargeSectionSplitsWithoutLoss(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 300)
	doc := &document.Document{
		Sections: []*document.Section{{Title: "Big Section", Text: text}},
	}
	pages := Paginate(doc, Config{PageWords: 250})

	if len(pages) < 2 {
		t.Fatalf("expected at least 2 pages, got %d", len(pages))
	}
	for i, p := range pages {
		if p.Index != i {
			t.Errorf("page %d: expected index %d, got %d", i, i, p.Index)
		}
		if n := CountWords(p.Text); n > 250 {
			t.Errorf("page %d: %d words exceeds limit", i, n)
		}
	}

	got := strings.Join(allWords(pages), " ")
	want := strings.Join(strings.Fields(text), " ")
	if got != want {
		t.Error("expected pages to reproduce the section text exactly")
	}
}

func TestPaginate_LongSentenceSplitByWords(t *testing.T) {
	text := strings.Repeat("unpunctuated ", 25)
	doc := &document.Document{Sections: []*document.Section{{Text: text}}}
	pages := Paginate(doc, Config{PageWords: 10})

	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pages))
	}
	if len(allWords(pages)) != 25 {
		t.Errorf("expected 25 words total, got %d", len(allWords(pages)))
	}
}

func TestPaginate_ParagraphsPacked(t *testing.T) {
	doc := &document.Document{
		Sections: []*document.Section{{Text: "one two\n\nthree four\n\nfive six"}},
	}
	pages := Paginate(doc, Config{PageWords: 4})

	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if pages[0].Text != "one two\n\nthree four" {
		t.Errorf("unexpected first page %q", pages[0].Text)
	}
	if pages[1].Text != "five six" {
		t.Errorf("unexpected second page %q", pages[1].Text)
	}
}

func TestPaginate_BreadcrumbPropagation(t *testing.T) {
	doc := &document.Document{
		Sections: []*document.Section{
			{
				Title: "Chapter 1",
				Sections: []*document.Section{
					{Title: "Section 1.1", Text: "content"},
				},
			},
			{Title: "Chapter 2", Text: "more"},
		},
	}
	pages := Paginate(doc, DefaultConfig())

	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	want := []string{"Chapter 1", "Section 1.1"}
	bc := pages[0].Breadcrumb
	if len(bc) != len(want) {
		t.Fatalf("expected breadcrumb %v, got %v", want, bc)
	}
	for i := range want {
		if bc[i] != want[i] {
			t.Errorf("breadcrumb[%d]: expected %q, got %q", i, want[i], bc[i])
		}
	}
	if h := pages[1].Heading(); h != "Chapter 2" {
		t.Errorf("expected sibling breadcrumb isolated, got heading %q", h)
	}
}

func TestPaginate_ShortTextKept(t *testing.T) {
	doc := &document.Document{Sections: []*document.Section{{Title: "Short", Text: "Hi"}}}
	pages := Paginate(doc, DefaultConfig())
	if len(pages) != 1 || pages[0].Text != "Hi" {
		t.Fatalf("expected short text kept as one page, got %+v", pages)
	}
}

func TestPaginate_EmptyAndNil(t *testing.T) {
	if pages := Paginate(&document.Document{Title: "Empty"}, Config{}); len(pages) != 0 {
		t.Errorf("expected 0 pages, got %d", len(pages))
	}
	if pages := Paginate(nil, Config{}); pages != nil {
		t.Errorf("expected nil for nil document, got %v", pages)
	}
}

func TestPaginate_HeadingOnly(t *testing.T) {
	doc := &document.Document{Sections: []*document.Section{
		{Title: "Intro"},
		{Title: "Body", Text: "words here"},
		{Title: "Outro", Sections: []*document.Section{{Text: "  "}}},
	}}
	if doc.IsEmpty() {
		t.Fatal("expected document with headings to be non-empty")
	}

	pages := Paginate(doc, DefaultConfig())
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %+v", pages)
	}
	for i, want := range []string{"Intro", "Body", "Outro"} {
		if h := pages[i].Heading(); h != want {
			t.Errorf("page %d: expected heading %q, got %q", i, want, h)
		}
		if pages[i].Index != i {
			t.Errorf("page %d: expected index %d, got %d", i, i, pages[i].Index)
		}
	}
	if pages[0].Text != "" {
		t.Errorf("expected empty text for heading-only page, got %q", pages[0].Text)
	}
}

func TestPaginate_SourcePage(t *testing.T) {
	doc := &document.Document{
		Format:   "pdf",
		Sections: []*document.Section{{Title: "Page 3", Text: "text", Page: 3}},
	}
	pages := Paginate(doc, DefaultConfig())
	if len(pages) != 1 || pages[0].SourcePage != 3 {
		t.Fatalf("expected source page 3, got %+v", pages)
	}
}
