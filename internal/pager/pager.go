// Package pager splits a parsed document into screen-sized pages for the
// terminal hosts.
package pager

import (
	"strings"

	"github.com/dgallion1/guidenav/internal/document"
)

// Config controls paging.
type Config struct {
	PageWords int // Target page size in words.
}

func DefaultConfig() Config {
	return Config{PageWords: 400}
}

// Page is a run of text with its heading context.
type Page struct {
	Text       string   // page text
	Index      int      // sequence number within the document
	Breadcrumb []string // heading hierarchy, e.g. ["Week 1", "Setup"]
	SourcePage int      // source page for paged formats (0 if N/A)
}

// Heading returns the innermost heading, or "" at document level.
func (p Page) Heading() string {
	if len(p.Breadcrumb) == 0 {
		return ""
	}
	return p.Breadcrumb[len(p.Breadcrumb)-1]
}

// Paginate walks the section tree and produces pages. Unlike extraction
// chunking nothing is dropped or duplicated: concatenating every page's
// words reproduces the document's text.
func Paginate(doc *document.Document, cfg Config) []Page {
	if cfg.PageWords <= 0 {
		cfg.PageWords = DefaultConfig().PageWords
	}
	if doc == nil {
		return nil
	}

	var pages []Page
	for _, s := range doc.Sections {
		walkSection(s, nil, cfg, &pages)
	}
	return pages
}

func walkSection(s *document.Section, breadcrumb []string, cfg Config, pages *[]Page) {
	bc := breadcrumb
	if s.Title != "" {
		bc = append(append([]string(nil), breadcrumb...), s.Title)
	}

	before := len(*pages)
	for _, part := range splitText(s.Text, cfg.PageWords) {
		*pages = append(*pages, Page{
			Text:       part,
			Index:      len(*pages),
			Breadcrumb: copyBreadcrumb(bc),
			SourcePage: s.Page,
		})
	}

	for _, c := range s.Sections {
		walkSection(c, bc, cfg, pages)
	}

	// A heading with nothing under it still gets a page of its own.
	if len(*pages) == before && strings.TrimSpace(s.Title) != "" {
		*pages = append(*pages, Page{
			Index:      len(*pages),
			Breadcrumb: copyBreadcrumb(bc),
			SourcePage: s.Page,
		})
	}
}

// splitText packs paragraphs into pages of at most limit words. A
// paragraph over the limit is split by sentences, and a sentence over the
// limit by words.
func splitText(text string, limit int) []string {
	var result []string
	var current strings.Builder
	currentWords := 0

	flush := func() {
		if currentWords > 0 {
			result = append(result, current.String())
		}
		current.Reset()
		currentWords = 0
	}

	for _, para := range splitByParagraphs(text) {
		paraWords := CountWords(para)

		if paraWords > limit {
			flush()
			result = append(result, packUnits(splitSentences(para), limit)...)
			continue
		}
		if currentWords+paraWords > limit {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
		currentWords += paraWords
	}
	flush()

	return result
}

// packUnits joins sentences with spaces into pages of at most limit words.
func packUnits(units []string, limit int) []string {
	var result []string
	var current []string
	currentWords := 0

	for _, unit := range units {
		words := CountWords(unit)
		if words > limit {
			if len(current) > 0 {
				result = append(result, strings.Join(current, " "))
				current, currentWords = nil, 0
			}
			fields := strings.Fields(unit)
			for len(fields) > limit {
				result = append(result, strings.Join(fields[:limit], " "))
				fields = fields[limit:]
			}
			current, currentWords = []string{strings.Join(fields, " ")}, len(fields)
			continue
		}
		if currentWords+words > limit && len(current) > 0 {
			result = append(result, strings.Join(current, " "))
			current, currentWords = nil, 0
		}
		current = append(current, unit)
		currentWords += words
	}
	if len(current) > 0 {
		result = append(result, strings.Join(current, " "))
	}
	return result
}

func splitByParagraphs(text string) []string {
	var result []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// CountWords counts whitespace-separated words.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

func copyBreadcrumb(bc []string) []string {
	if len(bc) == 0 {
		return nil
	}
	out := make([]string, len(bc))
	copy(out, bc)
	return out
}
