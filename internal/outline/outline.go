package outline

import (
	"regexp"
	"slices"
	"strings"
)

// Tree is the canonical course outline. A Tree is never modified after
// construction; a refresh builds a new one and swaps it in.
type Tree struct {
	groups []Group
}

// Group is a titled section of the outline (a category or module).
type Group struct {
	Title       string
	Description string
	entries     []Entry
}

// Entry is a single navigable unit (a step, lesson or assignment).
type Entry struct {
	Title                   string `json:"title" yaml:"title"`
	Description             string `json:"description,omitempty" yaml:"description,omitempty"`
	DocumentPath            string `json:"document,omitempty" yaml:"document,omitempty"`
	NotebookPath            string `json:"notebook,omitempty" yaml:"notebook,omitempty"`
	RequiresDependencyCheck bool   `json:"checkdeps,omitempty" yaml:"checkdeps,omitempty"`

	// GroupTitle is a lookup back-reference to the owning group, used for
	// display context only.
	GroupTitle string `json:"group" yaml:"group"`
}

// Content describes what an entry points at.
type Content struct {
	DocumentPath    string
	NotebookPath    string
	DependencyCheck bool
}

// Ref addresses an entry by position: group index, then entry index.
type Ref struct {
	Group int `json:"group"`
	Entry int `json:"entry"`
}

// NewGroup builds a group, stamping each entry with the group title. The
// entries slice is copied.
func NewGroup(title, description string, entries []Entry) Group {
	owned := make([]Entry, len(entries))
	for i, e := range entries {
		e.GroupTitle = title
		owned[i] = e
	}
	return Group{Title: title, Description: description, entries: owned}
}

// NewTree builds a tree from groups in display order.
func NewTree(groups ...Group) *Tree {
	return &Tree{groups: slices.Clone(groups)}
}

// Empty returns a valid tree with no groups.
func Empty() *Tree {
	return &Tree{}
}

// Len returns the number of groups.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.groups)
}

// IsEmpty reports whether the tree has no groups.
func (t *Tree) IsEmpty() bool {
	return t.Len() == 0
}

// Groups returns the groups in display order.
func (t *Tree) Groups() []Group {
	if t == nil {
		return nil
	}
	return slices.Clone(t.groups)
}

// GroupAt returns the group at index i.
func (t *Tree) GroupAt(i int) (Group, bool) {
	if t == nil || i < 0 || i >= len(t.groups) {
		return Group{}, false
	}
	return t.groups[i], true
}

// Entry returns the entry addressed by ref.
func (t *Tree) Entry(ref Ref) (Entry, bool) {
	g, ok := t.GroupAt(ref.Group)
	if !ok {
		return Entry{}, false
	}
	return g.EntryAt(ref.Entry)
}

// Refs lists every entry reference in display order.
func (t *Tree) Refs() []Ref {
	var refs []Ref
	for gi, g := range t.Groups() {
		for ei := range g.entries {
			refs = append(refs, Ref{Group: gi, Entry: ei})
		}
	}
	return refs
}

// Find looks up an entry by group and entry name. Names match a title
// case-insensitively or its slug. The first match in display order wins,
// so duplicate titles resolve to the earliest group.
func (t *Tree) Find(group, entry string) (Ref, bool) {
	for gi, g := range t.Groups() {
		if !nameMatches(g.Title, group) {
			continue
		}
		for ei, e := range g.entries {
			if nameMatches(e.Title, entry) {
				return Ref{Group: gi, Entry: ei}, true
			}
		}
	}
	return Ref{}, false
}

// Entries returns the group's entries in display order.
func (g Group) Entries() []Entry {
	return slices.Clone(g.entries)
}

// Len returns the number of entries in the group.
func (g Group) Len() int {
	return len(g.entries)
}

// EntryAt returns the entry at index i.
func (g Group) EntryAt(i int) (Entry, bool) {
	if i < 0 || i >= len(g.entries) {
		return Entry{}, false
	}
	return g.entries[i], true
}

// Content returns the entry's content descriptor.
func (e Entry) Content() Content {
	return Content{
		DocumentPath:    e.DocumentPath,
		NotebookPath:    e.NotebookPath,
		DependencyCheck: e.RequiresDependencyCheck,
	}
}

// HasContent reports whether the entry references a document or notebook.
func (e Entry) HasContent() bool {
	return e.DocumentPath != "" || e.NotebookPath != ""
}

// Equal reports whether two trees have the same groups and entries in the
// same order.
func Equal(a, b *Tree) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := range a.Len() {
		ga, gb := a.groups[i], b.groups[i]
		if ga.Title != gb.Title || ga.Description != gb.Description {
			return false
		}
		if !slices.Equal(ga.entries, gb.entries) {
			return false
		}
	}
	return true
}

// GroupSnapshot is a serializable copy of a group.
type GroupSnapshot struct {
	Title       string  `json:"title" yaml:"title"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Entries     []Entry `json:"entries" yaml:"entries"`
}

// Snapshot returns a serializable copy of the tree.
func (t *Tree) Snapshot() []GroupSnapshot {
	out := make([]GroupSnapshot, 0, t.Len())
	for _, g := range t.Groups() {
		entries := g.Entries()
		if entries == nil {
			entries = []Entry{}
		}
		out = append(out, GroupSnapshot{
			Title:       g.Title,
			Description: g.Description,
			Entries:     entries,
		})
	}
	return out
}

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9-]`)
	slugDashes  = regexp.MustCompile(`-+`)
)

// Slugify converts a title to a URL/path-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugInvalid.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 50 {
		s = s[:50]
	}
	return s
}

func nameMatches(title, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	if strings.EqualFold(title, name) {
		return true
	}
	slug := Slugify(name)
	return slug != "" && Slugify(title) == slug
}
