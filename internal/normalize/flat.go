package normalize

import "github.com/dgallion1/guidenav/internal/outline"

// FlatNormalizer handles documents of the form
//
//	{"categories": [{"title", "description", "steps": [{"title", "description", "file", "notebook", "checkdeps"}]}]}
type FlatNormalizer struct{}

func (n *FlatNormalizer) Normalize(raw any) ([]outline.Group, error) {
	doc, _ := raw.(map[string]any)

	var groups []outline.Group
	for gi, category := range objects(doc["categories"]) {
		title := stringField(category, "title")
		if err := requireTitle(ShapeFlat, "category", gi, title); err != nil {
			return nil, err
		}
		entries, err := stepEntries(ShapeFlat, category["steps"])
		if err != nil {
			return nil, err
		}
		groups = append(groups, outline.NewGroup(title, stringField(category, "description"), entries))
	}
	return groups, nil
}

// stepEntries maps a "steps" array. Shared by the flat and steps shapes.
func stepEntries(shape Shape, steps any) ([]outline.Entry, error) {
	var entries []outline.Entry
	for si, step := range objects(steps) {
		title := stringField(step, "title")
		if err := requireTitle(shape, "step", si, title); err != nil {
			return nil, err
		}
		entries = append(entries, outline.Entry{
			Title:                   title,
			Description:             stringField(step, "description"),
			DocumentPath:            pathField(step, "file"),
			NotebookPath:            pathField(step, "notebook"),
			RequiresDependencyCheck: boolField(step, "checkdeps"),
		})
	}
	return entries, nil
}

// StepsNormalizer handles the assignment-only form {"title", "steps": [...]}.
// It yields a single group named after the document title.
type StepsNormalizer struct{}

func (n *StepsNormalizer) Normalize(raw any) ([]outline.Group, error) {
	doc, _ := raw.(map[string]any)
	entries, err := stepEntries(ShapeSteps, doc["steps"])
	if err != nil {
		return nil, err
	}
	return []outline.Group{outline.NewGroup(stringField(doc, "title"), "", entries)}, nil
}
