package normalize

import (
	"strings"
	"unicode"

	"github.com/dgallion1/guidenav/internal/outline"
)

// NestedNormalizer handles documents of the form
//
//	[{"label", "description", "markdown", "lessons": [{"label", "description", "markdown", "notebook", "actions"}]}]
//
// A module's own "markdown" becomes a leading entry titled with the module
// label, so the intro document is selectable like any lesson.
type NestedNormalizer struct{}

func (n *NestedNormalizer) Normalize(raw any) ([]outline.Group, error) {
	var groups []outline.Group
	for mi, module := range objects(raw) {
		label := stringField(module, "label")
		if err := requireTitle(ShapeNested, "module", mi, label); err != nil {
			return nil, err
		}

		var entries []outline.Entry
		if intro := pathField(module, "markdown"); intro != "" {
			entries = append(entries, outline.Entry{
				Title:        label,
				DocumentPath: intro,
			})
		}
		for li, lesson := range objects(module["lessons"]) {
			title := stringField(lesson, "label")
			if err := requireTitle(ShapeNested, "lesson", li, title); err != nil {
				return nil, err
			}
			entries = append(entries, outline.Entry{
				Title:                   title,
				Description:             stringField(lesson, "description"),
				DocumentPath:            pathField(lesson, "markdown"),
				NotebookPath:            pathField(lesson, "notebook"),
				RequiresDependencyCheck: hasDependencyCheck(lesson["actions"]),
			})
		}
		groups = append(groups, outline.NewGroup(label, stringField(module, "description"), entries))
	}
	return groups, nil
}

// dependencyCheckIDs are canonical action names that request a
// dependency check. Command ids with a namespace prefix
// ("eds-guide.checkDependencies") match by suffix.
var dependencyCheckIDs = []string{"checkdependencies", "checkdeps", "dependencycheck"}

func hasDependencyCheck(actions any) bool {
	items, _ := actions.([]any)
	for _, item := range items {
		switch a := item.(type) {
		case string:
			if isDependencyCheck(a) {
				return true
			}
		case map[string]any:
			for _, key := range []string{"id", "command", "type", "action"} {
				if s, ok := a[key].(string); ok && isDependencyCheck(s) {
					return true
				}
			}
		}
	}
	return false
}

func isDependencyCheck(name string) bool {
	canon := canonicalAction(name)
	if canon == "" {
		return false
	}
	for _, id := range dependencyCheckIDs {
		if strings.HasSuffix(canon, id) {
			return true
		}
	}
	return false
}

// canonicalAction lower-cases and keeps only letters and digits.
func canonicalAction(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
