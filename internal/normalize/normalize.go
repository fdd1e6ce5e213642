// Package normalize turns a decoded guide document into the canonical
// outline. Two document shapes are recognized, detected structurally:
//
//   - flat: an object with a "categories" array of titled steps
//   - nested: a top-level array of modules with lessons
//
// Anything else is rejected with an UnrecognizedSchemaError; a partial tree
// is never returned.
package normalize

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/dgallion1/guidenav/internal/outline"
	"github.com/dgallion1/guidenav/internal/resolver"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Shape identifies a recognized TOC layout.
type Shape string

const (
	ShapeUnknown Shape = ""
	ShapeFlat    Shape = "flat"
	ShapeNested  Shape = "nested"
	// ShapeSteps is the assignment-only form: an object with a "steps" array.
	ShapeSteps Shape = "steps"
)

// UnrecognizedSchemaError reports a well-formed JSON document that does not
// match any recognized shape.
type UnrecognizedSchemaError struct {
	Shape  Shape
	Reason string
}

func (e *UnrecognizedSchemaError) Error() string {
	if e.Shape == ShapeUnknown {
		return "unrecognized guide schema: " + e.Reason
	}
	return fmt.Sprintf("unrecognized guide schema (%s): %s", e.Shape, e.Reason)
}

// ShapeNormalizer converts one shape into outline groups.
type ShapeNormalizer interface {
	Normalize(raw any) ([]outline.Group, error)
}

// Detect returns the shape of a decoded document without validating it.
func Detect(raw any) Shape {
	switch v := raw.(type) {
	case map[string]any:
		if _, ok := v["categories"]; ok {
			return ShapeFlat
		}
	case []any:
		return ShapeNested
	}
	return ShapeUnknown
}

// ForShape returns the normalizer for a shape.
func ForShape(s Shape) (ShapeNormalizer, error) {
	switch s {
	case ShapeFlat:
		return &FlatNormalizer{}, nil
	case ShapeNested:
		return &NestedNormalizer{}, nil
	case ShapeSteps:
		return &StepsNormalizer{}, nil
	default:
		return nil, &UnrecognizedSchemaError{Reason: "expected an object with \"categories\" or a top-level array of modules"}
	}
}

// Normalize detects the document shape, validates it and builds the tree.
func Normalize(raw any) (*outline.Tree, error) {
	shape := Detect(raw)
	n, err := ForShape(shape)
	if err != nil {
		return nil, err
	}
	if err := validate(shape, raw); err != nil {
		return nil, err
	}
	groups, err := n.Normalize(raw)
	if err != nil {
		return nil, err
	}
	return outline.NewTree(groups...), nil
}

// DefaultAssignmentsTitle labels the assignments group when the document
// carries no title of its own.
const DefaultAssignmentsTitle = "Assignments"

// NormalizeAssignments flattens an assignments document into a single
// group. Besides the two TOC shapes it accepts an object with a top-level
// "steps" array. The group is titled from the document's "title" field, or
// fallbackTitle when absent.
func NormalizeAssignments(raw any, fallbackTitle string) (outline.Group, error) {
	if fallbackTitle == "" {
		fallbackTitle = DefaultAssignmentsTitle
	}

	shape := Detect(raw)
	title := fallbackTitle
	if m, ok := raw.(map[string]any); ok {
		if shape == ShapeUnknown {
			if _, ok := m["steps"]; ok {
				shape = ShapeSteps
			}
		}
		if t := stringField(m, "title"); t != "" {
			title = t
		}
	}

	n, err := ForShape(shape)
	if err != nil {
		return outline.Group{}, err
	}
	if err := validate(shape, raw); err != nil {
		return outline.Group{}, err
	}
	groups, err := n.Normalize(raw)
	if err != nil {
		return outline.Group{}, err
	}

	var entries []outline.Entry
	for _, g := range groups {
		entries = append(entries, g.Entries()...)
	}
	return outline.NewGroup(title, "", entries), nil
}

// Build normalizes the primary document and appends the assignments group
// when one is present and well-formed. A nil assignments value means the
// document is absent. A malformed assignments document is silently omitted.
func Build(toc, assignments any, fallbackTitle string) (*outline.Tree, error) {
	tree, err := Normalize(toc)
	if err != nil {
		return nil, err
	}
	if assignments == nil {
		return tree, nil
	}
	group, err := NormalizeAssignments(assignments, fallbackTitle)
	if err != nil {
		return tree, nil
	}
	return outline.NewTree(append(tree.Groups(), group)...), nil
}

var schemaFiles = map[Shape]string{
	ShapeFlat:   "schemas/flat.json",
	ShapeNested: "schemas/nested.json",
	ShapeSteps:  "schemas/steps.json",
}

var (
	schemasOnce sync.Once
	schemas     map[Shape]*jsonschema.Schema
	schemasErr  error
)

func compileSchemas() (map[Shape]*jsonschema.Schema, error) {
	schemasOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		for _, name := range schemaFiles {
			data, err := schemaFS.ReadFile(name)
			if err != nil {
				schemasErr = fmt.Errorf("read schema %s: %w", name, err)
				return
			}
			if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
				schemasErr = fmt.Errorf("load schema %s: %w", name, err)
				return
			}
		}
		compiled := make(map[Shape]*jsonschema.Schema, len(schemaFiles))
		for shape, name := range schemaFiles {
			s, err := compiler.Compile(name)
			if err != nil {
				schemasErr = fmt.Errorf("compile schema %s: %w", name, err)
				return
			}
			compiled[shape] = s
		}
		schemas = compiled
	})
	return schemas, schemasErr
}

func validate(shape Shape, raw any) error {
	compiled, err := compileSchemas()
	if err != nil {
		return err
	}
	schema, ok := compiled[shape]
	if !ok {
		return &UnrecognizedSchemaError{Shape: shape, Reason: "no schema registered"}
	}
	if err := schema.Validate(raw); err != nil {
		return &UnrecognizedSchemaError{Shape: shape, Reason: validationReason(err)}
	}
	return nil
}

// validationReason flattens a jsonschema error into its most specific
// causes, e.g. "/categories/0: missing properties: 'title'".
func validationReason(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	var leaves []string
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			leaves = append(leaves, loc+": "+e.Message)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return strings.Join(leaves, "; ")
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

// pathField reads a workspace-relative path and cleans it lexically.
func pathField(m map[string]any, key string) string {
	return resolver.CleanPath(stringField(m, key))
}

func boolField(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func objects(v any) []map[string]any {
	items, _ := v.([]any)
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func requireTitle(shape Shape, kind string, index int, title string) error {
	if title == "" {
		return &UnrecognizedSchemaError{Shape: shape, Reason: fmt.Sprintf("%s %d has an empty title", kind, index)}
	}
	return nil
}
