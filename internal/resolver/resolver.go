// Package resolver decides what a selected outline entry opens. Resolution
// is pure: no I/O and no failure mode.
package resolver

import (
	"fmt"
	"io/fs"
	"path"

	"github.com/dgallion1/guidenav/internal/outline"
)

// Kind is the type of a content action.
type Kind int

const (
	NoOp Kind = iota
	OpenDocument
	OpenNotebook
	RunDependencyCheck
)

func (k Kind) String() string {
	switch k {
	case NoOp:
		return "noop"
	case OpenDocument:
		return "open_document"
	case OpenNotebook:
		return "open_notebook"
	case RunDependencyCheck:
		return "run_dependency_check"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText lets Kind serialize by name in JSON and YAML.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Action is a side-effect-free description of what to open or run.
type Action struct {
	Kind Kind   `json:"kind" yaml:"kind"`
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// Selection is a resolved entry together with its actions, in dispatch order.
type Selection struct {
	Ref     outline.Ref   `json:"ref" yaml:"ref"`
	Entry   outline.Entry `json:"entry" yaml:"entry"`
	Actions []Action      `json:"actions" yaml:"actions"`
}

// Resolve maps an entry to its actions. A notebook takes precedence over a
// document; an entry with neither resolves to NoOp. A flagged dependency
// check is appended after the content action.
func Resolve(entry outline.Entry) []Action {
	var content Action
	switch {
	case entry.NotebookPath != "":
		content = Action{Kind: OpenNotebook, Path: CleanPath(entry.NotebookPath)}
	case entry.DocumentPath != "":
		content = Action{Kind: OpenDocument, Path: CleanPath(entry.DocumentPath)}
	default:
		content = Action{Kind: NoOp}
	}

	actions := []Action{content}
	if entry.RequiresDependencyCheck {
		actions = append(actions, Action{Kind: RunDependencyCheck})
	}
	return actions
}

// Select resolves the entry at ref.
func Select(ref outline.Ref, entry outline.Entry) Selection {
	return Selection{Ref: ref, Entry: entry, Actions: Resolve(entry)}
}

// InvalidActionError reports an action that is not well-formed.
type InvalidActionError struct {
	Action Action
	Reason string
}

func (e *InvalidActionError) Error() string {
	if e.Action.Path == "" {
		return fmt.Sprintf("invalid %s action: %s", e.Action.Kind, e.Reason)
	}
	return fmt.Sprintf("invalid %s action %q: %s", e.Action.Kind, e.Action.Path, e.Reason)
}

// CleanPath lexically normalizes a workspace-relative path, so "./a.md"
// and "w1/../a.md" both become "a.md". Empty stays empty.
func CleanPath(p string) string {
	if p == "" {
		return ""
	}
	return path.Clean(p)
}

// Validate checks that an action is well-formed before dispatch. Open
// actions need a slash-separated path that, once cleaned, is relative and
// stays inside the workspace.
func Validate(a Action) error {
	switch a.Kind {
	case OpenDocument, OpenNotebook:
		if a.Path == "" {
			return &InvalidActionError{Action: a, Reason: "empty path"}
		}
		if !fs.ValidPath(CleanPath(a.Path)) {
			return &InvalidActionError{Action: a, Reason: "path must be relative to the workspace"}
		}
		return nil
	case NoOp, RunDependencyCheck:
		if a.Path != "" {
			return &InvalidActionError{Action: a, Reason: "takes no path"}
		}
		return nil
	}
	return &InvalidActionError{Action: a, Reason: "unknown action kind"}
}
