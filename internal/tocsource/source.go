// Package tocsource reads the raw guide documents from a workspace. It only
// does I/O and JSON decoding; interpretation belongs to the normalizer.
package tocsource

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
)

const (
	DefaultGuideDir        = ".guide"
	DefaultTOCFile         = "toc.json"
	DefaultAssignmentsFile = "assignments.json"
)

// ErrNotFound matches any NotFoundError.
var ErrNotFound = errors.New("guide document not found")

// NotFoundError reports that a guide document is absent. This is an
// expected state (no workspace open, guide not scaffolded yet).
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s found", e.Path)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ParseError reports a guide document that exists but is not valid JSON.
type ParseError struct {
	Path   string
	Msg    string
	Line   int
	Column int
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s: line %d, column %d: %s", e.Path, e.Line, e.Column, e.Msg)
	}
	return fmt.Sprintf("parse %s: %s", e.Path, e.Msg)
}

// Config names the guide documents relative to the workspace root.
type Config struct {
	GuideDir        string
	TOCFile         string
	AssignmentsFile string
}

// Source loads guide documents from a workspace filesystem.
type Source struct {
	fsys fs.FS
	cfg  Config
}

// New creates a Source over fsys, normally os.DirFS(workspaceRoot).
func New(fsys fs.FS, cfg Config) *Source {
	if cfg.GuideDir == "" {
		cfg.GuideDir = DefaultGuideDir
	}
	if cfg.TOCFile == "" {
		cfg.TOCFile = DefaultTOCFile
	}
	if cfg.AssignmentsFile == "" {
		cfg.AssignmentsFile = DefaultAssignmentsFile
	}
	return &Source{fsys: fsys, cfg: cfg}
}

// TOCPath is the workspace-relative path of the primary TOC document.
func (s *Source) TOCPath() string {
	return path.Join(s.cfg.GuideDir, s.cfg.TOCFile)
}

// AssignmentsPath is the workspace-relative path of the assignments document.
func (s *Source) AssignmentsPath() string {
	return path.Join(s.cfg.GuideDir, s.cfg.AssignmentsFile)
}

// GuideDir is the workspace-relative guide directory.
func (s *Source) GuideDir() string {
	return s.cfg.GuideDir
}

// LoadTOC reads and decodes the primary TOC document.
func (s *Source) LoadTOC() (any, error) {
	return s.load(s.TOCPath())
}

// LoadAssignments reads and decodes the optional assignments document.
func (s *Source) LoadAssignments() (any, error) {
	return s.load(s.AssignmentsPath())
}

func (s *Source) load(name string) (any, error) {
	if s.fsys == nil {
		return nil, &NotFoundError{Path: name}
	}
	data, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Path: name}
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return Decode(name, data)
}

// Decode parses JSON bytes into a generic value. Syntax errors become a
// ParseError carrying the decoder message and position.
func Decode(name string, data []byte) (any, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&v); err != nil {
		return nil, newParseError(name, data, err)
	}
	// Trailing garbage after the first value is still malformed input.
	if rest := bytes.TrimSpace(data[dec.InputOffset():]); len(rest) > 0 {
		return nil, newParseError(name, data, errors.New("unexpected data after top-level value"))
	}
	return v, nil
}

func newParseError(name string, data []byte, err error) *ParseError {
	pe := &ParseError{Path: name, Msg: err.Error()}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		pe.Line, pe.Column = position(data, syntaxErr.Offset)
	}
	return pe
}

// position converts a byte offset to a 1-based line and column.
func position(data []byte, offset int64) (int, int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	line, col := 1, 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
