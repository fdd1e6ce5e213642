// Package notebook reads Jupyter notebooks for preview. Notebooks are
// never executed here.
package notebook

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"strings"
)

// Cell is one notebook cell.
type Cell struct {
	Type   string `json:"type"` // "markdown", "code" or "raw"
	Source string `json:"source"`
	// Outputs holds the plain-text outputs of a code cell.
	Outputs []string `json:"outputs,omitempty"`
}

// Notebook is the previewable content of an .ipynb file.
type Notebook struct {
	Kernel   string `json:"kernel,omitempty"`
	Language string `json:"language,omitempty"`
	Cells    []Cell `json:"cells"`
}

// Counts returns the number of cells per type.
func (n *Notebook) Counts() map[string]int {
	out := make(map[string]int)
	for _, c := range n.Cells {
		out[c.Type]++
	}
	return out
}

// Summary describes the notebook in one line, e.g.
// "12 cells (7 code, 5 markdown), kernel python3".
func (n *Notebook) Summary() string {
	counts := n.Counts()
	var parts []string
	for _, t := range []string{"code", "markdown", "raw"} {
		if counts[t] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[t], t))
		}
	}
	s := fmt.Sprintf("%d cells", len(n.Cells))
	if len(parts) > 0 {
		s += " (" + strings.Join(parts, ", ") + ")"
	}
	if n.Kernel != "" {
		s += ", kernel " + n.Kernel
	}
	return s
}

// multiline is the nbformat string encoding: a string or a list of lines.
type multiline string

func (m *multiline) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*m = multiline(s)
		return nil
	}
	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return fmt.Errorf("expected string or list of strings: %w", err)
	}
	*m = multiline(strings.Join(lines, ""))
	return nil
}

type rawNotebook struct {
	Metadata struct {
		Kernelspec struct {
			Name        string `json:"name"`
			DisplayName string `json:"display_name"`
			Language    string `json:"language"`
		} `json:"kernelspec"`
		LanguageInfo struct {
			Name string `json:"name"`
		} `json:"language_info"`
	} `json:"metadata"`
	Cells []struct {
		CellType string    `json:"cell_type"`
		Source   multiline `json:"source"`
		Outputs  []struct {
			OutputType string                     `json:"output_type"`
			Text       multiline                  `json:"text"`
			Data       map[string]json.RawMessage `json:"data"`
			EName      string                     `json:"ename"`
			EValue     string                     `json:"evalue"`
		} `json:"outputs"`
	} `json:"cells"`
}

// Parse decodes an nbformat 4 notebook.
func Parse(r io.Reader) (*Notebook, error) {
	var raw rawNotebook
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode notebook: %w", err)
	}

	nb := &Notebook{
		Kernel:   raw.Metadata.Kernelspec.Name,
		Language: raw.Metadata.LanguageInfo.Name,
	}
	if nb.Language == "" {
		nb.Language = raw.Metadata.Kernelspec.Language
	}

	for _, rc := range raw.Cells {
		cell := Cell{Type: rc.CellType, Source: string(rc.Source)}
		for _, out := range rc.Outputs {
			switch out.OutputType {
			case "stream":
				cell.Outputs = append(cell.Outputs, string(out.Text))
			case "execute_result", "display_data":
				var text multiline
				if data, ok := out.Data["text/plain"]; ok && json.Unmarshal(data, &text) == nil {
					cell.Outputs = append(cell.Outputs, string(text))
				}
			case "error":
				cell.Outputs = append(cell.Outputs, out.EName+": "+out.EValue)
			}
		}
		nb.Cells = append(nb.Cells, cell)
	}
	return nb, nil
}

// Load reads a workspace-relative notebook.
func Load(fsys fs.FS, name string) (*Notebook, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	nb, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return nb, nil
}
