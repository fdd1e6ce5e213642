package document

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// csvBatch is the number of data rows per section.
const csvBatch = 20

// CSVParser handles CSV files. The first row is the header; data rows are
// grouped into sections of csvBatch rows.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	doc := &Document{Title: stem(filename), Format: "csv"}
	if len(records) == 0 {
		return doc, nil
	}

	headers := records[0]
	rows := records[1:]
	for i := 0; i < len(rows); i += csvBatch {
		end := min(i+csvBatch, len(rows))

		var text strings.Builder
		for _, row := range rows[i:end] {
			cells := make([]string, len(row))
			for j, cell := range row {
				if j < len(headers) && headers[j] != "" {
					cells[j] = headers[j] + ": " + cell
				} else {
					cells[j] = cell
				}
			}
			text.WriteString(strings.Join(cells, ", "))
			text.WriteString("\n")
		}

		// Row numbers are 1-indexed and count the header line.
		doc.Sections = append(doc.Sections, &Section{
			Title: fmt.Sprintf("Rows %d-%d", i+2, end+1),
			Level: 1,
			Text:  strings.TrimSpace(text.String()),
		})
	}
	return doc, nil
}
