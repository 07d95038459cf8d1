package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
)

// ClipboardTarget selects the system clipboard instead of a file
const ClipboardTarget = "clipboard"

// Exporter writes result sets to files or the clipboard
type Exporter struct {
	// Dir is where relative file targets are written; empty means the
	// working directory
	Dir string

	copy func(string) error
}

// NewExporter creates an exporter writing relative targets under dir
func NewExporter(dir string) *Exporter {
	return &Exporter{Dir: dir, copy: clipboard.WriteAll}
}

// Export writes columns and rows to target and returns where they went.
// Targets ending in .json are written as JSON, other files as CSV.
func (e *Exporter) Export(target string, columns []string, rows [][]string) (string, error) {
	if target == ClipboardTarget {
		if err := e.copy(ToTSV(columns, rows)); err != nil {
			return "", fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		return ClipboardTarget, nil
	}

	path := target
	if !filepath.IsAbs(path) {
		if !filepath.IsLocal(path) {
			return "", fmt.Errorf("export target %q leaves the export directory", target)
		}
		if e.Dir != "" {
			path = filepath.Join(e.Dir, path)
		}
	}

	var err error
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = ToJSON(columns, rows, path)
	} else {
		err = ToCSV(columns, rows, path)
	}
	if err != nil {
		return "", err
	}
	return path, nil
}

// ToCSV writes a header row followed by the data rows
func ToCSV(columns []string, rows [][]string, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)

	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV file: %w", err)
	}
	return file.Close()
}

// ToJSON writes the rows as an array of objects keyed by column name,
// keeping column order
func ToJSON(columns []string, rows [][]string, path string) error {
	records := make([]orderedRecord, len(rows))
	for i, row := range rows {
		records[i] = orderedRecord{columns: columns, values: row}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal rows to JSON: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	return nil
}

// ToTSV renders columns and rows as tab separated lines
func ToTSV(columns []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString(strings.Join(columns, "\t"))
	for _, row := range rows {
		b.WriteString("\n")
		b.WriteString(strings.Join(row, "\t"))
	}
	return b.String()
}

type orderedRecord struct {
	columns []string
	values  []string
}

func (r orderedRecord) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteString("{")
	for i, col := range r.columns {
		if i > 0 {
			b.WriteString(",")
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		b.Write(key)
		b.WriteString(":")

		if i >= len(r.values) {
			b.WriteString("null")
			continue
		}
		val, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		b.Write(val)
	}
	b.WriteString("}")
	return []byte(b.String()), nil
}
