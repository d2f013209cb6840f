package materialize

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoTable means the reply holds fewer than two pipe-bearing lines.
	ErrNoTable = errors.New("no markdown table in reply")
	// ErrColumnMismatch is returned in strict mode when a row's cell count differs from the header's.
	ErrColumnMismatch = errors.New("row cell count does not match header")
)

// Table is a header row plus data rows, all cells trimmed.
type Table struct {
	Header []string
	Rows   [][]string
}

// ParseTable collects every line containing '|'. The first such line is the header and the
// second is taken as the separator; data rows start at the third. Later separator-only lines
// are skipped. With strict set, rows whose cell count differs from the header fail with
// ErrColumnMismatch; otherwise ragged rows are kept as they are.
func ParseTable(text string, strict bool) (*Table, error) {
	var lines []string
	for _, l := range splitLines(text) {
		if strings.Contains(l, "|") {
			lines = append(lines, l)
		}
	}
	if len(lines) < 2 {
		return nil, ErrNoTable
	}
	t := &Table{Header: splitRow(lines[0])}
	for i, l := range lines[2:] {
		if isSeparatorRow(l) {
			continue
		}
		row := splitRow(l)
		if strict && len(row) != len(t.Header) {
			return nil, fmt.Errorf("%w: row %d has %d cells, header has %d", ErrColumnMismatch, i+1, len(row), len(t.Header))
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func splitRow(line string) []string {
	line = strings.Trim(strings.TrimSpace(line), "|")
	cells := strings.Split(line, "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

// isSeparatorRow reports whether line is a markdown table separator such as |---|:--:|.
func isSeparatorRow(line string) bool {
	line = strings.TrimSpace(line)
	if !strings.Contains(line, "|") || !strings.Contains(line, "-") {
		return false
	}
	return strings.Trim(line, "|-: \t") == ""
}

func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}
