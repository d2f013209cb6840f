package materialize

import (
	"errors"
	"strings"
)

// Findings columns, in spreadsheet order.
var findingsHeader = []string{"Masalah", "Rekomendasi", "Catatan"}

// ParseFindings collects "Masalah:", "Rekomendasi:" and "Catatan:" lines into records. A
// record is closed by its Catatan line; an unclosed trailing record is dropped. It reports
// false when no record was found.
func ParseFindings(text string) (*Table, bool) {
	t := &Table{Header: findingsHeader}
	current := map[string]string{}
	for _, line := range splitLines(text) {
		line = strings.TrimSpace(line)
		for _, key := range findingsHeader {
			if !strings.HasPrefix(line, key+":") {
				continue
			}
			current[key] = strings.TrimSpace(strings.TrimPrefix(line, key+":"))
			if key == "Catatan" {
				t.Rows = append(t.Rows, []string{current["Masalah"], current["Rekomendasi"], current["Catatan"]})
				current = map[string]string{}
			}
			break
		}
	}
	return t, len(t.Rows) > 0
}

// SpreadsheetTable picks the table to export from a reply: the markdown table when there is
// one, otherwise the findings records. It returns ErrNoTable when neither is present, and
// reports which source was used ("table" or "findings").
func SpreadsheetTable(text string, strict bool) (*Table, string, error) {
	t, err := ParseTable(text, strict)
	if err == nil {
		return t, "table", nil
	}
	if !errors.Is(err, ErrNoTable) {
		return nil, "", err
	}
	if f, ok := ParseFindings(text); ok {
		return f, "findings", nil
	}
	return nil, "", ErrNoTable
}
