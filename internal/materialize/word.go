package materialize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hyperjump/datawizard/internal/docx"
)

// DefaultFooter is the footer text used when none is configured.
const DefaultFooter = "Dibuat oleh DataWizard"

var (
	headingRe  = regexp.MustCompile(`^(#+)\s*(.*)$`)
	bulletRe   = regexp.MustCompile(`^[\*\-•]\s+(.*)$`)
	numberedRe = regexp.MustCompile(`^\d+[\.\)]\s+(.*)$`)
)

// WriteDocument renders text as a .docx at path and returns the layout used.
func WriteDocument(text, path, footer string) (Layout, error) {
	if err := ensureDir(path); err != nil {
		return LayoutGeneral, err
	}
	doc, layout := BuildDocument(text, footer)
	return layout, doc.Save(path)
}

// BuildDocument classifies text and lays it out. Runs of table lines become tables (or, in
// the biography table layout, bold-label paragraphs); other lines follow the biography or
// general line rules. An empty footer means DefaultFooter.
func BuildDocument(text, footer string) (*docx.Document, Layout) {
	layout := Classify(text).Layout()
	doc := docx.New()
	if footer == "" {
		footer = DefaultFooter
	}
	doc.SetFooter(footer)

	w := &writer{doc: doc, biography: layout == LayoutBiographyTable || layout == LayoutBiographyText}
	for _, seg := range segment(text) {
		switch {
		case seg.table != nil && layout == LayoutBiographyTable:
			w.labelRows(seg.table)
		case seg.table != nil:
			w.table(seg.table)
		default:
			for _, l := range seg.lines {
				w.line(l)
			}
		}
	}
	return doc, layout
}

type segmentT struct {
	lines []string
	table *Table
}

// segment splits text into runs of plain lines and markdown tables. A table is two or more
// consecutive '|' lines whose second line is a separator row.
func segment(text string) []segmentT {
	lines := splitLines(text)
	var out []segmentT
	var plain []string
	flush := func() {
		if len(plain) > 0 {
			out = append(out, segmentT{lines: plain})
			plain = nil
		}
	}
	for i := 0; i < len(lines); {
		j := i
		for j < len(lines) && strings.Contains(lines[j], "|") {
			j++
		}
		if j-i >= 2 && isSeparatorRow(lines[i+1]) {
			t, err := ParseTable(strings.Join(lines[i:j], "\n"), false)
			if err == nil {
				flush()
				out = append(out, segmentT{table: t})
				i = j
				continue
			}
		}
		if j == i {
			j = i + 1
		}
		plain = append(plain, lines[i:j]...)
		i = j
	}
	flush()
	return out
}

type writer struct {
	doc       *docx.Document
	biography bool
	section   string
}

func (w *writer) table(t *Table) {
	rows := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = make([]string, len(r))
		for j, c := range r {
			if strings.HasPrefix(c, "=") {
				c = "Formula: " + c
			}
			rows[i][j] = c
		}
	}
	w.doc.AddTable(t.Header, rows)
}

// labelRows writes each data row as "first cell: remaining cells" with a bold label.
func (w *writer) labelRows(t *Table) {
	for _, r := range t.Rows {
		if len(r) == 0 || strings.TrimSpace(strings.Join(r, "")) == "" {
			continue
		}
		label := strings.TrimSuffix(cleanInline(r[0]), ":")
		var rest []string
		for _, c := range r[1:] {
			if c != "" {
				rest = append(rest, cleanInline(c))
			}
		}
		w.doc.AddParagraph(w.bodyAlign(""), docx.Bold(label+":"), docx.Text(" "+strings.Join(rest, ", ")))
	}
}

func (w *writer) line(raw string) {
	line := strings.TrimSpace(raw)
	if strings.Trim(line, "-*_ ") == "" {
		// blank or a horizontal rule
		return
	}
	if m := headingRe.FindStringSubmatch(line); m != nil {
		title := cleanInline(m[2])
		if title == "" {
			return
		}
		w.doc.AddHeading(title, len(m[1]))
		w.section = strings.ToLower(title)
		return
	}
	if m := bulletRe.FindStringSubmatch(line); m != nil {
		w.doc.AddBullet(w.runs(m[1])...)
		return
	}
	if m := numberedRe.FindStringSubmatch(line); m != nil {
		w.doc.AddNumbered(inlineRuns(m[1])...)
		return
	}
	if w.biography {
		if key, value, ok := keyValue(line); ok {
			w.doc.AddParagraph(w.bodyAlign(line), docx.Bold(key+":"), docx.Text(" "+value))
			return
		}
	}
	if isSubheading(line) {
		title := strings.TrimSuffix(cleanInline(line), ":")
		w.doc.AddHeading(title, 3)
		w.section = strings.ToLower(title)
		return
	}
	w.doc.AddParagraph(w.bodyAlign(line), inlineRuns(line)...)
}

// runs renders bullet text, bolding a short key in biography mode.
func (w *writer) runs(text string) []docx.Run {
	if w.biography {
		if key, value, ok := keyValue(text); ok {
			return []docx.Run{docx.Bold(key + ":"), docx.Text(" " + value)}
		}
	}
	return inlineRuns(text)
}

// bodyAlign justifies biography text inside "latar"/"biografi" sections and, in the general
// layout, any line longer than 100 characters.
func (w *writer) bodyAlign(line string) docx.Align {
	if w.biography {
		if strings.Contains(w.section, "latar") || strings.Contains(w.section, "biografi") {
			return docx.AlignJustify
		}
		return docx.AlignLeft
	}
	if utf8.RuneCountInString(line) > 100 {
		return docx.AlignJustify
	}
	return docx.AlignLeft
}

// keyValue splits "key: value" when the key is under 30 characters and the value is non-empty.
func keyValue(line string) (string, string, bool) {
	line = cleanInline(line)
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", "", false
	}
	key := strings.TrimSpace(line[:idx])
	value := strings.TrimSpace(line[idx+1:])
	if key == "" || value == "" || utf8.RuneCountInString(key) >= 30 {
		return "", "", false
	}
	return key, value, true
}

// isSubheading treats a line as a subheading when it is short (under 50 characters) without a
// terminal period, written in capitals, or ends with a colon.
func isSubheading(line string) bool {
	line = cleanInline(line)
	if strings.HasSuffix(line, ":") {
		return true
	}
	if isAllCaps(line) {
		return true
	}
	return utf8.RuneCountInString(line) < 50 && !strings.HasSuffix(line, ".")
}

func isAllCaps(s string) bool {
	letters := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return letters > 1
}

// inlineRuns turns **bold** spans into bold runs.
func inlineRuns(text string) []docx.Run {
	parts := strings.Split(text, "**")
	if len(parts) == 1 || len(parts)%2 == 0 {
		return []docx.Run{docx.Text(strings.ReplaceAll(text, "**", ""))}
	}
	var runs []docx.Run
	for i, p := range parts {
		if p == "" {
			continue
		}
		if i%2 == 1 {
			runs = append(runs, docx.Bold(p))
		} else {
			runs = append(runs, docx.Text(p))
		}
	}
	return runs
}

func cleanInline(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(s, "**", ""), "__", ""))
}
