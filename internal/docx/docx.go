// Package docx writes minimal WordprocessingML (.docx) documents: headings, paragraphs with
// bold runs, bullet and numbered lists, tables, and a centered footer.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// Align is a paragraph justification value.
type Align string

const (
	AlignLeft    Align = ""
	AlignCenter  Align = "center"
	AlignJustify Align = "both"
)

// Numbering instance ids declared in numbering.xml.
const (
	numBullet  = 1
	numDecimal = 2
)

// Run is a span of text with uniform formatting.
type Run struct {
	Text string
	Bold bool
}

// Text returns a plain run.
func Text(s string) Run { return Run{Text: s} }

// Bold returns a bold run.
func Bold(s string) Run { return Run{Text: s, Bold: true} }

// BlockKind identifies the type of a body block.
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockHeading
	BlockBullet
	BlockNumbered
	BlockTable
)

// Block is one body element. Level is set for headings; Header and Rows for tables.
type Block struct {
	Kind   BlockKind
	Level  int
	Align  Align
	Runs   []Run
	Header []string
	Rows   [][]string
}

// PlainText returns the concatenated run text.
func (b Block) PlainText() string {
	var s string
	for _, r := range b.Runs {
		s += r.Text
	}
	return s
}

// Document is an in-memory document built block by block.
type Document struct {
	body   []Block
	footer string
}

// New returns an empty document.
func New() *Document {
	return &Document{}
}

// AddHeading appends a heading. Levels are clamped to 1..3.
func (d *Document) AddHeading(text string, level int) {
	if level < 1 {
		level = 1
	}
	if level > 3 {
		level = 3
	}
	d.body = append(d.body, Block{Kind: BlockHeading, Level: level, Runs: []Run{Text(text)}})
}

// AddParagraph appends a body paragraph.
func (d *Document) AddParagraph(align Align, runs ...Run) {
	d.body = append(d.body, Block{Kind: BlockParagraph, Align: align, Runs: runs})
}

// AddBullet appends a bulleted list item.
func (d *Document) AddBullet(runs ...Run) {
	d.body = append(d.body, Block{Kind: BlockBullet, Runs: runs})
}

// AddNumbered appends a numbered list item.
func (d *Document) AddNumbered(runs ...Run) {
	d.body = append(d.body, Block{Kind: BlockNumbered, Runs: runs})
}

// AddTable appends a bordered table whose header row is bold and centered.
// Short rows are padded to the widest row.
func (d *Document) AddTable(header []string, rows [][]string) {
	d.body = append(d.body, Block{Kind: BlockTable, Header: header, Rows: rows})
}

// SetFooter sets the centered footer text shown on every page.
func (d *Document) SetFooter(text string) {
	d.footer = text
}

// Footer returns the footer text.
func (d *Document) Footer() string {
	return d.footer
}

// Blocks returns the body blocks in order.
func (d *Document) Blocks() []Block {
	return d.body
}

// Save writes the document to path, creating parent directories.
func (d *Document) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := d.Write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Write writes the .docx package to w.
func (d *Document) Write(w io.Writer) error {
	zw := zip.NewWriter(w)
	parts := []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(rootRelsXML)},
		{"word/_rels/document.xml.rels", []byte(documentRelsXML)},
		{"word/document.xml", d.documentXML()},
		{"word/styles.xml", []byte(stylesXML)},
		{"word/numbering.xml", []byte(numberingXML)},
		{"word/footer1.xml", d.footerXML()},
	}
	for _, p := range parts {
		fw, err := zw.Create(p.name)
		if err != nil {
			return fmt.Errorf("create part %s: %w", p.name, err)
		}
		if _, err := fw.Write(p.data); err != nil {
			return fmt.Errorf("write part %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close docx: %w", err)
	}
	return nil
}

func (d *Document) documentXML() []byte {
	var b bytes.Buffer
	b.WriteString(xml.Header)
	b.WriteString(`<w:document xmlns:w="` + nsW + `" xmlns:r="` + nsR + `"><w:body>`)
	for _, blk := range d.body {
		writeBlock(&b, blk)
	}
	b.WriteString(`<w:sectPr><w:footerReference w:type="default" r:id="rId3"/>`)
	b.WriteString(`<w:pgSz w:w="11906" w:h="16838"/>`)
	b.WriteString(`<w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440" w:header="708" w:footer="708" w:gutter="0"/>`)
	b.WriteString(`</w:sectPr></w:body></w:document>`)
	return b.Bytes()
}

func (d *Document) footerXML() []byte {
	var b bytes.Buffer
	b.WriteString(xml.Header)
	b.WriteString(`<w:ftr xmlns:w="` + nsW + `" xmlns:r="` + nsR + `">`)
	writeParagraph(&b, "Footer", AlignCenter, 0, []Run{Text(d.footer)})
	b.WriteString(`</w:ftr>`)
	return b.Bytes()
}

func writeBlock(b *bytes.Buffer, blk Block) {
	switch blk.Kind {
	case BlockHeading:
		writeParagraph(b, "Heading"+strconv.Itoa(blk.Level), AlignLeft, 0, blk.Runs)
	case BlockBullet:
		writeParagraph(b, "ListBullet", AlignLeft, numBullet, blk.Runs)
	case BlockNumbered:
		writeParagraph(b, "ListNumber", AlignLeft, numDecimal, blk.Runs)
	case BlockTable:
		writeTable(b, blk.Header, blk.Rows)
	default:
		writeParagraph(b, "", blk.Align, 0, blk.Runs)
	}
}

func writeParagraph(b *bytes.Buffer, style string, align Align, numID int, runs []Run) {
	b.WriteString(`<w:p>`)
	if style != "" || align != AlignLeft || numID != 0 {
		b.WriteString(`<w:pPr>`)
		if style != "" {
			b.WriteString(`<w:pStyle w:val="` + style + `"/>`)
		}
		if numID != 0 {
			b.WriteString(`<w:numPr><w:ilvl w:val="0"/><w:numId w:val="` + strconv.Itoa(numID) + `"/></w:numPr>`)
		}
		if align != AlignLeft {
			b.WriteString(`<w:jc w:val="` + string(align) + `"/>`)
		}
		b.WriteString(`</w:pPr>`)
	}
	for _, r := range runs {
		writeRun(b, r)
	}
	b.WriteString(`</w:p>`)
}

func writeRun(b *bytes.Buffer, r Run) {
	if r.Text == "" {
		return
	}
	b.WriteString(`<w:r>`)
	if r.Bold {
		b.WriteString(`<w:rPr><w:b/></w:rPr>`)
	}
	b.WriteString(`<w:t xml:space="preserve">`)
	_ = xml.EscapeText(b, []byte(r.Text))
	b.WriteString(`</w:t></w:r>`)
}

func writeTable(b *bytes.Buffer, header []string, rows [][]string) {
	cols := len(header)
	for _, r := range rows {
		if len(r) > cols {
			cols = len(r)
		}
	}
	if cols == 0 {
		return
	}
	b.WriteString(`<w:tbl><w:tblPr><w:tblStyle w:val="TableGrid"/><w:tblW w:w="5000" w:type="pct"/></w:tblPr><w:tblGrid>`)
	for i := 0; i < cols; i++ {
		b.WriteString(`<w:gridCol/>`)
	}
	b.WriteString(`</w:tblGrid>`)
	writeRow(b, header, cols, true)
	for _, r := range rows {
		writeRow(b, r, cols, false)
	}
	b.WriteString(`</w:tbl>`)
}

func writeRow(b *bytes.Buffer, cells []string, cols int, header bool) {
	b.WriteString(`<w:tr>`)
	if header {
		b.WriteString(`<w:trPr><w:tblHeader/></w:trPr>`)
	}
	for i := 0; i < cols; i++ {
		text := ""
		if i < len(cells) {
			text = cells[i]
		}
		b.WriteString(`<w:tc><w:tcPr><w:tcW w:w="0" w:type="auto"/></w:tcPr>`)
		align := AlignLeft
		if header {
			align = AlignCenter
		}
		writeParagraph(b, "", align, 0, []Run{{Text: text, Bold: header}})
		b.WriteString(`</w:tc>`)
	}
	b.WriteString(`</w:tr>`)
}
