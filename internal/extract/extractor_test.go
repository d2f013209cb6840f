package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/hyperjump/datawizard/internal/models"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

// fakeTesseract writes a shell script that echoes stdin back, standing in for the tesseract CLI.
func fakeTesseract(t *testing.T, body string) *TesseractCLI {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script OCR stand-in needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "tesseract")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0700); err != nil {
		t.Fatal(err)
	}
	return &TesseractCLI{Command: path, Languages: "ind+eng"}
}

func TestExtract_plainFile(t *testing.T) {
	path := writeFile(t, "test.txt", []byte("File content"))

	got := NewExtractor(Options{}).Extract(context.Background(), path)
	if got.Text != "File content" {
		t.Errorf("got %q", got.Text)
	}
	if got.Kind != models.KindText || got.Method != MethodPlain {
		t.Errorf("kind/method = %s/%s", got.Kind, got.Method)
	}
	if got.Outcome.Status != models.StatusOK {
		t.Errorf("status = %s", got.Outcome.Status)
	}
}

func TestExtract_plainInvalidUTF8(t *testing.T) {
	path := writeFile(t, "notes.md", []byte("hello\x80world"))
	got := NewExtractor(Options{}).Extract(context.Background(), path)
	if got.Text != "hello\uFFFDworld" {
		t.Errorf("got %q", got.Text)
	}
}

func TestExtract_none(t *testing.T) {
	for _, src := range []string{"", "none", "NONE"} {
		got := NewExtractor(Options{}).Extract(context.Background(), src)
		if got.Text != UnsupportedText || got.Kind != models.KindNone || got.Outcome.Status != models.StatusDegraded {
			t.Errorf("Extract(%q) = %+v", src, got)
		}
	}
}

func TestExtract_unsupported(t *testing.T) {
	path := writeFile(t, "archive.xyz", []byte("raw content"))
	got := NewExtractor(Options{}).Extract(context.Background(), path)
	if got.Text != UnsupportedText {
		t.Errorf("got %q", got.Text)
	}
	if got.Outcome.Status != models.StatusDegraded {
		t.Errorf("status = %s", got.Outcome.Status)
	}
}

func TestExtract_nonexistent(t *testing.T) {
	got := NewExtractor(Options{}).Extract(context.Background(), "/nonexistent/path/file.txt")
	if !strings.HasPrefix(got.Text, "Gagal membaca file: ") {
		t.Errorf("got %q", got.Text)
	}
	if got.Outcome.Status != models.StatusDegraded {
		t.Errorf("status = %s", got.Outcome.Status)
	}
}

func TestExtract_tooLarge(t *testing.T) {
	path := writeFile(t, "big.txt", bytes.Repeat([]byte("a"), 64))
	got := NewExtractor(Options{MaxFileSize: 10}).Extract(context.Background(), path)
	if !strings.Contains(got.Text, "file too large") {
		t.Errorf("got %q", got.Text)
	}
}

func TestExtract_excelFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.xlsx")
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "Nama")
	f.SetCellValue("Sheet1", "B1", "Nilai")
	f.SetCellValue("Sheet1", "A2", "Ani")
	f.SetCellValue("Sheet1", "B2", 90)
	f.SetCellValue("Sheet1", "A3", "Budi")
	f.SetCellValue("Sheet1", "B3", 100)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	f.Close()

	got := NewExtractor(Options{}).Extract(context.Background(), path)
	want := "Nama Nilai\n Ani    90\nBudi   100"
	if got.Text != want {
		t.Errorf("got\n%s\nwant\n%s", got.Text, want)
	}
	if got.Method != MethodTable {
		t.Errorf("method = %s", got.Method)
	}
}

func TestExtract_excelOnlyFirstSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "two.xlsx")
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "first")
	if _, err := f.NewSheet("Other"); err != nil {
		t.Fatal(err)
	}
	f.SetCellValue("Other", "A1", "second")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	got := NewExtractor(Options{}).Extract(context.Background(), path)
	if got.Text != "first" {
		t.Errorf("got %q", got.Text)
	}
}

func TestExtract_csvSampling(t *testing.T) {
	var b strings.Builder
	b.WriteString("id\n")
	for i := 0; i < 35; i++ {
		fmt.Fprintf(&b, "r%d\n", i)
	}
	path := writeFile(t, "rows.csv", []byte(b.String()))

	got := NewExtractor(Options{}).Extract(context.Background(), path)
	lines := strings.Split(got.Text, "\n")
	if len(lines) != 31 {
		t.Fatalf("got %d lines, want 31 (header + 30)", len(lines))
	}
	kept := map[string]bool{}
	for _, l := range lines[1:] {
		kept[strings.TrimSpace(l)] = true
	}
	for _, want := range []string{"r0", "r9", "r11", "r20", "r25", "r34"} {
		if !kept[want] {
			t.Errorf("row %s missing", want)
		}
	}
	for _, skip := range []string{"r10", "r21", "r24"} {
		if kept[skip] {
			t.Errorf("row %s should be sampled out", skip)
		}
	}
}

func TestExtract_csvShortRows(t *testing.T) {
	path := writeFile(t, "ragged.csv", []byte("\xef\xbb\xbfa,b,c\n1\n2,3\n"))
	got := NewExtractor(Options{}).Extract(context.Background(), path)
	want := "a b c\n1    \n2 3  "
	if got.Text != want {
		t.Errorf("got %q, want %q", got.Text, want)
	}
}

// minimalDocx returns a minimal .docx zip with one <w:p> per paragraph.
func minimalDocx(paragraphs ...string) []byte {
	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString(`<w:p w:rsidR="00A1"><w:r><w:t xml:space="preserve">` + p + `</w:t></w:r></w:p>`)
	}
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("word/document.xml")
	_, _ = fw.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body.String() + `</w:body></w:document>`))
	_ = w.Close()
	return buf.Bytes()
}

// minimalDocxWithContentTypes returns a .docx zip with [Content_Types].xml pointing to a custom document path.
func minimalDocxWithContentTypes(text, docPath string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	ct, _ := w.Create("[Content_Types].xml")
	_, _ = ct.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Override PartName="/` + docPath + `" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`))
	fw, _ := w.Create(docPath)
	_, _ = fw.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>` + text + `</w:t></w:r></w:p></w:body></w:document>`))
	_ = w.Close()
	return buf.Bytes()
}

func TestExtract_docxParagraphs(t *testing.T) {
	path := writeFile(t, "cv.docx", minimalDocx("Budi Santoso", "", "Lahir di Bandung &amp; besar di Jakarta"))
	got := NewExtractor(Options{}).Extract(context.Background(), path)
	want := "Budi Santoso\nLahir di Bandung & besar di Jakarta"
	if got.Text != want {
		t.Errorf("got %q, want %q", got.Text, want)
	}
	if got.Kind != models.KindWord || got.Method != MethodParagraphs {
		t.Errorf("kind/method = %s/%s", got.Kind, got.Method)
	}
}

func TestExtract_docxRunsJoined(t *testing.T) {
	doc := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		`<w:p><w:r><w:t>Nama</w:t></w:r><w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">: Ani</w:t></w:r></w:p>` +
		`</w:body></w:document>`
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("word/document.xml")
	_, _ = fw.Write([]byte(doc))
	_ = w.Close()

	path := writeFile(t, "runs.docx", buf.Bytes())
	got := NewExtractor(Options{}).Extract(context.Background(), path)
	if got.Text != "Nama: Ani" {
		t.Errorf("got %q", got.Text)
	}
}

func TestExtract_docxWithDocument2(t *testing.T) {
	path := writeFile(t, "alt.docx", minimalDocxWithContentTypes("Content from document2", "word/document2.xml"))
	got := NewExtractor(Options{}).Extract(context.Background(), path)
	if got.Text != "Content from document2" {
		t.Errorf("got %q", got.Text)
	}
}

func TestExtract_docxContentTypesReversedOrder(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	ct, _ := w.Create("[Content_Types].xml")
	_, _ = ct.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Override ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml" PartName="/word/document3.xml"/>
</Types>`))
	fw, _ := w.Create("word/document3.xml")
	_, _ = fw.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>Reversed order test</w:t></w:r></w:p></w:body></w:document>`))
	_ = w.Close()

	path := writeFile(t, "rev.docx", buf.Bytes())
	got := NewExtractor(Options{}).Extract(context.Background(), path)
	if got.Text != "Reversed order test" {
		t.Errorf("got %q", got.Text)
	}
}

func TestExtract_docxSampled(t *testing.T) {
	var ps []string
	for i := 0; i < 40; i++ {
		ps = append(ps, fmt.Sprintf("p%d", i))
	}
	path := writeFile(t, "long.docx", minimalDocx(ps...))

	got := NewExtractor(Options{DocxStrategy: DocxSampled, SampleParagraphs: 2}).Extract(context.Background(), path)
	want := "p0\np1\np13\np14\np38\np39"
	if got.Text != want {
		t.Errorf("got %q, want %q", got.Text, want)
	}

	all := NewExtractor(Options{}).Extract(context.Background(), path)
	if n := len(strings.Split(all.Text, "\n")); n != 40 {
		t.Errorf("strategy all kept %d paragraphs, want 40", n)
	}
}

func TestExtract_docxNotZip(t *testing.T) {
	path := writeFile(t, "broken.docx", []byte("not a zip"))
	got := NewExtractor(Options{}).Extract(context.Background(), path)
	if !strings.HasPrefix(got.Text, "Gagal membaca file: ") || got.Outcome.Status != models.StatusDegraded {
		t.Errorf("got %+v", got)
	}
}

func TestExtract_pdfInvalid(t *testing.T) {
	path := writeFile(t, "broken.pdf", []byte("%PDF-nope"))
	got := NewExtractor(Options{}).Extract(context.Background(), path)
	if !strings.HasPrefix(got.Text, "Gagal membaca file: ") {
		t.Errorf("got %q", got.Text)
	}
	if got.Kind != models.KindPDF || got.Outcome.Status != models.StatusDegraded {
		t.Errorf("got %+v", got)
	}
}

func TestExtract_imageOCR(t *testing.T) {
	ocr := fakeTesseract(t, "cat")
	path := writeFile(t, "scan.png", []byte("l1\n\nl2\nl3\nl4\nl5\nl6\n"))

	got := NewExtractor(Options{}, WithOCR(ocr)).Extract(context.Background(), path)
	if got.Text != "l1\nl3\nl5" {
		t.Errorf("got %q", got.Text)
	}
	if got.Method != MethodImageOCR || got.Outcome.Status != models.StatusOK {
		t.Errorf("got %+v", got)
	}

	viaOCR := NewExtractor(Options{}, WithOCR(ocr)).ExtractOCR(context.Background(), path)
	if viaOCR.Text != got.Text {
		t.Errorf("ExtractOCR = %q, Extract = %q", viaOCR.Text, got.Text)
	}
}

func TestExtract_imageOCRFailure(t *testing.T) {
	ocr := fakeTesseract(t, "echo 'Error opening data file' >&2; exit 1")
	path := writeFile(t, "scan.jpg", []byte("img"))

	got := NewExtractor(Options{}, WithOCR(ocr)).Extract(context.Background(), path)
	if !strings.HasPrefix(got.Text, "Gagal membaca file: ") || !strings.Contains(got.Text, "Error opening data file") {
		t.Errorf("got %q", got.Text)
	}
}

func TestExtract_imageWithoutOCR(t *testing.T) {
	path := writeFile(t, "scan.png", []byte("img"))
	got := NewExtractor(Options{}).Extract(context.Background(), path)
	if got.Outcome.Status != models.StatusDegraded || !strings.Contains(got.Text, ErrOCRDisabled.Error()) {
		t.Errorf("got %+v", got)
	}
}

func TestExtractOCR_fallsBackForText(t *testing.T) {
	path := writeFile(t, "plain.txt", []byte("just text"))
	got := NewExtractor(Options{}).ExtractOCR(context.Background(), path)
	if got.Text != "just text" {
		t.Errorf("got %q", got.Text)
	}
}

func TestNewOCR(t *testing.T) {
	tests := []struct {
		engine  string
		wantErr bool
	}{
		{"", false},
		{"tesseract", false},
		{"Tesseract", false},
		{"none", false},
		{"abbyy", true},
	}
	for _, tt := range tests {
		t.Run(tt.engine, func(t *testing.T) {
			_, err := NewOCR(tt.engine, "", "eng")
			if (err != nil) != tt.wantErr {
				t.Errorf("NewOCR(%q) err = %v, wantErr %v", tt.engine, err, tt.wantErr)
			}
		})
	}
}

func TestNewOCR_defaultCommand(t *testing.T) {
	o, err := NewOCR("tesseract", "", "ind")
	if err != nil {
		t.Fatal(err)
	}
	cli, ok := o.(*TesseractCLI)
	if !ok || cli.Command != "tesseract" || cli.Languages != "ind" {
		t.Errorf("got %#v", o)
	}
}

func TestExtract_plainNormalizesText(t *testing.T) {
	path := writeFile(t, "bom.txt", []byte("\xEF\xBB\xBFbaris satu\r\nbaris dua\r\n"))
	got := NewExtractor(Options{}).Extract(context.Background(), path)
	if got.Text != "baris satu\nbaris dua" {
		t.Errorf("got %q", got.Text)
	}
}
