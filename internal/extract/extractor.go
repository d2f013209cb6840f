// Package extract turns source documents into bounded text snippets suitable for prompting.
package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/datawizard/internal/models"
	"go.uber.org/zap"
)

// UnsupportedText is the snippet produced for files whose extension has no extractor.
const UnsupportedText = "Unsupported file type."

// Extraction methods reported in Result.Method.
const (
	MethodNone       = "none"
	MethodTable      = "table"
	MethodParagraphs = "paragraphs"
	MethodPDFText    = "pdf-text"
	MethodPDFOCR     = "pdf-ocr"
	MethodImageOCR   = "image-ocr"
	MethodPlain      = "plain"
)

// DocxStrategy values.
const (
	DocxAll     = "all"
	DocxSampled = "sampled"
)

// Result is the snippet extracted from one source document. Extraction never fails
// with a Go error: problems are reported as sentinel text plus a degraded Outcome.
type Result struct {
	Text    string
	Kind    models.Kind
	Method  string
	Outcome models.Outcome
}

// Options tunes snippet extraction. Zero values take the defaults noted per field.
type Options struct {
	SampleRows       int    // rows kept per head/middle/tail slice (10)
	SampleParagraphs int    // paragraphs kept per slice with DocxSampled (10)
	DocxStrategy     string // DocxAll or DocxSampled (DocxAll)
	SnippetParts     int    // lines kept by SmartSnippet for PDF and images (3)
	MinPDFText       int    // below this many characters a PDF is OCRed (100)
	MaxFileSize      int64  // larger files are rejected (100 MB)
}

func (o *Options) defaults() {
	if o.SampleRows <= 0 {
		o.SampleRows = 10
	}
	if o.SampleParagraphs <= 0 {
		o.SampleParagraphs = 10
	}
	if o.DocxStrategy == "" {
		o.DocxStrategy = DocxAll
	}
	if o.SnippetParts <= 0 {
		o.SnippetParts = 3
	}
	if o.MinPDFText <= 0 {
		o.MinPDFText = 100
	}
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = 100 * 1024 * 1024
	}
}

// Extractor extracts snippets from document files.
type Extractor struct {
	opts   Options
	ocr    OCR
	logger *zap.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) ExtractorOption {
	return func(e *Extractor) { e.logger = l }
}

// WithOCR sets the OCR engine used for images and scanned PDFs.
func WithOCR(o OCR) ExtractorOption {
	return func(e *Extractor) { e.ocr = o }
}

// NewExtractor returns a new Extractor. Without WithOCR, OCR always fails (degraded).
func NewExtractor(opts Options, options ...ExtractorOption) *Extractor {
	opts.defaults()
	e := &Extractor{opts: opts, ocr: noOCR{}, logger: zap.NewNop()}
	for _, o := range options {
		o(e)
	}
	return e
}

// Extract reads the file at path and returns its snippet, choosing the extractor by extension.
// The literal path "none" (or an empty path) is treated like an unsupported file.
func (e *Extractor) Extract(ctx context.Context, path string) Result {
	kind := models.KindFromPath(path)
	switch kind {
	case models.KindNone:
		return Result{
			Text:    UnsupportedText,
			Kind:    kind,
			Method:  MethodNone,
			Outcome: models.Degraded(models.StageExtract, "no source document"),
		}
	case models.KindUnsupported:
		return Result{
			Text:    UnsupportedText,
			Kind:    kind,
			Method:  MethodNone,
			Outcome: models.Degraded(models.StageExtract, fmt.Sprintf("unsupported file type %q", filepath.Ext(path))),
		}
	}

	content, err := e.readFile(path)
	if err != nil {
		return failure(kind, err)
	}
	e.logger.Debug("extracting document", zap.String("path", path), zap.String("kind", string(kind)), zap.Int("bytes", len(content)))

	var text, method string
	switch kind {
	case models.KindSpreadsheet:
		text, err = e.extractSpreadsheet(content, strings.ToLower(filepath.Ext(path)))
		method = MethodTable
	case models.KindWord:
		text, err = e.extractWord(path, content)
		method = MethodParagraphs
	case models.KindPDF:
		text, method, err = e.extractPDF(ctx, content)
	case models.KindImage:
		text, err = e.extractImage(ctx, content)
		method = MethodImageOCR
	case models.KindText:
		text, err = extractPlain(content)
		method = MethodPlain
	}
	if err != nil {
		return failure(kind, err)
	}
	return done(kind, method, text)
}

// ExtractOCR runs optical character recognition on an image or on the page images of a PDF,
// regardless of any embedded text. Other kinds fall back to Extract.
func (e *Extractor) ExtractOCR(ctx context.Context, path string) Result {
	kind := models.KindFromPath(path)
	if kind != models.KindImage && kind != models.KindPDF {
		e.logger.Debug("ocr requested for non-image source, using regular extraction", zap.String("path", path))
		return e.Extract(ctx, path)
	}
	content, err := e.readFile(path)
	if err != nil {
		return failure(kind, err)
	}
	if kind == models.KindImage {
		text, err := e.extractImage(ctx, content)
		if err != nil {
			return failure(kind, err)
		}
		return done(kind, MethodImageOCR, text)
	}
	text, err := e.ocrPDF(ctx, content)
	if err != nil {
		return failure(kind, err)
	}
	return done(kind, MethodPDFOCR, SmartSnippetText(text, e.opts.SnippetParts))
}

func (e *Extractor) readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > e.opts.MaxFileSize {
		return nil, fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), e.opts.MaxFileSize)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return content, nil
}

func failure(kind models.Kind, err error) Result {
	return Result{
		Text:    fmt.Sprintf("Gagal membaca file: %v", err),
		Kind:    kind,
		Method:  MethodNone,
		Outcome: models.Degraded(models.StageExtract, err.Error()),
	}
}

func done(kind models.Kind, method, text string) Result {
	outcome := models.OK(models.StageExtract)
	if strings.TrimSpace(text) == "" {
		outcome = models.Degraded(models.StageExtract, "no text content found")
	}
	return Result{Text: text, Kind: kind, Method: method, Outcome: outcome}
}
