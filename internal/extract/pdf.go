package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	pdfcpuapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"
)

// extractPDF reads the embedded text layer and falls back to OCR of the page images when
// the layer holds fewer than MinPDFText characters.
func (e *Extractor) extractPDF(ctx context.Context, content []byte) (string, string, error) {
	text, err := pdfText(content)
	if err != nil {
		e.logger.Debug("pdf text layer unreadable, trying OCR", zap.Error(err))
	}
	method := MethodPDFText
	if len([]rune(strings.TrimSpace(text))) < e.opts.MinPDFText {
		ocrText, ocrErr := e.ocrPDF(ctx, content)
		switch {
		case ocrErr == nil:
			text, method = ocrText, MethodPDFOCR
		case err != nil:
			return "", "", fmt.Errorf("%w; OCR fallback: %v", err, ocrErr)
		default:
			e.logger.Debug("pdf OCR fallback failed, keeping text layer", zap.Error(ocrErr))
		}
	} else if err != nil {
		return "", "", err
	}
	return SmartSnippetText(text, e.opts.SnippetParts), method, nil
}

func pdfText(content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	var buf bytes.Buffer
	numPages := r.NumPage()
	for i := 0; i < numPages; i++ {
		page := r.Page(i + 1)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", i+1, err)
		}
		buf.WriteString(text)
		if i < numPages-1 {
			buf.WriteByte('\n')
		}
	}
	return buf.String(), nil
}

// ocrPDF recognizes the images embedded in every page, in page order.
func (e *Extractor) ocrPDF(ctx context.Context, content []byte) (string, error) {
	images, err := pdfPageImages(content)
	if err != nil {
		return "", err
	}
	if len(images) == 0 {
		return "", fmt.Errorf("no page images to OCR")
	}
	var pages []string
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := e.ocr.Recognize(ctx, img)
		if err != nil {
			return "", fmt.Errorf("OCR image %d: %w", i+1, err)
		}
		pages = append(pages, text)
	}
	return strings.Join(pages, "\n"), nil
}

func pdfPageImages(content []byte) ([][]byte, error) {
	pctx, err := pdfcpuapi.ReadValidateAndOptimize(bytes.NewReader(content), model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("read PDF: %w", err)
	}
	var out [][]byte
	for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
		imgs, err := pdfcpu.ExtractPageImages(pctx, pageNr, false)
		if err != nil {
			return nil, fmt.Errorf("extract images of page %d: %w", pageNr, err)
		}
		objNrs := make([]int, 0, len(imgs))
		for nr := range imgs {
			objNrs = append(objNrs, nr)
		}
		sort.Ints(objNrs)
		for _, nr := range objNrs {
			data, err := io.ReadAll(imgs[nr])
			if err != nil {
				return nil, fmt.Errorf("read image %d on page %d: %w", nr, pageNr, err)
			}
			out = append(out, data)
		}
	}
	return out, nil
}
