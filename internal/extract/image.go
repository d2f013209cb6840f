package extract

import (
	"context"
	"fmt"
)

func (e *Extractor) extractImage(ctx context.Context, content []byte) (string, error) {
	text, err := e.ocr.Recognize(ctx, content)
	if err != nil {
		return "", fmt.Errorf("OCR: %w", err)
	}
	return SmartSnippetText(text, e.opts.SnippetParts), nil
}
