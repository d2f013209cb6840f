//go:build gosseract

package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

type gosseractOCR struct {
	languages []string
}

func newGosseractOCR(languages string) (OCR, error) {
	g := &gosseractOCR{}
	if languages != "" {
		g.languages = strings.Split(languages, "+")
	}
	return g, nil
}

func (g *gosseractOCR) Recognize(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	client := gosseract.NewClient()
	defer client.Close()
	if len(g.languages) > 0 {
		if err := client.SetLanguage(g.languages...); err != nil {
			return "", fmt.Errorf("gosseract: set language: %w", err)
		}
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("gosseract: set image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("gosseract: %w", err)
	}
	return strings.TrimSpace(text), nil
}
