package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// OCR engine names accepted by NewOCR.
const (
	EngineTesseract = "tesseract"
	EngineGosseract = "gosseract"
	EngineNone      = "none"
)

// ErrOCRDisabled is returned by the "none" engine.
var ErrOCRDisabled = errors.New("OCR is disabled")

// OCR recognizes the text in an encoded image (PNG, JPEG, TIFF, ...).
type OCR interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// NewOCR returns the named engine. command is the tesseract executable and languages a
// "+"-joined tesseract language list such as "ind+eng".
func NewOCR(engine, command, languages string) (OCR, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineTesseract:
		if command == "" {
			command = "tesseract"
		}
		return &TesseractCLI{Command: command, Languages: languages}, nil
	case EngineGosseract:
		return newGosseractOCR(languages)
	case EngineNone:
		return noOCR{}, nil
	default:
		return nil, fmt.Errorf("unknown OCR engine %q", engine)
	}
}

// TesseractCLI runs the tesseract executable with the image on stdin.
type TesseractCLI struct {
	Command   string
	Languages string
}

func (t *TesseractCLI) Recognize(ctx context.Context, image []byte) (string, error) {
	args := []string{"stdin", "stdout"}
	if t.Languages != "" {
		args = append(args, "-l", t.Languages)
	}
	cmd := exec.CommandContext(ctx, t.Command, args...)
	cmd.Stdin = bytes.NewReader(image)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s: %w: %s", t.Command, err, msg)
		}
		return "", fmt.Errorf("%s: %w", t.Command, err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

type noOCR struct{}

func (noOCR) Recognize(context.Context, []byte) (string, error) {
	return "", ErrOCRDisabled
}
