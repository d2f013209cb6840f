//go:build !gosseract

package extract

import "errors"

func newGosseractOCR(string) (OCR, error) {
	return nil, errors.New("gosseract OCR engine not available (build with -tags gosseract)")
}
