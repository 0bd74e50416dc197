//go:build !tesseract
// +build !tesseract

package ocr

import (
	"context"
	"errors"
	"image"
)

// Extract возвращает ошибку, если сборка без тега tesseract.
func (t *Tesseract) Extract(ctx context.Context, img image.Image) (string, error) {
	_ = ctx
	_ = img
	return "", errors.New("tesseract build tag is not enabled")
}
