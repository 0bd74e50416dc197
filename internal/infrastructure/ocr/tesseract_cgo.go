//go:build tesseract
// +build tesseract

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"
)

// Extract распознаёт текст изображения. Клиент tesseract живёт только в пределах вызова.
func (t *Tesseract) Extract(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.languages...); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	if t.options.PageSegMode >= 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(t.options.PageSegMode)); err != nil {
			return "", fmt.Errorf("set page segmentation mode: %w", err)
		}
	}
	for _, v := range t.options.Variables {
		if err := client.SetVariable(gosseract.SettableVariable(v.Key), v.Value); err != nil {
			return "", fmt.Errorf("set variable %s: %w", v.Key, err)
		}
	}

	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract OCR failed: %w", err)
	}
	return text, nil
}
