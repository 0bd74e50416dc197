// Package ocr читает текст OCR-зон: оттенки серого, бинаризация Оцу,
// извлечение текста tesseract и нормализация результата.
package ocr

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"regexp"
	"strings"

	"screenstate/internal/domain/port"
	apperrors "screenstate/internal/errors"
)

// Grayscaler переводит изображение в оттенки серого
type Grayscaler interface {
	Grayscale(img image.Image) (*image.Gray, error)
}

// Thresholder выполняет бинаризацию с автоматическим порогом
type Thresholder interface {
	Otsu(g *image.Gray) (*image.Gray, error)
}

// Extractor внешний движок извлечения текста
type Extractor interface {
	Extract(ctx context.Context, img image.Image) (string, error)
}

// Reader адаптер распознавания текста
type Reader struct {
	gray      Grayscaler
	threshold Thresholder
	extractor Extractor
	binarize  bool
}

// NewReader создаёт адаптер. binarize включает порог Оцу перед извлечением.
func NewReader(gray Grayscaler, threshold Thresholder, extractor Extractor, binarize bool) *Reader {
	return &Reader{
		gray:      gray,
		threshold: threshold,
		extractor: extractor,
		binarize:  binarize,
	}
}

// ReadText возвращает очищенный текст или пустую строку при любой ошибке
func (r *Reader) ReadText(ctx context.Context, img image.Image) (text string) {
	if img == nil || img.Bounds().Empty() {
		return ""
	}

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("ocr failed", "error", apperrors.Wrap(fmt.Errorf("%v", rec), apperrors.KindOCR, "extractor panicked"))
			text = ""
		}
	}()

	gray, err := r.gray.Grayscale(img)
	if err != nil {
		slog.Error("ocr failed", "error", apperrors.Wrap(err, apperrors.KindOCR, "grayscale conversion"))
		return ""
	}

	var prepared image.Image = gray
	if r.binarize {
		bin, err := r.threshold.Otsu(gray)
		if err != nil {
			slog.Warn("binarization failed, using grayscale image", "error", err)
		} else {
			prepared = bin
		}
	}

	raw, err := r.extractor.Extract(ctx, prepared)
	if err != nil {
		slog.Error("ocr failed", "error", apperrors.Wrap(err, apperrors.KindOCR, "extract text"))
		return ""
	}

	text = Clean(raw)
	slog.Debug("ocr text extracted", "raw", raw, "text", text)
	return text
}

var (
	disallowedChars = regexp.MustCompile(`[^a-zA-Z0-9 ñÑáéíóúÁÉÍÓÚüÜ()\-.:]`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)
	lineBreaks      = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")
)

// Clean заменяет переводы строк пробелами, убирает символы вне допустимого
// алфавита и схлопывает пробелы.
func Clean(raw string) string {
	s := lineBreaks.Replace(raw)
	s = disallowedChars.ReplaceAllString(s, "")
	s = whitespaceRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Проверка реализации интерфейса
var _ port.TextReader = (*Reader)(nil)
