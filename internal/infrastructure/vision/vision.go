// Package vision содержит операции OpenCV, нужные распознаванию: оттенки серого,
// загрузку эталонов, нормированную корреляцию и бинаризацию Оцу.
// Реализация собирается с тегом gocv, без него методы возвращают ошибку.
package vision

import (
	"errors"
	"image"
	"log/slog"

	"screenstate/internal/domain/port"
	apperrors "screenstate/internal/errors"
)

var errBuildTag = errors.New("gocv build tag is not enabled")

// Matcher сопоставляет кадры с эталонами методом TM_CCOEFF_NORMED
type Matcher struct{}

// NewMatcher создаёт сопоставитель без состояния
func NewMatcher() *Matcher {
	return &Matcher{}
}

// Grayscale переводит изображение в оттенки серого, сохраняя его границы
func (m *Matcher) Grayscale(img image.Image) (*image.Gray, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, apperrors.ErrEmptyRegion
	}
	if g, ok := img.(*image.Gray); ok {
		return g, nil
	}
	return grayscale(packed(img))
}

// packed возвращает копию RGBA/NRGBA-изображения с шагом строки, равным ширине.
// OpenCV читает Pix как непрерывный буфер, а у подизображений шаг строки кадра.
// Границы сохраняются.
func packed(img image.Image) image.Image {
	switch src := img.(type) {
	case *image.RGBA:
		if src.Stride == 4*src.Rect.Dx() && src.PixOffset(src.Rect.Min.X, src.Rect.Min.Y) == 0 {
			return src
		}
		dst := image.NewRGBA(src.Rect)
		copyRows(dst.Pix, src.Pix, src.Stride, src.PixOffset(src.Rect.Min.X, src.Rect.Min.Y), 4*src.Rect.Dx(), src.Rect.Dy())
		return dst
	case *image.NRGBA:
		if src.Stride == 4*src.Rect.Dx() && src.PixOffset(src.Rect.Min.X, src.Rect.Min.Y) == 0 {
			return src
		}
		dst := image.NewNRGBA(src.Rect)
		copyRows(dst.Pix, src.Pix, src.Stride, src.PixOffset(src.Rect.Min.X, src.Rect.Min.Y), 4*src.Rect.Dx(), src.Rect.Dy())
		return dst
	}
	return img
}

func copyRows(dst, src []byte, stride, offset, rowLen, rows int) {
	for y := 0; y < rows; y++ {
		start := offset + y*stride
		copy(dst[y*rowLen:(y+1)*rowLen], src[start:start+rowLen])
	}
}

// Match ищет needle внутри haystack. Координаты результата абсолютные.
func (m *Matcher) Match(haystack, needle *image.Gray) (image.Point, float64, bool) {
	if haystack == nil || needle == nil {
		return image.Point{}, 0, false
	}
	hb, nb := haystack.Bounds(), needle.Bounds()
	if hb.Empty() || nb.Empty() {
		return image.Point{}, 0, false
	}
	// Эталон больше области поиска: совпадение невозможно
	if nb.Dx() > hb.Dx() || nb.Dy() > hb.Dy() {
		return image.Point{}, 0, false
	}

	loc, score, err := matchTemplate(haystack, needle)
	if err != nil {
		slog.Warn("template matching failed",
			"error", apperrors.Wrap(err, apperrors.KindMatcher, "match template"),
			"haystack", hb, "needle", nb)
		return image.Point{}, 0, false
	}
	return loc, score, true
}

// LoadGray читает файл изображения сразу в оттенках серого
func LoadGray(path string) (*image.Gray, error) {
	g, err := loadGray(path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindTemplateLoad, "cannot load image").WithPath(path)
	}
	return g, nil
}

// Decoder декодирует присланные файлы изображений
type Decoder struct{}

// Decode превращает байты файла в цветное изображение
func (Decoder) Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, errors.New("empty image data")
	}
	return decode(data)
}

// Binarizer выполняет пороговую бинаризацию с автоматическим порогом Оцу
type Binarizer struct{}

// Otsu возвращает бинарное изображение тех же границ
func (Binarizer) Otsu(g *image.Gray) (*image.Gray, error) {
	if g == nil || g.Bounds().Empty() {
		return nil, apperrors.ErrEmptyRegion
	}
	return otsu(g)
}

// Проверка реализации интерфейсов
var (
	_ port.TemplateMatcher = (*Matcher)(nil)
	_ port.ImageDecoder    = Decoder{}
)
