package port

import "image"

// TemplateMatcher интерфейс сопоставления с эталонами
type TemplateMatcher interface {
	// Grayscale переводит кадр в оттенки серого, сохраняя его границы
	Grayscale(img image.Image) (*image.Gray, error)

	// Match возвращает позицию и значение максимума нормированной корреляции.
	// ok=false и нулевой score, если совпадение невозможно или сопоставление упало.
	Match(haystack, needle *image.Gray) (loc image.Point, score float64, ok bool)
}

// ImageDecoder интерфейс декодера присланных изображений
type ImageDecoder interface {
	// Decode превращает байты файла в изображение
	Decode(data []byte) (image.Image, error)
}
