package entity

import "image"

// Rect прямоугольник в абсолютных координатах экрана
type Rect struct {
	Left   int `json:"left"`   // координата X левого верхнего угла
	Top    int `json:"top"`    // координата Y левого верхнего угла
	Width  int `json:"width"`  // ширина в пикселях
	Height int `json:"height"` // высота в пикселях
}

// RectFrom строит Rect из image.Rectangle
func RectFrom(r image.Rectangle) Rect {
	return Rect{Left: r.Min.X, Top: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Valid сообщает, что ширина и высота положительны
func (r Rect) Valid() bool {
	return r.Width > 0 && r.Height > 0
}

// Rectangle возвращает прямоугольник в терминах пакета image.
// Для невалидного Rect результат пустой.
func (r Rect) Rectangle() image.Rectangle {
	if !r.Valid() {
		return image.Rectangle{}
	}
	return image.Rect(r.Left, r.Top, r.Left+r.Width, r.Top+r.Height)
}

// Clip обрезает прямоугольник по границам bounds; ok=false при нулевой площади
func (r Rect) Clip(bounds image.Rectangle) (image.Rectangle, bool) {
	clipped := r.Rectangle().Intersect(bounds)
	return clipped, !clipped.Empty()
}
