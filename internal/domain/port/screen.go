package port

import (
	"image"

	"screenstate/internal/domain/entity"
)

// ScreenGrabber интерфейс источника снимков экрана
type ScreenGrabber interface {
	// Grab снимает прямоугольник в абсолютных координатах; nil означает весь активный монитор.
	// Границы возвращаемого изображения заданы в абсолютных координатах экрана.
	Grab(rect *entity.Rect) (image.Image, error)
}
