package port

import (
	"context"
	"image"
)

// TextReader интерфейс распознавания текста
type TextReader interface {
	// ReadText возвращает очищенный текст изображения или пустую строку при ошибке
	ReadText(ctx context.Context, img image.Image) string
}
