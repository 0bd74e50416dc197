package entity

import "time"

// Source откуда взят кадр для распознавания
type Source string

const (
	SourceScreen Source = "screen" // живой снимок экрана
	SourcePhoto  Source = "photo"  // изображение, присланное пользователем
)

// HistoryEntry запись журнала распознаваний
type HistoryEntry struct {
	ID        string    // уникальный идентификатор записи
	Source    Source    // источник кадра
	CreatedAt time.Time // время завершения цикла
	Report    Report    // результат цикла
}
