package port

import (
	"context"

	"screenstate/internal/domain/entity"
)

// HistoryRepository интерфейс журнала распознаваний
type HistoryRepository interface {
	// Add сохраняет запись
	Add(ctx context.Context, entry *entity.HistoryEntry) error

	// Last возвращает последнюю запись или nil
	Last(ctx context.Context) (*entity.HistoryEntry, error)

	// List возвращает до limit записей, новые первыми
	List(ctx context.Context, limit int) ([]*entity.HistoryEntry, error)
}
