package storage

import (
	"context"
	"sync"

	"screenstate/internal/domain/entity"
	"screenstate/internal/domain/port"
)

// DefaultHistorySize размер журнала по умолчанию
const DefaultHistorySize = 50

// MemoryHistoryRepository in-memory журнал распознаваний ограниченного размера.
// При переполнении вытесняются самые старые записи.
type MemoryHistoryRepository struct {
	mu      sync.RWMutex
	entries []*entity.HistoryEntry // кольцевой буфер
	next    int                    // индекс следующей записи
	count   int
}

// NewMemoryHistoryRepository создаёт журнал на size записей
func NewMemoryHistoryRepository(size int) *MemoryHistoryRepository {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &MemoryHistoryRepository{
		entries: make([]*entity.HistoryEntry, size),
	}
}

// Add сохраняет запись
func (r *MemoryHistoryRepository) Add(ctx context.Context, entry *entity.HistoryEntry) error {
	if entry == nil {
		return nil
	}

	r.mu.Lock()
	r.entries[r.next] = entry
	r.next = (r.next + 1) % len(r.entries)
	if r.count < len(r.entries) {
		r.count++
	}
	r.mu.Unlock()

	return nil
}

// Last возвращает последнюю запись или nil, если журнал пуст
func (r *MemoryHistoryRepository) Last(ctx context.Context) (*entity.HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.count == 0 {
		return nil, nil
	}
	return r.at(0), nil
}

// List возвращает до limit записей, новые первыми. limit <= 0 означает все записи.
func (r *MemoryHistoryRepository) List(ctx context.Context, limit int) ([]*entity.HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := r.count
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]*entity.HistoryEntry, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, r.at(i))
	}
	return out, nil
}

// at возвращает i-ю запись с конца. Вызывается под блокировкой.
func (r *MemoryHistoryRepository) at(i int) *entity.HistoryEntry {
	size := len(r.entries)
	return r.entries[(r.next-1-i+size*2)%size]
}

// Проверка реализации интерфейса
var _ port.HistoryRepository = (*MemoryHistoryRepository)(nil)
