package entity

import (
	"bytes"
	"encoding/json"
)

// OrderedMap отображение состояний в значения с сохранением порядка вставки
type OrderedMap[V any] struct {
	keys   []State
	values map[State]V
}

// NewOrderedMap создаёт пустое отображение
func NewOrderedMap[V any]() *OrderedMap[V] {
	return &OrderedMap[V]{values: make(map[State]V)}
}

// Set записывает значение; повторный ключ сохраняет исходную позицию
func (m *OrderedMap[V]) Set(key State, value V) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get возвращает значение по ключу
func (m *OrderedMap[V]) Get(key State) (V, bool) {
	if m == nil {
		var zero V
		return zero, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Delete удаляет ключ
func (m *OrderedMap[V]) Delete(key State) {
	if _, exists := m.values[key]; !exists {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys возвращает копию ключей в порядке вставки
func (m *OrderedMap[V]) Keys() []State {
	if m == nil {
		return nil
	}
	return append([]State(nil), m.keys...)
}

// Len возвращает число ключей
func (m *OrderedMap[V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// MarshalJSON сериализует объект, сохраняя порядок ключей
func (m *OrderedMap[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for i, key := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(string(key)); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1) // Encode дописывает перевод строки
		buf.WriteByte(':')
		if err := enc.Encode(m.values[key]); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Mappings четыре отображения конфигурации распознавания
type Mappings struct {
	Templates   *OrderedMap[[]string]    // файлы эталонов по состояниям
	OCRRegions  *OrderedMap[[]OCRRegion] // OCR-зоны по состояниям
	Transitions *OrderedMap[[]State]     // вероятные следующие состояния
	ROIs        *OrderedMap[Rect]        // зоны поиска эталонов
}

// NewMappings создаёт пустую конфигурацию
func NewMappings() *Mappings {
	return &Mappings{
		Templates:   NewOrderedMap[[]string](),
		OCRRegions:  NewOrderedMap[[]OCRRegion](),
		Transitions: NewOrderedMap[[]State](),
		ROIs:        NewOrderedMap[Rect](),
	}
}
