package port

import "screenstate/internal/domain/entity"

// ConfigStore интерфейс хранилища конфигурации распознавания
type ConfigStore interface {
	// Mappings возвращает текущий снимок конфигурации
	Mappings() *entity.Mappings

	// Reload перечитывает файлы и атомарно публикует новый снимок
	Reload() *entity.Mappings
}

// TemplateLoader интерфейс загрузчика эталонов
type TemplateLoader interface {
	// Load загружает эталоны для отображения "состояние -> файлы"
	Load(files *entity.OrderedMap[[]string]) *entity.TemplateSet
}
