// Package configstore читает и кэширует четыре JSON-отображения конфигурации распознавания.
package configstore

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"screenstate/internal/domain/entity"
	"screenstate/internal/domain/port"
)

// Имена файлов внутри каталога конфигурации
const (
	TemplatesFile   = "templates.json"
	OCRRegionsFile  = "ocr_regions.json"
	TransitionsFile = "state_transitions.json"
	ROIsFile        = "state_rois.json"
)

// Store хранилище конфигурации с атомарной перезагрузкой
type Store struct {
	dir     string
	current atomic.Pointer[entity.Mappings]
}

// NewStore создаёт хранилище и сразу загружает файлы из dir
func NewStore(dir string) *Store {
	s := &Store{dir: dir}
	s.Load()
	return s
}

// Dir возвращает каталог конфигурации
func (s *Store) Dir() string {
	return s.dir
}

// Load собирает новый снимок из файлов и публикует его целиком
func (s *Store) Load() *entity.Mappings {
	m := entity.NewMappings()

	if raw, ok := readObject(s.path(TemplatesFile)); ok {
		m.Templates = parseTemplates(raw)
	}
	if raw, ok := readObject(s.path(OCRRegionsFile)); ok {
		m.OCRRegions = parseOCRRegions(raw)
	}
	if raw, ok := readObject(s.path(TransitionsFile)); ok {
		m.Transitions = parseTransitions(raw)
	}
	if raw, ok := readObject(s.path(ROIsFile)); ok {
		m.ROIs = parseROIs(raw)
	}

	dropUnknown(m.OCRRegions, m.Templates, OCRRegionsFile)
	dropUnknown(m.Transitions, m.Templates, TransitionsFile)
	dropUnknown(m.ROIs, m.Templates, ROIsFile)

	s.current.Store(m)
	slog.Info("configuration loaded",
		"dir", s.dir,
		"templates", m.Templates.Len(),
		"ocr_regions", m.OCRRegions.Len(),
		"transitions", m.Transitions.Len(),
		"rois", m.ROIs.Len(),
	)
	return m
}

// Reload перечитывает все четыре файла
func (s *Store) Reload() *entity.Mappings {
	return s.Load()
}

// Mappings возвращает текущий снимок
func (s *Store) Mappings() *entity.Mappings {
	if m := s.current.Load(); m != nil {
		return m
	}
	return entity.NewMappings()
}

// Templates возвращает файлы эталонов по состояниям
func (s *Store) Templates() *entity.OrderedMap[[]string] {
	return s.Mappings().Templates
}

// OCRRegions возвращает OCR-зоны по состояниям
func (s *Store) OCRRegions() *entity.OrderedMap[[]entity.OCRRegion] {
	return s.Mappings().OCRRegions
}

// Transitions возвращает граф переходов
func (s *Store) Transitions() *entity.OrderedMap[[]entity.State] {
	return s.Mappings().Transitions
}

// ROIs возвращает зоны поиска
func (s *Store) ROIs() *entity.OrderedMap[entity.Rect] {
	return s.Mappings().ROIs
}

// SaveROI записывает ROI состояния в state_rois.json, сохраняя порядок остальных
// записей, и публикует перечитанную конфигурацию.
func (s *Store) SaveROI(state entity.State, roi entity.Rect) error {
	if !roi.Valid() {
		return fmt.Errorf("roi for %s has non-positive size", state)
	}

	current := s.ROIs()
	rois := entity.NewOrderedMap[entity.Rect]()
	for _, k := range current.Keys() {
		v, _ := current.Get(k)
		rois.Set(k, v)
	}
	rois.Set(state, roi)

	if err := SaveMapping(rois, s.path(ROIsFile)); err != nil {
		return err
	}
	s.Load()
	slog.Info("roi saved", "state", state, "roi", roi)
	return nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// dropUnknown убирает ключи, которых нет в отображении эталонов
func dropUnknown[V any](m *entity.OrderedMap[V], templates *entity.OrderedMap[[]string], file string) {
	for _, state := range m.Keys() {
		if _, ok := templates.Get(state); !ok {
			slog.Warn("state is not declared in templates, ignoring", "file", file, "state", state)
			m.Delete(state)
		}
	}
}

// Проверка реализации интерфейса
var _ port.ConfigStore = (*Store)(nil)
