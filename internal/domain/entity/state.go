package entity

import "image"

// State имя состояния экрана
type State string

// StateUnknown состояние, когда экран не распознан
const StateUnknown State = "unknown"

// OCRRegion область экрана с ожидаемыми вариантами текста
type OCRRegion struct {
	Region       Rect     `json:"region"`
	ExpectedText []string `json:"expected_text"`
}

// Template эталонное изображение состояния в оттенках серого
type Template struct {
	Path  string      // полный путь к файлу
	Image *image.Gray // пиксели эталона
}

// TemplateSet загруженные эталоны по состояниям в порядке конфигурации
type TemplateSet struct {
	refs       *OrderedMap[[]Template]
	missing    []string
	duplicates []DuplicatePair
}

// DuplicatePair пара состояний с перцептивно одинаковыми эталонами
type DuplicatePair struct {
	First  State
	Second State
}

// NewTemplateSet создаёт пустой набор эталонов
func NewTemplateSet() *TemplateSet {
	return &TemplateSet{refs: NewOrderedMap[[]Template]()}
}

// Add добавляет эталон состоянию
func (s *TemplateSet) Add(state State, tpl Template) {
	refs, _ := s.refs.Get(state)
	s.refs.Set(state, append(refs, tpl))
}

// MarkMissing запоминает файл, который не удалось загрузить
func (s *TemplateSet) MarkMissing(path string) {
	s.missing = append(s.missing, path)
}

// States возвращает состояния, у которых есть хотя бы один эталон
func (s *TemplateSet) States() []State {
	return s.refs.Keys()
}

// References возвращает эталоны состояния
func (s *TemplateSet) References(state State) []Template {
	refs, _ := s.refs.Get(state)
	return refs
}

// Has сообщает, есть ли у состояния эталоны
func (s *TemplateSet) Has(state State) bool {
	_, ok := s.refs.Get(state)
	return ok
}

// Len возвращает число состояний
func (s *TemplateSet) Len() int {
	return s.refs.Len()
}

// Missing возвращает пути незагруженных файлов
func (s *TemplateSet) Missing() []string {
	return append([]string(nil), s.missing...)
}

// MarkDuplicate запоминает пару состояний с неразличимыми эталонами
func (s *TemplateSet) MarkDuplicate(first, second State) {
	s.duplicates = append(s.duplicates, DuplicatePair{First: first, Second: second})
}

// Duplicates возвращает пары состояний с неразличимыми эталонами
func (s *TemplateSet) Duplicates() []DuplicatePair {
	return append([]DuplicatePair(nil), s.duplicates...)
}
