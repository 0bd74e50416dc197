package app

import (
	"context"
	"errors"
	"image"
	"sync"

	"screenstate/internal/domain/entity"
)

type fakeGrabber struct {
	frame image.Image
	err   error
	calls int
}

func (g *fakeGrabber) Grab(rect *entity.Rect) (image.Image, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.frame, nil
}

type matchCall struct {
	template string
	haystack image.Rectangle
}

// fakeMatcher отдаёт заранее заданные оценки по имени файла эталона
type fakeMatcher struct {
	mu     sync.Mutex
	names  map[*image.Gray]string
	scores map[string]float64
	calls  []matchCall
	panics bool
}

func newFakeMatcher() *fakeMatcher {
	return &fakeMatcher{
		names:  make(map[*image.Gray]string),
		scores: make(map[string]float64),
	}
}

func (m *fakeMatcher) Grayscale(img image.Image) (*image.Gray, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}
	return image.NewGray(img.Bounds()), nil
}

func (m *fakeMatcher) Match(haystack, needle *image.Gray) (image.Point, float64, bool) {
	if m.panics {
		panic("matcher exploded")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	name := m.names[needle]
	m.calls = append(m.calls, matchCall{template: name, haystack: haystack.Rect})
	score, ok := m.scores[name]
	if !ok {
		return image.Point{}, 0, false
	}
	return haystack.Rect.Min, score, true
}

func (m *fakeMatcher) evaluated() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.calls))
	for _, c := range m.calls {
		out = append(out, c.template)
	}
	return out
}

// fakeLoader создаёт пустой эталон на каждый файл и регистрирует его в сопоставителе
type fakeLoader struct {
	matcher *fakeMatcher
	loads   int
}

func (l *fakeLoader) Load(files *entity.OrderedMap[[]string]) *entity.TemplateSet {
	l.loads++
	set := entity.NewTemplateSet()
	for _, state := range files.Keys() {
		names, _ := files.Get(state)
		for _, name := range names {
			img := image.NewGray(image.Rect(0, 0, 8, 8))
			l.matcher.names[img] = name
			set.Add(state, entity.Template{Path: name, Image: img})
		}
	}
	return set
}

type fakeStore struct {
	current *entity.Mappings
	next    *entity.Mappings
	reloads int
}

func (s *fakeStore) Mappings() *entity.Mappings {
	return s.current
}

func (s *fakeStore) Reload() *entity.Mappings {
	s.reloads++
	if s.next != nil {
		s.current = s.next
	}
	return s.current
}

// fakeReader возвращает текст по границам вырезанной зоны
type fakeReader struct {
	texts map[image.Rectangle]string
	calls []image.Rectangle
}

func (r *fakeReader) ReadText(_ context.Context, img image.Image) string {
	r.calls = append(r.calls, img.Bounds())
	return r.texts[img.Bounds()]
}

type fakeDecoder struct {
	frame image.Image
	err   error
}

func (d fakeDecoder) Decode(data []byte) (image.Image, error) {
	return d.frame, d.err
}
