package app

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"screenstate/internal/domain/entity"
	"screenstate/internal/domain/port"
)

const (
	DefaultTemplateThreshold    = 0.75
	DefaultOCRFallbackThreshold = 0.60
)

// Thresholds пороги принятия решения по оценке эталона
type Thresholds struct {
	Template    float64 // оценка, с которой эталон считается найденным
	OCRFallback float64 // минимальная оценка для проверки состояния через OCR
}

// DefaultThresholds возвращает пороги по умолчанию
func DefaultThresholds() Thresholds {
	return Thresholds{
		Template:    DefaultTemplateThreshold,
		OCRFallback: DefaultOCRFallbackThreshold,
	}
}

// Validate проверяет, что пороги лежат в [0,1] и порог эталона не ниже порога OCR
func (t Thresholds) Validate() error {
	if t.Template < 0 || t.Template > 1 {
		return fmt.Errorf("template threshold %v is outside [0,1]", t.Template)
	}
	if t.OCRFallback < 0 || t.OCRFallback > 1 {
		return fmt.Errorf("ocr fallback threshold %v is outside [0,1]", t.OCRFallback)
	}
	if t.Template < t.OCRFallback {
		return fmt.Errorf("template threshold %v is below ocr fallback threshold %v", t.Template, t.OCRFallback)
	}
	return nil
}

// snapshot конфигурация и эталоны, опубликованные вместе
type snapshot struct {
	mappings  *entity.Mappings
	templates *entity.TemplateSet
}

// Stats сводка по загруженной конфигурации
type Stats struct {
	States      []entity.State         // состояния с загруженными эталонами, в порядке конфигурации
	Missing     []string               // файлы эталонов, которые не удалось загрузить
	Duplicates  []entity.DuplicatePair // состояния с неразличимыми эталонами
	OCRStates   int
	Transitions int
	ROIs        int
}

// Engine определяет состояние экрана: эталоны с учётом предыдущего
// состояния, затем проверка текстом для неуверенных совпадений.
// Циклы распознавания одного Engine должны выполняться последовательно.
type Engine struct {
	grabber    port.ScreenGrabber
	matcher    port.TemplateMatcher
	reader     port.TextReader
	store      port.ConfigStore
	loader     port.TemplateLoader
	thresholds Thresholds

	current atomic.Pointer[snapshot]

	mu   sync.RWMutex
	last entity.State // пусто, если последний цикл ничего не распознал
}

// NewEngine создаёт движок и загружает эталоны из текущей конфигурации
func NewEngine(
	grabber port.ScreenGrabber,
	matcher port.TemplateMatcher,
	reader port.TextReader,
	store port.ConfigStore,
	loader port.TemplateLoader,
	thresholds Thresholds,
) (*Engine, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		grabber:    grabber,
		matcher:    matcher,
		reader:     reader,
		store:      store,
		loader:     loader,
		thresholds: thresholds,
	}
	e.publish(store.Mappings())
	return e, nil
}

// Reload перечитывает конфигурацию, пересобирает эталоны и публикует их вместе.
// Последнее распознанное состояние сохраняется.
func (e *Engine) Reload() Stats {
	e.publish(e.store.Reload())
	stats := e.Stats()
	slog.Info("engine reloaded", "states", len(stats.States), "missing", len(stats.Missing))
	return stats
}

// Stats возвращает сводку по текущей конфигурации
func (e *Engine) Stats() Stats {
	snap := e.current.Load()
	return Stats{
		States:      snap.templates.States(),
		Missing:     snap.templates.Missing(),
		Duplicates:  snap.templates.Duplicates(),
		OCRStates:   snap.mappings.OCRRegions.Len(),
		Transitions: snap.mappings.Transitions.Len(),
		ROIs:        snap.mappings.ROIs.Len(),
	}
}

// LastRecognizedState возвращает состояние последнего успешного цикла
func (e *Engine) LastRecognizedState() (entity.State, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.last, e.last != ""
}

// Recognize снимает экран один раз и определяет его состояние
func (e *Engine) Recognize(ctx context.Context) entity.Recognition {
	start := time.Now()

	frame, err := e.grabber.Grab(nil)
	if err != nil || frame == nil {
		slog.Error("screen capture failed", "error", err)
		return e.finish(entity.Unrecognized{Duration: time.Since(start)}, true)
	}

	return e.recognize(ctx, frame, start, true)
}

// RecognizeFrame определяет состояние по готовому кадру без снимка экрана.
// Кадр считается текущим экраном: учитывается и обновляется последнее состояние.
func (e *Engine) RecognizeFrame(ctx context.Context, frame image.Image) entity.Recognition {
	return e.recognizeStatic(ctx, frame, true)
}

// Inspect определяет состояние стороннего изображения. Последнее распознанное
// состояние не используется для порядка проверки и не изменяется.
func (e *Engine) Inspect(ctx context.Context, frame image.Image) entity.Recognition {
	return e.recognizeStatic(ctx, frame, false)
}

func (e *Engine) recognizeStatic(ctx context.Context, frame image.Image, tracked bool) entity.Recognition {
	start := time.Now()
	if frame == nil || frame.Bounds().Empty() {
		slog.Warn("empty frame, nothing to recognize")
		return e.finish(entity.Unrecognized{Duration: time.Since(start)}, tracked)
	}
	return e.recognize(ctx, frame, start, tracked)
}

func (e *Engine) publish(mappings *entity.Mappings) {
	if mappings == nil {
		mappings = entity.NewMappings()
	}
	e.current.Store(&snapshot{
		mappings:  mappings,
		templates: e.loader.Load(mappings.Templates),
	})
}

type ocrCandidate struct {
	state entity.State
	score float64
}

func (e *Engine) recognize(ctx context.Context, frame image.Image, start time.Time, tracked bool) (result entity.Recognition) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("recognition cycle panicked", "panic", rec, "stack", string(debug.Stack()))
			result = e.finish(entity.Unrecognized{Duration: time.Since(start)}, tracked)
		}
	}()

	snap := e.current.Load()
	if snap.templates.Len() == 0 {
		slog.Warn("template cache is empty")
		return e.finish(entity.Unrecognized{Duration: time.Since(start)}, tracked)
	}

	gray, err := e.matcher.Grayscale(frame)
	if err != nil {
		slog.Error("grayscale conversion failed", "error", err)
		return e.finish(entity.Unrecognized{Duration: time.Since(start)}, tracked)
	}

	var last entity.State
	if tracked {
		last, _ = e.LastRecognizedState()
	}
	candidates, prefix := orderCandidates(snap.templates.States(), snap.mappings.Transitions, last)

	best, bestScore := entity.StateUnknown, 0.0
	var bestArea image.Rectangle
	var fallback []ocrCandidate

	for i, state := range candidates {
		if err := ctx.Err(); err != nil {
			slog.Warn("recognition cancelled", "error", err)
			return e.finish(entity.Unrecognized{Duration: time.Since(start)}, tracked)
		}

		score, area := e.scoreState(gray, state, snap)
		slog.Debug("template score", "state", state, "score", score)

		if score >= e.thresholds.Template && score > bestScore {
			best, bestScore, bestArea = state, score, area
		} else if score >= e.thresholds.OCRFallback && best == entity.StateUnknown {
			fallback = append(fallback, ocrCandidate{state: state, score: score})
		}

		if best != entity.StateUnknown && i < prefix {
			slog.Debug("early exit on expected state", "state", best)
			break
		}
	}

	if best != entity.StateUnknown {
		return e.finish(entity.TemplateMatch{
			Name:       best,
			Confidence: bestScore,
			Location:   bestArea.Min,
			Area:       bestArea,
			Duration:   time.Since(start),
		}, tracked)
	}

	if match, ok := e.confirmByText(ctx, frame, fallback, snap); ok {
		match.Duration = time.Since(start)
		return e.finish(match, tracked)
	}

	return e.finish(entity.Unrecognized{Duration: time.Since(start)}, tracked)
}

// scoreState возвращает лучшую оценку среди эталонов состояния и область совпадения.
// Поиск ограничен ROI состояния, если он пересекается с кадром.
func (e *Engine) scoreState(gray *image.Gray, state entity.State, snap *snapshot) (float64, image.Rectangle) {
	haystack := gray
	if roi, ok := snap.mappings.ROIs.Get(state); ok {
		if r, ok := roi.Clip(gray.Rect); ok {
			haystack = gray.SubImage(r).(*image.Gray)
		}
	}

	var best float64
	var bestArea image.Rectangle
	for _, ref := range snap.templates.References(state) {
		loc, score, ok := e.matcher.Match(haystack, ref.Image)
		if ok && score > best {
			best = score
			bestArea = image.Rectangle{Min: loc, Max: loc.Add(ref.Image.Rect.Size())}
		}
	}
	return best, bestArea
}

// confirmByText проверяет кандидатов по убыванию оценки и возвращает
// первое состояние, у которого текст хотя бы одной зоны совпал с ожидаемым.
func (e *Engine) confirmByText(ctx context.Context, frame image.Image, candidates []ocrCandidate, snap *snapshot) (entity.OCRMatch, bool) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	for _, c := range candidates {
		regions, ok := snap.mappings.OCRRegions.Get(c.state)
		if !ok || len(regions) == 0 {
			slog.Debug("no ocr regions for candidate", "state", c.state)
			continue
		}

		outcomes := make([]entity.RegionOutcome, 0, len(regions))
		confirmed := false
		for _, region := range regions {
			var text string
			if r, ok := region.Region.Clip(frame.Bounds()); ok {
				text = e.reader.ReadText(ctx, crop(frame, r))
			}
			matched := entity.MatchesExpected(text, region.ExpectedText)
			outcomes = append(outcomes, entity.RegionOutcome{
				Region:        region.Region,
				ExtractedText: text,
				ExpectedTexts: append([]string{}, region.ExpectedText...),
				MatchExpected: matched,
			})
			confirmed = confirmed || matched
		}

		slog.Debug("ocr candidate checked", "state", c.state, "score", c.score, "confirmed", confirmed)
		if confirmed {
			return entity.OCRMatch{Name: c.state, Regions: outcomes}, true
		}
	}
	return entity.OCRMatch{}, false
}

// finish запоминает итог цикла как последнее распознанное состояние, если tracked
func (e *Engine) finish(result entity.Recognition, tracked bool) entity.Recognition {
	if tracked {
		e.mu.Lock()
		if result.Method() == entity.MethodUnknown {
			e.last = ""
		} else {
			e.last = result.State()
		}
		e.mu.Unlock()
	}

	slog.Info("recognition finished",
		"tracked", tracked,
		"method", result.Method(),
		"state", result.State(),
		"elapsed", result.Elapsed())
	return result
}

// orderCandidates ставит вперёд ожидаемые переходы из last в объявленном порядке.
// Возвращает порядок проверки и длину приоритетного префикса.
func orderCandidates(states []entity.State, transitions *entity.OrderedMap[[]entity.State], last entity.State) ([]entity.State, int) {
	if last == "" {
		return states, 0
	}
	next, ok := transitions.Get(last)
	if !ok || len(next) == 0 {
		return states, 0
	}

	known := make(map[entity.State]bool, len(states))
	for _, s := range states {
		known[s] = true
	}

	ordered := make([]entity.State, 0, len(states))
	seen := make(map[entity.State]bool, len(states))
	for _, s := range next {
		if known[s] && !seen[s] {
			ordered = append(ordered, s)
			seen[s] = true
		}
	}
	prefix := len(ordered)

	for _, s := range states {
		if !seen[s] {
			ordered = append(ordered, s)
		}
	}
	return ordered, prefix
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// crop возвращает часть кадра; nil, если тип изображения не поддерживает вырезку
func crop(frame image.Image, r image.Rectangle) image.Image {
	if s, ok := frame.(subImager); ok {
		return s.SubImage(r)
	}
	slog.Warn("frame does not support sub-images", "type", fmt.Sprintf("%T", frame))
	return nil
}
