package app

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/require"

	"screenstate/internal/domain/entity"
)

type fixture struct {
	grabber *fakeGrabber
	matcher *fakeMatcher
	reader  *fakeReader
	store   *fakeStore
	loader  *fakeLoader
	engine  *Engine
}

func newFixture(t *testing.T, m *entity.Mappings, thresholds Thresholds) *fixture {
	t.Helper()

	matcher := newFakeMatcher()
	f := &fixture{
		grabber: &fakeGrabber{frame: image.NewRGBA(image.Rect(0, 0, 1920, 1080))},
		matcher: matcher,
		reader:  &fakeReader{texts: make(map[image.Rectangle]string)},
		store:   &fakeStore{current: m},
		loader:  &fakeLoader{matcher: matcher},
	}

	engine, err := NewEngine(f.grabber, f.matcher, f.reader, f.store, f.loader, thresholds)
	require.NoError(t, err)
	f.engine = engine
	return f
}

func templates(m *entity.Mappings, states ...entity.State) {
	for _, s := range states {
		m.Templates.Set(s, []string{string(s) + ".png"})
	}
}

func TestEngine_TemplateHitWithROI(t *testing.T) {
	m := entity.NewMappings()
	templates(m, "A")
	m.ROIs.Set("A", entity.Rect{Left: 100, Top: 50, Width: 400, Height: 300})

	f := newFixture(t, m, DefaultThresholds())
	f.matcher.scores["A.png"] = 0.92

	result := f.engine.Recognize(context.Background())

	match, ok := result.(entity.TemplateMatch)
	require.True(t, ok)
	require.Equal(t, entity.State("A"), match.Name)
	require.InDelta(t, 0.92, match.Confidence, 1e-9)
	require.Equal(t, image.Rect(100, 50, 108, 58), match.Area)
	require.Equal(t, image.Pt(100, 50), match.Location)

	report := result.Report()
	require.Equal(t, entity.MethodTemplate, report.Method)
	require.NotNil(t, report.Confidence)
	require.GreaterOrEqual(t, *report.Confidence, DefaultTemplateThreshold)
	require.Nil(t, report.OCRResults)

	last, ok := f.engine.LastRecognizedState()
	require.True(t, ok)
	require.Equal(t, entity.State("A"), last)

	require.Equal(t, 1, f.grabber.calls)
	require.Equal(t, []matchCall{{template: "A.png", haystack: image.Rect(100, 50, 500, 350)}}, f.matcher.calls)
}

func TestEngine_ROIOutsideFrameSearchesWholeFrame(t *testing.T) {
	m := entity.NewMappings()
	templates(m, "A")
	m.ROIs.Set("A", entity.Rect{Left: 5000, Top: 5000, Width: 10, Height: 10})

	f := newFixture(t, m, DefaultThresholds())
	f.matcher.scores["A.png"] = 0.8

	f.engine.Recognize(context.Background())
	require.Equal(t, image.Rect(0, 0, 1920, 1080), f.matcher.calls[0].haystack)
}

func TestEngine_EarlyExitOnExpectedTransition(t *testing.T) {
	m := entity.NewMappings()
	templates(m, "A", "B", "C", "D")
	m.Transitions.Set("A", []entity.State{"B", "C"})

	f := newFixture(t, m, DefaultThresholds())
	f.matcher.scores["B.png"] = 0.90
	f.matcher.scores["D.png"] = 0.95
	f.engine.last = "A"

	result := f.engine.Recognize(context.Background())

	require.Equal(t, entity.State("B"), result.State())
	require.InDelta(t, 0.90, *result.Report().Confidence, 1e-9)
	require.Equal(t, []string{"B.png"}, f.matcher.evaluated())
}

func TestEngine_WithoutContextPicksHighestScore(t *testing.T) {
	m := entity.NewMappings()
	templates(m, "A", "B", "C", "D")
	m.Transitions.Set("A", []entity.State{"B", "C"})

	f := newFixture(t, m, DefaultThresholds())
	f.matcher.scores["B.png"] = 0.90
	f.matcher.scores["D.png"] = 0.95

	result := f.engine.Recognize(context.Background())

	require.Equal(t, entity.State("D"), result.State())
	require.Equal(t, []string{"A.png", "B.png", "C.png", "D.png"}, f.matcher.evaluated())
}

func TestEngine_PrefixIsHintNotRestriction(t *testing.T) {
	m := entity.NewMappings()
	templates(m, "A", "B", "C")
	m.Transitions.Set("A", []entity.State{"B"})

	f := newFixture(t, m, DefaultThresholds())
	f.matcher.scores["B.png"] = 0.5
	f.matcher.scores["C.png"] = 0.8
	f.engine.last = "A"

	result := f.engine.Recognize(context.Background())

	require.Equal(t, entity.State("C"), result.State())
	require.Equal(t, []string{"B.png", "A.png", "C.png"}, f.matcher.evaluated())
}

func TestEngine_BestReferenceWins(t *testing.T) {
	m := entity.NewMappings()
	m.Templates.Set("A", []string{"a1.png", "a2.png", "a3.png"})

	f := newFixture(t, m, DefaultThresholds())
	f.matcher.scores["a1.png"] = 0.3
	f.matcher.scores["a2.png"] = 0.81

	result := f.engine.Recognize(context.Background())
	require.InDelta(t, 0.81, *result.Report().Confidence, 1e-9)
}

func ocrFixture(t *testing.T) *fixture {
	m := entity.NewMappings()
	templates(m, "X")
	m.OCRRegions.Set("X", []entity.OCRRegion{
		{Region: entity.Rect{Left: 10, Top: 10, Width: 100, Height: 20}, ExpectedText: []string{"Menu"}},
		{Region: entity.Rect{Left: 10, Top: 40, Width: 100, Height: 20}, ExpectedText: []string{"Play", "JUGAR"}},
	})

	f := newFixture(t, m, DefaultThresholds())
	f.matcher.scores["X.png"] = 0.65
	return f
}

func TestEngine_OCRFallbackConfirms(t *testing.T) {
	f := ocrFixture(t)
	f.reader.texts[image.Rect(10, 10, 110, 30)] = "Options"
	f.reader.texts[image.Rect(10, 40, 110, 60)] = "Jugar"

	result := f.engine.Recognize(context.Background())

	require.Equal(t, entity.MethodOCR, result.Method())
	require.Equal(t, entity.State("X"), result.State())

	report := result.Report()
	require.Nil(t, report.Confidence)
	require.Len(t, report.OCRResults, 2)
	require.False(t, report.OCRResults[0].MatchExpected)
	require.Equal(t, "Options", report.OCRResults[0].ExtractedText)
	require.True(t, report.OCRResults[1].MatchExpected)
	require.Equal(t, []string{"Play", "JUGAR"}, report.OCRResults[1].ExpectedTexts)

	last, _ := f.engine.LastRecognizedState()
	require.Equal(t, entity.State("X"), last)
}

func TestEngine_OCRFallbackRejects(t *testing.T) {
	f := ocrFixture(t)
	f.reader.texts[image.Rect(10, 40, 110, 60)] = "Settings"
	f.engine.last = "X"

	result := f.engine.Recognize(context.Background())

	require.Equal(t, entity.MethodUnknown, result.Method())
	require.Equal(t, entity.StateUnknown, result.State())
	require.Len(t, f.reader.calls, 2)

	_, ok := f.engine.LastRecognizedState()
	require.False(t, ok)
}

func TestEngine_BelowFallbackSkipsOCR(t *testing.T) {
	f := ocrFixture(t)
	f.matcher.scores["X.png"] = 0.59

	result := f.engine.Recognize(context.Background())

	require.Equal(t, entity.MethodUnknown, result.Method())
	require.Empty(t, f.reader.calls)
}

func TestEngine_OCRCandidatesByDescendingScore(t *testing.T) {
	m := entity.NewMappings()
	templates(m, "X", "Y")
	region := entity.Rect{Left: 0, Top: 0, Width: 50, Height: 10}
	m.OCRRegions.Set("X", []entity.OCRRegion{{Region: region, ExpectedText: []string{"same"}}})
	m.OCRRegions.Set("Y", []entity.OCRRegion{{Region: region, ExpectedText: []string{"same"}}})

	f := newFixture(t, m, DefaultThresholds())
	f.matcher.scores["X.png"] = 0.62
	f.matcher.scores["Y.png"] = 0.70
	f.reader.texts[region.Rectangle()] = "SAME"

	result := f.engine.Recognize(context.Background())

	require.Equal(t, entity.State("Y"), result.State())
	require.Len(t, f.reader.calls, 1)
}

func TestEngine_OCRRegionOutsideFrameReadsNothing(t *testing.T) {
	m := entity.NewMappings()
	templates(m, "X")
	m.OCRRegions.Set("X", []entity.OCRRegion{
		{Region: entity.Rect{Left: 3000, Top: 3000, Width: 10, Height: 10}, ExpectedText: []string{"ok"}},
		{Region: entity.Rect{Left: 1900, Top: 1070, Width: 100, Height: 100}, ExpectedText: []string{"ok"}},
		{Region: entity.Rect{Left: 0, Top: 0, Width: 10, Height: 10}},
	})

	f := newFixture(t, m, DefaultThresholds())
	f.matcher.scores["X.png"] = 0.7
	f.reader.texts[image.Rect(1900, 1070, 1920, 1080)] = "ok"
	f.reader.texts[image.Rect(0, 0, 10, 10)] = "anything"

	result := f.engine.Recognize(context.Background())

	require.Equal(t, entity.MethodOCR, result.Method())
	report := result.Report()
	require.Equal(t, "", report.OCRResults[0].ExtractedText)
	require.True(t, report.OCRResults[1].MatchExpected)
	require.False(t, report.OCRResults[2].MatchExpected)
	require.Equal(t, []image.Rectangle{image.Rect(1900, 1070, 1920, 1080), image.Rect(0, 0, 10, 10)}, f.reader.calls)
}

func TestEngine_CaptureFailure(t *testing.T) {
	m := entity.NewMappings()
	templates(m, "A")
	f := newFixture(t, m, DefaultThresholds())
	f.grabber.err = errors.New("no display")
	f.engine.last = "A"

	result := f.engine.Recognize(context.Background())

	require.Equal(t, entity.MethodUnknown, result.Method())
	require.GreaterOrEqual(t, result.Report().DetectionTimeS, 0.0)
	require.Empty(t, f.matcher.calls)
	require.Empty(t, f.reader.calls)

	_, ok := f.engine.LastRecognizedState()
	require.False(t, ok)
}

func TestEngine_StateWithoutOCRRegionsIsSkipped(t *testing.T) {
	m := entity.NewMappings()
	templates(m, "X")

	f := newFixture(t, m, DefaultThresholds())
	f.matcher.scores["X.png"] = 0.7

	result := f.engine.Recognize(context.Background())

	require.Equal(t, entity.MethodUnknown, result.Method())
	require.Empty(t, f.reader.calls)
}

func TestEngine_EqualThresholdsPreferTemplate(t *testing.T) {
	m := entity.NewMappings()
	templates(m, "A")
	m.OCRRegions.Set("A", []entity.OCRRegion{{Region: entity.Rect{Width: 10, Height: 10}, ExpectedText: []string{"x"}}})

	f := newFixture(t, m, Thresholds{Template: 0.7, OCRFallback: 0.7})
	f.matcher.scores["A.png"] = 0.7

	result := f.engine.Recognize(context.Background())

	require.Equal(t, entity.MethodTemplate, result.Method())
	require.Empty(t, f.reader.calls)
}

func TestEngine_EmptyCacheIsUnknown(t *testing.T) {
	f := newFixture(t, entity.NewMappings(), DefaultThresholds())

	result := f.engine.Recognize(context.Background())

	require.Equal(t, entity.MethodUnknown, result.Method())
	require.Equal(t, 1, f.grabber.calls)
}

func TestEngine_PanicIsContained(t *testing.T) {
	m := entity.NewMappings()
	templates(m, "A")
	f := newFixture(t, m, DefaultThresholds())
	f.matcher.panics = true
	f.engine.last = "A"

	result := f.engine.Recognize(context.Background())

	require.Equal(t, entity.MethodUnknown, result.Method())
	_, ok := f.engine.LastRecognizedState()
	require.False(t, ok)
}

func TestEngine_CancelledContext(t *testing.T) {
	m := entity.NewMappings()
	templates(m, "A")
	f := newFixture(t, m, DefaultThresholds())
	f.matcher.scores["A.png"] = 0.9

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Equal(t, entity.MethodUnknown, f.engine.Recognize(ctx).Method())
}

func TestEngine_RecognizeFrameIsDeterministic(t *testing.T) {
	m := entity.NewMappings()
	templates(m, "A", "B")
	m.Transitions.Set("A", []entity.State{"B"})

	f := newFixture(t, m, DefaultThresholds())
	f.matcher.scores["A.png"] = 0.8
	f.matcher.scores["B.png"] = 0.9
	frame := image.NewRGBA(image.Rect(0, 0, 640, 480))

	first := f.engine.RecognizeFrame(context.Background(), frame)
	f.engine.last = ""
	second := f.engine.RecognizeFrame(context.Background(), frame)

	require.Equal(t, first.State(), second.State())
	require.Equal(t, *first.Report().Confidence, *second.Report().Confidence)
	require.Equal(t, 0, f.grabber.calls)
}

func TestEngine_RecognizeFrameEmpty(t *testing.T) {
	m := entity.NewMappings()
	templates(m, "A")
	f := newFixture(t, m, DefaultThresholds())

	require.Equal(t, entity.MethodUnknown, f.engine.RecognizeFrame(context.Background(), nil).Method())
	require.Empty(t, f.matcher.calls)
}

func TestEngine_ReloadKeepsLastState(t *testing.T) {
	m := entity.NewMappings()
	templates(m, "A")
	f := newFixture(t, m, DefaultThresholds())
	f.matcher.scores["A.png"] = 0.9
	f.engine.Recognize(context.Background())

	next := entity.NewMappings()
	templates(next, "A", "B")
	next.ROIs.Set("B", entity.Rect{Width: 10, Height: 10})
	f.store.next = next

	stats := f.engine.Reload()

	require.Equal(t, []entity.State{"A", "B"}, stats.States)
	require.Equal(t, 1, stats.ROIs)
	require.Equal(t, 1, f.store.reloads)
	require.Equal(t, 2, f.loader.loads)

	last, ok := f.engine.LastRecognizedState()
	require.True(t, ok)
	require.Equal(t, entity.State("A"), last)
}

func TestNewEngine_RejectsInvertedThresholds(t *testing.T) {
	matcher := newFakeMatcher()
	_, err := NewEngine(&fakeGrabber{}, matcher, &fakeReader{}, &fakeStore{current: entity.NewMappings()},
		&fakeLoader{matcher: matcher}, Thresholds{Template: 0.5, OCRFallback: 0.6})
	require.Error(t, err)
}

func TestThresholds_Validate(t *testing.T) {
	require.NoError(t, DefaultThresholds().Validate())
	require.NoError(t, Thresholds{Template: 0.6, OCRFallback: 0.6}.Validate())
	require.Error(t, Thresholds{Template: 1.2, OCRFallback: 0.6}.Validate())
	require.Error(t, Thresholds{Template: 0.7, OCRFallback: -0.1}.Validate())
}

func TestOrderCandidates(t *testing.T) {
	states := []entity.State{"A", "B", "C", "D"}
	transitions := entity.NewOrderedMap[[]entity.State]()
	transitions.Set("A", []entity.State{"C", "Z", "C", "B"})
	transitions.Set("D", nil)

	got, prefix := orderCandidates(states, transitions, "A")
	require.Equal(t, []entity.State{"C", "B", "A", "D"}, got)
	require.Equal(t, 2, prefix)

	got, prefix = orderCandidates(states, transitions, "")
	require.Equal(t, states, got)
	require.Zero(t, prefix)

	got, prefix = orderCandidates(states, transitions, "D")
	require.Equal(t, states, got)
	require.Zero(t, prefix)

	got, prefix = orderCandidates(states, transitions, "Q")
	require.Equal(t, states, got)
	require.Zero(t, prefix)
}

func TestEngine_InspectIgnoresAndKeepsLastState(t *testing.T) {
	m := entity.NewMappings()
	templates(m, "A", "B", "C", "D")
	m.Transitions.Set("A", []entity.State{"B", "C"})

	f := newFixture(t, m, DefaultThresholds())
	f.matcher.scores["B.png"] = 0.90
	f.matcher.scores["D.png"] = 0.95
	f.engine.last = "A"

	result := f.engine.Inspect(context.Background(), image.NewRGBA(image.Rect(0, 0, 640, 480)))

	require.Equal(t, entity.State("D"), result.State())
	require.Equal(t, []string{"A.png", "B.png", "C.png", "D.png"}, f.matcher.evaluated())
	require.Equal(t, 0, f.grabber.calls)

	last, ok := f.engine.LastRecognizedState()
	require.True(t, ok)
	require.Equal(t, entity.State("A"), last)

	f.matcher.scores = map[string]float64{}
	require.Equal(t, entity.MethodUnknown, f.engine.Inspect(context.Background(), image.NewRGBA(image.Rect(0, 0, 64, 64))).Method())
	last, ok = f.engine.LastRecognizedState()
	require.True(t, ok)
	require.Equal(t, entity.State("A"), last)
}
