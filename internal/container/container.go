package container

import (
	"screenstate/config"
	app "screenstate/internal/application"
	"screenstate/internal/domain/port"
	"screenstate/internal/infrastructure/configstore"
	"screenstate/internal/infrastructure/ocr"
	"screenstate/internal/infrastructure/screen"
	"screenstate/internal/infrastructure/storage"
	"screenstate/internal/infrastructure/templates"
	"screenstate/internal/infrastructure/vision"
)

type Container struct {
	Engine             *app.Engine
	RecognitionService *app.RecognitionService
}

// Adapters внешние зависимости движка
type Adapters struct {
	Grabber port.ScreenGrabber
	Matcher port.TemplateMatcher
	Reader  port.TextReader
	Store   *configstore.Store
	Loader  port.TemplateLoader
	Decoder port.ImageDecoder
	History port.HistoryRepository
}

// NewAdapters создаёт адаптеры OpenCV, tesseract и захвата экрана по конфигурации
func NewAdapters(cfg *config.Config) Adapters {
	opts := cfg.EngineOptions()
	matcher := vision.NewMatcher()

	return Adapters{
		Grabber: screen.NewGrabber(opts.Monitor),
		Matcher: matcher,
		Reader: ocr.NewReader(matcher, vision.Binarizer{},
			ocr.NewTesseract(opts.OCRLang, opts.OCRConfig), opts.OCRApplyThresholding),
		Store:   configstore.NewStore(cfg.ConfigDir),
		Loader:  templates.NewLoader(cfg.ImagesDir, opts.Resolution, vision.LoadGray),
		Decoder: vision.Decoder{},
		History: storage.NewMemoryHistoryRepository(cfg.HistorySize),
	}
}

func New(cfg *config.Config, adapters Adapters) (*Container, error) {
	opts := cfg.EngineOptions()
	engine, err := app.NewEngine(
		adapters.Grabber,
		adapters.Matcher,
		adapters.Reader,
		adapters.Store,
		adapters.Loader,
		app.Thresholds{Template: opts.Threshold, OCRFallback: opts.OCRFallbackThreshold},
	)
	if err != nil {
		return nil, err
	}

	return &Container{
		Engine:             engine,
		RecognitionService: app.NewRecognitionService(engine, adapters.Decoder, adapters.History),
	}, nil
}
