package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"

	"screenstate/internal/domain/entity"
	"screenstate/internal/domain/port"
)

// Recognizer движок распознавания, которым управляет сервис
type Recognizer interface {
	Recognize(ctx context.Context) entity.Recognition
	RecognizeFrame(ctx context.Context, frame image.Image) entity.Recognition
	Inspect(ctx context.Context, frame image.Image) entity.Recognition
	Reload() Stats
	Stats() Stats
}

// RecognitionService выполняет циклы распознавания по очереди и ведёт их журнал
type RecognitionService struct {
	engine  Recognizer
	decoder port.ImageDecoder
	history port.HistoryRepository
	mu      sync.Mutex // один цикл или перезагрузка за раз
	now     func() time.Time
}

// NewRecognitionService создаёт сервис распознавания
func NewRecognitionService(engine Recognizer, decoder port.ImageDecoder, history port.HistoryRepository) *RecognitionService {
	return &RecognitionService{
		engine:  engine,
		decoder: decoder,
		history: history,
		now:     time.Now,
	}
}

// Recognize снимает экран и определяет его состояние
func (s *RecognitionService) Recognize(ctx context.Context) (*entity.HistoryEntry, error) {
	s.mu.Lock()
	result := s.engine.Recognize(ctx)
	s.mu.Unlock()

	return s.record(ctx, entity.SourceScreen, result)
}

// RecognizeImage определяет состояние по присланному изображению.
// Последнее состояние экрана при этом не меняется.
func (s *RecognitionService) RecognizeImage(ctx context.Context, data []byte) (*entity.HistoryEntry, error) {
	if s.decoder == nil {
		return nil, errors.New("image decoder is not configured")
	}
	if len(data) == 0 {
		return nil, errors.New("image is empty")
	}

	frame, err := s.decoder.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	s.mu.Lock()
	result := s.engine.Inspect(ctx, frame)
	s.mu.Unlock()

	return s.record(ctx, entity.SourcePhoto, result)
}

// Last возвращает последнюю запись журнала или nil
func (s *RecognitionService) Last(ctx context.Context) (*entity.HistoryEntry, error) {
	return s.history.Last(ctx)
}

// History возвращает до limit последних записей, новые первыми
func (s *RecognitionService) History(ctx context.Context, limit int) ([]*entity.HistoryEntry, error) {
	return s.history.List(ctx, limit)
}

// Reload перечитывает конфигурацию и эталоны
func (s *RecognitionService) Reload(ctx context.Context) Stats {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Reload()
}

// Stats возвращает сводку по текущей конфигурации
func (s *RecognitionService) Stats() Stats {
	return s.engine.Stats()
}

func (s *RecognitionService) record(ctx context.Context, source entity.Source, result entity.Recognition) (*entity.HistoryEntry, error) {
	entry := &entity.HistoryEntry{
		ID:        uuid.NewString(),
		Source:    source,
		CreatedAt: s.now(),
		Report:    result.Report(),
	}
	if err := s.history.Add(ctx, entry); err != nil {
		return entry, fmt.Errorf("save history entry: %w", err)
	}
	return entry, nil
}

// Проверка реализации интерфейса
var _ Recognizer = (*Engine)(nil)
