package entity

import (
	"image"
	"strings"
	"time"
)

// Method способ, которым было распознано состояние
type Method string

const (
	MethodTemplate Method = "template" // по эталону
	MethodOCR      Method = "ocr"      // подтверждено текстом
	MethodUnknown  Method = "unknown"  // не распознано
)

// Recognition итог одного цикла распознавания.
// Реализации: TemplateMatch, OCRMatch, Unrecognized.
type Recognition interface {
	Method() Method
	State() State
	Elapsed() time.Duration
	Report() Report
	recognition()
}

// TemplateMatch состояние найдено по эталону
type TemplateMatch struct {
	Name       State
	Confidence float64
	Location   image.Point     // левый верхний угол лучшего совпадения
	Area       image.Rectangle // область кадра под лучшим эталоном
	Duration   time.Duration
}

// OCRMatch состояние подтверждено текстом хотя бы одной OCR-зоны
type OCRMatch struct {
	Name     State
	Regions  []RegionOutcome // индекс совпадает с позицией зоны в конфигурации
	Duration time.Duration
}

// Unrecognized экран не удалось распознать
type Unrecognized struct {
	Duration time.Duration
}

func (TemplateMatch) Method() Method { return MethodTemplate }
func (OCRMatch) Method() Method      { return MethodOCR }
func (Unrecognized) Method() Method  { return MethodUnknown }

func (m TemplateMatch) State() State { return m.Name }
func (m OCRMatch) State() State      { return m.Name }
func (Unrecognized) State() State    { return StateUnknown }

func (m TemplateMatch) Elapsed() time.Duration { return m.Duration }
func (m OCRMatch) Elapsed() time.Duration      { return m.Duration }
func (m Unrecognized) Elapsed() time.Duration  { return m.Duration }

func (TemplateMatch) recognition() {}
func (OCRMatch) recognition()      {}
func (Unrecognized) recognition()  {}

// RegionOutcome результат чтения одной OCR-зоны
type RegionOutcome struct {
	Region        Rect     `json:"region"`
	ExtractedText string   `json:"extracted_text"`
	ExpectedTexts []string `json:"expected_texts"`
	MatchExpected bool     `json:"match_expected"`
}

// MatchesExpected сравнивает текст с ожидаемыми вариантами без учёта регистра и пробелов по краям
func MatchesExpected(text string, expected []string) bool {
	text = strings.TrimSpace(text)
	for _, e := range expected {
		if strings.EqualFold(text, strings.TrimSpace(e)) {
			return true
		}
	}
	return false
}

// Report плоское представление результата для внешних потребителей
type Report struct {
	Method         Method                `json:"method"`
	State          State                 `json:"state"`
	Confidence     *float64              `json:"confidence"`
	OCRResults     map[int]RegionOutcome `json:"ocr_results"`
	DetectionTimeS float64               `json:"detection_time_s"`
}

func (m TemplateMatch) Report() Report {
	confidence := m.Confidence
	return Report{
		Method:         MethodTemplate,
		State:          m.Name,
		Confidence:     &confidence,
		DetectionTimeS: m.Duration.Seconds(),
	}
}

func (m OCRMatch) Report() Report {
	results := make(map[int]RegionOutcome, len(m.Regions))
	for i, outcome := range m.Regions {
		results[i] = outcome
	}
	return Report{
		Method:         MethodOCR,
		State:          m.Name,
		OCRResults:     results,
		DetectionTimeS: m.Duration.Seconds(),
	}
}

func (m Unrecognized) Report() Report {
	return Report{
		Method:         MethodUnknown,
		State:          StateUnknown,
		DetectionTimeS: m.Duration.Seconds(),
	}
}
