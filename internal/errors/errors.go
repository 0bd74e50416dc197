// Package errors описывает типизированные ошибки распознавания.
package errors

import (
	"errors"
	"fmt"
)

// Kind вид ошибки
type Kind string

const (
	KindConfigLoad   Kind = "CONFIG_LOAD"   // файл конфигурации отсутствует или повреждён
	KindTemplateLoad Kind = "TEMPLATE_LOAD" // эталон не читается
	KindCapture      Kind = "CAPTURE"       // снимок экрана не получен
	KindMatcher      Kind = "MATCHER"       // сопоставление с эталоном упало
	KindOCR          Kind = "OCR"           // распознавание текста упало
)

// ErrEmptyRegion область имеет нулевую площадь после обрезки
var ErrEmptyRegion = errors.New("region has zero area")

// Error ошибка с видом и путём к ресурсу
type Error struct {
	Kind    Kind
	Message string
	Path    string
	Cause   error
}

func (e *Error) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.Path != "" {
		s += fmt.Sprintf(" (%s)", e.Path)
	}
	if e.Cause != nil {
		s += fmt.Sprintf(": %v", e.Cause)
	}
	return s
}

func (e *Error) Unwrap() error { return e.Cause }

// New создаёт ошибку без причины
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf создаёт ошибку с форматированным сообщением
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap оборачивает причину
func Wrap(err error, kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Cause: err}
}

// WithPath добавляет путь к ресурсу
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// IsKind проверяет вид ошибки по всей цепочке
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
