// Package screen снимает экран через kbinani/screenshot.
package screen

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/kbinani/screenshot"

	"screenstate/internal/domain/entity"
	"screenstate/internal/domain/port"
	apperrors "screenstate/internal/errors"
)

// AllMonitors индекс виртуального экрана, объединяющего все мониторы
const AllMonitors = 0

// displays доступ к мониторам; подменяется в тестах
type displays interface {
	Count() int
	Bounds(index int) image.Rectangle
	Capture(rect image.Rectangle) (*image.RGBA, error)
}

type kbinaniDisplays struct{}

func (kbinaniDisplays) Count() int                   { return screenshot.NumActiveDisplays() }
func (kbinaniDisplays) Bounds(i int) image.Rectangle { return screenshot.GetDisplayBounds(i) }
func (kbinaniDisplays) Capture(r image.Rectangle) (*image.RGBA, error) {
	return screenshot.CaptureRect(r)
}

// Grabber снимает активный монитор или его часть
type Grabber struct {
	monitor  int
	displays displays
}

// NewGrabber создаёт источник снимков. monitor=0 означает все экраны, 1 и больше - физические мониторы.
func NewGrabber(monitor int) *Grabber {
	return &Grabber{monitor: monitor, displays: kbinaniDisplays{}}
}

// MonitorBounds возвращает границы активного монитора в абсолютных координатах
func (g *Grabber) MonitorBounds() (image.Rectangle, error) {
	n := g.displays.Count()
	if n <= 0 {
		return image.Rectangle{}, apperrors.New(apperrors.KindCapture, "no active displays")
	}

	if g.monitor == AllMonitors {
		var all image.Rectangle
		for i := 0; i < n; i++ {
			all = all.Union(g.displays.Bounds(i))
		}
		return all, nil
	}

	if g.monitor < 0 || g.monitor > n {
		return image.Rectangle{}, apperrors.Newf(apperrors.KindCapture, "monitor %d is out of range (1..%d)", g.monitor, n)
	}
	return g.displays.Bounds(g.monitor - 1), nil
}

// Grab снимает rect, обрезанный по монитору, или весь монитор при rect == nil.
// Границы результата совпадают с абсолютными координатами снятой области.
func (g *Grabber) Grab(rect *entity.Rect) (img image.Image, err error) {
	bounds, err := g.MonitorBounds()
	if err != nil {
		slog.Error("screen capture failed", "monitor", g.monitor, "error", err)
		return nil, err
	}

	target := bounds
	if rect != nil {
		target = rect.Rectangle().Intersect(bounds)
	}
	if target.Empty() {
		err := apperrors.Wrap(apperrors.ErrEmptyRegion, apperrors.KindCapture, "capture region is empty after clipping")
		slog.Warn("screen capture skipped", "monitor", g.monitor, "error", err)
		return nil, err
	}

	// Ошибки нативного бэкенда иногда приходят паникой
	defer func() {
		if r := recover(); r != nil {
			img = nil
			err = apperrors.Wrap(fmt.Errorf("%v", r), apperrors.KindCapture, "screenshot backend panicked")
			slog.Error("screen capture failed", "monitor", g.monitor, "error", err)
		}
	}()

	rgba, err := g.displays.Capture(target)
	if err != nil {
		err = apperrors.Wrap(err, apperrors.KindCapture, "capture rect")
		slog.Error("screen capture failed", "monitor", g.monitor, "rect", target, "error", err)
		return nil, err
	}
	if rgba == nil || rgba.Rect.Dx() != target.Dx() || rgba.Rect.Dy() != target.Dy() {
		err := apperrors.Newf(apperrors.KindCapture, "backend returned unexpected frame for %v", target)
		slog.Error("screen capture failed", "monitor", g.monitor, "error", err)
		return nil, err
	}

	rgba.Rect = rgba.Rect.Add(target.Min.Sub(rgba.Rect.Min))
	return rgba, nil
}

// Проверка реализации интерфейса
var _ port.ScreenGrabber = (*Grabber)(nil)
