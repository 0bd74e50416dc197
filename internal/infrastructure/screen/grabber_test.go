package screen

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/require"

	"screenstate/internal/domain/entity"
	apperrors "screenstate/internal/errors"
)

type fakeDisplays struct {
	bounds   []image.Rectangle
	captured []image.Rectangle
	err      error
	panicMsg string
}

func (f *fakeDisplays) Count() int                   { return len(f.bounds) }
func (f *fakeDisplays) Bounds(i int) image.Rectangle { return f.bounds[i] }
func (f *fakeDisplays) Capture(r image.Rectangle) (*image.RGBA, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	f.captured = append(f.captured, r)
	if f.err != nil {
		return nil, f.err
	}
	return image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy())), nil
}

func newTestGrabber(monitor int, d *fakeDisplays) *Grabber {
	return &Grabber{monitor: monitor, displays: d}
}

func twoMonitors() *fakeDisplays {
	return &fakeDisplays{bounds: []image.Rectangle{
		image.Rect(0, 0, 1920, 1080),
		image.Rect(1920, 0, 3840, 1080),
	}}
}

func TestGrab_FullMonitor(t *testing.T) {
	d := twoMonitors()
	img, err := newTestGrabber(2, d).Grab(nil)
	require.NoError(t, err)
	require.Equal(t, image.Rect(1920, 0, 3840, 1080), img.Bounds())
	require.Equal(t, []image.Rectangle{image.Rect(1920, 0, 3840, 1080)}, d.captured)
}

func TestGrab_AllMonitors(t *testing.T) {
	d := twoMonitors()
	img, err := newTestGrabber(AllMonitors, d).Grab(nil)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 3840, 1080), img.Bounds())
}

func TestGrab_RectIsClippedToMonitor(t *testing.T) {
	d := twoMonitors()
	img, err := newTestGrabber(1, d).Grab(&entity.Rect{Left: 1800, Top: 1000, Width: 400, Height: 300})
	require.NoError(t, err)
	require.Equal(t, image.Rect(1800, 1000, 1920, 1080), img.Bounds())
}

func TestGrab_EmptyRegion(t *testing.T) {
	d := twoMonitors()
	g := newTestGrabber(1, d)

	for _, rect := range []entity.Rect{
		{Left: 5000, Top: 0, Width: 10, Height: 10},
		{Left: 10, Top: 10, Width: 0, Height: 10},
		{Left: 10, Top: 10, Width: 10, Height: -5},
	} {
		img, err := g.Grab(&rect)
		require.Nil(t, img)
		require.True(t, errors.Is(err, apperrors.ErrEmptyRegion))
		require.True(t, apperrors.IsKind(err, apperrors.KindCapture))
	}
	require.Empty(t, d.captured)
}

func TestGrab_InvalidMonitor(t *testing.T) {
	img, err := newTestGrabber(3, twoMonitors()).Grab(nil)
	require.Nil(t, img)
	require.True(t, apperrors.IsKind(err, apperrors.KindCapture))

	img, err = newTestGrabber(1, &fakeDisplays{}).Grab(nil)
	require.Nil(t, img)
	require.Error(t, err)
}

func TestGrab_BackendFailureIsContained(t *testing.T) {
	d := twoMonitors()
	d.err = errors.New("xgb: connection refused")
	img, err := newTestGrabber(1, d).Grab(nil)
	require.Nil(t, img)
	require.True(t, apperrors.IsKind(err, apperrors.KindCapture))

	d = twoMonitors()
	d.panicMsg = "BadMatch"
	img, err = newTestGrabber(1, d).Grab(nil)
	require.Nil(t, img)
	require.True(t, apperrors.IsKind(err, apperrors.KindCapture))
}
