package gallery

import (
	"math"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

// ZoomLevel selects how many cells make up one grid row. Levels are ordered
// by their column count.
type ZoomLevel int

const (
	ZoomLevelLargest ZoomLevel = iota
	ZoomLevelLarge
	ZoomLevelDefault
	ZoomLevelSmall
	ZoomLevelSmallest
)

var zoomColumns = []int{
	2,
	3,
	4,
	6,
	8,
}

// PinchThreshold is the relative scale a pinch must pass to move one level.
const PinchThreshold = 1.15

func clampZoomLevel(z ZoomLevel) ZoomLevel {
	if z < 0 {
		return 0
	}
	if int(z) >= len(zoomColumns) {
		return ZoomLevel(len(zoomColumns) - 1)
	}
	return z
}

// Columns is the number of cells across one row at this level.
func (z ZoomLevel) Columns() int {
	return zoomColumns[clampZoomLevel(z)]
}

// Valid reports whether z names one of the known levels.
func (z ZoomLevel) Valid() bool {
	return z >= 0 && int(z) < len(zoomColumns)
}

// ZoomLevelForColumns returns the level with exactly cols columns.
func ZoomLevelForColumns(cols int) (ZoomLevel, bool) {
	for i, c := range zoomColumns {
		if c == cols {
			return ZoomLevel(i), true
		}
	}
	return ZoomLevelDefault, false
}

// ZoomController turns continuous pinch scale into discrete level steps.
// Each step rebases the gesture so a single pinch ratchets one level at a time.
type ZoomController struct {
	level         ZoomLevel
	pinchStart    ZoomLevel
	previousScale float64
	pinching      bool
}

func NewZoomController(level ZoomLevel) *ZoomController {
	return &ZoomController{level: clampZoomLevel(level), previousScale: 1}
}

func (z *ZoomController) Level() ZoomLevel {
	return z.level
}

func (z *ZoomController) CanZoomIn() bool {
	return int(z.level) < len(zoomColumns)-1
}

func (z *ZoomController) CanZoomOut() bool {
	return z.level > 0
}

// PinchBegin snapshots the level and resets the gesture baseline.
func (z *ZoomController) PinchBegin() {
	z.pinchStart = z.level
	z.previousScale = 1
	z.pinching = true
}

// PinchChanged feeds the cumulative gesture scale. It returns the new level
// and true when a step happened. At most one step is taken per call.
func (z *ZoomController) PinchChanged(cumulativeScale float64) (ZoomLevel, bool) {
	if !z.pinching {
		z.PinchBegin()
	}
	if cumulativeScale <= 0 || math.IsNaN(cumulativeScale) || math.IsInf(cumulativeScale, 0) {
		return z.level, false
	}

	relative := cumulativeScale / z.previousScale
	switch {
	case relative > PinchThreshold && z.CanZoomIn():
		z.level++
	case relative < 1/PinchThreshold && z.CanZoomOut():
		z.level--
	default:
		return z.level, false
	}
	z.previousScale = cumulativeScale
	return z.level, true
}

// PinchEnd releases the gesture baseline.
func (z *ZoomController) PinchEnd() {
	z.pinching = false
	z.previousScale = 1
}

// SetLevel jumps to level, clamped to the known levels.
func (z *ZoomController) SetLevel(level ZoomLevel) (ZoomLevel, bool) {
	level = clampZoomLevel(level)
	if level == z.level {
		return z.level, false
	}
	z.level = level
	return z.level, true
}

// Step moves steps levels; positive adds columns.
func (z *ZoomController) Step(steps int) (ZoomLevel, bool) {
	if steps == 0 {
		return z.level, false
	}
	return z.SetLevel(z.level + ZoomLevel(steps))
}

func isZoomModifierActive() bool {
	app := fyne.CurrentApp()
	if app == nil {
		return false
	}
	d, ok := app.Driver().(desktop.Driver)
	if !ok {
		return false
	}

	mods := d.CurrentKeyModifiers()
	if mods&fyne.KeyModifierControl != 0 {
		return true
	}
	// Command+wheel on macOS.
	return mods&fyne.KeyModifierShortcutDefault != 0
}

// pinchOverlay emulates a pinch gesture with Ctrl/Cmd + mouse wheel. The
// accumulated wheel delta becomes a cumulative scale; the pinch ends after a
// short quiet period.
type pinchOverlay struct {
	widget.BaseWidget
	onBegin   func()
	onChanged func(scale float64)
	onEnd     func()

	active   bool
	accDY    float32
	endTimer *time.Timer
	modifier func() bool
}

const (
	// Wheel delta that doubles the emulated scale is pinchWheelScale*ln(2).
	pinchWheelScale = float32(400)
	pinchQuietDelay = 250 * time.Millisecond
)

func newPinchOverlay(onBegin func(), onChanged func(float64), onEnd func()) *pinchOverlay {
	p := &pinchOverlay{
		onBegin:   onBegin,
		onChanged: onChanged,
		onEnd:     onEnd,
		modifier:  isZoomModifierActive,
	}
	p.ExtendBaseWidget(p)
	return p
}

func (p *pinchOverlay) Visible() bool {
	if !p.BaseWidget.Visible() {
		return false
	}
	return p.active || p.modifier()
}

func (p *pinchOverlay) Scrolled(e *fyne.ScrollEvent) {
	dy := e.Scrolled.DY
	if math.IsNaN(float64(dy)) || math.IsInf(float64(dy), 0) {
		return
	}

	if !p.active {
		p.active = true
		p.accDY = 0
		if p.onBegin != nil {
			p.onBegin()
		}
	}

	p.accDY += dy
	if p.onChanged != nil {
		p.onChanged(math.Exp(float64(p.accDY / pinchWheelScale)))
	}

	if p.endTimer != nil {
		p.endTimer.Stop()
	}
	p.endTimer = time.AfterFunc(pinchQuietDelay, func() {
		fyne.Do(p.endPinch)
	})
}

func (p *pinchOverlay) endPinch() {
	if p.endTimer != nil {
		p.endTimer.Stop()
		p.endTimer = nil
	}
	if !p.active {
		return
	}
	p.active = false
	p.accDY = 0
	if p.onEnd != nil {
		p.onEnd()
	}
}

func (p *pinchOverlay) CreateRenderer() fyne.WidgetRenderer {
	return &pinchOverlayRenderer{}
}

var _ fyne.Scrollable = (*pinchOverlay)(nil)

type pinchOverlayRenderer struct{}

func (r *pinchOverlayRenderer) Layout(fyne.Size) {}
func (r *pinchOverlayRenderer) MinSize() fyne.Size {
	return fyne.NewSize(0, 0)
}
func (r *pinchOverlayRenderer) Refresh()                     {}
func (r *pinchOverlayRenderer) Objects() []fyne.CanvasObject { return nil }
func (r *pinchOverlayRenderer) Destroy()                     {}
