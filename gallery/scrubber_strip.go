package gallery

import (
	"image/color"
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// stripWheelNotch is the wheel delta that moves the strip by one tick.
const stripWheelNotch = float32(40)

// scrubberStrip draws one tick per grid row around the committed index and
// turns pointer input into scrubber gestures. It holds no index state of its
// own beyond the last State it was given.
type scrubberStrip struct {
	widget.BaseWidget

	state     State
	stepWidth float32
	label     string

	OnDragBegin   func()
	OnDragChanged func(translation float64)
	OnDragEnd     func(translation float64)
	OnSelect      func(row int)

	dragging bool
	dragX    float32
	wheelAcc float32
}

var (
	_ fyne.Draggable  = (*scrubberStrip)(nil)
	_ fyne.Tappable   = (*scrubberStrip)(nil)
	_ fyne.Scrollable = (*scrubberStrip)(nil)
)

func newScrubberStrip() *scrubberStrip {
	s := &scrubberStrip{
		stepWidth: DefaultStepWidth,
		state:     State{Range: IndexRange{}},
	}
	s.ExtendBaseWidget(s)
	return s
}

func (s *scrubberStrip) CreateRenderer() fyne.WidgetRenderer {
	r := &scrubberStripRenderer{
		s:     s,
		line:  canvas.NewRectangle(theme.Color(theme.ColorNameSeparator)),
		label: canvas.NewText("", theme.Color(theme.ColorNameForeground)),
	}
	r.label.Alignment = fyne.TextAlignCenter
	r.label.TextStyle = fyne.TextStyle{Bold: true}
	return r
}

// setState stores a controller snapshot and the date label of its live row.
func (s *scrubberStrip) setState(st State, label string) {
	s.state = st
	s.label = label
	s.Refresh()
}

// tickX is the horizontal centre of the tick for row.
func (s *scrubberStrip) tickX(row int, width float32) float32 {
	return width/2 + float32(row-s.state.CommittedIndex)*s.stepWidth + float32(s.state.DragOffset)
}

// rowAt returns the row whose tick is closest to x.
func (s *scrubberStrip) rowAt(x float32) int {
	w := s.Size().Width
	rel := float64((x - w/2 - float32(s.state.DragOffset)) / s.stepWidth)
	return s.state.Range.Clamp(s.state.CommittedIndex + int(math.Round(rel)))
}

// visibleTicks returns the rows whose ticks fall inside width.
func (s *scrubberStrip) visibleTicks(width float32) (first, last int) {
	if width <= 0 {
		return 0, -1
	}
	center := width/2 + float32(s.state.DragOffset)
	first = s.state.CommittedIndex + int(math.Ceil(float64(-center/s.stepWidth)))
	last = s.state.CommittedIndex + int(math.Floor(float64((width-center)/s.stepWidth)))
	first = max(first, s.state.Range.Lower)
	last = min(last, s.state.Range.Upper)
	return first, last
}

func (s *scrubberStrip) Dragged(e *fyne.DragEvent) {
	if !s.dragging {
		s.dragging = true
		s.dragX = 0
		if s.OnDragBegin != nil {
			s.OnDragBegin()
		}
	}
	s.dragX += e.Dragged.DX
	if s.OnDragChanged != nil {
		s.OnDragChanged(float64(s.dragX))
	}
}

func (s *scrubberStrip) DragEnd() {
	if !s.dragging {
		return
	}
	s.dragging = false
	tx := s.dragX
	s.dragX = 0
	if s.OnDragEnd != nil {
		s.OnDragEnd(float64(tx))
	}
}

func (s *scrubberStrip) Tapped(e *fyne.PointEvent) {
	if s.dragging || s.OnSelect == nil {
		return
	}
	s.OnSelect(s.rowAt(e.Position.X))
}

// Scrolled steps one tick per wheel notch. Scrolling right or down moves to
// later rows, the same direction as dragging left.
func (s *scrubberStrip) Scrolled(e *fyne.ScrollEvent) {
	if s.dragging || s.OnSelect == nil {
		return
	}
	delta := e.Scrolled.DX
	if delta == 0 {
		delta = e.Scrolled.DY
	}
	if math.IsNaN(float64(delta)) || math.IsInf(float64(delta), 0) {
		return
	}
	s.wheelAcc += delta

	steps := 0
	for s.wheelAcc >= stripWheelNotch {
		steps--
		s.wheelAcc -= stripWheelNotch
	}
	for s.wheelAcc <= -stripWheelNotch {
		steps++
		s.wheelAcc += stripWheelNotch
	}
	if steps != 0 {
		s.OnSelect(s.state.Range.Clamp(s.state.CommittedIndex + steps))
	}
}

type scrubberStripRenderer struct {
	s     *scrubberStrip
	line  *canvas.Rectangle
	label *canvas.Text
	ticks []*canvas.Rectangle
	shown int
}

func (r *scrubberStripRenderer) tick(i int) *canvas.Rectangle {
	for len(r.ticks) <= i {
		r.ticks = append(r.ticks, canvas.NewRectangle(color.Transparent))
	}
	return r.ticks[i]
}

func (r *scrubberStripRenderer) Layout(size fyne.Size) {
	s := r.s
	tickArea := size.Height - scrubberLabelHeight
	baseline := scrubberLabelHeight + tickArea/2

	r.label.Text = s.label
	labelSize := r.label.MinSize()
	r.label.Resize(fyne.NewSize(size.Width, labelSize.Height))
	r.label.Move(fyne.NewPos(0, (scrubberLabelHeight-labelSize.Height)/2))

	r.line.Resize(fyne.NewSize(size.Width, 1))
	r.line.Move(fyne.NewPos(0, baseline))

	normal := theme.Color(theme.ColorNameDisabled)
	active := theme.Color(theme.ColorNamePrimary)

	first, last := s.visibleTicks(size.Width)
	n := 0
	for row := first; row <= last; row++ {
		t := r.tick(n)
		w, h := float32(tickWidth), float32(tickHeight)
		t.FillColor = normal
		if row == s.state.LiveIndex {
			w, h = tickActiveWidth, tickActiveHeight
			t.FillColor = active
		}
		x := s.tickX(row, size.Width)
		t.Resize(fyne.NewSize(w, h))
		t.Move(fyne.NewPos(x-w/2, baseline-h/2))
		t.Show()
		n++
	}
	for i := n; i < len(r.ticks); i++ {
		r.ticks[i].Hide()
	}
	r.shown = n
}

func (r *scrubberStripRenderer) MinSize() fyne.Size {
	return fyne.NewSize(tickActiveWidth*8, scrubberHeight)
}

func (r *scrubberStripRenderer) Refresh() {
	r.line.FillColor = theme.Color(theme.ColorNameSeparator)
	r.label.Color = theme.Color(theme.ColorNameForeground)
	r.Layout(r.s.Size())
	r.line.Refresh()
	r.label.Refresh()
	for _, t := range r.ticks[:r.shown] {
		t.Refresh()
	}
}

func (r *scrubberStripRenderer) Objects() []fyne.CanvasObject {
	objs := make([]fyne.CanvasObject, 0, len(r.ticks)+2)
	objs = append(objs, r.line, r.label)
	for _, t := range r.ticks {
		objs = append(objs, t)
	}
	return objs
}

func (r *scrubberStripRenderer) Destroy() {}
