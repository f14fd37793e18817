package gallery

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
)

func newTestStrip(t *testing.T) *scrubberStrip {
	t.Helper()
	s := newScrubberStrip()
	s.Resize(fyne.NewSize(200, scrubberHeight))
	s.setState(State{Range: IndexRange{0, 24}, CommittedIndex: 10, LiveIndex: 10}, "Jul '25")
	return s
}

func TestScrubberStrip_RowAt(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	s := newTestStrip(t)
	tests := []struct {
		x    float32
		want int
	}{
		{100, 10},
		{104, 10},
		{106, 11},
		{120, 12},
		{50, 5},
		{0, 0},
		{-500, 0},
		{5000, 24},
	}
	for _, tt := range tests {
		if got := s.rowAt(tt.x); got != tt.want {
			t.Errorf("rowAt(%v): expected %d, got %d", tt.x, tt.want, got)
		}
	}

	if x := s.tickX(12, 200); x != 120 {
		t.Errorf("expected tick 12 at 120, got %v", x)
	}
	if first, last := s.visibleTicks(200); first != 0 || last != 20 {
		t.Errorf("expected ticks 0-20, got %d-%d", first, last)
	}
}

func TestScrubberStrip_DragFollowsOffset(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	s := newTestStrip(t)
	s.setState(State{Range: IndexRange{0, 24}, CommittedIndex: 10, LiveIndex: 8, DragOffset: 20, Phase: ScrubDragging}, "")
	if x := s.tickX(8, 200); x != 100 {
		t.Errorf("expected the live tick under the centre, got %v", x)
	}
}

func TestScrubberStrip_DragCallbacks(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	s := newTestStrip(t)
	begins := 0
	var changes []float64
	var ended []float64
	s.OnDragBegin = func() { begins++ }
	s.OnDragChanged = func(tr float64) { changes = append(changes, tr) }
	s.OnDragEnd = func(tr float64) { ended = append(ended, tr) }
	selected := -1
	s.OnSelect = func(row int) { selected = row }

	s.Dragged(&fyne.DragEvent{Dragged: fyne.Delta{DX: 5}})
	s.Dragged(&fyne.DragEvent{Dragged: fyne.Delta{DX: 7}})
	s.Tapped(&fyne.PointEvent{Position: fyne.NewPos(150, 30)})
	s.DragEnd()

	if begins != 1 {
		t.Errorf("expected 1 drag begin, got %d", begins)
	}
	if len(changes) != 2 || changes[0] != 5 || changes[1] != 12 {
		t.Errorf("expected cumulative translations [5 12], got %v", changes)
	}
	if len(ended) != 1 || ended[0] != 12 {
		t.Errorf("expected drag end at 12, got %v", ended)
	}
	if selected != -1 {
		t.Errorf("expected taps during a drag to be ignored, got %d", selected)
	}

	// A second drag starts from zero.
	s.Dragged(&fyne.DragEvent{Dragged: fyne.Delta{DX: -3}})
	if begins != 2 || changes[len(changes)-1] != -3 {
		t.Errorf("expected a fresh drag, got %d begins and %v", begins, changes)
	}
	s.DragEnd()
	s.DragEnd()
	if len(ended) != 2 {
		t.Errorf("expected a stray DragEnd to be ignored, got %v", ended)
	}
}

func TestScrubberStrip_TapSelectsTick(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	s := newTestStrip(t)
	selected := -1
	s.OnSelect = func(row int) { selected = row }
	s.Tapped(&fyne.PointEvent{Position: fyne.NewPos(130, 30)})
	if selected != 13 {
		t.Fatalf("expected row 13, got %d", selected)
	}
}

func TestScrubberStrip_WheelSteps(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	s := newTestStrip(t)
	var selected []int
	s.OnSelect = func(row int) { selected = append(selected, row) }

	s.Scrolled(&fyne.ScrollEvent{Scrolled: fyne.Delta{DY: 20}})
	if len(selected) != 0 {
		t.Fatalf("expected half a notch to do nothing, got %v", selected)
	}
	s.Scrolled(&fyne.ScrollEvent{Scrolled: fyne.Delta{DY: 20}})
	s.Scrolled(&fyne.ScrollEvent{Scrolled: fyne.Delta{DY: -80}})
	if len(selected) != 2 || selected[0] != 9 || selected[1] != 12 {
		t.Fatalf("expected [9 12], got %v", selected)
	}
}

func TestScrubberStrip_Render(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	s := newTestStrip(t)
	r := test.WidgetRenderer(s).(*scrubberStripRenderer)
	r.Layout(s.Size())
	if r.shown != 21 {
		t.Fatalf("expected 21 ticks drawn, got %d", r.shown)
	}
	if r.label.Text != "Jul '25" {
		t.Errorf("expected the date label, got %q", r.label.Text)
	}
	if ms := r.MinSize(); ms.Height != scrubberHeight {
		t.Errorf("expected height %d, got %v", scrubberHeight, ms.Height)
	}

	// The live tick is the wide one, centred.
	for _, tick := range r.ticks[:r.shown] {
		if tick.Size().Width == tickActiveWidth {
			if centre := tick.Position().X + tickActiveWidth/2; centre != 100 {
				t.Errorf("expected the live tick at 100, got %v", centre)
			}
			return
		}
	}
	t.Error("expected one live tick")
}
