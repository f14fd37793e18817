package gallery

import (
	"math"

	"k8s.io/klog/v2"
)

// ScrubPhase is the gesture state of the scrubber.
type ScrubPhase int

const (
	ScrubIdle ScrubPhase = iota
	ScrubDragging
)

const (
	// DefaultStepWidth is the distance in pixels between two ticks.
	DefaultStepWidth = 10.0
	// DefaultDampingFactor scales the rubber-band overshoot past either end.
	DefaultDampingFactor = 2.0
)

// Scrubber tracks the committed index and an in-progress drag over the tick
// strip. Dragging right moves toward lower indexes.
type Scrubber struct {
	phase      ScrubPhase
	committed  int
	live       int
	dragOffset float64
	rng        IndexRange

	stepWidth float64
	damping   float64
}

// NewScrubber creates an idle scrubber at index 0 over the range [0, 0].
func NewScrubber(stepWidth, damping float64) *Scrubber {
	if stepWidth <= 0 || math.IsNaN(stepWidth) || math.IsInf(stepWidth, 0) {
		klog.Warningf("scrubber: invalid step width %v, using %v", stepWidth, DefaultStepWidth)
		stepWidth = DefaultStepWidth
	}
	if damping < 0 || math.IsNaN(damping) || math.IsInf(damping, 0) {
		damping = DefaultDampingFactor
	}
	return &Scrubber{stepWidth: stepWidth, damping: damping}
}

func (s *Scrubber) Phase() ScrubPhase      { return s.phase }
func (s *Scrubber) Committed() int         { return s.committed }
func (s *Scrubber) Live() int              { return s.live }
func (s *Scrubber) DragOffset() float64    { return s.dragOffset }
func (s *Scrubber) Range() IndexRange      { return s.rng }
func (s *Scrubber) StepWidth() float64     { return s.stepWidth }
func (s *Scrubber) DampingFactor() float64 { return s.damping }

// SetRange installs a recomputed range and clamps both indexes into it. It
// returns true if the committed index moved.
func (s *Scrubber) SetRange(r IndexRange) bool {
	if r.Upper < r.Lower {
		r.Upper = r.Lower
	}
	s.rng = r
	prev := s.committed
	s.committed = r.Clamp(s.committed)
	s.live = r.Clamp(s.live)
	if s.phase == ScrubIdle {
		s.live = s.committed
	}
	return prev != s.committed
}

// SetCommitted moves the committed index outside of a drag, clamped to the
// range. It returns true if the value changed.
func (s *Scrubber) SetCommitted(i int) bool {
	i = s.rng.Clamp(i)
	changed := i != s.committed
	s.committed = i
	if s.phase == ScrubIdle {
		s.live = i
		s.dragOffset = 0
	}
	return changed
}

// Begin starts a drag.
func (s *Scrubber) Begin() {
	s.phase = ScrubDragging
	s.live = s.committed
	s.dragOffset = 0
}

// Project maps a drag translation to a fractional index with rubber-band
// damping past either end of the range.
func (s *Scrubber) Project(translation float64) float64 {
	projected := float64(s.committed) - translation/s.stepWidth
	lower := float64(s.rng.Lower)
	upper := float64(s.rng.Upper)

	if projected < lower {
		projected = lower - math.Log(lower-projected+1)*s.damping
	} else if projected > upper {
		projected = upper + math.Log(projected-upper+1)*s.damping
	}
	return projected
}

// Changed updates the live state for the current drag translation. It is
// ignored unless a drag is in progress and reports whether it applied.
func (s *Scrubber) Changed(translation float64) bool {
	if s.phase != ScrubDragging {
		return false
	}
	if math.IsNaN(translation) || math.IsInf(translation, 0) {
		return false
	}
	projected := s.Project(translation)
	s.dragOffset = (float64(s.committed) - projected) * s.stepWidth
	s.live = s.rng.Clamp(int(math.Round(projected)))
	return true
}

// End commits the drag. The final value is computed without damping so it
// always lands inside the range. It returns the committed index and whether
// it changed. Ending an idle scrubber does nothing.
func (s *Scrubber) End(translation float64) (int, bool) {
	if s.phase != ScrubDragging {
		return s.committed, false
	}
	if math.IsNaN(translation) || math.IsInf(translation, 0) {
		translation = 0
	}
	final := s.rng.Clamp(int(math.Round(float64(s.committed) - translation/s.stepWidth)))
	changed := final != s.committed

	s.committed = final
	s.live = final
	s.dragOffset = 0
	s.phase = ScrubIdle
	return final, changed
}

// Cancel abandons the drag without committing.
func (s *Scrubber) Cancel() {
	s.phase = ScrubIdle
	s.live = s.committed
	s.dragOffset = 0
}
