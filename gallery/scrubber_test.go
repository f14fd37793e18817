package gallery

import (
	"math"
	"testing"
)

func newTestScrubber(upper int) *Scrubber {
	s := NewScrubber(DefaultStepWidth, DefaultDampingFactor)
	s.SetRange(IndexRange{Lower: 0, Upper: upper})
	return s
}

func TestScrubber_DragRoundTrip(t *testing.T) {
	for _, k := range []int{-3, -1, 0, 1, 4} {
		s := newTestScrubber(20)
		s.SetCommitted(10)
		s.Begin()

		translation := float64(k) * s.StepWidth()
		s.Changed(translation)
		if got, want := s.Live(), 10-k; got != want {
			t.Errorf("k=%d: expected live index %d, got %d", k, want, got)
		}

		final, changed := s.End(translation)
		if final != 10-k {
			t.Errorf("k=%d: expected committed %d, got %d", k, 10-k, final)
		}
		if changed != (k != 0) {
			t.Errorf("k=%d: unexpected changed=%v", k, changed)
		}
		if s.Phase() != ScrubIdle || s.DragOffset() != 0 {
			t.Errorf("k=%d: expected idle with no offset, got phase %d offset %v", k, s.Phase(), s.DragOffset())
		}
	}
}

func TestScrubber_DragRightMovesToLowerIndexes(t *testing.T) {
	s := newTestScrubber(20)
	s.SetCommitted(5)
	s.Begin()
	s.Changed(25)
	if s.Live() >= 5 {
		t.Fatalf("expected a lower live index, got %d", s.Live())
	}
	if s.DragOffset() <= 0 {
		t.Fatalf("expected a positive drag offset, got %v", s.DragOffset())
	}
}

func TestScrubber_OvershootIsDampedAndMonotonic(t *testing.T) {
	s := newTestScrubber(10)
	s.Begin()

	// Continuous at the boundary.
	if got := s.Project(0); got != 0 {
		t.Fatalf("expected projection 0 at the boundary, got %v", got)
	}
	if got := s.Project(0.001); math.Abs(got) > 0.001 {
		t.Fatalf("expected no jump past the boundary, got %v", got)
	}

	prev := 0.0
	for translation := 10.0; translation <= 100000; translation *= 2 {
		p := s.Project(translation)
		if p >= prev {
			t.Fatalf("translation %v: projection %v did not keep decreasing from %v", translation, p, prev)
		}
		prev = p
	}
	// Logarithmic resistance: ten thousand steps of drag overshoot by a few.
	if prev < -30 {
		t.Fatalf("expected bounded overshoot, got %v", prev)
	}

	s.Changed(100000)
	if s.Live() != 0 {
		t.Errorf("expected live index clamped to 0, got %d", s.Live())
	}
	if math.IsNaN(s.DragOffset()) || s.DragOffset() <= 0 {
		t.Errorf("expected a finite positive drag offset, got %v", s.DragOffset())
	}
}

func TestScrubber_UpperOvershoot(t *testing.T) {
	s := newTestScrubber(10)
	s.SetCommitted(10)
	s.Begin()
	prev := 10.0
	for translation := -10.0; translation >= -100000; translation *= 2 {
		p := s.Project(translation)
		if p <= prev {
			t.Fatalf("translation %v: projection %v did not keep increasing from %v", translation, p, prev)
		}
		prev = p
	}
	s.Changed(-100000)
	if s.Live() != 10 {
		t.Errorf("expected live index clamped to 10, got %d", s.Live())
	}
}

func TestScrubber_CommitIsUndampedAndClamped(t *testing.T) {
	s := newTestScrubber(10)
	s.SetCommitted(2)
	s.Begin()
	s.Changed(500)
	final, _ := s.End(500)
	if final != 0 {
		t.Fatalf("expected commit clamped to 0, got %d", final)
	}

	s.Begin()
	final, _ = s.End(-500)
	if final != 10 {
		t.Fatalf("expected commit clamped to 10, got %d", final)
	}
}

func TestScrubber_SinglePointRange(t *testing.T) {
	s := newTestScrubber(0)
	s.Begin()
	for _, tr := range []float64{-1000, -1, 0, 1, 1000} {
		s.Changed(tr)
		if s.Live() != 0 {
			t.Errorf("translation %v: expected live 0, got %d", tr, s.Live())
		}
		if math.IsNaN(s.DragOffset()) || math.IsInf(s.DragOffset(), 0) {
			t.Errorf("translation %v: drag offset is %v", tr, s.DragOffset())
		}
	}
	if final, changed := s.End(1000); final != 0 || changed {
		t.Errorf("expected 0 unchanged, got %d (%v)", final, changed)
	}
}

func TestScrubber_IgnoresInputWhileIdle(t *testing.T) {
	s := newTestScrubber(10)
	s.SetCommitted(4)
	if s.Changed(30) {
		t.Fatal("expected Changed to be ignored while idle")
	}
	if final, changed := s.End(30); final != 4 || changed {
		t.Fatalf("expected End to be ignored while idle, got %d (%v)", final, changed)
	}
}

func TestScrubber_Cancel(t *testing.T) {
	s := newTestScrubber(10)
	s.SetCommitted(4)
	s.Begin()
	s.Changed(-30)
	s.Cancel()
	if s.Committed() != 4 || s.Live() != 4 || s.DragOffset() != 0 {
		t.Fatalf("expected cancel to restore 4, got committed %d live %d offset %v", s.Committed(), s.Live(), s.DragOffset())
	}
}

func TestScrubber_InvalidStepWidth(t *testing.T) {
	for _, w := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		s := NewScrubber(w, DefaultDampingFactor)
		if s.StepWidth() != DefaultStepWidth {
			t.Errorf("step width %v: expected fallback %v, got %v", w, DefaultStepWidth, s.StepWidth())
		}
	}
}

func TestScrubber_SetRangeClamps(t *testing.T) {
	s := newTestScrubber(24)
	s.SetCommitted(24)
	if moved := s.SetRange(IndexRange{0, 12}); !moved {
		t.Fatal("expected the committed index to move")
	}
	if s.Committed() != 12 || s.Live() != 12 {
		t.Fatalf("expected 12, got committed %d live %d", s.Committed(), s.Live())
	}
	// An inverted range collapses to a point.
	s.SetRange(IndexRange{0, -1})
	if s.Range() != (IndexRange{0, 0}) || s.Committed() != 0 {
		t.Fatalf("expected [0,0] at 0, got %+v at %d", s.Range(), s.Committed())
	}
}
