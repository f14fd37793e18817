package gallery

import (
	"math"

	"k8s.io/klog/v2"
)

// Scroller is the grid side of the synchronizer.
type Scroller interface {
	MaxScrollOffset() float32
	// ScrollTo animates to offset and calls done once the animation has
	// settled or was interrupted.
	ScrollTo(offset float32, done func())
}

// ScrollSynchronizer keeps the grid offset and the committed index in step.
// While a programmatic scroll is in flight, scroll reports coming back from
// the grid are ignored so they cannot feed into the index again.
type ScrollSynchronizer struct {
	policy   SyncPolicy
	scroller Scroller

	inFlight   bool
	generation uint64
}

func NewScrollSynchronizer(policy SyncPolicy, scroller Scroller) *ScrollSynchronizer {
	return &ScrollSynchronizer{policy: policy, scroller: scroller}
}

func (s *ScrollSynchronizer) Policy() SyncPolicy {
	return s.policy
}

func (s *ScrollSynchronizer) maxScroll() float32 {
	if s.scroller == nil {
		return 0
	}
	m := s.scroller.MaxScrollOffset()
	if m < 0 || math.IsNaN(float64(m)) {
		return 0
	}
	return m
}

// TargetOffset is the grid offset that shows index.
func (s *ScrollSynchronizer) TargetOffset(index, totalRows int) float32 {
	denom := totalRows - 1
	if denom < 1 {
		denom = 1
	}
	progress := float32(index) / float32(denom)
	if progress < 0 {
		progress = 0
	} else if progress > 1 {
		progress = 1
	}
	return progress * s.maxScroll()
}

// ScrollToIndex scrolls the grid so index is shown.
func (s *ScrollSynchronizer) ScrollToIndex(index, totalRows int) {
	if s.scroller == nil {
		return
	}
	target := s.TargetOffset(index, totalRows)

	s.generation++
	gen := s.generation
	s.inFlight = true
	klog.V(2).Infof("sync: scroll to row %d/%d offset %.1f", index, totalRows, target)

	s.scroller.ScrollTo(target, func() {
		// An older animation finishing must not unlock a newer one.
		if gen != s.generation {
			return
		}
		s.inFlight = false
	})
}

// OnUserScroll converts a user scroll of the grid into an index. It returns
// the new index and true when committed should change.
func (s *ScrollSynchronizer) OnUserScroll(offset float32, totalRows, committed int) (int, bool) {
	if s.inFlight {
		return committed, false
	}
	if s.policy == SyncSliderOnly {
		return committed, false
	}

	maxScroll := s.maxScroll()
	var progress float64
	if maxScroll > 0 {
		progress = float64(offset / maxScroll)
	}
	rng := IndexRange{Lower: 0, Upper: max(totalRows-1, 0)}
	index := rng.Clamp(int(math.Round(progress * float64(totalRows-1))))
	if index == committed {
		return committed, false
	}
	return index, true
}
