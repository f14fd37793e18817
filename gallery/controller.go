package gallery

import "k8s.io/klog/v2"

// EventKind says what changed in a controller State.
type EventKind int

const (
	// EventRangeChanged fires after the item count changed the row range.
	EventRangeChanged EventKind = iota
	// EventZoomChanged fires after the zoom level changed.
	EventZoomChanged
	// EventScrubberMoved fires for every live drag update.
	EventScrubberMoved
	// EventIndexCommitted fires when a drag, tap or key commits an index.
	EventIndexCommitted
	// EventIndexMirrored fires when a user scroll of the grid moved the index.
	EventIndexMirrored
)

func (k EventKind) String() string {
	switch k {
	case EventRangeChanged:
		return "range-changed"
	case EventZoomChanged:
		return "zoom-changed"
	case EventScrubberMoved:
		return "scrubber-moved"
	case EventIndexCommitted:
		return "index-committed"
	case EventIndexMirrored:
		return "index-mirrored"
	}
	return "unknown"
}

// State is a snapshot of everything the presenters render from.
type State struct {
	ItemCount      int
	Zoom           ZoomLevel
	Range          IndexRange
	CommittedIndex int
	LiveIndex      int
	DragOffset     float64
	Phase          ScrubPhase
}

// TotalRows is the number of rows in the grid.
func (s State) TotalRows() int {
	return s.Range.Len()
}

// Event is delivered to controller listeners.
type Event struct {
	Kind  EventKind
	State State
}

// Controller wires zoom, scrubber and scroll synchronisation together. All
// methods must be called from the UI goroutine.
type Controller struct {
	itemCount int
	zoom      *ZoomController
	scrubber  *Scrubber
	sync      *ScrollSynchronizer

	listeners []func(Event)
}

// NewController builds a controller for an empty collection.
func NewController(zoom ZoomLevel, policy SyncPolicy, scroller Scroller) *Controller {
	c := &Controller{
		zoom:     NewZoomController(zoom),
		scrubber: NewScrubber(DefaultStepWidth, DefaultDampingFactor),
		sync:     NewScrollSynchronizer(policy, scroller),
	}
	c.scrubber.SetRange(RowRange(0, c.zoom.Level()))
	return c
}

// AddListener registers fn for every state change.
func (c *Controller) AddListener(fn func(Event)) {
	c.listeners = append(c.listeners, fn)
}

func (c *Controller) notify(kind EventKind) {
	ev := Event{Kind: kind, State: c.State()}
	for _, fn := range c.listeners {
		fn(ev)
	}
}

func (c *Controller) State() State {
	return State{
		ItemCount:      c.itemCount,
		Zoom:           c.zoom.Level(),
		Range:          c.scrubber.Range(),
		CommittedIndex: c.scrubber.Committed(),
		LiveIndex:      c.scrubber.Live(),
		DragOffset:     c.scrubber.DragOffset(),
		Phase:          c.scrubber.Phase(),
	}
}

func (c *Controller) Zoom() *ZoomController {
	return c.zoom
}

func (c *Controller) Policy() SyncPolicy {
	return c.sync.Policy()
}

func (c *Controller) totalRows() int {
	return TotalRows(c.itemCount, c.zoom.Level())
}

// SetItemCount applies a new collection size.
func (c *Controller) SetItemCount(count int) {
	if count < 0 {
		count = 0
	}
	c.itemCount = count
	moved := c.scrubber.SetRange(RowRange(count, c.zoom.Level()))
	c.notify(EventRangeChanged)
	if moved {
		c.scrollToCommitted()
	}
}

func (c *Controller) applyZoom(level ZoomLevel) {
	klog.V(1).Infof("zoom: %d columns", level.Columns())
	c.scrubber.SetRange(RowRange(c.itemCount, level))
	// Listeners re-layout the grid for the new column count before the
	// scroll target is computed.
	c.notify(EventZoomChanged)
	c.scrollToCommitted()
}

func (c *Controller) PinchBegin() {
	c.zoom.PinchBegin()
}

func (c *Controller) PinchChanged(cumulativeScale float64) {
	if level, changed := c.zoom.PinchChanged(cumulativeScale); changed {
		c.applyZoom(level)
	}
}

func (c *Controller) PinchEnd() {
	c.zoom.PinchEnd()
}

// SetZoomLevel jumps to level.
func (c *Controller) SetZoomLevel(level ZoomLevel) {
	if l, changed := c.zoom.SetLevel(level); changed {
		c.applyZoom(l)
	}
}

// StepZoom moves steps zoom levels; positive adds columns.
func (c *Controller) StepZoom(steps int) {
	if l, changed := c.zoom.Step(steps); changed {
		c.applyZoom(l)
	}
}

func (c *Controller) DragBegin() {
	c.scrubber.Begin()
	c.notify(EventScrubberMoved)
}

func (c *Controller) DragChanged(translation float64) {
	if c.scrubber.Changed(translation) {
		c.notify(EventScrubberMoved)
	}
}

// DragEnd commits the drag and scrolls the grid to the result.
func (c *Controller) DragEnd(translation float64) {
	if c.scrubber.Phase() != ScrubDragging {
		return
	}
	index, _ := c.scrubber.End(translation)
	klog.V(1).Infof("scrubber: committed row %d", index)
	c.notify(EventIndexCommitted)
	c.scrollToCommitted()
}

func (c *Controller) DragCancel() {
	if c.scrubber.Phase() != ScrubDragging {
		return
	}
	c.scrubber.Cancel()
	c.notify(EventScrubberMoved)
}

// SelectIndex commits index directly, as for a tick tap or a key press.
func (c *Controller) SelectIndex(index int) {
	if c.scrubber.Phase() == ScrubDragging {
		return
	}
	c.scrubber.SetCommitted(index)
	c.notify(EventIndexCommitted)
	c.scrollToCommitted()
}

// ScrollOffsetChanged reports a user-initiated grid scroll.
func (c *Controller) ScrollOffsetChanged(offset float32) {
	if c.scrubber.Phase() == ScrubDragging {
		return
	}
	index, changed := c.sync.OnUserScroll(offset, c.totalRows(), c.scrubber.Committed())
	if !changed {
		return
	}
	c.scrubber.SetCommitted(index)
	c.notify(EventIndexMirrored)
}

// Resync scrolls the grid back onto the committed index, e.g. after the
// viewport was resized.
func (c *Controller) Resync() {
	c.scrollToCommitted()
}

func (c *Controller) scrollToCommitted() {
	c.sync.ScrollToIndex(c.scrubber.Committed(), c.totalRows())
}
