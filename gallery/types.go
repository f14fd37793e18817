package gallery

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/google/uuid"
)

// SyncPolicy selects whether free scrolling of the grid is mirrored back
// into the scrubber. It is fixed when a Gallery is created.
type SyncPolicy int

const (
	// SyncBidirectional lets user scrolling of the grid move the scrubber.
	SyncBidirectional SyncPolicy = iota
	// SyncSliderOnly makes the scrubber the only source of truth; the grid
	// just follows it.
	SyncSliderOnly
)

func (p SyncPolicy) String() string {
	if p == SyncSliderOnly {
		return "slider-only"
	}
	return "bidirectional"
}

// ParseSyncPolicy maps a config string to a policy. Unknown values fall back
// to SyncBidirectional.
func ParseSyncPolicy(s string) SyncPolicy {
	switch s {
	case "slider-only", "slider", "slideronly":
		return SyncSliderOnly
	default:
		return SyncBidirectional
	}
}

const (
	cellSpacing          = 2
	scrubberHeight       = 60
	scrubberLabelHeight  = 28
	tickWidth            = 2
	tickActiveWidth      = 4
	tickHeight           = 15
	tickActiveHeight     = 30
	thumbnailMinSide     = 96
	fullImageMaxSide     = 2048
	scrollSettleDuration = 300 * time.Millisecond
	zoomLevelKey         = "xphotogallery:zoomLevel"
	libraryDirKey        = "xphotogallery:libraryDir"
	unknownDate          = "Unknown Date"
	unknownMonth         = "Unknown"
)

var (
	// ErrNoLibrary is returned when no library folder has been configured.
	ErrNoLibrary = errors.New("no photo library configured")
	// ErrNotListable is returned when the library path is not a readable folder.
	ErrNotListable = errors.New("photo library is not a listable folder")
)

// PhotoItem is one photo of the collection. It is immutable once built.
type PhotoItem struct {
	ID          uuid.UUID
	SourceIndex int
	Path        string
	// Created is zero when the capture time is unknown.
	Created time.Time
	ModTime time.Time
}

// HasCreated reports whether the capture time is known.
func (p PhotoItem) HasCreated() bool {
	return !p.Created.IsZero()
}

// FormattedDate is the short label shown above the scrubber, e.g. "Jul '25".
func (p PhotoItem) FormattedDate() string {
	if !p.HasCreated() {
		return unknownDate
	}
	return p.Created.Format("Jan '06")
}

// MonthYear is the long form label, e.g. "July 2025".
func (p PhotoItem) MonthYear() string {
	if !p.HasCreated() {
		return unknownMonth
	}
	return p.Created.Format("January 2006")
}

// Source supplies the ordered photo collection.
type Source interface {
	FetchAll(ctx context.Context) ([]PhotoItem, error)
	// Watch calls onCountChanged, from any goroutine, whenever the number of
	// photos changes. It returns once the watch is established.
	Watch(ctx context.Context, onCountChanged func(count int)) error
}

// ThumbnailLoader fetches images asynchronously. Failures are reported as a
// nil image, never as an error. Callbacks may run on any goroutine and are
// not invoked once ctx is done.
type ThumbnailLoader interface {
	RequestThumbnail(ctx context.Context, item PhotoItem, side int, callback func(image.Image))
	RequestFullImage(ctx context.Context, item PhotoItem, callback func(image.Image))
}

// AccessGate guards access to the photo library.
type AccessGate interface {
	HasAccess() bool
	// RequestAccess asks the user for access. callback runs on the UI goroutine.
	RequestAccess(callback func(granted bool))
}
