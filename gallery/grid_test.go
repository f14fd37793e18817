package gallery

import (
	"context"
	"fmt"
	"image"
	"sync"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/google/uuid"
)

type fakeRequest struct {
	ctx      context.Context
	item     PhotoItem
	side     int
	callback func(image.Image)
}

// fakeLoader records requests and answers them only when told to.
type fakeLoader struct {
	mu       sync.Mutex
	thumbs   []fakeRequest
	fullSize []fakeRequest
}

func (f *fakeLoader) RequestThumbnail(ctx context.Context, item PhotoItem, side int, callback func(image.Image)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.thumbs = append(f.thumbs, fakeRequest{ctx: ctx, item: item, side: side, callback: callback})
}

func (f *fakeLoader) RequestFullImage(ctx context.Context, item PhotoItem, callback func(image.Image)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fullSize = append(f.fullSize, fakeRequest{ctx: ctx, item: item, callback: callback})
}

func (f *fakeLoader) thumbRequests() []fakeRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fakeRequest(nil), f.thumbs...)
}

// memoryFakeLoader also answers from memory.
type memoryFakeLoader struct {
	fakeLoader
	memory map[string]image.Image
}

func (m *memoryFakeLoader) LoadMemoryOnly(item PhotoItem, side int) image.Image {
	return m.memory[item.Path]
}

func testItems(n int) []PhotoItem {
	items := make([]PhotoItem, n)
	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	for i := range items {
		path := fmt.Sprintf("/photos/%03d.jpg", i)
		items[i] = PhotoItem{
			ID:          uuid.NewSHA1(photoNamespace, []byte(path)),
			SourceIndex: i,
			Path:        path,
			Created:     base.AddDate(0, 0, -i*3),
		}
	}
	return items
}

func withoutLoadDelay(t *testing.T) {
	old := thumbnailLoadDelay
	thumbnailLoadDelay = 0
	t.Cleanup(func() { thumbnailLoadDelay = old })
}

// newTestGrid builds a grid of 100px cells, three rows tall.
func newTestGrid(t *testing.T, loader ThumbnailLoader, n int) *photoGrid {
	t.Helper()
	g := newPhotoGrid(loader, 4)
	g.SetItems(testItems(n))
	g.Resize(fyne.NewSize(406, 300))
	test.WidgetRenderer(g).Layout(g.Size())
	return g
}

func boundRange(g *photoGrid) (lo, hi int) {
	lo, hi = -1, -1
	for idx := range g.bound {
		if lo < 0 || idx < lo {
			lo = idx
		}
		if idx > hi {
			hi = idx
		}
	}
	return lo, hi
}

func TestPhotoGrid_BindsOnlyNearbyRows(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()
	withoutLoadDelay(t)

	loader := &fakeLoader{}
	g := newTestGrid(t, loader, 40)

	if got := g.MaxScrollOffset(); got != 718 {
		t.Fatalf("expected max scroll 718, got %v", got)
	}
	if lo, hi := boundRange(g); lo != 0 || hi != 15 || len(g.bound) != 16 {
		t.Fatalf("expected cells 0-15 bound, got %d-%d (%d)", lo, hi, len(g.bound))
	}

	g.userScroll(500)
	if lo, hi := boundRange(g); lo != 12 || hi != 35 {
		t.Fatalf("expected cells 12-35 bound, got %d-%d", lo, hi)
	}

	for _, req := range loader.thumbRequests() {
		idx := req.item.SourceIndex
		released := idx < 12 || idx > 35
		if released && req.ctx.Err() == nil {
			t.Errorf("expected the load for cell %d to be cancelled", idx)
		}
		if !released && req.ctx.Err() != nil {
			t.Errorf("expected the load for visible cell %d to stay alive", idx)
		}
	}
}

func TestPhotoGrid_OnScrolledOnlyForUserInput(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	g := newTestGrid(t, nil, 40)
	var reports []float32
	g.OnScrolled = func(o float32) { reports = append(reports, o) }

	done := false
	g.ScrollTo(300, func() { done = true })
	fyne.DoAndWait(func() {})
	if !done {
		t.Fatal("expected the scroll animation to complete")
	}
	if g.Offset() != 300 {
		t.Fatalf("expected offset 300, got %v", g.Offset())
	}
	if len(reports) != 0 {
		t.Fatalf("expected no scroll reports for ScrollTo, got %v", reports)
	}

	g.Scrolled(&fyne.ScrollEvent{Scrolled: fyne.Delta{DY: -50}})
	if len(reports) != 1 || reports[0] != 350 {
		t.Fatalf("expected one report at 350, got %v", reports)
	}

	g.Dragged(&fyne.DragEvent{Dragged: fyne.Delta{DY: 20}})
	if len(reports) != 2 || reports[1] != 330 {
		t.Fatalf("expected a report at 330, got %v", reports)
	}
}

func TestPhotoGrid_ScrollIsClamped(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	g := newTestGrid(t, nil, 40)
	calls := 0
	g.OnScrolled = func(float32) { calls++ }

	// Already at the top: nothing to report.
	g.Scrolled(&fyne.ScrollEvent{Scrolled: fyne.Delta{DY: 100}})
	if calls != 0 || g.Offset() != 0 {
		t.Fatalf("expected no movement at the top, got offset %v with %d reports", g.Offset(), calls)
	}

	g.ScrollTo(5000, nil)
	fyne.DoAndWait(func() {})
	if g.Offset() != g.MaxScrollOffset() {
		t.Fatalf("expected offset clamped to %v, got %v", g.MaxScrollOffset(), g.Offset())
	}
}

func TestPhotoGrid_ScrollToCurrentOffsetCompletesAtOnce(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	g := newTestGrid(t, nil, 40)
	done := 0
	g.ScrollTo(0.2, func() { done++ })
	if done != 1 {
		t.Fatalf("expected done to run immediately, got %d", done)
	}
}

func TestPhotoGrid_SetColumnsReleasesCells(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()
	withoutLoadDelay(t)

	loader := &fakeLoader{}
	g := newTestGrid(t, loader, 40)
	before := loader.thumbRequests()

	g.SetColumns(8)
	if g.Columns() != 8 {
		t.Fatalf("expected 8 columns, got %d", g.Columns())
	}
	for _, req := range before {
		if req.ctx.Err() == nil {
			t.Fatalf("expected loads for the old size to be cancelled, %s is alive", req.item.Path)
		}
	}
	// 49px cells, 5 rows: everything fits.
	if got := g.MaxScrollOffset(); got != 0 {
		t.Fatalf("expected no scrolling at 8 columns, got %v", got)
	}
	if len(g.bound) != 40 {
		t.Fatalf("expected all 40 cells bound, got %d", len(g.bound))
	}
}

func TestPhotoGrid_MemoryHitSkipsLoader(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()
	withoutLoadDelay(t)

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	loader := &memoryFakeLoader{memory: map[string]image.Image{"/photos/000.jpg": img}}
	g := newTestGrid(t, loader, 4)

	for _, req := range loader.thumbRequests() {
		if req.item.Path == "/photos/000.jpg" {
			t.Fatal("expected a memory hit to skip the loader")
		}
	}
	if c := g.bound[0]; c.thumbnail.Image != img || !c.thumbnail.Visible() {
		t.Fatal("expected the cached thumbnail to be shown")
	}
}

func TestPhotoGrid_LoadResults(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()
	withoutLoadDelay(t)

	loader := &fakeLoader{}
	g := newTestGrid(t, loader, 2)
	reqs := loader.thumbRequests()
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(reqs))
	}
	if reqs[0].side != 128 {
		t.Errorf("expected 128px thumbnails, got %d", reqs[0].side)
	}

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	reqs[0].callback(img)
	reqs[1].callback(nil)
	fyne.DoAndWait(func() {})

	first, second := g.bound[reqs[0].item.SourceIndex], g.bound[reqs[1].item.SourceIndex]
	if first.thumbnail.Image != img {
		t.Error("expected the first cell to show its thumbnail")
	}
	if !second.broken.Visible() || second.thumbnail.Visible() {
		t.Error("expected the second cell to show the broken placeholder")
	}
}

func TestPhotoGrid_DelayedLoadCancelledOnRelease(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	old := thumbnailLoadDelay
	thumbnailLoadDelay = 50 * time.Millisecond
	defer func() { thumbnailLoadDelay = old }()

	loader := &fakeLoader{}
	g := newTestGrid(t, loader, 40)
	// Flash past the first rows before their loads start.
	g.userScroll(700)
	time.Sleep(150 * time.Millisecond)

	for _, req := range loader.thumbRequests() {
		if req.item.SourceIndex < 16 {
			t.Fatalf("expected no request for cell %d that scrolled away", req.item.SourceIndex)
		}
	}
	if len(loader.thumbRequests()) == 0 {
		t.Fatal("expected the visible cells to load")
	}
}

func TestPhotoGrid_TapOpensItem(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	g := newTestGrid(t, nil, 8)
	var tapped PhotoItem
	g.OnTapped = func(it PhotoItem) { tapped = it }

	g.bound[5].Tapped(&fyne.PointEvent{})
	if tapped.Path != "/photos/005.jpg" {
		t.Fatalf("expected /photos/005.jpg, got %q", tapped.Path)
	}

	released := newPhotoCell(g)
	tapped = PhotoItem{}
	released.Tapped(&fyne.PointEvent{})
	if tapped.Path != "" {
		t.Fatal("expected an unbound cell to ignore taps")
	}
}
