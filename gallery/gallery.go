package gallery

import (
	"context"
	"errors"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	fynedialog "fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/lang"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
	"k8s.io/klog/v2"
)

// Config selects the collaborators and start-up options of a Gallery.
type Config struct {
	Source Source
	Loader ThumbnailLoader
	// Gate may be nil when the source needs no permission.
	Gate AccessGate

	// Policy is fixed for the life of the Gallery.
	Policy SyncPolicy
	// Columns overrides the saved zoom level when it names a known level.
	Columns int
}

// dirSelector is implemented by gates that can switch the library folder.
type dirSelector interface {
	Dir() string
	SetDir(dir string) error
}

// Gallery is the photo browsing screen: a header, the thumbnail grid and
// the scrubber strip below it.
type Gallery struct {
	window fyne.Window
	cfg    Config

	ctrl   *Controller
	grid   *photoGrid
	strip  *scrubberStrip
	header *header
	pinch  *pinchOverlay
	viewer *photoViewer

	items []PhotoItem

	loading    *fyne.Container
	empty      *fyne.Container
	covers     []*fyne.Container
	emptyLabel *widget.Label
	grantBtn   *widget.Button
	places     *fyne.Container
	gridArea   *fyne.Container
	root       fyne.CanvasObject

	ctx         context.Context
	cancel      context.CancelFunc
	watchCancel context.CancelFunc
	loadGen     int

	originalOnTypedRune func(rune)
	originalOnTypedKey  func(*fyne.KeyEvent)
}

// New builds a gallery for window. Call Start to load the library.
func New(window fyne.Window, cfg Config) *Gallery {
	g := &Gallery{window: window, cfg: cfg}
	g.ctx, g.cancel = context.WithCancel(context.Background())

	zoom := g.loadPrefs()
	g.grid = newPhotoGrid(cfg.Loader, zoom.Columns())
	g.ctrl = NewController(zoom, cfg.Policy, g.grid)
	g.ctrl.AddListener(g.onEvent)
	g.root = g.makeUI()
	return g
}

func (g *Gallery) loadPrefs() ZoomLevel {
	if lvl, ok := ZoomLevelForColumns(g.cfg.Columns); ok {
		return lvl
	}
	app := fyne.CurrentApp()
	if app == nil {
		return ZoomLevelDefault
	}
	lvl := ZoomLevel(app.Preferences().IntWithFallback(zoomLevelKey, int(ZoomLevelDefault)))
	if !lvl.Valid() {
		return ZoomLevelDefault
	}
	return lvl
}

// Controller exposes the synchronisation engine, mainly for embedding apps
// that want to observe events.
func (g *Gallery) Controller() *Controller {
	return g.ctrl
}

// ScrollToItem commits the row holding the photo at index.
func (g *Gallery) ScrollToItem(index int) {
	g.ctrl.SelectIndex(RowForItem(index, g.ctrl.State().Zoom))
}

// Content is the root object to place in a window.
func (g *Gallery) Content() fyne.CanvasObject {
	return g.root
}

func (g *Gallery) makeUI() fyne.CanvasObject {
	g.header = newHeader(
		func() { g.ctrl.StepZoom(-1) },
		func() { g.ctrl.StepZoom(1) },
		g.chooseFolder,
		g.selectDir,
	)
	g.header.updateZoomButtons(g.ctrl.Zoom())
	g.header.setDir(g.libraryDir())

	g.strip = newScrubberStrip()
	g.strip.OnDragBegin = g.ctrl.DragBegin
	g.strip.OnDragChanged = g.ctrl.DragChanged
	g.strip.OnDragEnd = g.ctrl.DragEnd
	g.strip.OnSelect = g.ctrl.SelectIndex

	g.grid.OnScrolled = g.ctrl.ScrollOffsetChanged
	g.grid.OnTapped = g.openViewer

	g.pinch = newPinchOverlay(g.ctrl.PinchBegin, g.ctrl.PinchChanged, g.ctrl.PinchEnd)

	g.covers = []*fyne.Container{container.NewStack(), container.NewStack()}
	g.updateCovers()

	g.loading = container.NewCenter(container.NewVBox(
		g.covers[0],
		widget.NewProgressBarInfinite(),
		widget.NewLabelWithStyle(lang.L("Loading photos…"), fyne.TextAlignCenter, fyne.TextStyle{}),
	))
	g.emptyLabel = widget.NewLabelWithStyle("", fyne.TextAlignCenter, fyne.TextStyle{})
	g.emptyLabel.Wrapping = fyne.TextWrapWord
	g.grantBtn = widget.NewButton(lang.L("Grant Permission"), g.chooseFolder)
	g.grantBtn.Importance = widget.HighImportance
	g.places = container.NewHBox()
	g.places.Hide()
	g.empty = container.NewCenter(container.NewVBox(g.covers[1], g.emptyLabel, g.grantBtn, container.NewCenter(g.places)))

	g.gridArea = container.NewBorder(nil, g.strip, nil, nil, container.NewStack(g.grid, g.pinch))
	g.loading.Hide()
	g.gridArea.Hide()

	body := container.NewStack(g.empty, g.loading, g.gridArea)

	return container.New(&resizeLayout{
		internal: layout.NewStackLayout(),
		onResize: g.ctrl.Resync,
		externalSize: func() fyne.Size {
			if g.window == nil || g.window.Canvas() == nil {
				return fyne.Size{}
			}
			return g.window.Canvas().Size()
		},
	}, container.NewBorder(g.header.content, nil, nil, nil, body))
}

// Start hooks the keyboard and loads the library if access was granted.
func (g *Gallery) Start() {
	if g.window != nil {
		c := g.window.Canvas()
		g.originalOnTypedRune = c.OnTypedRune()
		c.SetOnTypedRune(g.typedRuneHook)
		g.originalOnTypedKey = c.OnTypedKey()
		c.SetOnTypedKey(g.typedKeyHook)
	}

	if g.cfg.Gate != nil && !g.cfg.Gate.HasAccess() {
		g.showEmpty(lang.L("Choose a folder to browse your photos."), true)
		return
	}
	g.Reload()
}

// Close stops the watcher, cancels every pending load and restores the
// window's key handlers.
func (g *Gallery) Close() {
	g.cancel()
	g.stopWatch()
	if g.viewer != nil {
		g.viewer.Hide()
		g.viewer = nil
	}
	g.grid.stopAnimation()
	g.grid.releaseAll()
	if g.window != nil && g.window.Canvas() != nil {
		g.window.Canvas().SetOnTypedRune(g.originalOnTypedRune)
		g.window.Canvas().SetOnTypedKey(g.originalOnTypedKey)
	}
}

// Reload fetches the collection again, showing the loading state.
func (g *Gallery) Reload() {
	g.load(false)
}

func (g *Gallery) load(quiet bool) {
	if g.cfg.Source == nil || g.ctx.Err() != nil {
		return
	}
	g.loadGen++
	gen := g.loadGen
	if !quiet {
		g.showLoading()
	}

	ctx := g.ctx
	src := g.cfg.Source
	go func() {
		start := time.Now()
		items, err := src.FetchAll(ctx)
		fyne.Do(func() {
			if gen != g.loadGen || ctx.Err() != nil {
				return
			}
			if err != nil {
				g.loadFailed(err)
				return
			}
			klog.V(1).Infof("loaded %d photos in %s", len(items), time.Since(start))
			g.setItems(items)
			if !quiet {
				g.startWatch()
			}
		})
	}()
}

func (g *Gallery) loadFailed(err error) {
	klog.Errorf("load library: %v", err)
	switch {
	case errors.Is(err, ErrNoLibrary):
		g.showEmpty(lang.L("Choose a folder to browse your photos."), true)
	case errors.Is(err, ErrNotListable):
		g.showEmpty(lang.L("The photo folder cannot be read."), true)
	default:
		g.showEmpty(err.Error(), true)
	}
}

func (g *Gallery) setItems(items []PhotoItem) {
	g.items = items
	g.grid.SetItems(items)
	g.ctrl.SetItemCount(len(items))
	g.header.setCount(len(items))
	if len(items) == 0 {
		g.showEmpty(lang.L("No photos in this folder yet."), g.cfg.Gate != nil)
		return
	}
	g.showGrid()
}

// startWatch reloads quietly whenever the photo count changes. Setting up
// the watch walks the library, so it happens off the UI goroutine.
func (g *Gallery) startWatch() {
	g.stopWatch()
	ctx, cancel := context.WithCancel(g.ctx)
	g.watchCancel = cancel

	src := g.cfg.Source
	go func() {
		err := src.Watch(ctx, func(int) {
			fyne.Do(func() {
				if ctx.Err() == nil {
					g.load(true)
				}
			})
		})
		if err != nil && ctx.Err() == nil {
			klog.Warningf("watch library: %v", err)
		}
	}()
}

func (g *Gallery) stopWatch() {
	if g.watchCancel != nil {
		g.watchCancel()
		g.watchCancel = nil
	}
}

func (g *Gallery) showLoading() {
	g.empty.Hide()
	g.gridArea.Hide()
	g.loading.Show()
}

func (g *Gallery) showEmpty(msg string, canChoose bool) {
	g.emptyLabel.SetText(msg)
	if canChoose && g.cfg.Gate != nil {
		g.grantBtn.Show()
	} else {
		g.grantBtn.Hide()
	}
	g.showPlaces(canChoose)
	g.loading.Hide()
	g.gridArea.Hide()
	g.empty.Show()
}

// showPlaces offers well-known folders as a library when the gate can
// switch folders.
func (g *Gallery) showPlaces(canChoose bool) {
	if _, ok := g.cfg.Gate.(dirSelector); !ok || !canChoose {
		g.places.Hide()
		return
	}
	if len(g.places.Objects) == 0 {
		for _, p := range libraryPlaces() {
			if p.path == g.libraryDir() {
				continue
			}
			btn := widget.NewButtonWithIcon(p.name, p.icon, func() { g.selectDir(p.path) })
			btn.Importance = widget.LowImportance
			g.places.Add(btn)
		}
	}
	g.places.Show()
}

func (g *Gallery) showGrid() {
	g.loading.Hide()
	g.empty.Hide()
	g.gridArea.Show()
}

func (g *Gallery) libraryDir() string {
	if ds, ok := g.cfg.Gate.(dirSelector); ok {
		return ds.Dir()
	}
	return ""
}

func (g *Gallery) chooseFolder() {
	if g.cfg.Gate == nil {
		return
	}
	g.cfg.Gate.RequestAccess(func(granted bool) {
		if !granted {
			return
		}
		g.libraryChanged()
	})
}

func (g *Gallery) selectDir(path string) {
	ds, ok := g.cfg.Gate.(dirSelector)
	if !ok {
		return
	}
	if err := ds.SetDir(path); err != nil {
		if g.window != nil {
			fynedialog.ShowError(err, g.window)
		}
		return
	}
	g.libraryChanged()
}

// updateCovers shows the library's folder art in the loading and empty
// states.
func (g *Gallery) updateCovers() {
	dir := g.libraryDir()
	for _, c := range g.covers {
		c.Objects = []fyne.CanvasObject{folderCover(dir)}
		c.Refresh()
	}
}

func (g *Gallery) libraryChanged() {
	g.stopWatch()
	g.header.setDir(g.libraryDir())
	g.places.RemoveAll()
	g.updateCovers()
	g.ctrl.SelectIndex(0)
	g.Reload()
}

func (g *Gallery) openViewer(item PhotoItem) {
	if g.window == nil {
		return
	}
	if g.viewer != nil {
		g.viewer.Hide()
	}
	g.viewer = showPhotoViewer(g.window.Canvas(), g.cfg.Loader, item)
}

// onEvent keeps the presenters in step with the controller.
func (g *Gallery) onEvent(ev Event) {
	switch ev.Kind {
	case EventZoomChanged:
		g.grid.SetColumns(ev.State.Zoom.Columns())
		g.header.updateZoomButtons(g.ctrl.Zoom())
		if app := fyne.CurrentApp(); app != nil {
			app.Preferences().SetInt(zoomLevelKey, int(ev.State.Zoom))
		}
	case EventRangeChanged:
		g.header.setCount(ev.State.ItemCount)
	}

	label := g.labelForRow(ev.State.LiveIndex, ev.State.Zoom)
	g.strip.setState(ev.State, label)
	g.header.setMonth(g.monthForRow(ev.State.LiveIndex, ev.State.Zoom))
}

func (g *Gallery) firstItemOfRow(row int, z ZoomLevel) (PhotoItem, bool) {
	start, end := ItemRangeForRow(row, len(g.items), z)
	if start >= end {
		return PhotoItem{}, false
	}
	return g.items[start], true
}

func (g *Gallery) labelForRow(row int, z ZoomLevel) string {
	if item, ok := g.firstItemOfRow(row, z); ok {
		return item.FormattedDate()
	}
	return ""
}

func (g *Gallery) monthForRow(row int, z ZoomLevel) string {
	if item, ok := g.firstItemOfRow(row, z); ok {
		return item.MonthYear()
	}
	return ""
}

// keyboardAllowed is false while an entry or another focusable widget owns
// the keyboard, or a viewer is open.
func (g *Gallery) keyboardAllowed() bool {
	if g.window == nil || !g.gridArea.Visible() {
		return false
	}
	if g.viewer != nil && g.viewer.Visible() {
		return false
	}
	return g.window.Canvas().Focused() == nil
}

func (g *Gallery) typedRuneHook(r rune) {
	if g.originalOnTypedRune != nil {
		g.originalOnTypedRune(r)
	}
	if !g.keyboardAllowed() {
		return
	}
	switch r {
	case '+', '=':
		g.ctrl.StepZoom(-1)
	case '-', '_':
		g.ctrl.StepZoom(1)
	}
}

func (g *Gallery) typedKeyHook(ev *fyne.KeyEvent) {
	if g.originalOnTypedKey != nil {
		g.originalOnTypedKey(ev)
	}
	if ev == nil {
		return
	}
	if ev.Name == fyne.KeyEscape && g.viewer != nil && g.viewer.Visible() {
		g.viewer.Hide()
		g.viewer = nil
		return
	}
	if !g.keyboardAllowed() {
		return
	}

	st := g.ctrl.State()
	switch ev.Name {
	case fyne.KeyLeft, fyne.KeyUp:
		g.ctrl.SelectIndex(st.CommittedIndex - 1)
	case fyne.KeyRight, fyne.KeyDown:
		g.ctrl.SelectIndex(st.CommittedIndex + 1)
	case fyne.KeyPageUp:
		g.ctrl.SelectIndex(st.CommittedIndex - g.grid.RowsPerPage())
	case fyne.KeyPageDown:
		g.ctrl.SelectIndex(st.CommittedIndex + g.grid.RowsPerPage())
	case fyne.KeyHome:
		g.ctrl.SelectIndex(st.Range.Lower)
	case fyne.KeyEnd:
		g.ctrl.SelectIndex(st.Range.Upper)
	}
}

// resizeLayout wraps a layout and reports real size changes, debounced, once
// layout has finished.
type resizeLayout struct {
	internal fyne.Layout
	onResize func()

	externalSize     func() fyne.Size
	lastSize         fyne.Size
	lastExternalSize fyne.Size
	lastFired        time.Time
	timer            *time.Timer
}

func (r *resizeLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	r.internal.Layout(objects, size)
	if r.onResize == nil {
		return
	}

	internalChanged := abs32(size.Width-r.lastSize.Width) >= 0.5 || abs32(size.Height-r.lastSize.Height) >= 0.5
	if internalChanged {
		r.lastSize = size
	}

	externalChanged := false
	if r.externalSize != nil {
		external := r.externalSize()
		externalChanged = abs32(external.Width-r.lastExternalSize.Width) >= 0.5 || abs32(external.Height-r.lastExternalSize.Height) >= 0.5
		if externalChanged {
			r.lastExternalSize = external
		}
	}

	// Layouts also run for reasons other than a resize.
	if !internalChanged && !externalChanged {
		return
	}
	r.scheduleResize()
}

func (r *resizeLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	return r.internal.MinSize(objects)
}

// scheduleResize runs onResize outside of layout, at most once per
// minInterval.
func (r *resizeLayout) scheduleResize() {
	const minInterval = 60 * time.Millisecond

	now := time.Now()
	elapsed := now.Sub(r.lastFired)
	if elapsed >= minInterval {
		r.lastFired = now
		fyne.Do(r.onResize)
		return
	}

	delay := minInterval - elapsed
	if r.timer == nil {
		r.timer = time.AfterFunc(delay, func() {
			fyne.Do(func() {
				r.timer = nil
				r.lastFired = time.Now()
				if r.onResize != nil {
					r.onResize()
				}
			})
		})
		return
	}
	r.timer.Reset(delay)
}
