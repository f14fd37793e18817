package gallery

import (
	"context"
	"image"
	"math"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// gridOverscan is the number of rows bound above and below the viewport.
const gridOverscan = 1

// thumbnailLoadDelay postpones thumbnail requests so cells that only flash
// past during a fast scroll never hit the loader.
var thumbnailLoadDelay = 150 * time.Millisecond

// memoryLoader is implemented by loaders that can answer from memory
// without queueing.
type memoryLoader interface {
	LoadMemoryOnly(item PhotoItem, side int) image.Image
}

// photoGrid is a vertically scrolling, virtualized grid of square photo
// cells. Only rows near the viewport have cells bound to them. Wheel and
// drag input scroll it and are reported through OnScrolled; ScrollTo is
// silent.
type photoGrid struct {
	widget.BaseWidget

	loader  ThumbnailLoader
	items   []PhotoItem
	columns int
	offset  float32

	OnScrolled func(offset float32)
	OnTapped   func(item PhotoItem)

	anim     *fyne.Animation
	animDone func()

	bound map[int]*photoCell
	pool  []*photoCell
	cells []fyne.CanvasObject
}

var (
	_ Scroller        = (*photoGrid)(nil)
	_ fyne.Scrollable = (*photoGrid)(nil)
	_ fyne.Draggable  = (*photoGrid)(nil)
)

func newPhotoGrid(loader ThumbnailLoader, columns int) *photoGrid {
	if columns < 1 {
		columns = ZoomLevelDefault.Columns()
	}
	g := &photoGrid{
		loader:  loader,
		columns: columns,
		bound:   make(map[int]*photoCell),
	}
	g.ExtendBaseWidget(g)
	return g
}

func (g *photoGrid) CreateRenderer() fyne.WidgetRenderer {
	return &photoGridRenderer{g: g}
}

// SetItems replaces the collection. Cells that keep showing the same photo
// keep their thumbnail.
func (g *photoGrid) SetItems(items []PhotoItem) {
	g.items = items
	g.offset = g.clampOffset(g.offset)
	g.Refresh()
}

// SetColumns changes the number of cells per row. The content extent is
// recomputed immediately, so MaxScrollOffset is valid on return.
func (g *photoGrid) SetColumns(cols int) {
	if cols < 1 || cols == g.columns {
		return
	}
	g.columns = cols
	// Every cell changes size; release them so stale loads are cancelled.
	g.releaseAll()
	g.offset = g.clampOffset(g.offset)
	g.Refresh()
}

func (g *photoGrid) Columns() int {
	return g.columns
}

func (g *photoGrid) Offset() float32 {
	return g.offset
}

func (g *photoGrid) rows() int {
	if len(g.items) == 0 {
		return 0
	}
	return (len(g.items) + g.columns - 1) / g.columns
}

func (g *photoGrid) cellSize() float32 {
	return calculateCellSize(g.Size().Width, g.columns)
}

// RowsPerPage is how many whole rows fit in the viewport.
func (g *photoGrid) RowsPerPage() int {
	step := g.cellSize() + cellSpacing
	n := int(g.Size().Height / step)
	if n < 1 {
		return 1
	}
	return n
}

// MaxScrollOffset is the largest offset that still fills the viewport.
func (g *photoGrid) MaxScrollOffset() float32 {
	m := contentHeight(g.rows(), g.cellSize()) - g.Size().Height
	if m < 0 {
		return 0
	}
	return m
}

func (g *photoGrid) clampOffset(o float32) float32 {
	if math.IsNaN(float64(o)) || o < 0 {
		return 0
	}
	if m := g.MaxScrollOffset(); o > m {
		return m
	}
	return o
}

func (g *photoGrid) setOffset(o float32) bool {
	o = g.clampOffset(o)
	if o == g.offset {
		return false
	}
	g.offset = o
	g.Refresh()
	return true
}

// ScrollTo animates to offset. done runs once, when the animation reaches
// its end or is interrupted by another scroll.
func (g *photoGrid) ScrollTo(offset float32, done func()) {
	g.stopAnimation()

	from := g.offset
	to := g.clampOffset(offset)
	if abs32(to-from) < 0.5 {
		g.setOffset(to)
		if done != nil {
			done()
		}
		return
	}

	var a *fyne.Animation
	a = fyne.NewAnimation(scrollSettleDuration, func(p float32) {
		if g.anim != a {
			return
		}
		g.setOffset(from + (to-from)*p)
		if p >= 1 {
			g.finishAnimation()
		}
	})
	a.Curve = fyne.AnimationEaseInOut
	g.anim = a
	g.animDone = done
	a.Start()
}

func (g *photoGrid) finishAnimation() {
	g.anim = nil
	done := g.animDone
	g.animDone = nil
	if done != nil {
		done()
	}
}

func (g *photoGrid) stopAnimation() {
	if g.anim == nil {
		return
	}
	g.anim.Stop()
	g.finishAnimation()
}

func (g *photoGrid) userScroll(delta float32) {
	if math.IsNaN(float64(delta)) || math.IsInf(float64(delta), 0) {
		return
	}
	g.stopAnimation()
	if !g.setOffset(g.offset + delta) {
		return
	}
	if g.OnScrolled != nil {
		g.OnScrolled(g.offset)
	}
}

func (g *photoGrid) Scrolled(e *fyne.ScrollEvent) {
	g.userScroll(-e.Scrolled.DY)
}

func (g *photoGrid) Dragged(e *fyne.DragEvent) {
	g.userScroll(-e.Dragged.DY)
}

func (g *photoGrid) DragEnd() {}

func (g *photoGrid) canvasScale() float32 {
	app := fyne.CurrentApp()
	if app == nil {
		return 1
	}
	if c := app.Driver().CanvasForObject(g); c != nil {
		return c.Scale()
	}
	return 1
}

// layoutCells binds cells to the rows around the viewport and positions
// them. Cells that scrolled out are released back to the pool.
func (g *photoGrid) layoutCells(size fyne.Size) {
	side := calculateCellSize(size.Width, g.columns)
	first, last := visibleRows(g.offset, size.Height, side, g.rows(), gridOverscan)

	start := first * g.columns
	end := min((last+1)*g.columns, len(g.items))
	if last < first {
		start, end = 0, 0
	}

	for idx, c := range g.bound {
		if idx < start || idx >= end {
			c.release()
			delete(g.bound, idx)
			g.pool = append(g.pool, c)
		}
	}

	thumb := thumbnailSide(side, g.canvasScale())
	step := side + cellSpacing
	cells := make([]fyne.CanvasObject, 0, end-start)
	for idx := start; idx < end; idx++ {
		c, ok := g.bound[idx]
		if !ok {
			c = g.acquire()
			g.bound[idx] = c
		}
		c.bind(idx, g.items[idx], thumb)

		row, col := idx/g.columns, idx%g.columns
		c.Move(fyne.NewPos(float32(col)*step, float32(row)*step-g.offset))
		c.Resize(fyne.NewSquareSize(side))
		cells = append(cells, c)
	}
	g.cells = cells
}

func (g *photoGrid) acquire() *photoCell {
	if n := len(g.pool); n > 0 {
		c := g.pool[n-1]
		g.pool = g.pool[:n-1]
		return c
	}
	return newPhotoCell(g)
}

func (g *photoGrid) releaseAll() {
	for idx, c := range g.bound {
		c.release()
		delete(g.bound, idx)
		g.pool = append(g.pool, c)
	}
	g.cells = nil
}

type photoGridRenderer struct {
	g *photoGrid
}

func (r *photoGridRenderer) Layout(size fyne.Size) {
	r.g.layoutCells(size)
}

func (r *photoGridRenderer) MinSize() fyne.Size {
	return fyne.NewSize(float32(thumbnailMinSide), float32(thumbnailMinSide))
}

func (r *photoGridRenderer) Refresh() {
	r.g.layoutCells(r.g.Size())
	for _, c := range r.g.cells {
		c.Refresh()
	}
}

func (r *photoGridRenderer) Objects() []fyne.CanvasObject {
	return r.g.cells
}

func (r *photoGridRenderer) Destroy() {
	r.g.stopAnimation()
	r.g.releaseAll()
}

// Cell implementation

type photoCell struct {
	widget.BaseWidget
	grid *photoGrid

	index int
	item  PhotoItem
	side  int

	placeholder *canvas.Rectangle
	thumbnail   *canvas.Image
	broken      *widget.Icon

	cancel    context.CancelFunc
	loadTimer *time.Timer
}

var _ fyne.Tappable = (*photoCell)(nil)

func newPhotoCell(g *photoGrid) *photoCell {
	c := &photoCell{
		grid:        g,
		index:       -1,
		placeholder: canvas.NewRectangle(theme.Color(theme.ColorNameInputBackground)),
		thumbnail:   canvas.NewImageFromImage(nil),
		broken:      widget.NewIcon(theme.BrokenImageIcon()),
	}
	c.thumbnail.FillMode = canvas.ImageFillContain
	c.thumbnail.Hide()
	c.broken.Hide()
	c.ExtendBaseWidget(c)
	return c
}

func (c *photoCell) CreateRenderer() fyne.WidgetRenderer {
	return &photoCellRenderer{c: c}
}

// bind points the cell at item. Rebinding to the same photo and size is a
// no-op so scrolling does not restart loads.
func (c *photoCell) bind(index int, item PhotoItem, side int) {
	c.index = index
	if c.item.ID == item.ID && c.item.Path == item.Path && c.side == side {
		return
	}
	c.release()
	c.index = index
	c.item = item
	c.side = side

	if ml, ok := c.grid.loader.(memoryLoader); ok {
		if img := ml.LoadMemoryOnly(item, side); img != nil {
			c.showImage(img)
			return
		}
	}
	if c.grid.loader == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	load := func() {
		c.grid.loader.RequestThumbnail(ctx, item, side, func(img image.Image) {
			fyne.Do(func() {
				if ctx.Err() != nil {
					return
				}
				if img == nil {
					c.showBroken()
					return
				}
				c.showImage(img)
			})
		})
	}
	if thumbnailLoadDelay <= 0 {
		load()
		return
	}
	c.loadTimer = time.AfterFunc(thumbnailLoadDelay, load)
}

// release cancels any pending load and clears the cell.
func (c *photoCell) release() {
	if c.loadTimer != nil {
		c.loadTimer.Stop()
		c.loadTimer = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.index = -1
	c.item = PhotoItem{}
	c.side = 0
	c.thumbnail.Image = nil
	c.thumbnail.Hide()
	c.broken.Hide()
	c.placeholder.Show()
}

func (c *photoCell) showImage(img image.Image) {
	c.thumbnail.Image = img
	c.thumbnail.Show()
	c.broken.Hide()
	c.placeholder.Hide()
	c.thumbnail.Refresh()
}

func (c *photoCell) showBroken() {
	c.thumbnail.Image = nil
	c.thumbnail.Hide()
	c.placeholder.Show()
	c.broken.Show()
	c.Refresh()
}

func (c *photoCell) Tapped(*fyne.PointEvent) {
	if c.index < 0 || c.grid.OnTapped == nil {
		return
	}
	c.grid.OnTapped(c.item)
}

type photoCellRenderer struct {
	c *photoCell
}

func (r *photoCellRenderer) Layout(size fyne.Size) {
	r.c.placeholder.Resize(size)
	r.c.thumbnail.Resize(size)

	iconSize := fyne.NewSquareSize(min(size.Width/3, theme.IconInlineSize()*2))
	r.c.broken.Resize(iconSize)
	r.c.broken.Move(fyne.NewPos((size.Width-iconSize.Width)/2, (size.Height-iconSize.Height)/2))
}

func (r *photoCellRenderer) MinSize() fyne.Size {
	return fyne.NewSquareSize(1)
}

func (r *photoCellRenderer) Refresh() {
	r.c.placeholder.FillColor = theme.Color(theme.ColorNameInputBackground)
	r.c.placeholder.Refresh()
	r.c.thumbnail.Refresh()
	r.c.broken.Refresh()
}

func (r *photoCellRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.c.placeholder, r.c.thumbnail, r.c.broken}
}

func (r *photoCellRenderer) Destroy() {
	r.c.release()
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
