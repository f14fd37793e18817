package gallery

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/lang"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/FyshOS/fancyfs"
)

// header is the top bar: the library path as a breadcrumb, the month of the
// current row, the photo count and the zoom and folder buttons.
type header struct {
	onSelectDir func(path string)

	crumbs *fyne.Container
	scroll *container.Scroll
	month  *widget.Label
	count  *widget.Label

	zoomInBtn  *widget.Button
	zoomOutBtn *widget.Button
	folderBtn  *widget.Button

	content fyne.CanvasObject
}

func newHeader(onZoomIn, onZoomOut, onChooseFolder func(), onSelectDir func(string)) *header {
	h := &header{
		onSelectDir: onSelectDir,
		crumbs:      container.NewHBox(),
		month:       widget.NewLabelWithStyle("", fyne.TextAlignTrailing, fyne.TextStyle{Bold: true}),
		count:       widget.NewLabel(""),
	}
	h.scroll = container.NewHScroll(h.crumbs)
	h.zoomOutBtn = widget.NewButtonWithIcon("", theme.ZoomOutIcon(), onZoomOut)
	h.zoomInBtn = widget.NewButtonWithIcon("", theme.ZoomInIcon(), onZoomIn)
	h.folderBtn = widget.NewButtonWithIcon("", theme.FolderOpenIcon(), onChooseFolder)

	controls := container.NewHBox(h.month, h.count, h.zoomOutBtn, h.zoomInBtn, h.folderBtn)
	h.content = container.NewVBox(
		container.NewBorder(nil, nil, nil, controls, h.scroll),
		widget.NewSeparator(),
	)
	return h
}

// setDir rebuilds the breadcrumb for dir.
func (h *header) setDir(dir string) {
	h.crumbs.Objects = nil
	if dir == "" {
		h.crumbs.Add(widget.NewLabelWithStyle(lang.L("No Library"), fyne.TextAlignLeading, fyne.TextStyle{Bold: true}))
		h.crumbs.Refresh()
		return
	}

	var parts []fyne.CanvasObject
	var current fyne.URI = storage.NewFileURI(dir)
	for current != nil {
		path := current.Path()
		btn := widget.NewButton(current.Name(), func() {
			if h.onSelectDir != nil {
				h.onSelectDir(path)
			}
		})
		btn.Importance = widget.LowImportance
		parts = append(parts, btn)

		parent, err := storage.Parent(current)
		if err != nil || parent == nil || parent.String() == current.String() {
			break
		}
		current = parent
	}

	// The current folder is last and shown in bold.
	if last, ok := parts[0].(*widget.Button); ok {
		last.Importance = widget.HighImportance
		last.OnTapped = nil
	}
	for i := len(parts) - 1; i >= 0; i-- {
		h.crumbs.Add(parts[i])
	}
	h.crumbs.Refresh()
	// Keep the current folder in view.
	h.scroll.Offset.X = max(0, h.crumbs.MinSize().Width-h.scroll.Size().Width)
	h.scroll.Refresh()
}

func (h *header) setCount(n int) {
	switch n {
	case 0:
		h.count.SetText(lang.L("No photos"))
	case 1:
		h.count.SetText(lang.L("1 photo"))
	default:
		h.count.SetText(fmt.Sprintf(lang.L("%d photos"), n))
	}
}

func (h *header) setMonth(label string) {
	h.month.SetText(label)
}

// updateZoomButtons follows the visual meaning of the icons: zooming in
// shows bigger photos, so fewer columns.
func (h *header) updateZoomButtons(z *ZoomController) {
	if z.CanZoomOut() {
		h.zoomInBtn.Enable()
	} else {
		h.zoomInBtn.Disable()
	}
	if z.CanZoomIn() {
		h.zoomOutBtn.Enable()
	} else {
		h.zoomOutBtn.Disable()
	}
}

// folderCover returns the library's custom folder art if it has any, or
// the stock picture icon.
func folderCover(dir string) fyne.CanvasObject {
	if dir != "" {
		uri := storage.NewFileURI(dir)
		if details, err := fancyfs.DetailsForFolder(uri); err == nil && details != nil {
			if details.BackgroundURI != nil {
				img := canvas.NewImageFromFile(details.BackgroundURI.Path())
				img.FillMode = details.BackgroundFill
				img.SetMinSize(fyne.NewSquareSize(128))
				return img
			}
			if details.BackgroundResource != nil {
				img := canvas.NewImageFromResource(details.BackgroundResource)
				img.FillMode = canvas.ImageFillContain
				img.SetMinSize(fyne.NewSquareSize(128))
				return img
			}
		}
	}
	icon := canvas.NewImageFromResource(theme.MediaPhotoIcon())
	icon.FillMode = canvas.ImageFillContain
	icon.SetMinSize(fyne.NewSquareSize(96))
	return icon
}
