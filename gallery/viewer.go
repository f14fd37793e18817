package gallery

import (
	"context"
	"image"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/lang"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// photoViewer shows one photo at full size in a modal pop-up.
type photoViewer struct {
	popUp   *widget.PopUp
	image   *canvas.Image
	broken  *widget.Icon
	loading *widget.ProgressBarInfinite
	cancel  context.CancelFunc
}

func showPhotoViewer(c fyne.Canvas, loader ThumbnailLoader, item PhotoItem) *photoViewer {
	v := &photoViewer{
		image:   canvas.NewImageFromImage(nil),
		broken:  widget.NewIcon(theme.BrokenImageIcon()),
		loading: widget.NewProgressBarInfinite(),
	}
	v.image.FillMode = canvas.ImageFillContain
	v.broken.Hide()

	title := widget.NewLabelWithStyle(filepath.Base(item.Path), fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	title.Truncation = fyne.TextTruncateEllipsis
	date := widget.NewLabel(item.MonthYear())
	closeBtn := widget.NewButtonWithIcon(lang.L("Close"), theme.CancelIcon(), v.Hide)

	top := container.NewBorder(nil, nil, nil, container.NewHBox(date, closeBtn), title)
	body := container.NewStack(v.image, container.NewCenter(v.broken), container.NewVBox(layout.NewSpacer(), v.loading))
	v.popUp = widget.NewModalPopUp(container.NewBorder(top, nil, nil, nil, body), c)
	v.popUp.Resize(c.Size().Subtract(fyne.NewSquareSize(theme.Padding() * 8)))
	v.popUp.Show()

	if loader == nil {
		v.showImage(nil)
		return v
	}
	ctx, cancel := context.WithCancel(context.Background())
	v.cancel = cancel
	loader.RequestFullImage(ctx, item, func(img image.Image) {
		fyne.Do(func() {
			if ctx.Err() != nil {
				return
			}
			v.showImage(img)
		})
	})
	return v
}

func (v *photoViewer) showImage(img image.Image) {
	v.loading.Stop()
	v.loading.Hide()
	if img == nil {
		v.broken.Show()
		return
	}
	v.image.Image = img
	v.image.Refresh()
}

// Hide closes the viewer and abandons a pending load.
func (v *photoViewer) Hide() {
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.loading.Stop()
	v.popUp.Hide()
}

func (v *photoViewer) Visible() bool {
	return v.popUp.Visible()
}
