//go:build !flatpak || windows || android || ios || wasm || js

package gallery

import (
	"fmt"

	"fyne.io/fyne/v2"
	fynedialog "fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
)

func (a *FolderAccess) chooseFolder(done func(path string, err error)) {
	if a.parent == nil {
		done("", fmt.Errorf("no window to show the folder picker: %w", ErrNoLibrary))
		return
	}

	d := fynedialog.NewFolderOpen(func(dir fyne.ListableURI, err error) {
		fyne.Do(func() {
			if err != nil || dir == nil {
				done("", err)
				return
			}
			// Content URIs from the mobile pickers cannot be walked.
			if dir.Scheme() != "file" {
				done("", fmt.Errorf("%s: %w", dir, ErrNotListable))
				return
			}
			done(dir.Path(), nil)
		})
	}, a.parent)

	if current := a.Dir(); current != "" {
		if l, err := storage.ListerForURI(storage.NewFileURI(current)); err == nil {
			d.SetLocation(l)
		}
	}
	d.Resize(fyne.NewSize(800, 600))
	d.Show()
}
