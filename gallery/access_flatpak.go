//go:build flatpak && !windows && !android && !ios && !wasm && !js

package gallery

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver"
	"fyne.io/fyne/v2/lang"
	"fyne.io/fyne/v2/storage"

	"github.com/rymdport/portal"
	"github.com/rymdport/portal/filechooser"
)

// chooseFolder goes through the document portal so the sandbox is granted
// access to the chosen folder as well.
func (a *FolderAccess) chooseFolder(done func(path string, err error)) {
	options := &filechooser.OpenFileOptions{
		AcceptLabel: lang.L("Choose"),
		Directory:   true,
	}
	if current := a.Dir(); current != "" {
		options.CurrentFolder = current
	}
	windowHandle := windowHandleForPortal(a.parent)

	go func() {
		uris, err := filechooser.OpenFile(windowHandle, lang.L("Choose Photo Library"), options)
		if err != nil {
			fyne.Do(func() { done("", err) })
			return
		}
		if len(uris) == 0 {
			fyne.Do(func() { done("", nil) })
			return
		}

		uri, err := storage.ParseURI(uris[0])
		if err != nil {
			fyne.Do(func() { done("", err) })
			return
		}
		fyne.Do(func() { done(uri.Path(), nil) })
	}()
}

func windowHandleForPortal(window fyne.Window) string {
	native, ok := window.(driver.NativeWindow)
	if !ok {
		return ""
	}

	windowHandle := ""
	native.RunNative(func(context any) {
		if x11, ok := context.(driver.X11WindowContext); ok {
			windowHandle = portal.FormatX11WindowHandle(x11.WindowHandle)
		}
	})
	return windowHandle
}
