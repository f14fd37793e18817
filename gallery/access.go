package gallery

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"fyne.io/fyne/v2"
	"k8s.io/klog/v2"
)

// FolderAccess grants access to a library folder chosen by the user. The
// chosen folder becomes the root of source and is remembered in the app
// preferences.
type FolderAccess struct {
	parent fyne.Window
	source *FolderSource
}

var _ AccessGate = (*FolderAccess)(nil)

// NewFolderAccess binds source to the folder picker of parent. If source has
// no roots yet, the last chosen folder is restored from the preferences.
func NewFolderAccess(parent fyne.Window, source *FolderSource) *FolderAccess {
	a := &FolderAccess{parent: parent, source: source}
	if len(source.Roots()) == 0 {
		if dir := a.savedDir(); dir != "" {
			source.SetRoots(dir)
		}
	}
	return a
}

func (a *FolderAccess) savedDir() string {
	app := fyne.CurrentApp()
	if app == nil {
		return ""
	}
	return app.Preferences().String(libraryDirKey)
}

// Dir is the current library folder, or "" if none is set.
func (a *FolderAccess) Dir() string {
	roots := a.source.Roots()
	if len(roots) == 0 {
		return ""
	}
	return roots[0]
}

// HasAccess reports whether every library folder exists and can be listed.
func (a *FolderAccess) HasAccess() bool {
	roots := a.source.Roots()
	if len(roots) == 0 {
		return false
	}
	for _, root := range roots {
		if err := checkListable(root); err != nil {
			klog.V(1).Infof("no access: %v", err)
			return false
		}
	}
	return true
}

// SetDir makes dir the library folder.
func (a *FolderAccess) SetDir(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", dir, err)
	}
	if err := checkListable(abs); err != nil {
		return err
	}
	a.source.SetRoots(abs)
	if app := fyne.CurrentApp(); app != nil {
		app.Preferences().SetString(libraryDirKey, abs)
	}
	klog.Infof("library folder set to %s", abs)
	return nil
}

// RequestAccess lets the user pick the library folder. callback runs on the
// UI goroutine and is false when the user cancelled or the folder is unusable.
func (a *FolderAccess) RequestAccess(callback func(granted bool)) {
	a.chooseFolder(func(path string, err error) {
		granted := false
		switch {
		case err != nil:
			klog.Warningf("folder picker: %v", err)
		case path == "":
			klog.V(1).Info("folder picker cancelled")
		default:
			if err := a.SetDir(path); err != nil {
				klog.Warningf("library folder: %v", err)
			} else {
				granted = true
			}
		}
		if callback != nil {
			callback(granted)
		}
	})
}

func checkListable(dir string) error {
	st, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat %s: %w", dir, err)
	}
	if !st.IsDir() {
		return fmt.Errorf("%s: %w", dir, ErrNotListable)
	}
	f, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("%s: %w", dir, ErrNotListable)
	}
	defer f.Close()
	if _, err := f.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: %w", dir, ErrNotListable)
	}
	return nil
}
