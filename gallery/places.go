package gallery

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"github.com/FyshOS/fancyfs"
)

// place is a well-known folder offered as a library when none is chosen.
type place struct {
	name string
	icon fyne.Resource
	path string
}

// xdgNames maps place names to their xdg-user-dir keys.
var xdgNames = map[string]string{
	"Pictures":  "PICTURES",
	"Desktop":   "DESKTOP",
	"Downloads": "DOWNLOAD",
}

// libraryPlaces returns the existing, listable candidate folders, Pictures
// first and the home folder last.
func libraryPlaces() []place {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		fyne.LogError("could not find the home folder", err)
		return nil
	}
	homeURI := storage.NewFileURI(homeDir)

	var places []place
	for _, name := range []string{"Pictures", "Desktop", "Downloads"} {
		uri, err := placeLocation(homeURI, name)
		if err != nil || uri.String() == homeURI.String() {
			continue
		}
		if checkListable(uri.Path()) != nil {
			continue
		}
		places = append(places, place{name: name, icon: placeIcon(uri, theme.FolderIcon()), path: uri.Path()})
	}
	if checkListable(homeDir) == nil {
		places = append(places, place{name: "Home", icon: placeIcon(homeURI, theme.HomeIcon()), path: homeDir})
	}
	return places
}

func placeIcon(uri fyne.URI, fallback fyne.Resource) fyne.Resource {
	if details, err := fancyfs.DetailsForFolder(uri); err == nil && details != nil && details.BackgroundResource != nil {
		return details.BackgroundResource
	}
	return fallback
}

func placeLocation(homeURI fyne.URI, name string) (fyne.URI, error) {
	if runtime.GOOS != "linux" && runtime.GOOS != "openbsd" && runtime.GOOS != "freebsd" && runtime.GOOS != "netbsd" {
		return storage.Child(homeURI, name)
	}

	const cmdName = "xdg-user-dir"
	key, ok := xdgNames[name]
	if !ok {
		return storage.Child(homeURI, name)
	}
	if _, err := exec.LookPath(cmdName); err != nil {
		return storage.Child(homeURI, name)
	}
	loc, err := exec.Command(cmdName, key).Output()
	if err != nil {
		return storage.Child(homeURI, name)
	}

	locURI := storage.NewFileURI(filepath.Clean(strings.TrimSpace(string(loc))))
	// Unconfigured keys resolve to the home folder.
	if locURI.String() == homeURI.String() {
		childPath := filepath.Join(homeURI.Path(), name)
		if resolved, err := filepath.EvalSymlinks(childPath); err == nil {
			return storage.NewFileURI(resolved), nil
		}
		return storage.NewFileURI(childPath), nil
	}
	return locURI, nil
}
