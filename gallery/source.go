package gallery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/barasher/go-exiftool"
	"github.com/google/uuid"
	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"
)

var exifDate = "2006:01:02 15:04:05"

// photoNamespace seeds the stable item IDs.
var photoNamespace = uuid.MustParse("5f0c2a8e-3b1d-4c7e-9a44-1d2e6b7f8c90")

// FolderSource is a photo library made of one or more folders on disk.
type FolderSource struct {
	mu    sync.RWMutex
	roots []string

	// NoExif skips the exiftool lookup; capture times stay unknown.
	NoExif bool

	exifOnce    sync.Once
	exifMissing bool
}

func NewFolderSource(roots ...string) *FolderSource {
	return &FolderSource{roots: roots}
}

// Roots returns a copy of the library folders.
func (s *FolderSource) Roots() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.roots...)
}

// SetRoots replaces the library folders. Running scans keep the old ones.
func (s *FolderSource) SetRoots(roots ...string) {
	s.mu.Lock()
	s.roots = append([]string(nil), roots...)
	s.mu.Unlock()
}

func isSupportedImage(ext string) bool {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".tif", ".tiff", ".bmp":
		return true
	}
	return false
}

type foundFile struct {
	path    string
	modTime time.Time
}

func (s *FolderSource) walk(ctx context.Context, visit func(path string) error) error {
	roots := s.Roots()
	if len(roots) == 0 {
		return ErrNoLibrary
	}
	for _, root := range roots {
		st, err := os.Stat(root)
		if err != nil {
			return fmt.Errorf("stat %s: %w", root, err)
		}
		if !st.IsDir() {
			return fmt.Errorf("%s: %w", root, ErrNotListable)
		}

		err = godirwalk.Walk(root, &godirwalk.Options{
			Unsorted: true,
			Callback: func(path string, de *godirwalk.Dirent) error {
				if err := ctx.Err(); err != nil {
					return err
				}
				if path != root && strings.HasPrefix(de.Name(), ".") {
					if de.IsDir() {
						return godirwalk.SkipThis
					}
					return nil
				}
				if de.IsDir() || !isSupportedImage(filepath.Ext(path)) {
					return nil
				}
				return visit(path)
			},
			ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
				if ctx.Err() != nil {
					return godirwalk.Halt
				}
				klog.Warningf("walk %s: %v", path, err)
				return godirwalk.SkipNode
			},
		})
		if err != nil {
			return fmt.Errorf("walk %s: %w", root, err)
		}
	}
	return nil
}

// Count returns the number of photos without reading any metadata.
func (s *FolderSource) Count(ctx context.Context) (int, error) {
	n := 0
	err := s.walk(ctx, func(string) error {
		n++
		return nil
	})
	return n, err
}

// FetchAll lists every photo, newest first.
func (s *FolderSource) FetchAll(ctx context.Context) ([]PhotoItem, error) {
	var found []foundFile
	err := s.walk(ctx, func(path string) error {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		fi, err := os.Stat(abs)
		if err != nil {
			klog.Errorf("stat failure: %v", err)
			return nil
		}
		found = append(found, foundFile{path: abs, modTime: fi.ModTime()})
		return nil
	})
	if err != nil {
		return nil, err
	}

	taken := s.captureTimes(found)

	items := make([]PhotoItem, len(found))
	for i, f := range found {
		items[i] = PhotoItem{
			ID:      uuid.NewSHA1(photoNamespace, []byte(f.path)),
			Path:    f.path,
			Created: taken[f.path],
			ModTime: f.modTime,
		}
	}
	sortNewestFirst(items)
	for i := range items {
		items[i].SourceIndex = i
	}

	klog.Infof("found %d photos in %v", len(items), s.Roots())
	return items, nil
}

func sortNewestFirst(items []PhotoItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.HasCreated() != b.HasCreated() {
			return a.HasCreated()
		}
		if !a.Created.Equal(b.Created) {
			return a.Created.After(b.Created)
		}
		if !a.ModTime.Equal(b.ModTime) {
			return a.ModTime.After(b.ModTime)
		}
		return a.Path < b.Path
	})
}

func (s *FolderSource) captureTimes(files []foundFile) map[string]time.Time {
	taken := make(map[string]time.Time, len(files))
	if s.NoExif || len(files) == 0 {
		return taken
	}

	et, err := exiftool.NewExiftool()
	if err != nil {
		s.exifOnce.Do(func() {
			s.exifMissing = true
			klog.Warningf("exiftool unavailable, capture dates will be unknown: %v", err)
		})
		return taken
	}
	defer func() {
		if err := et.Close(); err != nil {
			klog.Errorf("Failed to close exiftool: %v", err)
		}
	}()

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}

	for _, fi := range et.ExtractMetadata(paths...) {
		if fi.Err != nil {
			klog.V(1).Infof("extract fail for %q: %v", fi.File, fi.Err)
			continue
		}
		ds, err := fi.GetString("DateTimeOriginal")
		if err != nil {
			klog.V(1).Infof("unable to get date time for %s: %v", fi.File, err)
			continue
		}
		t, err := parseExifDate(ds)
		if err != nil {
			klog.V(1).Infof("parse time %q: %v", ds, err)
			continue
		}
		taken[fi.File] = t
	}
	return taken
}

func parseExifDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	// Some cameras append sub-seconds or a zone; the first 19 bytes are the stamp.
	if len(s) > len(exifDate) {
		s = s[:len(exifDate)]
	}
	t, err := time.ParseInLocation(exifDate, s, time.Local)
	if err != nil {
		return time.Time{}, err
	}
	if t.Year() <= 1 {
		return time.Time{}, fmt.Errorf("empty date %q", s)
	}
	return t, nil
}
