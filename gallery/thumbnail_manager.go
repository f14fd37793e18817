package gallery

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	"github.com/peterbourgon/diskv/v3"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"k8s.io/klog/v2"
)

type thumbnailRequest struct {
	ctx      context.Context
	item     PhotoItem
	side     int
	callback func(image.Image)
}

// ThumbnailManager decodes and scales photos on a small worker pool. Results
// are kept in memory and in a disk cache keyed by file identity.
type ThumbnailManager struct {
	cache    sync.Map // map[string]image.Image
	requests []thumbnailRequest
	reqLock  sync.Mutex
	reqCond  *sync.Cond
	disk     *diskv.Diskv
	cacheDir string
}

var (
	MaxCacheSize       int64 = 500 * 1024 * 1024 // 500MB
	MaxCacheFiles      int   = 10000
	MaxPendingRequests int   = 100
)

// DefaultThumbnailWorkers is the worker count used by GetThumbnailManager.
const DefaultThumbnailWorkers = 4

var (
	instance *ThumbnailManager
	once     sync.Once
)

var _ ThumbnailLoader = (*ThumbnailManager)(nil)

// GetThumbnailManager returns the shared manager caching under the user
// cache directory.
func GetThumbnailManager() *ThumbnailManager {
	once.Do(func() {
		dir := ""
		if userCache, err := os.UserCacheDir(); err == nil {
			dir = filepath.Join(userCache, "xphotogallery")
		}
		instance = NewThumbnailManager(dir, DefaultThumbnailWorkers)
	})
	return instance
}

// NewThumbnailManager starts workers goroutines. An empty cacheDir disables
// the disk cache.
func NewThumbnailManager(cacheDir string, workers int) *ThumbnailManager {
	if workers < 1 {
		workers = 1
	}
	m := &ThumbnailManager{
		requests: make([]thumbnailRequest, 0, MaxPendingRequests),
	}
	m.reqCond = sync.NewCond(&m.reqLock)

	if cacheDir != "" {
		if err := os.MkdirAll(cacheDir, 0o755); err != nil {
			klog.Warningf("thumbnail cache disabled: %v", err)
		} else {
			m.cacheDir = cacheDir
			m.disk = diskv.New(diskv.Options{
				BasePath:     cacheDir,
				CacheSizeMax: 0, // decoded images are kept in m.cache instead
			})
			go m.cleanupCache()
		}
	}

	for range workers {
		go m.worker()
	}
	return m
}

func memoryKey(path string, side int) string {
	return fmt.Sprintf("%s@%d", path, side)
}

// LoadMemoryOnly returns a cached thumbnail or nil.
func (m *ThumbnailManager) LoadMemoryOnly(item PhotoItem, side int) image.Image {
	if cached, ok := m.cache.Load(memoryKey(item.Path, side)); ok {
		return cached.(image.Image)
	}
	return nil
}

// RequestThumbnail queues a square, aspect-filled thumbnail of item. Memory
// hits are delivered synchronously.
func (m *ThumbnailManager) RequestThumbnail(ctx context.Context, item PhotoItem, side int, callback func(image.Image)) {
	if callback == nil || item.Path == "" || ctx.Err() != nil {
		return
	}
	if side < 1 {
		side = thumbnailMinSide
	}
	if img := m.LoadMemoryOnly(item, side); img != nil {
		callback(img)
		return
	}

	// LIFO queue: the newest request is what is on screen now.
	m.reqLock.Lock()
	if len(m.requests) >= MaxPendingRequests {
		dropped := m.requests[0]
		m.requests = m.requests[1:]
		klog.V(2).Infof("thumbnail queue full, dropping %s", dropped.item.Path)
	}
	m.requests = append(m.requests, thumbnailRequest{ctx: ctx, item: item, side: side, callback: callback})
	m.reqCond.Signal()
	m.reqLock.Unlock()
}

// RequestFullImage decodes item at up to fullImageMaxSide pixels.
func (m *ThumbnailManager) RequestFullImage(ctx context.Context, item PhotoItem, callback func(image.Image)) {
	if callback == nil || ctx.Err() != nil {
		return
	}
	go func() {
		img, err := loadFullImage(item.Path, fullImageMaxSide)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			klog.Warningf("full image %s: %v", item.Path, err)
			callback(nil)
			return
		}
		callback(img)
	}()
}

func (m *ThumbnailManager) pending() int {
	m.reqLock.Lock()
	defer m.reqLock.Unlock()
	return len(m.requests)
}

func (m *ThumbnailManager) worker() {
	for {
		m.reqLock.Lock()
		for len(m.requests) == 0 {
			m.reqCond.Wait()
		}
		lastIdx := len(m.requests) - 1
		req := m.requests[lastIdx]
		m.requests = m.requests[:lastIdx]
		m.reqLock.Unlock()

		if req.ctx.Err() != nil {
			continue
		}

		img := m.thumbnail(req.item, req.side)
		if req.ctx.Err() != nil {
			continue
		}
		req.callback(img)
	}
}

// thumbnail resolves one request through the memory, disk and decode tiers.
// It returns nil if the photo cannot be decoded.
func (m *ThumbnailManager) thumbnail(item PhotoItem, side int) image.Image {
	mk := memoryKey(item.Path, side)
	if cached, ok := m.cache.Load(mk); ok {
		return cached.(image.Image)
	}

	var diskKey string
	if m.disk != nil {
		if key, err := m.generateCacheKey(item.Path, side); err == nil {
			diskKey = key + ".jpg"
			if m.disk.Has(diskKey) {
				if data, err := m.disk.Read(diskKey); err == nil {
					if img, err := jpeg.Decode(bytes.NewReader(data)); err == nil {
						m.cache.Store(mk, img)
						return img
					}
				}
			}
		}
	}

	src, err := loadImage(item.Path)
	if err != nil {
		klog.V(1).Infof("thumbnail %s: %v", item.Path, err)
		return nil
	}
	dst := squareThumbnail(src, side)
	if dst == nil {
		return nil
	}
	m.cache.Store(mk, dst)

	if diskKey != "" {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85}); err == nil {
			if err := m.disk.Write(diskKey, buf.Bytes()); err != nil {
				klog.V(1).Infof("thumbnail cache write: %v", err)
			}
		}
	}
	return dst
}

// squareThumbnail centre-crops src to a square and scales it to side.
func squareThumbnail(src image.Image, side int) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 || side < 1 {
		return nil
	}

	crop := b
	if w > h {
		x := b.Min.X + (w-h)/2
		crop = image.Rect(x, b.Min.Y, x+h, b.Max.Y)
	} else if h > w {
		y := b.Min.Y + (h-w)/2
		crop = image.Rect(b.Min.X, y, b.Max.X, y+w)
	}

	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, crop, draw.Src, nil)
	return dst
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}

// loadFullImage opens path and fits it inside maxSide x maxSide.
func loadFullImage(path string, maxSide int) (image.Image, error) {
	img, err := imgio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imgio.Open: %w", err)
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("empty image %s", path)
	}
	if w <= maxSide && h <= maxSide {
		return img, nil
	}

	scale := float64(maxSide) / float64(max(w, h))
	nw := max(1, int(float64(w)*scale))
	nh := max(1, int(float64(h)*scale))
	return transform.Resize(img, nw, nh, transform.Linear), nil
}

func (m *ThumbnailManager) generateCacheKey(path string, side int) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	h.Write([]byte(absPath))
	h.Write([]byte(info.ModTime().String()))
	h.Write([]byte(fmt.Sprintf("%d:%d", info.Size(), side)))

	// Partial content (32KB) catches edits that keep mtime and size.
	f, err := os.Open(absPath)
	if err == nil {
		defer f.Close()
		buf := make([]byte, 32*1024)
		n, _ := f.Read(buf)
		h.Write(buf[:n])
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func (m *ThumbnailManager) cleanupCache() {
	if m.cacheDir == "" {
		return
	}

	files, err := os.ReadDir(m.cacheDir)
	if err != nil {
		return
	}

	type fileInfo struct {
		name string
		size int64
		time time.Time
	}

	var cachedFiles []fileInfo
	var totalSize int64

	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".jpg" {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		cachedFiles = append(cachedFiles, fileInfo{
			name: f.Name(),
			size: info.Size(),
			time: info.ModTime(),
		})
		totalSize += info.Size()
	}

	if totalSize <= MaxCacheSize && len(cachedFiles) <= MaxCacheFiles {
		return
	}

	// Oldest first.
	sort.Slice(cachedFiles, func(i, j int) bool {
		return cachedFiles[i].time.Before(cachedFiles[j].time)
	})

	removed := 0
	for _, f := range cachedFiles {
		if totalSize <= int64(float64(MaxCacheSize)*0.8) && len(cachedFiles)-removed <= int(float64(MaxCacheFiles)*0.8) {
			break
		}
		_ = os.Remove(filepath.Join(m.cacheDir, f.name))
		totalSize -= f.size
		removed++
	}
	klog.V(1).Infof("thumbnail cache cleanup removed %d files", removed)
}
