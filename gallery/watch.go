package gallery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"
)

const watchThrottle = 100 * time.Millisecond

// Watch recounts the library whenever its folders change and calls
// onCountChanged when the count differs from the previous one. The watch
// runs until ctx is cancelled.
func (s *FolderSource) Watch(ctx context.Context, onCountChanged func(count int)) error {
	roots := s.Roots()
	if len(roots) == 0 {
		return ErrNoLibrary
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	var closeOnce sync.Once
	closeWatcher := func() {
		closeOnce.Do(func() {
			if err := watcher.Close(); err != nil {
				klog.Errorf("watcher close: %v", err)
			}
		})
	}

	watched := make(map[string]struct{})
	for _, root := range roots {
		dirs, err := collectDirs(root)
		if err != nil {
			closeWatcher()
			return fmt.Errorf("enumerate directories: %w", err)
		}
		for _, dir := range dirs {
			if err := watcher.Add(dir); err != nil {
				closeWatcher()
				return fmt.Errorf("watch %s: %w", dir, err)
			}
			watched[dir] = struct{}{}
		}
	}

	last, err := s.Count(ctx)
	if err != nil {
		closeWatcher()
		return err
	}

	recount := newCountThrottle(watchThrottle, func() {
		n, err := s.Count(ctx)
		if err != nil {
			if ctx.Err() == nil {
				klog.Warningf("recount failed: %v", err)
			}
			return
		}
		if n == last {
			return
		}
		klog.V(1).Infof("library count changed: %d -> %d", last, n)
		last = n
		if onCountChanged != nil {
			onCountChanged(n)
		}
	})

	go func() {
		defer closeWatcher()
		defer recount.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				klog.Warningf("watcher: %v", err)
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Create) {
					// New folders need their own watch.
					if dirs, err := collectDirs(ev.Name); err == nil {
						for _, dir := range dirs {
							if _, ok := watched[dir]; ok {
								continue
							}
							if err := watcher.Add(dir); err == nil {
								watched[dir] = struct{}{}
							}
						}
					}
				}
				if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
					delete(watched, ev.Name)
				}
				if ev.Op == fsnotify.Chmod {
					continue
				}
				recount.Trigger()
			}
		}
	}()

	return nil
}

// collectDirs returns base and every non-hidden directory below it.
func collectDirs(base string) ([]string, error) {
	var dirs []string
	err := godirwalk.Walk(base, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if !de.IsDir() {
				return nil
			}
			if path != base && strings.HasPrefix(de.Name(), ".") {
				return godirwalk.SkipThis
			}
			dirs = append(dirs, path)
			return nil
		},
	})
	return dirs, err
}

// countThrottle coalesces bursts of filesystem events into one recount.
type countThrottle struct {
	mu    sync.Mutex
	run   sync.Mutex
	timer *time.Timer
	delay time.Duration
	fn    func()
}

func newCountThrottle(delay time.Duration, fn func()) *countThrottle {
	return &countThrottle{delay: delay, fn: fn}
}

func (t *countThrottle) Trigger() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		return
	}
	t.timer = time.AfterFunc(t.delay, func() {
		t.mu.Lock()
		t.timer = nil
		t.mu.Unlock()

		t.run.Lock()
		defer t.run.Unlock()
		t.fn()
	})
}

func (t *countThrottle) Stop() {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()
}
