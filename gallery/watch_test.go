package gallery

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestCountThrottle_CoalescesBursts(t *testing.T) {
	var calls atomic.Int32
	done := make(chan struct{}, 4)
	th := newCountThrottle(20*time.Millisecond, func() {
		calls.Add(1)
		done <- struct{}{}
	})
	defer th.Stop()

	for i := 0; i < 10; i++ {
		th.Trigger()
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for recount")
	}
	time.Sleep(50 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 recount for a burst, got %d", got)
	}

	th.Trigger()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for second recount")
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 recounts, got %d", got)
	}
}

func TestCountThrottle_Stop(t *testing.T) {
	var calls atomic.Int32
	th := newCountThrottle(20*time.Millisecond, func() { calls.Add(1) })
	th.Trigger()
	th.Stop()
	time.Sleep(60 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Fatalf("expected no recount after Stop, got %d", got)
	}
}

func TestFolderSource_WatchReportsNewPhotos(t *testing.T) {
	dir := t.TempDir()
	writePhoto(t, filepath.Join(dir, "a.jpg"), time.Now())
	if err := os.Mkdir(filepath.Join(dir, "later"), 0755); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	counts := make(chan int, 8)
	src := NewFolderSource(dir)
	if err := src.Watch(ctx, func(n int) { counts <- n }); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	writePhoto(t, filepath.Join(dir, "later", "b.jpg"), time.Now())
	select {
	case n := <-counts:
		if n != 2 {
			t.Fatalf("expected count 2, got %d", n)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for count change")
	}

	// Non-photo files do not change the count.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case n := <-counts:
		t.Fatalf("unexpected count change to %d", n)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestFolderSource_WatchWithoutLibrary(t *testing.T) {
	src := NewFolderSource()
	if err := src.Watch(context.Background(), nil); err != ErrNoLibrary {
		t.Fatalf("expected ErrNoLibrary, got %v", err)
	}
}
