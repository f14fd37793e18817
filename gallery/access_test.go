package gallery

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"fyne.io/fyne/v2/test"
)

func TestFolderAccess_SetDir(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	src := NewFolderSource()
	acc := NewFolderAccess(nil, src)
	if acc.HasAccess() || acc.Dir() != "" {
		t.Fatal("expected no access without a library")
	}

	dir := t.TempDir()
	if err := acc.SetDir(dir); err != nil {
		t.Fatalf("SetDir: %v", err)
	}
	if !acc.HasAccess() {
		t.Fatal("expected access to an empty folder")
	}
	if acc.Dir() != dir || src.Roots()[0] != dir {
		t.Fatalf("expected %s as library, got %s", dir, acc.Dir())
	}
	if got := a.Preferences().String(libraryDirKey); got != dir {
		t.Fatalf("expected the folder to be remembered, got %q", got)
	}

	// A fresh source picks up the remembered folder.
	restored := NewFolderSource()
	NewFolderAccess(nil, restored)
	if roots := restored.Roots(); len(roots) != 1 || roots[0] != dir {
		t.Fatalf("expected %s to be restored, got %v", dir, roots)
	}

	// An explicit root wins over the preference.
	other := t.TempDir()
	explicit := NewFolderSource(other)
	NewFolderAccess(nil, explicit)
	if roots := explicit.Roots(); roots[0] != other {
		t.Fatalf("expected %s to be kept, got %v", other, roots)
	}
}

func TestFolderAccess_Rejects(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	src := NewFolderSource()
	acc := NewFolderAccess(nil, src)

	file := filepath.Join(t.TempDir(), "photo.jpg")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := acc.SetDir(file); !errors.Is(err, ErrNotListable) {
		t.Fatalf("expected ErrNotListable for a file, got %v", err)
	}
	if err := acc.SetDir(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected an error for a missing folder")
	}
	if len(src.Roots()) != 0 {
		t.Fatalf("expected rejected folders to leave the source alone, got %v", src.Roots())
	}

	// The library disappearing revokes access.
	dir := filepath.Join(t.TempDir(), "lib")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := acc.SetDir(dir); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(dir); err != nil {
		t.Fatal(err)
	}
	if acc.HasAccess() {
		t.Fatal("expected no access once the folder is gone")
	}
}
