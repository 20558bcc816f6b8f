package project

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("valid directory", func(t *testing.T) {
		dir := t.TempDir()
		proj, err := New(dir)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if !filepath.IsAbs(proj.Root) {
			t.Errorf("expected absolute root, got %s", proj.Root)
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		if _, err := New(filepath.Join(t.TempDir(), "nope")); err == nil {
			t.Fatal("expected error for missing directory")
		}
	})

	t.Run("file instead of directory", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "f.txt")
		if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := New(file); err == nil {
			t.Fatal("expected error for non-directory root")
		}
	})

	t.Run("symlink resolves to same root", func(t *testing.T) {
		dir := t.TempDir()
		link := filepath.Join(t.TempDir(), "link")
		if err := os.Symlink(dir, link); err != nil {
			t.Skipf("symlinks unavailable: %v", err)
		}
		direct, err := New(dir)
		if err != nil {
			t.Fatal(err)
		}
		viaLink, err := New(link)
		if err != nil {
			t.Fatal(err)
		}
		if direct.Root != viaLink.Root {
			t.Errorf("expected same canonical root, got %s and %s", direct.Root, viaLink.Root)
		}
	})
}

func TestRelPath(t *testing.T) {
	dir := t.TempDir()
	proj, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("inside project", func(t *testing.T) {
		rel, err := proj.RelPath(filepath.Join(proj.Root, "pkg", "file.go"))
		if err != nil {
			t.Fatalf("RelPath failed: %v", err)
		}
		if rel != filepath.Join("pkg", "file.go") {
			t.Errorf("got %q", rel)
		}
	})

	t.Run("root itself", func(t *testing.T) {
		rel, err := proj.RelPath(proj.Root)
		if err != nil {
			t.Fatalf("RelPath failed: %v", err)
		}
		if rel != "." {
			t.Errorf("got %q", rel)
		}
	})

	t.Run("outside project", func(t *testing.T) {
		if _, err := proj.RelPath(filepath.Dir(proj.Root)); err == nil {
			t.Fatal("expected error for path outside project")
		}
	})

	t.Run("sibling with shared prefix", func(t *testing.T) {
		if _, err := proj.RelPath(proj.Root + "-other"); err == nil {
			t.Fatal("expected error for sibling directory")
		}
	})
}

func TestURIRoundTrip(t *testing.T) {
	dir := t.TempDir()
	proj, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}

	uri := proj.FileURI(filepath.Join("pkg", "file.go"))
	if !strings.HasPrefix(uri, "file://") {
		t.Fatalf("expected file URI, got %s", uri)
	}
	back := URIToPath(uri)
	if back != filepath.Join(proj.Root, "pkg", "file.go") {
		t.Errorf("round trip mismatch: %s", back)
	}
}

func TestURIToPathNonFile(t *testing.T) {
	in := "https://example.com/x"
	if got := URIToPath(in); got != in {
		t.Errorf("expected non-file URI unchanged, got %s", got)
	}
}

func TestCacheDir(t *testing.T) {
	dir := t.TempDir()
	proj, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	if proj.CacheDir() != filepath.Join(proj.Root, CacheDirName) {
		t.Errorf("unexpected cache dir %s", proj.CacheDir())
	}
}
