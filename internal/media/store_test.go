package media_test

import (
	"bytes"
	"errors"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nokshibox/internal/media"
)

var png = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

// header builds the FileHeader a browser upload of data would produce.
func header(t *testing.T, name string, data []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("image", name)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["image"][0]
}

func TestSaveImageSniffsContent(t *testing.T) {
	s := media.NewStore(t.TempDir(), 1)

	rel, err := s.SaveImage(header(t, "shell.php", png), "products")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(rel, "products/") || filepath.Ext(rel) != ".png" {
		t.Fatalf("unexpected path %q", rel)
	}
	full, ok := s.Resolve(rel)
	if !ok {
		t.Fatalf("stored path does not resolve")
	}
	got, err := os.ReadFile(full)
	if err != nil || !bytes.Equal(got, png) {
		t.Fatalf("stored bytes differ: %v", err)
	}

	if _, err := s.SaveImage(header(t, "cat.png", []byte("<?php echo 1; ?>")), "products"); !errors.Is(err, media.ErrNotAnImage) {
		t.Fatalf("script disguised as png: %v", err)
	}
}

func TestSaveImageTooLarge(t *testing.T) {
	s := media.NewStore(t.TempDir(), 1)
	big := append(append([]byte{}, png...), bytes.Repeat([]byte{1}, 1<<20)...)
	if _, err := s.SaveImage(header(t, "big.png", big), "profiles"); !errors.Is(err, media.ErrTooLarge) {
		t.Fatalf("oversized upload: %v", err)
	}
	entries, _ := os.ReadDir(filepath.Join(s.Root, "profiles"))
	if len(entries) != 0 {
		t.Fatalf("oversized upload left %d files behind", len(entries))
	}
}

func TestResolveRejectsTraversal(t *testing.T) {
	s := media.NewStore(t.TempDir(), 1)
	for _, p := range []string{"", ".", "../etc/passwd", "products/../../x", "%2e%2e/x", "a\x00b", "/etc/passwd"} {
		if full, ok := s.Resolve(p); ok {
			t.Fatalf("Resolve(%q) accepted as %s", p, full)
		}
	}
	if full, ok := s.Resolve("products/a.png"); !ok || full != filepath.Join(s.Root, "products", "a.png") {
		t.Fatalf("Resolve(products/a.png) = %q, %v", full, ok)
	}
}

func TestRemove(t *testing.T) {
	s := media.NewStore(t.TempDir(), 1)
	rel, err := s.SaveImage(header(t, "a.png", png), "products")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Remove(rel); err != nil {
		t.Fatal(err)
	}
	full, _ := s.Resolve(rel)
	if _, err := os.Stat(full); !os.IsNotExist(err) {
		t.Fatalf("file still present: %v", err)
	}
	if err := s.Remove(rel); err != nil {
		t.Fatalf("removing a missing file: %v", err)
	}
	if err := s.Remove("../outside.png"); err != nil {
		t.Fatalf("traversal remove: %v", err)
	}
}
