// Package media stores uploaded product images and profile photos under the
// configured media root.
package media

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrTooLarge   = errors.New("file too large")
	ErrNotAnImage = errors.New("unsupported image type")
)

var allowed = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type Store struct {
	Root     string
	MaxBytes int64
}

func NewStore(root string, maxMB int) *Store {
	if maxMB <= 0 {
		maxMB = 8
	}
	return &Store{Root: root, MaxBytes: int64(maxMB) << 20}
}

// SaveImage copies an uploaded image into <root>/<dir>/ under a random name
// and returns the path relative to root. The type is sniffed from content,
// not from the client's filename or header.
func (s *Store) SaveImage(fh *multipart.FileHeader, dir string) (string, error) {
	if fh.Size > s.MaxBytes {
		return "", ErrTooLarge
	}
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", ErrNotAnImage
	}
	ext, ok := allowed[http.DetectContentType(head[:n])]
	if !ok {
		return "", ErrNotAnImage
	}

	rel := filepath.ToSlash(filepath.Join(dir, uuid.NewString()+ext))
	full := filepath.Join(s.Root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	dst, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := dst.Write(head[:n]); err != nil {
		return "", err
	}
	written, err := io.Copy(dst, io.LimitReader(src, s.MaxBytes-int64(n)+1))
	if err != nil {
		return "", err
	}
	if int64(n)+written > s.MaxBytes {
		_ = os.Remove(full)
		return "", ErrTooLarge
	}
	return rel, nil
}

// Remove deletes a previously stored file. Paths escaping the root are ignored.
func (s *Store) Remove(rel string) error {
	full, ok := s.Resolve(rel)
	if !ok {
		return nil
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove media %s: %w", rel, err)
	}
	return nil
}

// Resolve maps a request path onto a file below root, rejecting traversal,
// encoded dots and NUL bytes.
func (s *Store) Resolve(rel string) (string, bool) {
	lower := strings.ToLower(rel)
	if rel == "" || strings.Contains(lower, "..") || strings.Contains(lower, "%2e") || strings.Contains(lower, "\x00") {
		return "", false
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
		return "", false
	}
	return filepath.Join(s.Root, clean), true
}
