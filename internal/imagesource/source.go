// Package imagesource decodes encoded images into raw RGBA pixel buffers.
package imagesource

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Source yields the pixel content of the image being displayed.
type Source interface {
	// Load decodes the image into a fresh buffer.
	Load() (*image.RGBA, error)
	// Reloadable reports whether Load may be called more than once. A
	// stream-backed source is consumed by its first Load.
	Reloadable() bool
	// Path is the filesystem path backing the source, empty for streams.
	Path() string
}

// File re-reads an image file on every Load.
type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Load() (*image.RGBA, error) {
	fh, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.path, err)
	}
	defer fh.Close()
	img, err := decode(fh)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return img, nil
}

func (f *File) Reloadable() bool { return true }

func (f *File) Path() string { return f.path }

// Stream decodes an image once from a reader, typically standard input.
type Stream struct {
	r io.Reader
}

func NewStream(r io.Reader) *Stream {
	return &Stream{r: r}
}

func (s *Stream) Load() (*image.RGBA, error) {
	img, err := decode(s.r)
	if err != nil {
		return nil, fmt.Errorf("decode stream: %w", err)
	}
	return img, nil
}

func (s *Stream) Reloadable() bool { return false }

func (s *Stream) Path() string { return "" }

func decode(r io.Reader) (*image.RGBA, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	// Convert to RGBA if needed.
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, img, b.Min, draw.Src)
	return rgba, nil
}
