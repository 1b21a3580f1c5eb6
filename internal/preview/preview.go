// Package preview renders thumbnails of uncompressed atlas textures.
package preview

import (
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/draw"

	"github.com/samcharles93/tmckit/pkg/container"
	"github.com/samcharles93/tmckit/pkg/g1tg"
)

var ErrUnsupported = errors.New("preview unsupported")

const (
	FormatWebP = "webp"
	FormatTGA  = "tga"
)

// DefaultSize bounds the longer edge of a thumbnail.
const DefaultSize = 256

// MaxPixels bounds the decoded top mip, 8192x8192.
const MaxPixels = 1 << 26

// Image decodes the top mip of a GRGB texture. Pixels are stored as
// B, G, R, A bytes.
func Image(tex *g1tg.Texture) (*image.NRGBA, error) {
	if tex.Format != g1tg.FormatGRGB {
		return nil, fmt.Errorf("%w: %s is block compressed", ErrUnsupported, tex.Format)
	}
	w, h := int(tex.Width), int(tex.Height)
	if w <= 0 || h <= 0 || w > MaxPixels/h {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrUnsupported, w, h, MaxPixels)
	}
	need := w * h * 4
	src := tex.Data.Bytes()
	if len(src) < need {
		return nil, fmt.Errorf("top mip: %w", &container.OutOfBoundsError{Start: 0, End: need, Len: len(src)})
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < need; i += 4 {
		img.Pix[i+0] = src[i+2]
		img.Pix[i+1] = src[i+1]
		img.Pix[i+2] = src[i+0]
		img.Pix[i+3] = src[i+3]
	}
	return img, nil
}

// Thumbnail scales img so its longer edge is at most size pixels. Smaller
// images are returned unchanged.
func Thumbnail(img image.Image, size int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if size <= 0 || (w <= size && h <= size) {
		return img
	}
	if w >= h {
		h = max(1, h*size/w)
		w = size
	} else {
		w = max(1, w*size/h)
		h = size
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Ext returns the file extension for format.
func Ext(format string) (string, error) {
	switch format {
	case FormatWebP, "":
		return ".webp", nil
	case FormatTGA:
		return ".tga", nil
	}
	return "", fmt.Errorf("%w: format %q", ErrUnsupported, format)
}

// Encode writes img as WebP (lossless) or TGA.
func Encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case FormatWebP, "":
		return nativewebp.Encode(w, img, nil)
	case FormatTGA:
		return tga.Encode(w, img)
	}
	return fmt.Errorf("%w: format %q", ErrUnsupported, format)
}

// Render decodes tex, bounds it to size and encodes it.
func Render(w io.Writer, tex *g1tg.Texture, size int, format string) error {
	img, err := Image(tex)
	if err != nil {
		return err
	}
	return Encode(w, Thumbnail(img, size), format)
}
