// Package imaging normalizes uploaded images before they are stored:
// orientation is baked in from EXIF, oversized images are scaled down and
// metadata is dropped by re-encoding.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp"
)

// ErrUnsupported is returned for anything that is not a decodable jpeg,
// png, gif or webp image.
var ErrUnsupported = errors.New("unsupported image format")

const (
	maxPixels   = 40_000_000
	jpegQuality = 85
)

// Variant bounds the stored image. Crop fills the box exactly from the
// centre; otherwise the image is fitted inside it.
type Variant struct {
	Width  int
	Height int
	Crop   bool
}

var (
	ArticleImage = Variant{Width: 1600, Height: 1600}
	Avatar       = Variant{Width: 256, Height: 256, Crop: true}
)

// Result is an encoded image ready for upload.
type Result struct {
	Data        []byte
	ContentType string
	Ext         string
	Width       int
	Height      int
}

// ContentType sniffs data and reports whether it is an accepted image type.
func ContentType(data []byte) (string, bool) {
	ct := http.DetectContentType(data)
	switch ct {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return ct, true
	}
	return ct, false
}

// Process decodes data and re-encodes it within v. GIFs are kept as
// uploaded so animations survive.
func Process(data []byte, v Variant) (Result, error) {
	ct, ok := ContentType(data)
	if !ok {
		return Result{}, ErrUnsupported
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if cfg.Width*cfg.Height > maxPixels {
		return Result{}, fmt.Errorf("%w: %dx%d is too large", ErrUnsupported, cfg.Width, cfg.Height)
	}

	if ct == "image/gif" {
		return Result{Data: data, ContentType: ct, Ext: "gif", Width: cfg.Width, Height: cfg.Height}, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if ct == "image/jpeg" {
		img = applyOrientation(img, readOrientation(bytes.NewReader(data)))
	}
	img = resize(img, v)

	var buf bytes.Buffer
	out := Result{Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}
	switch ct {
	case "image/jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality})
		out.ContentType, out.Ext = "image/jpeg", "jpg"
	default:
		// No pure Go webp encoder exists; webp uploads are stored as png.
		err = png.Encode(&buf, img)
		out.ContentType, out.Ext = "image/png", "png"
	}
	if err != nil {
		return Result{}, fmt.Errorf("encode image: %w", err)
	}
	out.Data = buf.Bytes()
	return out, nil
}

func resize(img image.Image, v Variant) image.Image {
	if v.Width <= 0 || v.Height <= 0 {
		return img
	}
	if v.Crop {
		return imaging.Fill(img, v.Width, v.Height, imaging.Center, imaging.Lanczos)
	}
	b := img.Bounds()
	if b.Dx() <= v.Width && b.Dy() <= v.Height {
		return img
	}
	return imaging.Fit(img, v.Width, v.Height, imaging.Lanczos)
}

// readOrientation returns the EXIF orientation tag, or 1 when absent.
func readOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return orientation
}

func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
