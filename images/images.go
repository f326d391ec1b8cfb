// Package images stores uploaded media and produces resized derivatives
// that replace the original file.
package images

import (
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Derivative settings used by the save pipeline.
const (
	CoverWidth      = 900
	AttachmentWidth = 900
	FaviconWidth    = 32
	DefaultQuality  = 70
)

var (
	// ErrProcessing wraps every failure to open, decode or rewrite an image.
	ErrProcessing = errors.New("image processing failed")

	ErrUnsupportedFormat = errors.New("no encoder for image format")
)

// Result describes the image after Resize. Resized is false when the source
// was already narrow enough and nothing was written.
type Result struct {
	Width   int
	Height  int
	Format  string
	Resized bool
}

// Processor resizes stored images in place.
type Processor struct {
	storage *Storage
}

func NewProcessor(storage *Storage) *Processor {
	return &Processor{storage: storage}
}

// Resize shrinks the stored image to width (keeping its aspect ratio) and
// writes it back over the original. Images no wider than width are left
// untouched. quality applies to JPEG output; optimize picks the strongest
// compression for lossless formats.
func (p *Processor) Resize(name string, width int, optimize bool, quality int) (Result, error) {
	filePath, err := p.storage.Path(name)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrProcessing, err)
	}

	f, err := os.Open(filePath)
	if err != nil {
		return Result{}, fmt.Errorf("%w: open %s: %v", ErrProcessing, name, err)
	}
	img, format, err := image.Decode(f)
	f.Close()
	if err != nil {
		return Result{}, fmt.Errorf("%w: decode %s: %v", ErrProcessing, name, err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= width {
		return Result{Width: w, Height: h, Format: format}, nil
	}

	newH := int(math.Round(float64(width) * float64(h) / float64(w)))
	if newH < 1 {
		newH = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)

	if err := writeAtomic(filePath, func(out *os.File) error {
		return encode(out, dst, format, optimize, quality)
	}); err != nil {
		return Result{}, fmt.Errorf("%w: write %s: %v", ErrProcessing, name, err)
	}

	return Result{Width: width, Height: newH, Format: format, Resized: true}, nil
}

func encode(out *os.File, img image.Image, format string, optimize bool, quality int) error {
	switch format {
	case "jpeg":
		if quality <= 0 || quality > 100 {
			quality = DefaultQuality
		}
		return jpeg.Encode(out, img, &jpeg.Options{Quality: quality})
	case "png":
		enc := png.Encoder{CompressionLevel: png.DefaultCompression}
		if optimize {
			enc.CompressionLevel = png.BestCompression
		}
		return enc.Encode(out, img)
	case "gif":
		return gif.Encode(out, img, nil)
	case "bmp":
		return bmp.Encode(out, img)
	case "tiff":
		opts := &tiff.Options{}
		if optimize {
			opts.Compression = tiff.Deflate
		}
		return tiff.Encode(out, img, opts)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// writeAtomic writes through a temp file in the same directory and renames
// it over target, so a failed encode never leaves a truncated image.
func writeAtomic(target string, write func(*os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), ".resize-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), target)
}
