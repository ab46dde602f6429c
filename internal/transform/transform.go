package transform

import (
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
)

// Photo compression defaults applied by the storage pipeline.
const (
	DefaultMaxWidth  = 1920
	DefaultMaxHeight = 1080
	DefaultQuality   = 80

	ThumbnailSize    = 200
	ThumbnailQuality = 60

	// stripQuality is used when re-encoding purely to remove metadata.
	stripQuality = 100
)

// ErrSourceNotFound indicates the input file does not exist.
var ErrSourceNotFound = errors.New("source file not found")

// Error wraps a codec or encode failure from one of the transform steps.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transform %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Result describes the output of a transform operation.
type Result struct {
	Path     string
	Width    int
	Height   int
	ByteSize int64
}

// PhotoOptions bound the dimensions and encode quality of CompressPhoto.
type PhotoOptions struct {
	MaxWidth  int
	MaxHeight int
	Quality   int
}

// DefaultPhotoOptions returns the pipeline's photo compression defaults.
func DefaultPhotoOptions() PhotoOptions {
	return PhotoOptions{
		MaxWidth:  DefaultMaxWidth,
		MaxHeight: DefaultMaxHeight,
		Quality:   DefaultQuality,
	}
}

// CompressPhoto re-encodes src as a JPEG at dst, scaled down to fit within
// the option bounds while preserving aspect ratio. Images already within
// bounds are never upscaled. Re-encoding goes through a pixel decode, so no
// embedded metadata survives. Safe to call concurrently on different inputs.
func CompressPhoto(src, dst string, opts PhotoOptions) (Result, error) {
	if opts.MaxWidth <= 0 || opts.MaxHeight <= 0 {
		opts.MaxWidth, opts.MaxHeight = DefaultMaxWidth, DefaultMaxHeight
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = DefaultQuality
	}

	img, err := openImage(src, "compress")
	if err != nil {
		return Result{}, err
	}

	bounds := img.Bounds()
	if bounds.Dx() > opts.MaxWidth || bounds.Dy() > opts.MaxHeight {
		img = imaging.Fit(img, opts.MaxWidth, opts.MaxHeight, imaging.Lanczos)
	}

	return encodeJPEG(img, dst, opts.Quality, "compress")
}

// GenerateThumbnail writes a square preview of src at dst using a cover
// crop, so the thumbnail fills its frame instead of letterboxing.
func GenerateThumbnail(src, dst string) (Result, error) {
	img, err := openImage(src, "thumbnail")
	if err != nil {
		return Result{}, err
	}

	thumb := imaging.Fill(img, ThumbnailSize, ThumbnailSize, imaging.Center, imaging.Lanczos)
	return encodeJPEG(thumb, dst, ThumbnailQuality, "thumbnail")
}

// StripMetadata re-encodes src at maximum quality without resizing,
// guaranteeing removal of geolocation, device, and capture-time metadata.
// There is no pass-through path: if the re-encode fails the caller must
// abort rather than ship the original bytes.
func StripMetadata(src, dst string) (Result, error) {
	img, err := openImage(src, "strip")
	if err != nil {
		return Result{}, err
	}
	return encodeJPEG(img, dst, stripQuality, "strip")
}

func openImage(src, op string) (image.Image, error) {
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, src)
		}
		return nil, &Error{Op: op, Err: err}
	}
	img, err := imaging.Open(src)
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}
	return img, nil
}

func encodeJPEG(img image.Image, dst string, quality int, op string) (Result, error) {
	out, err := os.Create(dst)
	if err != nil {
		return Result{}, &Error{Op: op, Err: err}
	}
	defer out.Close()

	if err := imaging.Encode(out, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		_ = os.Remove(dst)
		return Result{}, &Error{Op: op, Err: err}
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return Result{}, &Error{Op: op, Err: err}
	}

	info, err := os.Stat(dst)
	if err != nil {
		return Result{}, &Error{Op: op, Err: err}
	}

	bounds := img.Bounds()
	return Result{
		Path:     dst,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		ByteSize: info.Size(),
	}, nil
}
