package transform

import (
	"fmt"
	"os"
)

// Video handling is a deliberate pass-through: compression and thumbnail
// generation report success with the original file, and metadata comes back
// as zero. Callers treat zero dimensions and zero duration as "unknown",
// never as "empty". A real transcoder can replace these without changing
// the storage pipeline.

// CompressVideo returns the original file unchanged with unknown dimensions.
func CompressVideo(src string) (Result, error) {
	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{}, fmt.Errorf("%w: %s", ErrSourceNotFound, src)
		}
		return Result{}, &Error{Op: "compress video", Err: err}
	}
	return Result{Path: src, ByteSize: info.Size()}, nil
}

// GenerateVideoThumbnail reports the original file; no frame is extracted.
func GenerateVideoThumbnail(src string) (Result, error) {
	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{}, fmt.Errorf("%w: %s", ErrSourceNotFound, src)
		}
		return Result{}, &Error{Op: "video thumbnail", Err: err}
	}
	return Result{Path: src, ByteSize: info.Size()}, nil
}

// VideoDuration returns 0, meaning the duration is unknown.
func VideoDuration(src string) (float64, error) {
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%w: %s", ErrSourceNotFound, src)
		}
		return 0, &Error{Op: "video duration", Err: err}
	}
	return 0, nil
}
