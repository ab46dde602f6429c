package testsupport

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"mediaoutbox/internal/config"
)

// WriteFile fills the target path with the requested number of bytes using
// a repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// MediaFile creates a dummy file in the config's media directory.
func MediaFile(t testing.TB, cfg *config.Config, name string, size int64) string {
	t.Helper()
	path := filepath.Join(cfg.MediaDir(), name)
	WriteFile(t, path, size)
	return path
}

// ThumbnailFile creates a dummy file in the config's thumbnail directory.
func ThumbnailFile(t testing.TB, cfg *config.Config, name string, size int64) string {
	t.Helper()
	path := filepath.Join(cfg.ThumbnailDir(), name)
	WriteFile(t, path, size)
	return path
}

// WriteJPEG encodes a gradient JPEG of the given dimensions at path.
func WriteJPEG(t testing.TB, path string, width, height int) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / max(width, 1)), G: uint8(y * 255 / max(height, 1)), B: 128, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode jpeg %s: %v", path, err)
	}
}

// WriteJPEGWithGPS writes a JPEG carrying an EXIF APP1 segment with a GPS
// IFD pointer, for verifying that re-encoding removes metadata. Decoders
// skip the segment, so only its presence matters.
func WriteJPEGWithGPS(t testing.TB, path string, width, height int) {
	t.Helper()

	WriteJPEG(t, path, width, height)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		t.Fatalf("%s is not a JPEG", path)
	}

	exif := exifSegmentWithGPS()
	patched := make([]byte, 0, len(data)+len(exif))
	patched = append(patched, data[:2]...)
	patched = append(patched, exif...)
	patched = append(patched, data[2:]...)
	if err := os.WriteFile(path, patched, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if !HasEXIF(t, path) {
		t.Fatalf("fixture %s should carry EXIF", path)
	}
}

// HasEXIF reports whether the file contains an EXIF identifier.
func HasEXIF(t testing.TB, path string) bool {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return bytes.Contains(data, []byte("Exif\x00\x00"))
}

// exifSegmentWithGPS builds a minimal APP1 segment: a little-endian TIFF
// header whose IFD0 holds a single GPSInfo (0x8825) pointer tag.
func exifSegmentWithGPS() []byte {
	tiff := new(bytes.Buffer)
	tiff.WriteString("II")
	binary.Write(tiff, binary.LittleEndian, uint16(0x002A))
	binary.Write(tiff, binary.LittleEndian, uint32(8)) // IFD0 offset

	binary.Write(tiff, binary.LittleEndian, uint16(1)) // one entry
	binary.Write(tiff, binary.LittleEndian, uint16(0x8825))
	binary.Write(tiff, binary.LittleEndian, uint16(4)) // LONG
	binary.Write(tiff, binary.LittleEndian, uint32(1))
	binary.Write(tiff, binary.LittleEndian, uint32(26)) // GPS IFD offset
	binary.Write(tiff, binary.LittleEndian, uint32(0))  // next IFD

	binary.Write(tiff, binary.LittleEndian, uint16(0)) // empty GPS IFD

	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)
	segment := new(bytes.Buffer)
	segment.Write([]byte{0xFF, 0xE1})
	binary.Write(segment, binary.BigEndian, uint16(len(payload)+2))
	segment.Write(payload)
	return segment.Bytes()
}
