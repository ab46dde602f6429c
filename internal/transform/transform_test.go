package transform_test

import (
	"errors"
	"image"
	_ "image/jpeg"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"mediaoutbox/internal/testsupport"
	"mediaoutbox/internal/transform"
)

func decodeConfig(t *testing.T, path string) image.Config {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode config %s: %v", path, err)
	}
	return cfg
}

func TestCompressPhotoScalesDownAndStripsEXIF(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	dst := filepath.Join(dir, "out.jpg")
	testsupport.WriteJPEGWithGPS(t, src, 4000, 3000)

	res, err := transform.CompressPhoto(src, dst, transform.DefaultPhotoOptions())
	if err != nil {
		t.Fatalf("CompressPhoto failed: %v", err)
	}
	if res.Width > 1920 || res.Height > 1080 {
		t.Fatalf("output exceeds bounds: %dx%d", res.Width, res.Height)
	}
	cfg := decodeConfig(t, dst)
	if cfg.Width != res.Width || cfg.Height != res.Height {
		t.Fatalf("result dims %dx%d disagree with file %dx%d", res.Width, res.Height, cfg.Width, cfg.Height)
	}
	if testsupport.HasEXIF(t, dst) {
		t.Fatal("compressed output still carries EXIF metadata")
	}
	if res.ByteSize <= 0 {
		t.Fatalf("byte size not reported: %d", res.ByteSize)
	}
}

func TestCompressPhotoNeverUpscales(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "small.jpg")
	dst := filepath.Join(dir, "out.jpg")
	testsupport.WriteJPEG(t, src, 640, 480)

	res, err := transform.CompressPhoto(src, dst, transform.DefaultPhotoOptions())
	if err != nil {
		t.Fatalf("CompressPhoto failed: %v", err)
	}
	if res.Width != 640 || res.Height != 480 {
		t.Fatalf("small image was resized: %dx%d", res.Width, res.Height)
	}
}

func TestCompressPhotoPreservesAspectRatio(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "tall.jpg")
	dst := filepath.Join(dir, "out.jpg")
	testsupport.WriteJPEG(t, src, 1500, 3000)

	res, err := transform.CompressPhoto(src, dst, transform.DefaultPhotoOptions())
	if err != nil {
		t.Fatalf("CompressPhoto failed: %v", err)
	}
	if res.Height != 1080 {
		t.Fatalf("expected height bound 1080, got %d", res.Height)
	}
	if res.Width != 540 {
		t.Fatalf("aspect ratio not preserved: %dx%d", res.Width, res.Height)
	}
}

func TestGenerateThumbnailCoverCrop(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	dst := filepath.Join(dir, "thumb.jpg")
	testsupport.WriteJPEG(t, src, 1600, 900)

	res, err := transform.GenerateThumbnail(src, dst)
	if err != nil {
		t.Fatalf("GenerateThumbnail failed: %v", err)
	}
	if res.Width != 200 || res.Height != 200 {
		t.Fatalf("cover crop must fill 200x200, got %dx%d", res.Width, res.Height)
	}
}

func TestStripMetadataKeepsDimensions(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	dst := filepath.Join(dir, "stripped.jpg")
	testsupport.WriteJPEGWithGPS(t, src, 800, 600)

	res, err := transform.StripMetadata(src, dst)
	if err != nil {
		t.Fatalf("StripMetadata failed: %v", err)
	}
	if res.Width != 800 || res.Height != 600 {
		t.Fatalf("strip must not resize: %dx%d", res.Width, res.Height)
	}
	if testsupport.HasEXIF(t, dst) {
		t.Fatal("stripped output still carries EXIF metadata")
	}
}

func TestMissingSourceClassified(t *testing.T) {
	dir := t.TempDir()
	_, err := transform.CompressPhoto(filepath.Join(dir, "nope.jpg"), filepath.Join(dir, "out.jpg"), transform.DefaultPhotoOptions())
	if !errors.Is(err, transform.ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
}

func TestCorruptSourceIsTransformError(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "garbage.jpg")
	testsupport.WriteFile(t, src, 1024)

	_, err := transform.StripMetadata(src, filepath.Join(dir, "out.jpg"))
	var terr *transform.Error
	if !errors.As(err, &terr) {
		t.Fatalf("expected *transform.Error, got %v", err)
	}
	if errors.Is(err, transform.ErrSourceNotFound) {
		t.Fatal("codec failure must not be classified as missing source")
	}
}

func TestConcurrentCompressions(t *testing.T) {
	dir := t.TempDir()
	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := 0; i < 4; i++ {
		src := filepath.Join(dir, "src"+string(rune('a'+i))+".jpg")
		testsupport.WriteJPEG(t, src, 2400, 1600)
		wg.Add(1)
		go func(i int, src string) {
			defer wg.Done()
			dst := filepath.Join(dir, "out"+string(rune('a'+i))+".jpg")
			_, errs[i] = transform.CompressPhoto(src, dst, transform.DefaultPhotoOptions())
		}(i, src)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("concurrent compress %d failed: %v", i, err)
		}
	}
}

func TestVideoStubsReportUnknownMetadata(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "clip.mp4")
	testsupport.WriteFile(t, src, 4096)

	res, err := transform.CompressVideo(src)
	if err != nil {
		t.Fatalf("CompressVideo failed: %v", err)
	}
	if res.Path != src {
		t.Fatalf("stub must pass through the original file, got %s", res.Path)
	}
	if res.Width != 0 || res.Height != 0 {
		t.Fatalf("stub dimensions must be unknown, got %dx%d", res.Width, res.Height)
	}

	thumb, err := transform.GenerateVideoThumbnail(src)
	if err != nil {
		t.Fatalf("GenerateVideoThumbnail failed: %v", err)
	}
	if thumb.Path != src {
		t.Fatalf("stub thumbnail must pass through the original file, got %s", thumb.Path)
	}

	duration, err := transform.VideoDuration(src)
	if err != nil || duration != 0 {
		t.Fatalf("stub duration must be unknown: %f err=%v", duration, err)
	}

	if _, err := transform.CompressVideo(filepath.Join(dir, "missing.mp4")); !errors.Is(err, transform.ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
}
