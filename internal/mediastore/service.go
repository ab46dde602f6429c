package mediastore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"mediaoutbox/internal/config"
	"mediaoutbox/internal/fileutil"
	"mediaoutbox/internal/logging"
	"mediaoutbox/internal/outbox"
	"mediaoutbox/internal/transform"
)

// Transformer is the slice of the transform package the save pipeline
// needs. Tests substitute failing implementations to exercise abort paths.
type Transformer interface {
	StripMetadata(src, dst string) (transform.Result, error)
	CompressPhoto(src, dst string, opts transform.PhotoOptions) (transform.Result, error)
	GenerateThumbnail(src, dst string) (transform.Result, error)
	CompressVideo(src string) (transform.Result, error)
	VideoDuration(src string) (float64, error)
}

type defaultTransformer struct{}

func (defaultTransformer) StripMetadata(src, dst string) (transform.Result, error) {
	return transform.StripMetadata(src, dst)
}

func (defaultTransformer) CompressPhoto(src, dst string, opts transform.PhotoOptions) (transform.Result, error) {
	return transform.CompressPhoto(src, dst, opts)
}

func (defaultTransformer) GenerateThumbnail(src, dst string) (transform.Result, error) {
	return transform.GenerateThumbnail(src, dst)
}

func (defaultTransformer) CompressVideo(src string) (transform.Result, error) {
	return transform.CompressVideo(src)
}

func (defaultTransformer) VideoDuration(src string) (float64, error) {
	return transform.VideoDuration(src)
}

// Service turns source files into permanently stored artifacts and manages
// the on-disk media footprint.
type Service struct {
	cfg         *config.Config
	store       *outbox.Store
	transformer Transformer
	logger      *slog.Logger
}

// New constructs a media store service using the real transform pipeline.
func New(cfg *config.Config, store *outbox.Store, logger *slog.Logger) *Service {
	return NewWithTransformer(cfg, store, logger, defaultTransformer{})
}

// NewWithTransformer constructs a service with a custom transformer.
func NewWithTransformer(cfg *config.Config, store *outbox.Store, logger *slog.Logger, tr Transformer) *Service {
	return &Service{
		cfg:         cfg,
		store:       store,
		transformer: tr,
		logger:      logging.WithComponent(logger, "mediastore"),
	}
}

// SavePhoto runs the full photo pipeline: strip metadata, compress,
// thumbnail, copy into permanent storage, record the artifact. Temp files
// are removed no matter where the pipeline stops, and a failure leaves no
// permanent files behind: the caller sees either a complete artifact or
// an error.
func (s *Service) SavePhoto(ctx context.Context, src, conversationID string, origin outbox.Origin, sender *outbox.Sender) (*outbox.Artifact, error) {
	if err := s.cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	tmpDir := s.cfg.TempDir()
	stripped := filepath.Join(tmpDir, id+"-stripped.jpg")
	compressed := filepath.Join(tmpDir, id+"-compressed.jpg")
	thumb := filepath.Join(tmpDir, id+"-thumb.jpg")
	defer func() {
		for _, path := range []string{stripped, compressed, thumb} {
			if err := fileutil.RemoveIfExists(path); err != nil {
				s.logger.Warn("temp file cleanup failed", logging.String("path", path), logging.Error(err))
			}
		}
	}()

	// Metadata removal is privacy-critical: no fallback to the original file.
	if _, err := s.transformer.StripMetadata(src, stripped); err != nil {
		return nil, fmt.Errorf("strip metadata: %w", err)
	}

	compressRes, err := s.transformer.CompressPhoto(stripped, compressed, transform.DefaultPhotoOptions())
	if err != nil {
		return nil, fmt.Errorf("compress photo: %w", err)
	}

	if _, err := s.transformer.GenerateThumbnail(compressed, thumb); err != nil {
		return nil, fmt.Errorf("generate thumbnail: %w", err)
	}

	contentPath := filepath.Join(s.cfg.MediaDir(), id+".jpg")
	thumbnailPath := filepath.Join(s.cfg.ThumbnailDir(), id+".jpg")
	if err := fileutil.CopyFileAtomic(compressed, contentPath); err != nil {
		return nil, fmt.Errorf("store content: %w", err)
	}
	if err := fileutil.CopyFileAtomic(thumb, thumbnailPath); err != nil {
		_ = fileutil.RemoveIfExists(contentPath)
		return nil, fmt.Errorf("store thumbnail: %w", err)
	}

	artifact := &outbox.Artifact{
		ID:             id,
		Kind:           outbox.KindPhoto,
		ContentPath:    contentPath,
		ThumbnailPath:  thumbnailPath,
		ByteSize:       compressRes.ByteSize,
		Width:          compressRes.Width,
		Height:         compressRes.Height,
		Origin:         origin,
		ConversationID: conversationID,
		CreatedAt:      time.Now().UTC(),
	}
	applySender(artifact, sender)

	if err := s.store.CreateArtifact(ctx, artifact); err != nil {
		_ = fileutil.RemoveIfExists(contentPath)
		_ = fileutil.RemoveIfExists(thumbnailPath)
		return nil, err
	}

	s.logger.Info("photo saved",
		logging.String("artifact", id),
		logging.Int("width", artifact.Width),
		logging.Int("height", artifact.Height),
		logging.Int64("bytes", artifact.ByteSize),
	)
	return artifact, nil
}

// SaveVideo stores a video with the stub transform pipeline: the source is
// copied as-is, dimensions and duration are recorded as unknown, and no
// thumbnail is produced. Copy and cleanup guarantees match SavePhoto.
func (s *Service) SaveVideo(ctx context.Context, src, conversationID string, origin outbox.Origin, sender *outbox.Sender) (*outbox.Artifact, error) {
	if err := s.cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	compressRes, err := s.transformer.CompressVideo(src)
	if err != nil {
		return nil, fmt.Errorf("compress video: %w", err)
	}
	duration, err := s.transformer.VideoDuration(compressRes.Path)
	if err != nil {
		return nil, fmt.Errorf("probe video duration: %w", err)
	}

	id := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(src))
	if ext == "" {
		ext = ".mp4"
	}
	contentPath := filepath.Join(s.cfg.MediaDir(), id+ext)
	if err := fileutil.CopyFileAtomic(compressRes.Path, contentPath); err != nil {
		return nil, fmt.Errorf("store content: %w", err)
	}

	info, err := os.Stat(contentPath)
	if err != nil {
		_ = fileutil.RemoveIfExists(contentPath)
		return nil, fmt.Errorf("stat stored video: %w", err)
	}

	artifact := &outbox.Artifact{
		ID:              id,
		Kind:            outbox.KindVideo,
		ContentPath:     contentPath,
		ByteSize:        info.Size(),
		DurationSeconds: duration,
		Origin:          origin,
		ConversationID:  conversationID,
		CreatedAt:       time.Now().UTC(),
	}
	applySender(artifact, sender)

	if err := s.store.CreateArtifact(ctx, artifact); err != nil {
		_ = fileutil.RemoveIfExists(contentPath)
		return nil, err
	}

	s.logger.Info("video saved", logging.String("artifact", id), logging.Int64("bytes", artifact.ByteSize))
	return artifact, nil
}

// Delete removes an artifact's files and records. Missing files and missing
// records are not errors, so deletes are safe to repeat.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	artifact, err := s.store.GetArtifact(ctx, id)
	if err != nil {
		return false, err
	}
	if artifact == nil {
		return false, nil
	}

	if err := fileutil.RemoveIfExists(artifact.ContentPath); err != nil {
		return false, fmt.Errorf("remove content: %w", err)
	}
	if err := fileutil.RemoveIfExists(artifact.ThumbnailPath); err != nil {
		return false, fmt.Errorf("remove thumbnail: %w", err)
	}

	if _, err := s.store.RemoveEntry(ctx, id); err != nil {
		return false, err
	}
	if _, err := s.store.DeleteArtifact(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteBatch removes a set of artifacts best-effort and returns how many
// records were deleted. Individual failures are logged, not fatal.
func (s *Service) DeleteBatch(ctx context.Context, ids []string) int {
	deleted := 0
	for _, id := range ids {
		removed, err := s.Delete(ctx, id)
		if err != nil {
			s.logger.Warn("batch delete item failed", logging.String("artifact", id), logging.Error(err))
			continue
		}
		if removed {
			deleted++
		}
	}
	return deleted
}

func applySender(artifact *outbox.Artifact, sender *outbox.Sender) {
	if sender == nil {
		return
	}
	artifact.SenderIdentity = sender.Identity
	artifact.SenderDisplayName = sender.DisplayName
}
