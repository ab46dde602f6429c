package mediastore

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// LowStorageThreshold is the free-space floor below which saves should be
// preceded by a user warning.
const LowStorageThreshold = 100 * 1024 * 1024

// Usage returns the total bytes of permanent media content. Thumbnails and
// scratch files are excluded so previews never double-count against the
// content total.
func (s *Service) Usage() (int64, error) {
	mediaDir := s.cfg.MediaDir()
	skip := map[string]struct{}{
		s.cfg.ThumbnailDir(): {},
		s.cfg.TempDir():      {},
	}

	var total int64
	err := filepath.WalkDir(mediaDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			if _, ok := skip[path]; ok {
				return filepath.SkipDir
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk media directory: %w", err)
	}
	return total, nil
}

// AvailableStorage reports free bytes on the filesystem holding the media
// root.
func (s *Service) AvailableStorage() (int64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(s.cfg.Paths.MediaRoot, &stat); err != nil {
		return 0, fmt.Errorf("statfs media root: %w", err)
	}
	return int64(stat.Bavail) * int64(stat.Bsize), nil
}

// IsStorageLow reports whether free space is below LowStorageThreshold.
// Unknown free space reads as not-low; this check is advisory, not a gate.
func (s *Service) IsStorageLow() bool {
	available, err := s.AvailableStorage()
	if err != nil {
		return false
	}
	return available < LowStorageThreshold
}
