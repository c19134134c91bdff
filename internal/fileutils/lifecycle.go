package fileutils

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultMaxFileSize is the largest file accepted for ingestion.
	DefaultMaxFileSize int64 = 50 << 20

	// DefaultStabilityWindow is how long a file's size must stay unchanged
	// before it is considered fully uploaded.
	DefaultStabilityWindow = 10 * time.Second

	hashChunkSize = 8192
)

// Layout is the set of lifecycle directories of one inbox family.
type Layout struct {
	Inbox      string
	Processing string
	Archive    string
	Quarantine string
}

// Ensure creates every directory of the layout.
func (l Layout) Ensure() error {
	for _, dir := range []string{l.Inbox, l.Processing, l.Archive, l.Quarantine} {
		if dir == "" {
			return fmt.Errorf("lifecycle layout has an empty directory: %+v", l)
		}
		if err := EnsureDirectoryExists(dir); err != nil {
			return err
		}
	}
	return nil
}

type observation struct {
	size    int64
	modTime time.Time
}

// DiscoverStableFiles returns the files in dir matching extensions whose size
// and modification time do not change across window. All candidates are
// observed together, so the call blocks for one window regardless of how many
// files are waiting. A missing or empty directory yields an empty list.
func DiscoverStableFiles(ctx context.Context, dir string, extensions []string, window time.Duration) ([]string, error) {
	candidates, err := ListFilesWithExtension(dir, extensions)
	if err != nil || len(candidates) == 0 {
		return candidates, err
	}

	first := observe(candidates)

	if window > 0 {
		timer := time.NewTimer(window)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	second := observe(candidates)

	stable := []string{}
	for _, path := range candidates {
		before, ok1 := first[path]
		after, ok2 := second[path]
		if !ok1 || !ok2 {
			continue
		}
		if before.size == after.size && before.modTime.Equal(after.modTime) {
			stable = append(stable, path)
		}
	}
	return stable, nil
}

func observe(paths []string) map[string]observation {
	out := make(map[string]observation, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		out[p] = observation{size: info.Size(), modTime: info.ModTime()}
	}
	return out
}

// MoveToProcessing moves path into processingDir under its original name with
// a random suffix, claiming it for the current run. The new path is returned.
func MoveToProcessing(path, processingDir string) (string, error) {
	target := filepath.Join(processingDir, filepath.Base(path)+"_"+uuid.NewString())
	if err := moveFile(path, target); err != nil {
		return "", err
	}
	return target, nil
}

// ComputeContentHash returns the lowercase hex SHA-256 of the file contents.
func ComputeContentHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s for hashing: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, hashChunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ArchivePath is where MoveToArchive places name for the day of at.
func ArchivePath(archiveDir, name string, at time.Time) string {
	return filepath.Join(archiveDir, at.Format("2006"), at.Format("01"), at.Format("02"), name)
}

// MoveToArchive moves path into archiveDir/YYYY/MM/DD, creating the
// partition directories as needed.
func MoveToArchive(path, archiveDir string, at time.Time) (string, error) {
	target := ArchivePath(archiveDir, filepath.Base(path), at)
	if err := moveFile(path, target); err != nil {
		return "", err
	}
	return target, nil
}

// MoveToQuarantine moves path into quarantineDir. The reason is only carried
// into the error; callers record it on the import run.
func MoveToQuarantine(path, quarantineDir, reason string) (string, error) {
	target := filepath.Join(quarantineDir, filepath.Base(path))
	if err := moveFile(path, target); err != nil {
		return "", fmt.Errorf("quarantine (%s): %w", reason, err)
	}
	return target, nil
}
