package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/biodata-tracker/constants"
	"github.com/joseph-ayodele/biodata-tracker/internal/entity"
)

type DirStats struct {
	Scanned int
	Matched int
	Skipped int
}

// Collect reads the documents named by paths into uploads. Directories are
// walked and only files with an allowed extension are taken from them; files
// named explicitly are always taken so the batch pre-check can report them.
func Collect(paths []string, skipHidden bool) ([]entity.Upload, DirStats, error) {
	var (
		uploads []entity.Upload
		stats   DirStats
	)
	for _, root := range paths {
		if strings.TrimSpace(root) == "" {
			return nil, stats, errors.New("empty path")
		}
		info, err := os.Stat(root)
		if err != nil {
			return nil, stats, fmt.Errorf("stat %s: %w", root, err)
		}
		if !info.IsDir() {
			stats.Scanned++
			stats.Matched++
			u, err := readUpload(root)
			if err != nil {
				return nil, stats, err
			}
			uploads = append(uploads, u)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if path != root && skipHidden && IsHidden(path) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			stats.Scanned++
			if !AllowedExt(filepath.Ext(path)) {
				stats.Skipped++
				return nil
			}
			stats.Matched++
			u, err := readUpload(path)
			if err != nil {
				return err
			}
			uploads = append(uploads, u)
			return nil
		})
		if err != nil {
			return nil, stats, fmt.Errorf("walk %s: %w", root, err)
		}
	}
	return uploads, stats, nil
}

func readUpload(path string) (entity.Upload, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return entity.Upload{}, fmt.Errorf("read %s: %w", path, err)
	}
	return entity.Upload{Filename: filepath.Base(path), Content: b}, nil
}

// AllowedExt checks if a file extension is in the allowed set.
func AllowedExt(ext string) bool {
	return constants.IsAllowedExt(constants.NormalizeExt(ext))
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
