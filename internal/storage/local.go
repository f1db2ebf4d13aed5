package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/biodata-tracker/internal/common"
)

// Local stores documents as files under a base directory.
type Local struct {
	dir    string
	logger *slog.Logger
}

func NewLocal(dir string, logger *slog.Logger) (*Local, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{dir: dir, logger: logger}, nil
}

func (l *Local) Put(ctx context.Context, filename string, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := objectName(filename)
	tmp, err := os.CreateTemp(l.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close upload: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(l.dir, key)); err != nil {
		return "", fmt.Errorf("commit upload: %w", err)
	}
	l.logger.Debug("storage.local.put", "key", key, "filename", filename, "bytes", len(content))
	return key, nil
}

func (l *Local) Get(_ context.Context, key string) ([]byte, error) {
	if !validKey(key) {
		return nil, common.InvalidInputf("invalid storage key %q", key)
	}
	b, err := os.ReadFile(filepath.Join(l.dir, key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, common.NotFoundf("document %s", key)
	}
	return b, err
}

func (l *Local) Delete(_ context.Context, key string) error {
	if !validKey(key) {
		return common.InvalidInputf("invalid storage key %q", key)
	}
	err := os.Remove(filepath.Join(l.dir, key))
	if errors.Is(err, fs.ErrNotExist) {
		return common.NotFoundf("document %s", key)
	}
	return err
}
