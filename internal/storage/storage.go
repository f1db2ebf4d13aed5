package storage

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/biodata-tracker/constants"
)

// Store keeps uploaded source documents. Profiles hold only the returned key.
type Store interface {
	Put(ctx context.Context, filename string, content []byte) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// objectName gives every upload a unique name that keeps the original extension.
func objectName(filename string) string {
	ext := constants.NormalizeExt(filepath.Ext(filename))
	if ext == "" {
		return uuid.NewString()
	}
	return uuid.NewString() + "." + ext
}

// validKey rejects keys that could escape the store root.
func validKey(key string) bool {
	return key != "" && !strings.Contains(key, "..") && !strings.HasPrefix(key, "/") && !strings.Contains(key, `\`)
}
