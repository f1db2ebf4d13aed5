package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"github.com/joseph-ayodele/biodata-tracker/constants"
	"github.com/joseph-ayodele/biodata-tracker/internal/common"
)

// GCS stores documents as objects in a Cloud Storage bucket.
type GCS struct {
	client *gcs.Client
	bucket *gcs.BucketHandle
	prefix string
	logger *slog.Logger
}

// NewGCS uses application default credentials.
func NewGCS(ctx context.Context, bucket, prefix string, logger *slog.Logger) (*GCS, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs.NewClient: %w", err)
	}
	return &GCS{client: client, bucket: client.Bucket(bucket), prefix: prefix, logger: logger}, nil
}

func (g *GCS) Put(ctx context.Context, filename string, content []byte) (string, error) {
	key := path.Join(g.prefix, objectName(filename))
	w := g.bucket.Object(key).If(gcs.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = constants.MapExtToMIME(path.Ext(filename))
	w.Metadata = map[string]string{"original_filename": filename}
	if _, err := w.Write(content); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcs write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
			return "", fmt.Errorf("gcs object %s already exists: %w", key, err)
		}
		return "", fmt.Errorf("gcs close %s: %w", key, err)
	}
	g.logger.Debug("storage.gcs.put", "key", key, "bytes", len(content))
	return key, nil
}

func (g *GCS) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := g.bucket.Object(key).NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, common.NotFoundf("document %s", key)
	}
	if err != nil {
		return nil, fmt.Errorf("gcs read %s: %w", key, err)
	}
	defer func() { _ = r.Close() }()
	return io.ReadAll(r)
}

func (g *GCS) Delete(ctx context.Context, key string) error {
	err := g.bucket.Object(key).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return common.NotFoundf("document %s", key)
	}
	return err
}

func (g *GCS) Close() error {
	return g.client.Close()
}
