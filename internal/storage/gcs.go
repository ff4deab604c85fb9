package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/iam"
	"cloud.google.com/go/storage"
	"github.com/newsroom-api/server/config"
	"google.golang.org/api/option"
)

// Uploaded media is immutable under its random key.
const objectCacheControl = "public, max-age=31536000, immutable"

// Images are at most a few MiB after re-encoding, so one request suffices.
const maxSingleRequestUpload = 8 << 20

const (
	allUsers         = "allUsers"
	objectViewerRole = iam.RoleName("roles/storage.objectViewer")
)

// GCSBackend keeps media in a Cloud Storage bucket with uniform access and
// public object reads.
type GCSBackend struct {
	client    *storage.Client
	bucket    string
	projectID string
}

func NewGCSBackend(ctx context.Context, cfg config.GCSConfig) (*GCSBackend, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("gcs bucket is required")
	}

	var opts []option.ClientOption
	if path := strings.TrimSpace(cfg.CredentialsFile); path != "" {
		opts = append(opts, option.WithCredentialsFile(path))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GCSBackend{client: client, bucket: cfg.Bucket, projectID: cfg.ProjectID}, nil
}

// EnsureBucket creates a missing bucket and grants allUsers read access to
// its objects. An existing bucket's IAM policy is left alone.
func (g *GCSBackend) EnsureBucket(ctx context.Context) error {
	bucket := g.client.Bucket(g.bucket)
	_, err := bucket.Attrs(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrBucketNotExist) {
		return err
	}
	if strings.TrimSpace(g.projectID) == "" {
		return errors.New("gcs project id is required to create bucket")
	}

	attrs := &storage.BucketAttrs{
		UniformBucketLevelAccess: storage.UniformBucketLevelAccess{Enabled: true},
	}
	if err := bucket.Create(ctx, g.projectID, attrs); err != nil {
		return err
	}

	handle := bucket.IAM()
	policy, err := handle.Policy(ctx)
	if err != nil {
		return fmt.Errorf("read bucket iam: %w", err)
	}
	policy.Add(allUsers, objectViewerRole)
	if err := handle.SetPolicy(ctx, policy); err != nil {
		return fmt.Errorf("grant public read: %w", err)
	}
	return nil
}

func (g *GCSBackend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	writer := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	writer.ContentType = contentType
	writer.CacheControl = objectCacheControl
	writer.ContentDisposition = "inline"
	if size > 0 && size <= maxSingleRequestUpload {
		writer.ChunkSize = 0
	}
	if _, err := io.Copy(writer, r); err != nil {
		_ = writer.Close()
		return err
	}
	return writer.Close()
}

// Delete is a no-op for missing keys.
func (g *GCSBackend) Delete(ctx context.Context, key string) error {
	err := g.client.Bucket(g.bucket).Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

func (g *GCSBackend) Bucket() string {
	return g.bucket
}

// ObjectURL returns the storage.googleapis.com link to key.
func (g *GCSBackend) ObjectURL(key string) string {
	return "https://storage.googleapis.com/" + g.bucket + "/" + escapeKey(key)
}
