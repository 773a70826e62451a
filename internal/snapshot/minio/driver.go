// Package minio provides a MinIO implementation of snapshot.Store.
package minio

import (
	"context"
	"strings"
	"time"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/orakit-io/orakit/internal/errs"
	"github.com/orakit-io/orakit/internal/snapshot"
)

// Driver stores DDL snapshots in a MinIO (or S3-compatible) bucket.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	client *miniogo.Client
}

// New connects to the endpoint in cfg and validates the connection
// with a Ping before returning.
func New(ctx context.Context, cfg *snapshot.Config) (*Driver, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errs.Wrap(errs.Connection, "failed to create snapshot client", err)
	}

	d := &Driver{client: client}
	if err := d.Ping(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// Ping verifies the server is reachable by listing buckets.
func (d *Driver) Ping(ctx context.Context) error {
	if _, err := d.client.ListBuckets(ctx); err != nil {
		return mapError(err, "snapshot store unreachable")
	}
	return nil
}

// Put uploads body as a plain-text script object.
func (d *Driver) Put(ctx context.Context, bucket, key, body string) (*snapshot.PutInfo, error) {
	info, err := d.client.PutObject(ctx, bucket, key,
		strings.NewReader(body), int64(len(body)),
		miniogo.PutObjectOptions{ContentType: "application/sql"})
	if err != nil {
		return nil, mapError(err, "failed to store snapshot")
	}

	return &snapshot.PutInfo{
		Bucket:     info.Bucket,
		Key:        info.Key,
		Size:       info.Size,
		ETag:       info.ETag,
		UploadedAt: time.Now().UTC(),
	}, nil
}

// Close is a no-op, the SDK client holds no persistent connections.
func (d *Driver) Close() error {
	return nil
}
