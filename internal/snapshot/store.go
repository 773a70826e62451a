// Package snapshot defines the contract for archiving generated DDL
// scripts to an object store.
//
// Providers implement the Store interface; callers depend only on this
// package, never on a specific provider package.
package snapshot

import (
	"context"
	"time"
)

// Store is the interface every snapshot storage provider implements.
type Store interface {
	// Ping verifies the storage backend is reachable.
	Ping(ctx context.Context) error

	// Put uploads one DDL script under key inside bucket.
	Put(ctx context.Context, bucket, key, body string) (*PutInfo, error)

	// Close releases any held resources.
	Close() error
}

// PutInfo describes a stored snapshot.
type PutInfo struct {
	Bucket     string
	Key        string
	Size       int64
	ETag       string
	UploadedAt time.Time
}

// Config holds the settings needed to reach a snapshot backend.
type Config struct {
	// Endpoint is the host:port of the storage server.
	Endpoint string

	// AccessKey is the access key ID (MinIO / S3 style).
	AccessKey string

	// SecretKey is the secret access key.
	SecretKey string

	// UseSSL controls whether TLS is used for the connection.
	UseSSL bool

	// Region is used by region-aware backends. Leave empty for MinIO.
	Region string

	// DefaultBucket is an optional default bucket name.
	DefaultBucket string
}

// DefaultConfig returns a local-dev config for a MinIO endpoint.
func DefaultConfig(endpoint, accessKey, secretKey string) *Config {
	return &Config{
		Endpoint:  endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
	}
}
