// Package storage defines the object store contract and object URI handling
// shared by the GCS and MinIO backends.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrObjectNotFound is returned when the referenced object does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore stores blobs by path and hands out time-limited read links.
type ObjectStore interface {
	Put(ctx context.Context, data []byte, path, contentType string) (string, error)
	Get(ctx context.Context, uri string) ([]byte, error)
	Delete(ctx context.Context, uri string) error
	SignedURL(ctx context.Context, uri string, ttl time.Duration) (string, error)
	Ping(ctx context.Context) error
}

const (
	SchemeGCS = "gs"
	SchemeS3  = "s3"
)

// Location is a parsed object URI such as gs://bucket/path/to/object.
type Location struct {
	Scheme string
	Bucket string
	Object string
}

func (l Location) String() string {
	return fmt.Sprintf("%s://%s/%s", l.Scheme, l.Bucket, l.Object)
}

// ParseURI splits an object URI into scheme, bucket and object name.
func ParseURI(uri string) (Location, error) {
	raw := strings.TrimSpace(uri)
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok || scheme == "" {
		return Location{}, fmt.Errorf("object uri %q has no scheme", uri)
	}
	bucket, object, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return Location{}, fmt.Errorf("object uri %q must name a bucket and an object", uri)
	}
	return Location{Scheme: scheme, Bucket: bucket, Object: object}, nil
}

// JoinPath joins non-empty path segments with single slashes.
func JoinPath(parts ...string) string {
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return strings.Join(cleaned, "/")
}
