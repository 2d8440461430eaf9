// Package minio implements storage.ObjectStore on an S3-compatible backend.
// Objects are addressed with s3://bucket/key URIs.
package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/angelmondragon/genmedia-backend/pkg/config"
	"github.com/angelmondragon/genmedia-backend/pkg/logger"
	pkgstorage "github.com/angelmondragon/genmedia-backend/pkg/storage"
)

const bucketCheckTimeout = 10 * time.Second

// Client is safe for concurrent use.
type Client struct {
	client *minio.Client
	bucket string
}

// New builds the client without touching the network.
func New(cfg config.ObjectStoreConfig) (*Client, error) {
	if cfg.MinIOEndpoint == "" {
		return nil, errors.New("minio endpoint is required")
	}
	if cfg.MinIOAccessKey == "" || cfg.MinIOSecretKey == "" {
		return nil, errors.New("minio credentials are required")
	}
	if cfg.MinIOBucket == "" {
		return nil, errors.New("minio bucket is required")
	}

	cli, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
		Secure: cfg.MinIOUseSSL,
		Region: cfg.MinIORegion,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &Client{client: cli, bucket: cfg.MinIOBucket}, nil
}

// NewClient builds the client and makes sure the bucket exists.
func NewClient(ctx context.Context, cfg config.ObjectStoreConfig, logg *logger.Logger) (*Client, error) {
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, bucketCheckTimeout)
	defer cancel()

	exists, err := c.client.BucketExists(ctx, c.bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{Region: cfg.MinIORegion}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	if logg != nil {
		logg.Info(ctx, "minio client initialized")
	}
	return c, nil
}

func (c *Client) Put(ctx context.Context, data []byte, path, contentType string) (string, error) {
	path = strings.TrimLeft(path, "/")
	if path == "" {
		return "", errors.New("object path is required")
	}
	_, err := c.client.PutObject(ctx, c.bucket, path, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put minio object: %w", err)
	}
	return pkgstorage.Location{Scheme: pkgstorage.SchemeS3, Bucket: c.bucket, Object: path}.String(), nil
}

func (c *Client) Get(ctx context.Context, uri string) ([]byte, error) {
	loc, err := c.locate(uri)
	if err != nil {
		return nil, err
	}
	obj, err := c.client.GetObject(ctx, loc.Bucket, loc.Object, minio.GetObjectOptions{})
	if err != nil {
		return nil, translate(uri, err)
	}
	defer func() { _ = obj.Close() }()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, translate(uri, err)
	}
	return data, nil
}

// Delete removes the object. S3 deletes are idempotent.
func (c *Client) Delete(ctx context.Context, uri string) error {
	loc, err := c.locate(uri)
	if err != nil {
		return err
	}
	if err := c.client.RemoveObject(ctx, loc.Bucket, loc.Object, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove minio object: %w", err)
	}
	return nil
}

func (c *Client) SignedURL(ctx context.Context, uri string, ttl time.Duration) (string, error) {
	loc, err := c.locate(uri)
	if err != nil {
		return "", err
	}
	u, err := c.client.PresignedGetObject(ctx, loc.Bucket, loc.Object, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign minio object: %w", err)
	}
	return u.String(), nil
}

func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, bucketCheckTimeout)
	defer cancel()

	exists, err := c.client.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("minio bucket check failed: %w", err)
	}
	if !exists {
		return fmt.Errorf("minio bucket %q does not exist", c.bucket)
	}
	return nil
}

func (c *Client) locate(uri string) (pkgstorage.Location, error) {
	loc, err := pkgstorage.ParseURI(uri)
	if err != nil {
		return pkgstorage.Location{}, err
	}
	if loc.Scheme != pkgstorage.SchemeS3 {
		return pkgstorage.Location{}, fmt.Errorf("minio client cannot handle %q", uri)
	}
	return loc, nil
}

func translate(uri string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%s: %w", uri, pkgstorage.ErrObjectNotFound)
	}
	return fmt.Errorf("read minio object: %w", err)
}
