package minio

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/genmedia-backend/pkg/config"
	pkgstorage "github.com/angelmondragon/genmedia-backend/pkg/storage"
)

func testConfig() config.ObjectStoreConfig {
	return config.ObjectStoreConfig{
		Backend:        config.ObjectStoreMinIO,
		MinIOEndpoint:  "localhost:9000",
		MinIOAccessKey: "minio",
		MinIOSecretKey: "minio123",
		MinIOBucket:    "genmedia",
		MinIORegion:    "us-east-1",
	}
}

func TestNewValidatesConfig(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.MinIOEndpoint = ""
	_, err := New(cfg)
	require.Error(t, err)

	cfg = testConfig()
	cfg.MinIOSecretKey = ""
	_, err = New(cfg)
	require.Error(t, err)

	cfg = testConfig()
	cfg.MinIOBucket = ""
	_, err = New(cfg)
	require.Error(t, err)
}

func TestSignedURLPresignsGet(t *testing.T) {
	t.Parallel()

	c, err := New(testConfig())
	require.NoError(t, err)

	raw, err := c.SignedURL(context.Background(), "s3://genmedia/generated/abc/0.mp4", 10*time.Minute)
	require.NoError(t, err)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", parsed.Host)
	assert.True(t, strings.HasSuffix(parsed.Path, "/genmedia/generated/abc/0.mp4"), parsed.Path)
	assert.Equal(t, "600", parsed.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, parsed.Query().Get("X-Amz-Signature"))
}

func TestRejectsForeignScheme(t *testing.T) {
	t.Parallel()

	c, err := New(testConfig())
	require.NoError(t, err)

	_, err = c.SignedURL(context.Background(), "gs://genmedia/a.png", time.Minute)
	require.Error(t, err)
	err = c.Delete(context.Background(), "gs://genmedia/a.png")
	require.Error(t, err)
}

func TestTranslateNoSuchKey(t *testing.T) {
	t.Parallel()

	err := translate("s3://genmedia/a.png", minio.ErrorResponse{Code: "NoSuchKey"})
	assert.True(t, errors.Is(err, pkgstorage.ErrObjectNotFound))

	err = translate("s3://genmedia/a.png", errors.New("boom"))
	assert.False(t, errors.Is(err, pkgstorage.ErrObjectNotFound))
}
