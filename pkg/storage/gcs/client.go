package gcs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/angelmondragon/genmedia-backend/pkg/config"
	"github.com/angelmondragon/genmedia-backend/pkg/logger"
	pkgstorage "github.com/angelmondragon/genmedia-backend/pkg/storage"
)

const (
	pingTimeout  = 5 * time.Second
	writeTimeout = 5 * time.Minute
)

var errClientNotInitialized = errors.New("gcs client not initialized")

// Client implements storage.ObjectStore on Google Cloud Storage.
type Client struct {
	client        *storage.Client
	defaultBucket string
	signer        *serviceAccount
	logg          *logger.Logger
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// serviceAccount carries explicit signing credentials. When absent, signing
// falls back to the library's credential detection (IAM signBlob on GCE/Cloud Run).
type serviceAccount struct {
	clientEmail string
	privateKey  []byte
}

func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	var (
		opts   []option.ClientOption
		signer *serviceAccount
		err    error
	)
	switch {
	case gcp.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(gcp.CredentialsJSON)))
		signer, err = parseServiceAccount([]byte(gcp.CredentialsJSON))
	case gcp.ApplicationCredentials != "":
		opts = append(opts, option.WithCredentialsFile(gcp.ApplicationCredentials))
		raw, readErr := os.ReadFile(gcp.ApplicationCredentials)
		if readErr != nil {
			return nil, fmt.Errorf("reading credentials file: %w", readErr)
		}
		signer, err = parseServiceAccount(raw)
	}
	if err != nil {
		return nil, err
	}

	sc, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "gcs client initialized")
	}

	return &Client{
		client:        sc,
		defaultBucket: cfg.BucketName,
		signer:        signer,
		logg:          logg,
	}, nil
}

func parseServiceAccount(raw []byte) (*serviceAccount, error) {
	var creds struct {
		Type        string `json:"type"`
		ClientEmail string `json:"client_email"`
		PrivateKey  string `json:"private_key"`
	}
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, fmt.Errorf("parsing gcp credentials: %w", err)
	}
	if creds.Type != "service_account" || creds.ClientEmail == "" || creds.PrivateKey == "" {
		return nil, nil
	}
	return &serviceAccount{clientEmail: creds.ClientEmail, privateKey: []byte(creds.PrivateKey)}, nil
}

func (c *Client) DefaultBucket() string {
	if c == nil {
		return ""
	}
	return c.defaultBucket
}

// Put writes data under path in the default bucket and returns its gs:// URI.
func (c *Client) Put(ctx context.Context, data []byte, path, contentType string) (string, error) {
	if c == nil || c.client == nil {
		return "", errClientNotInitialized
	}
	path = strings.TrimLeft(path, "/")
	if path == "" {
		return "", errors.New("object path is required")
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	w := c.client.Bucket(c.defaultBucket).Object(path).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("writing gcs object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("closing gcs writer: %w", err)
	}
	return pkgstorage.Location{Scheme: pkgstorage.SchemeGCS, Bucket: c.defaultBucket, Object: path}.String(), nil
}

func (c *Client) Get(ctx context.Context, uri string) ([]byte, error) {
	if c == nil || c.client == nil {
		return nil, errClientNotInitialized
	}
	loc, err := c.locate(uri)
	if err != nil {
		return nil, err
	}
	r, err := c.client.Bucket(loc.Bucket).Object(loc.Object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%s: %w", uri, pkgstorage.ErrObjectNotFound)
		}
		return nil, fmt.Errorf("opening gcs object: %w", err)
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading gcs object: %w", err)
	}
	return data, nil
}

// Delete removes the object. A missing object is not an error.
func (c *Client) Delete(ctx context.Context, uri string) error {
	if c == nil || c.client == nil {
		return errClientNotInitialized
	}
	loc, err := c.locate(uri)
	if err != nil {
		return err
	}
	if err := c.client.Bucket(loc.Bucket).Object(loc.Object).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("deleting gcs object: %w", err)
	}
	return nil
}

// SignedURL issues a V4 GET link valid for ttl.
func (c *Client) SignedURL(_ context.Context, uri string, ttl time.Duration) (string, error) {
	if c == nil {
		return "", errClientNotInitialized
	}
	loc, err := c.locate(uri)
	if err != nil {
		return "", err
	}
	if ttl <= 0 {
		return "", errors.New("signed url ttl must be positive")
	}

	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(ttl),
	}
	if c.signer != nil {
		opts.GoogleAccessID = c.signer.clientEmail
		opts.PrivateKey = c.signer.privateKey
		return storage.SignedURL(loc.Bucket, loc.Object, opts)
	}
	if c.client == nil {
		return "", errClientNotInitialized
	}
	return c.client.Bucket(loc.Bucket).SignedURL(loc.Object, opts)
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errClientNotInitialized
	}
	if c.defaultBucket == "" {
		return errors.New("gcs bucket not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if _, err := c.client.Bucket(c.defaultBucket).Attrs(ctx); err != nil {
		return fmt.Errorf("gcs bucket check failed: %w", err)
	}
	return nil
}

func (c *Client) locate(uri string) (pkgstorage.Location, error) {
	loc, err := pkgstorage.ParseURI(uri)
	if err != nil {
		return pkgstorage.Location{}, err
	}
	if loc.Scheme != pkgstorage.SchemeGCS {
		return pkgstorage.Location{}, fmt.Errorf("gcs client cannot handle %q", uri)
	}
	return loc, nil
}
