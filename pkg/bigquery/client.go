// Package bigquery owns the analytics dataset handle. Only streaming inserts
// and table bootstrap are needed; reporting queries run in the console.
package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/angelmondragon/genmedia-backend/pkg/config"
	"github.com/angelmondragon/genmedia-backend/pkg/logger"
)

const metadataTimeout = 10 * time.Second

var (
	errNoClient  = errors.New("bigquery client not initialized")
	errNoTable   = errors.New("bigquery table name is required")
	errNoProject = errors.New("gcp project id is required")
	errNoDataset = errors.New("bigquery dataset is required")
)

type Client struct {
	client  *bigquery.Client
	dataset *bigquery.Dataset
	table   string
}

// NewClient connects and fails fast when the dataset is missing. The
// generation table itself is created lazily through EnsureTable.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.BigQueryConfig, logg *logger.Logger) (*Client, error) {
	project := strings.TrimSpace(gcp.ProjectID)
	if project == "" {
		return nil, errNoProject
	}
	if !cfg.Enabled() {
		return nil, errNoDataset
	}
	table := strings.TrimSpace(cfg.GenerationTable)
	if table == "" {
		return nil, errNoTable
	}

	bq, err := bigquery.NewClient(ctx, project, credentials(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("bigquery client: %w", err)
	}
	c := &Client{client: bq, dataset: bq.Dataset(strings.TrimSpace(cfg.Dataset)), table: table}
	if err := c.checkDataset(ctx); err != nil {
		_ = bq.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"dataset": c.dataset.DatasetID,
			"table":   table,
		}), "bigquery client initialized")
	}
	return c, nil
}

func credentials(gcp config.GCPConfig) []option.ClientOption {
	if js := strings.TrimSpace(gcp.CredentialsJSON); js != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(js))}
	}
	if file := strings.TrimSpace(gcp.ApplicationCredentials); file != "" {
		return []option.ClientOption{option.WithCredentialsFile(file)}
	}
	return nil
}

func (c *Client) checkDataset(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()
	if _, err := c.dataset.Metadata(ctx); err != nil {
		if apiCode(err) == http.StatusNotFound {
			return fmt.Errorf("dataset %q does not exist", c.dataset.DatasetID)
		}
		return fmt.Errorf("dataset %q: %w", c.dataset.DatasetID, err)
	}
	return nil
}

// EnsureTable creates table, day-partitioned on partitionField when set,
// unless it already exists.
func (c *Client) EnsureTable(ctx context.Context, table string, schema bigquery.Schema, partitionField string) error {
	if c == nil || c.dataset == nil {
		return errNoClient
	}
	table = strings.TrimSpace(table)
	if table == "" {
		return errNoTable
	}

	ctx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()

	handle := c.dataset.Table(table)
	_, err := handle.Metadata(ctx)
	switch {
	case err == nil:
		return nil
	case apiCode(err) != http.StatusNotFound:
		return fmt.Errorf("table %q: %w", table, err)
	}

	meta := &bigquery.TableMetadata{Schema: schema}
	if partitionField != "" {
		meta.TimePartitioning = &bigquery.TimePartitioning{Type: bigquery.DayPartitioningType, Field: partitionField}
	}
	if err := handle.Create(ctx, meta); err != nil && apiCode(err) != http.StatusConflict {
		return fmt.Errorf("create table %q: %w", table, err)
	}
	return nil
}

// Ping checks the dataset and generation table are reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.dataset == nil {
		return errNoClient
	}
	if err := c.checkDataset(ctx); err != nil {
		return err
	}
	if _, err := c.dataset.Table(c.table).Metadata(ctx); err != nil {
		return fmt.Errorf("table %q: %w", c.table, err)
	}
	return nil
}

// InsertRows streams rows into table.
func (c *Client) InsertRows(ctx context.Context, table string, rows []any) error {
	if c == nil || c.dataset == nil {
		return errNoClient
	}
	table = strings.TrimSpace(table)
	if table == "" {
		return errNoTable
	}
	if len(rows) == 0 {
		return nil
	}
	return c.dataset.Table(table).Inserter().Put(ctx, rows)
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// apiCode returns the HTTP status of a googleapi error, or 0.
func apiCode(err error) int {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}
