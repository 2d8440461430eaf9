// Package backend picks the object store implementation from configuration.
package backend

import (
	"context"

	"github.com/angelmondragon/genmedia-backend/pkg/config"
	"github.com/angelmondragon/genmedia-backend/pkg/logger"
	pkgstorage "github.com/angelmondragon/genmedia-backend/pkg/storage"
	"github.com/angelmondragon/genmedia-backend/pkg/storage/gcs"
	"github.com/angelmondragon/genmedia-backend/pkg/storage/minio"
)

// Closer releases backend resources. MinIO holds none.
type Closer func() error

func Open(ctx context.Context, cfg config.Config, logg *logger.Logger) (pkgstorage.ObjectStore, Closer, error) {
	if cfg.ObjectStore.IsMinIO() {
		c, err := minio.NewClient(ctx, cfg.ObjectStore, logg)
		if err != nil {
			return nil, nil, err
		}
		return c, func() error { return nil }, nil
	}

	c, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
	if err != nil {
		return nil, nil, err
	}
	return c, c.Close, nil
}
