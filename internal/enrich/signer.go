package enrich

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/genmedia-backend/pkg/logger"
	"github.com/angelmondragon/genmedia-backend/pkg/metrics"
)

const defaultConcurrency = 16

type urlSigner interface {
	SignedURL(ctx context.Context, uri string, ttl time.Duration) (string, error)
}

// Signer turns stored object URIs into time-limited links.
type Signer struct {
	store       urlSigner
	ttl         time.Duration
	concurrency int
	logg        *logger.Logger
	metrics     *metrics.GenerationMetrics
}

func NewSigner(store urlSigner, ttl time.Duration, logg *logger.Logger, m *metrics.GenerationMetrics) (*Signer, error) {
	if store == nil {
		return nil, errors.New("object store required")
	}
	if ttl <= 0 {
		return nil, errors.New("signed url ttl must be positive")
	}
	return &Signer{
		store:       store,
		ttl:         ttl,
		concurrency: defaultConcurrency,
		logg:        logg,
		metrics:     m,
	}, nil
}

// SignAll signs every uri concurrently. The result has one slot per input in
// the same order; a slot is nil when its uri is empty or signing failed.
func (s *Signer) SignAll(ctx context.Context, uris []string) []*string {
	out := make([]*string, len(uris))
	if len(uris) == 0 {
		return out
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, uri := range uris {
		if uri == "" {
			continue
		}
		g.Go(func() error {
			out[i] = s.Sign(ctx, uri)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Sign signs a single uri, returning nil on failure.
func (s *Signer) Sign(ctx context.Context, uri string) *string {
	if uri == "" {
		return nil
	}
	signed, err := s.store.SignedURL(ctx, uri, s.ttl)
	if err != nil {
		s.metrics.IncSigningFailure()
		if s.logg != nil {
			logCtx := s.logg.WithField(ctx, "gcs_uri", uri)
			s.logg.Warn(logCtx, "signing object url failed: "+err.Error())
		}
		return nil
	}
	return &signed
}
