package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/genmedia-backend/pkg/logger"
)

const (
	defaultFlushInterval = 30 * time.Second
	shutdownTimeout      = 10 * time.Second
)

var errConsumerStopped = errors.New("generation consumer stopped")

type runner interface {
	Run(ctx context.Context) error
}

type flusher interface {
	Flush(ctx context.Context) error
}

type dependency struct {
	name string
	ping func(context.Context) error
}

type ServiceParams struct {
	Logger       *logger.Logger
	Consumer     runner
	Dependencies []dependency
	// Events is optional; pending analytics rows are flushed on a ticker
	// and once more on shutdown.
	Events        flusher
	FlushInterval time.Duration
	MetricsServer *http.Server
}

// Service runs the generation consumer next to its metrics endpoint.
type Service struct {
	logg          *logger.Logger
	consumer      runner
	deps          []dependency
	events        flusher
	flushInterval time.Duration
	metrics       *http.Server
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Consumer == nil {
		return nil, errors.New("generation consumer is required")
	}
	interval := params.FlushInterval
	if interval <= 0 {
		interval = defaultFlushInterval
	}
	return &Service{
		logg:          params.Logger,
		consumer:      params.Consumer,
		deps:          params.Dependencies,
		events:        params.Events,
		flushInterval: interval,
		metrics:       params.MetricsServer,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	for _, dep := range s.deps {
		if err := dep.ping(ctx); err != nil {
			s.logg.Error(ctx, fmt.Sprintf("%s ping failed", dep.name), err)
			return fmt.Errorf("%s ping failed: %w", dep.name, err)
		}
	}
	s.logg.Info(ctx, "all worker dependencies are ready")
	return nil
}

// Run blocks until ctx is canceled or the consumer fails.
func (s *Service) Run(ctx context.Context) error {
	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.consumer.Run(gctx); err != nil {
			return err
		}
		return errConsumerStopped
	})
	if s.events != nil {
		g.Go(func() error {
			s.flushLoop(gctx)
			return nil
		})
	}
	if s.metrics != nil {
		g.Go(func() error {
			if err := s.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
			defer cancel()
			return s.metrics.Shutdown(shutdownCtx)
		})
	}

	err := g.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

func (s *Service) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			s.flush(flushCtx)
			cancel()
			return
		case <-ticker.C:
			s.flush(ctx)
		}
	}
}

func (s *Service) flush(ctx context.Context) {
	if err := s.events.Flush(ctx); err != nil {
		s.logg.Warn(ctx, "flush generation events failed: "+err.Error())
	}
}
