package generation

import (
	"context"
	"errors"

	pubsub "cloud.google.com/go/pubsub/v2"

	pkgerrors "github.com/angelmondragon/genmedia-backend/pkg/errors"
	"github.com/angelmondragon/genmedia-backend/pkg/logger"
)

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

type jobProcessor interface {
	Process(ctx context.Context, job Job) (Outcome, error)
}

// Consumer feeds generation job messages from Pub/Sub into the worker.
type Consumer struct {
	subscription receiver
	worker       jobProcessor
	logg         *logger.Logger
}

// NewConsumer constructs a consumer that watches the provided subscription.
func NewConsumer(subscription receiver, worker jobProcessor, logg *logger.Logger) (*Consumer, error) {
	if subscription == nil {
		return nil, errors.New("generation subscription is required")
	}
	if worker == nil {
		return nil, errors.New("generation worker is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{subscription: subscription, worker: worker, logg: logg}, nil
}

// Run processes messages until the context is canceled or the subscription errors.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.handle(ctx, msg.ID, msg.Data) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// handle reports whether the message should be acked. Undecodable payloads
// are acked so they do not loop forever.
func (c *Consumer) handle(ctx context.Context, messageID string, data []byte) bool {
	logCtx := c.logg.WithField(ctx, "message_id", messageID)

	job, err := DecodeJob(data)
	if err != nil {
		c.logg.Error(logCtx, "dropping malformed generation job", err)
		return true
	}

	outcome, err := c.worker.Process(logCtx, job)
	if err != nil {
		c.logg.Error(c.logg.WithField(logCtx, "retryable", pkgerrors.IsRetryable(err)), "generation job will be redelivered", err)
		return false
	}
	c.logg.Debug(c.logg.WithField(logCtx, "outcome", string(outcome)), "generation job handled")
	return true
}
