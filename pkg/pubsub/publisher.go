package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
)

const defaultPublishTimeout = 15 * time.Second

// Result is the pending outcome of a publish.
type Result interface {
	Get(context.Context) (string, error)
}

// Publisher abstracts *pubsub.Publisher so callers can be tested without GCP.
type Publisher interface {
	Publish(context.Context, *pubsub.Message) Result
}

type gcpPublisher struct {
	p *pubsub.Publisher
}

// WrapPublisher adapts a v2 publisher to Publisher.
func WrapPublisher(p *pubsub.Publisher) Publisher {
	if p == nil {
		return nil
	}
	return gcpPublisher{p: p}
}

func (g gcpPublisher) Publish(ctx context.Context, msg *pubsub.Message) Result {
	return g.p.Publish(ctx, msg)
}

// PublishJSON marshals payload, publishes it with attrs and waits for the server ack.
func PublishJSON(ctx context.Context, pub Publisher, payload any, attrs map[string]string) (string, error) {
	if pub == nil {
		return "", errors.New("publisher not configured")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal pubsub payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()

	result := pub.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs})
	if result == nil {
		return "", errors.New("publisher returned no result")
	}
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish message: %w", err)
	}
	return id, nil
}
