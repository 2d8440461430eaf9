package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/genmedia-backend/pkg/enums"
	pkgpubsub "github.com/angelmondragon/genmedia-backend/pkg/pubsub"
)

// Job is the message handed from the API to the generation worker.
type Job struct {
	MediaItemID uuid.UUID      `json:"media_item_id"`
	Kind        Kind           `json:"kind"`
	Attempt     int            `json:"attempt"`
	References  []JobReference `json:"references,omitempty"`
	EnqueuedAt  time.Time      `json:"enqueued_at"`

	EditMode     enums.EditMode `json:"edit_mode,omitempty"`
	MaskMode     enums.MaskMode `json:"mask_mode,omitempty"`
	MaskDilation *float64       `json:"mask_dilation,omitempty"`
}

// JobReference is a resolved input object for the remote model.
type JobReference struct {
	URI      string          `json:"uri"`
	MimeType string          `json:"mime_type"`
	Role     enums.AssetRole `json:"role"`
}

// DecodeJob parses a message body.
func DecodeJob(data []byte) (Job, error) {
	var job Job
	if len(data) == 0 {
		return job, errors.New("empty job payload")
	}
	if err := json.Unmarshal(data, &job); err != nil {
		return job, fmt.Errorf("decode job: %w", err)
	}
	if job.MediaItemID == uuid.Nil {
		return job, errors.New("job missing media_item_id")
	}
	return job, nil
}

// Dispatcher publishes jobs to the generation topic.
type Dispatcher struct {
	pub pkgpubsub.Publisher
}

func NewDispatcher(pub pkgpubsub.Publisher) (*Dispatcher, error) {
	if pub == nil {
		return nil, errors.New("generation publisher required")
	}
	return &Dispatcher{pub: pub}, nil
}

func (d *Dispatcher) Dispatch(ctx context.Context, job Job) error {
	_, err := pkgpubsub.PublishJSON(ctx, d.pub, job, map[string]string{
		"media_item_id": job.MediaItemID.String(),
		"kind":          job.Kind.String(),
	})
	return err
}
