package generation

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProcessor struct {
	jobs    []Job
	outcome Outcome
	err     error
}

func (s *stubProcessor) Process(_ context.Context, job Job) (Outcome, error) {
	s.jobs = append(s.jobs, job)
	return s.outcome, s.err
}

func TestConsumerAckPolicy(t *testing.T) {
	t.Parallel()

	valid, err := json.Marshal(Job{MediaItemID: uuid.New(), Kind: KindVideo, Attempt: 1})
	require.NoError(t, err)

	cases := []struct {
		name    string
		data    []byte
		procErr error
		wantAck bool
		calls   int
	}{
		{name: "processed", data: valid, wantAck: true, calls: 1},
		{name: "terminal write failed", data: valid, procErr: errors.New("db down"), wantAck: false, calls: 1},
		{name: "malformed json", data: []byte("{"), wantAck: true},
		{name: "missing id", data: []byte(`{"kind":"image"}`), wantAck: true},
		{name: "empty", data: nil, wantAck: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			proc := &stubProcessor{outcome: OutcomeCompleted, err: tc.procErr}
			c, err := NewConsumer(stubReceiver{}, proc, testLogger())
			require.NoError(t, err)

			assert.Equal(t, tc.wantAck, c.handle(context.Background(), "msg-1", tc.data))
			assert.Len(t, proc.jobs, tc.calls)
		})
	}
}

func TestDecodeJobRoundTrip(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	data, err := json.Marshal(Job{MediaItemID: id, Kind: KindImage, References: []JobReference{{URI: "gs://b/o.png"}}})
	require.NoError(t, err)

	job, err := DecodeJob(data)
	require.NoError(t, err)
	assert.Equal(t, id, job.MediaItemID)
	assert.Equal(t, "gs://b/o.png", job.References[0].URI)
}

func TestNewConsumerRequiresDependencies(t *testing.T) {
	t.Parallel()

	_, err := NewConsumer(nil, &stubProcessor{}, testLogger())
	assert.Error(t, err)
	_, err = NewConsumer(stubReceiver{}, nil, testLogger())
	assert.Error(t, err)
}

type stubReceiver struct{}

func (stubReceiver) Receive(context.Context, func(context.Context, *pubsub.Message)) error {
	return nil
}
