package writer

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pkgbigquery "github.com/angelmondragon/genmedia-backend/pkg/bigquery"
)

func TestNewWriterValidation(t *testing.T) {
	if _, err := New(nil, Config{Table: "generation_events"}); err == nil {
		t.Fatal("expected error when client missing")
	}
	if _, err := New(&pkgbigquery.Client{}, Config{Table: " "}); err == nil {
		t.Fatal("expected error when table missing")
	}
}

func TestSchemaHasPartitionField(t *testing.T) {
	schema, err := Schema()
	if err != nil {
		t.Fatalf("infer schema: %v", err)
	}
	found := false
	for _, field := range schema {
		if field.Name == partitionField {
			found = field.Type == cbigquery.TimestampFieldType
		}
	}
	if !found {
		t.Fatalf("expected %s timestamp column in schema", partitionField)
	}
}

func TestWriterRetriesOnTransientError(t *testing.T) {
	writer, fake := newWriterWithFakeInserter(t)
	fake.responses = []error{
		&googleapi.Error{Code: http.StatusServiceUnavailable},
		nil,
	}

	if err := writer.RecordGeneration(context.Background(), GenerationEventRow{EventID: "1"}); err != nil {
		t.Fatalf("unexpected error writing row: %v", err)
	}
	if len(fake.calls) != 2 {
		t.Fatalf("expected two insert attempts, got %d", len(fake.calls))
	}
	if fake.calls[1].table != "generation_events" {
		t.Fatalf("expected generation table on retry, got %s", fake.calls[1].table)
	}
	if len(writer.buffer) != 0 {
		t.Fatal("expected buffer to be empty after success")
	}
}

func TestWriterStopsOnPermanentError(t *testing.T) {
	writer, fake := newWriterWithFakeInserter(t)
	fake.responses = []error{&googleapi.Error{Code: http.StatusBadRequest}}

	if err := writer.RecordGeneration(context.Background(), GenerationEventRow{EventID: "1"}); err == nil {
		t.Fatal("expected permanent error")
	}
	if len(fake.calls) != 1 {
		t.Fatalf("expected a single attempt, got %d", len(fake.calls))
	}
}

func TestWriterBatchingAndFlush(t *testing.T) {
	writer, fake := newWriterWithFakeInserter(t)
	writer.batchSize = 2

	if err := writer.RecordGeneration(context.Background(), GenerationEventRow{EventID: "1"}); err != nil {
		t.Fatalf("unexpected error on first insert: %v", err)
	}
	if len(fake.calls) != 0 {
		t.Fatalf("expected no insert before batch full, got %d", len(fake.calls))
	}
	if err := writer.RecordGeneration(context.Background(), GenerationEventRow{EventID: "2"}); err != nil {
		t.Fatalf("unexpected error on second insert: %v", err)
	}
	if len(fake.calls) != 1 || fake.calls[0].rowCount != 2 {
		t.Fatalf("expected one insert of two rows, got %+v", fake.calls)
	}

	if err := writer.RecordGeneration(context.Background(), GenerationEventRow{EventID: "3"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := writer.Flush(context.Background()); err != nil {
		t.Fatalf("unexpected flush error: %v", err)
	}
	if len(fake.calls) != 2 || fake.calls[1].rowCount != 1 {
		t.Fatalf("expected flush to insert remaining row, got %+v", fake.calls)
	}
}

func TestIsRetryableBigQueryError(t *testing.T) {
	if !isRetryableBigQueryError(status.Error(codes.Unavailable, "down")) {
		t.Fatal("expected grpc unavailable to be retryable")
	}
	if isRetryableBigQueryError(status.Error(codes.InvalidArgument, "bad")) {
		t.Fatal("expected invalid argument to be permanent")
	}
	rowErr := cbigquery.PutMultiError{{Errors: cbigquery.MultiError{&googleapi.Error{Code: http.StatusBadRequest}}}}
	if isRetryableBigQueryError(rowErr) {
		t.Fatal("expected row level 400 to be permanent")
	}
}

type insertCall struct {
	table    string
	rowCount int
}

type fakeInserter struct {
	mu        sync.Mutex
	responses []error
	calls     []insertCall
	index     int
}

func (f *fakeInserter) InsertRows(_ context.Context, table string, rows []any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, insertCall{table: table, rowCount: len(rows)})
	var err error
	if f.index < len(f.responses) {
		err = f.responses[f.index]
	}
	f.index++
	return err
}

func newWriterWithFakeInserter(t *testing.T) (*BigQueryWriter, *fakeInserter) {
	t.Helper()
	writer, err := New(&pkgbigquery.Client{}, Config{
		Table:       "generation_events",
		RetryPolicy: RetryPolicy{InitialBackoff: time.Millisecond, MaximumBackoff: 2 * time.Millisecond},
	})
	if err != nil {
		t.Fatalf("construct writer: %v", err)
	}

	fake := &fakeInserter{}
	writer.client = fake
	return writer, fake
}
