// Package storagetest provides an in-memory ObjectStore for tests.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	pkgstorage "github.com/angelmondragon/genmedia-backend/pkg/storage"
)

type Memory struct {
	mu      sync.Mutex
	bucket  string
	objects map[string][]byte
	types   map[string]string

	// FailSign makes SignedURL fail for the listed URIs.
	FailSign map[string]bool
	// FailPut makes every Put fail.
	FailPut bool
}

func NewMemory(bucket string) *Memory {
	return &Memory{
		bucket:   bucket,
		objects:  map[string][]byte{},
		types:    map[string]string{},
		FailSign: map[string]bool{},
	}
}

func (m *Memory) Put(_ context.Context, data []byte, path, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPut {
		return "", errors.New("put failed")
	}
	uri := pkgstorage.Location{Scheme: pkgstorage.SchemeGCS, Bucket: m.bucket, Object: pkgstorage.JoinPath(path)}.String()
	m.objects[uri] = append([]byte(nil), data...)
	m.types[uri] = contentType
	return uri, nil
}

func (m *Memory) Get(_ context.Context, uri string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[uri]
	if !ok {
		return nil, fmt.Errorf("%s: %w", uri, pkgstorage.ErrObjectNotFound)
	}
	return append([]byte(nil), data...), nil
}

func (m *Memory) Delete(_ context.Context, uri string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, uri)
	delete(m.types, uri)
	return nil
}

func (m *Memory) SignedURL(_ context.Context, uri string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSign[uri] {
		return "", errors.New("sign failed")
	}
	loc, err := pkgstorage.ParseURI(uri)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("https://signed.test/%s/%s?ttl=%d", loc.Bucket, loc.Object, int(ttl.Seconds())), nil
}

func (m *Memory) Ping(context.Context) error { return nil }

// Has reports whether uri is stored.
func (m *Memory) Has(uri string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[uri]
	return ok
}

func (m *Memory) ContentType(uri string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.types[uri]
}

// URIs lists stored object URIs in sorted order.
func (m *Memory) URIs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.objects))
	for k := range m.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
