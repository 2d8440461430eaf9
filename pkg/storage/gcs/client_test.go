package gcs

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestSignedURLWithServiceAccount(t *testing.T) {
	t.Parallel()

	client := &Client{
		defaultBucket: "bucket",
		signer: &serviceAccount{
			clientEmail: "signer@example.com",
			privateKey:  mustGenerateKeyPEM(t),
		},
	}

	urlStr, err := client.SignedURL(context.Background(), "gs://bucket/generated/abc/0.png", 15*time.Minute)
	if err != nil {
		t.Fatalf("SignedURL returned error: %v", err)
	}

	parsed, err := url.Parse(urlStr)
	if err != nil {
		t.Fatalf("parse signed url: %v", err)
	}
	if !strings.EqualFold(parsed.Host, "storage.googleapis.com") {
		t.Fatalf("unexpected host %s", parsed.Host)
	}
	if !strings.Contains(parsed.Path, "/bucket/generated/abc/0.png") {
		t.Fatalf("unexpected path %s", parsed.Path)
	}

	values := parsed.Query()
	if got := values.Get("X-Goog-Algorithm"); got != "GOOG4-RSA-SHA256" {
		t.Fatalf("unexpected algorithm %q", got)
	}
	if got := values.Get("X-Goog-Credential"); !strings.HasPrefix(got, "signer@example.com/") {
		t.Fatalf("unexpected credential %q", got)
	}
	if got := values.Get("X-Goog-Expires"); got != "900" {
		t.Fatalf("unexpected expiry %q", got)
	}
	if values.Get("X-Goog-Signature") == "" {
		t.Fatal("expected signature")
	}
}

func TestSignedURLErrors(t *testing.T) {
	t.Parallel()

	client := &Client{defaultBucket: "bucket", signer: &serviceAccount{clientEmail: "a@b", privateKey: mustGenerateKeyPEM(t)}}
	cases := []struct {
		name string
		uri  string
		ttl  time.Duration
	}{
		{name: "wrong scheme", uri: "s3://bucket/a.png", ttl: time.Minute},
		{name: "missing object", uri: "gs://bucket", ttl: time.Minute},
		{name: "zero ttl", uri: "gs://bucket/a.png", ttl: 0},
	}
	for _, tc := range cases {
		if _, err := client.SignedURL(context.Background(), tc.uri, tc.ttl); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}

	var nilClient *Client
	if _, err := nilClient.SignedURL(context.Background(), "gs://bucket/a.png", time.Minute); err == nil {
		t.Fatal("expected error for nil client")
	}
}

func TestParseServiceAccount(t *testing.T) {
	t.Parallel()

	raw, _ := json.Marshal(map[string]string{
		"type":         "service_account",
		"client_email": "svc@project.iam.gserviceaccount.com",
		"private_key":  string(mustGenerateKeyPEM(t)),
	})
	sa, err := parseServiceAccount(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sa == nil || sa.clientEmail != "svc@project.iam.gserviceaccount.com" {
		t.Fatalf("unexpected service account %+v", sa)
	}

	user, err := parseServiceAccount([]byte(`{"type":"authorized_user"}`))
	if err != nil || user != nil {
		t.Fatalf("expected nil signer for user credentials, got %+v err=%v", user, err)
	}

	if _, err := parseServiceAccount([]byte("{")); err == nil {
		t.Fatal("expected error for malformed credentials")
	}
}

func TestClientMethodsRequireInitialization(t *testing.T) {
	t.Parallel()

	client := &Client{defaultBucket: "bucket"}
	ctx := context.Background()
	if _, err := client.Put(ctx, []byte("x"), "a.png", "image/png"); err == nil {
		t.Fatal("expected Put to fail without storage client")
	}
	if _, err := client.Get(ctx, "gs://bucket/a.png"); err == nil {
		t.Fatal("expected Get to fail without storage client")
	}
	if err := client.Delete(ctx, "gs://bucket/a.png"); err == nil {
		t.Fatal("expected Delete to fail without storage client")
	}
	if err := client.Ping(ctx); err == nil {
		t.Fatal("expected Ping to fail without storage client")
	}
}

func mustGenerateKeyPEM(t *testing.T) []byte {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
}
