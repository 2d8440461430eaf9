package db

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/genmedia-backend/pkg/config"
	"github.com/angelmondragon/genmedia-backend/pkg/logger"
)

type testModel struct {
	ID   int
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestQueryLoggerRoutesSlowQueries(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "db-test", Output: &buf})

	ql := queryLogger(context.Background(), logg)
	ql.Trace(context.Background(), time.Now().Add(-2*slowQueryThreshold), func() (string, int64) {
		return "SELECT * FROM media_items WHERE status = $1", 3
	}, nil)

	out := buf.String()
	if !strings.Contains(out, "SLOW SQL") || !strings.Contains(out, `"component":"gorm"`) {
		t.Fatalf("expected slow query warning, got %q", out)
	}
}

func TestQueryLoggerDiscardsWithoutLogger(t *testing.T) {
	if queryLogger(context.Background(), nil) != gormlogger.Discard {
		t.Fatal("expected discard logger")
	}
}

func TestNewRequiresDSN(t *testing.T) {
	if _, err := New(context.Background(), config.DBConfig{}, nil); err == nil {
		t.Fatal("expected missing DSN error")
	}
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{"nil", nil, "", false},
		{"translated", gorm.ErrDuplicatedKey, "", true},
		{"postgres message", errors.New(`duplicate key value violates unique constraint "ux_source_assets_user_hash"`), "ux_source_assets_user_hash", true},
		{"other constraint", errors.New(`duplicate key value violates unique constraint "users_email_key"`), "ux_source_assets_user_hash", false},
		{"sqlite message", errors.New("UNIQUE constraint failed: users.email"), "", true},
		{"unrelated", errors.New("connection reset"), "", false},
	}
	for _, tc := range cases {
		if got := IsUniqueViolation(tc.err, tc.constraint); got != tc.want {
			t.Fatalf("%s: expected %v got %v", tc.name, tc.want, got)
		}
	}
}
