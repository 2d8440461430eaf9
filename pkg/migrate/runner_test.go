package migrate

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/genmedia-backend/pkg/logger"
)

var sqliteMigrations = fstest.MapFS{
	"20260101000000_create_notes.sql": {Data: []byte(`-- +goose Up
CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT NOT NULL);
-- +goose Down
DROP TABLE notes;
`)},
	"20260102000000_index_notes.sql": {Data: []byte(`-- +goose Up
CREATE INDEX idx_notes_body ON notes (body);
-- +goose Down
DROP INDEX idx_notes_body;
`)},
}

func newSQLiteRunner(t *testing.T) (*Runner, *bytes.Buffer) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	buf := &bytes.Buffer{}
	runner, err := newRunner(goose.DialectSQLite3, sqlDB, sqliteMigrations, logger.New(logger.Options{ServiceName: "migrate-test", Output: buf}))
	require.NoError(t, err)
	return runner, buf
}

func TestRunnerUpDownAndTo(t *testing.T) {
	ctx := context.Background()
	runner, logs := newSQLiteRunner(t)

	require.NoError(t, runner.Up(ctx))
	version, err := runner.Version(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(20260102000000), version)
	require.Equal(t, 2, strings.Count(logs.String(), "migration applied"))

	require.NoError(t, runner.Down(ctx))
	version, err = runner.Version(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(20260101000000), version)

	require.NoError(t, runner.To(ctx, "20260102000000"))
	version, err = runner.Version(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(20260102000000), version)

	require.Error(t, runner.To(ctx, "latest"))
}

func TestRunnerStatusLogsEachMigration(t *testing.T) {
	runner, logs := newSQLiteRunner(t)
	require.NoError(t, runner.Status(context.Background()))
	require.Equal(t, 2, strings.Count(logs.String(), "migration status"))
	require.Contains(t, logs.String(), `"state":"pending"`)
}

func TestNewRunnerRequiresDB(t *testing.T) {
	_, err := NewRunner(nil, logger.New(logger.Options{ServiceName: "migrate-test"}))
	require.Error(t, err)
}
