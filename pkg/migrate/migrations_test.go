package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/angelmondragon/genmedia-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s migration file found", suffix)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestMigrationDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
	if err := migrate.Validate(migrate.Migrations()); err != nil {
		t.Fatalf("validate embedded migrations: %v", err)
	}
}

func TestValidateRejectsBadFiles(t *testing.T) {
	cases := map[string]fstest.MapFS{
		"bad name": {"add_index.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")}},
		"duplicate version": {
			"20260301090000_a.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
			"20260301090000_b.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		},
		"missing down": {"20260301090000_a.sql": {Data: []byte("-- +goose Up\n")}},
	}
	for name, fsys := range cases {
		if err := migrate.Validate(fsys); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestMigrationsContainConstraints(t *testing.T) {
	cases := map[string][]string{
		"create_media_items": {
			"CREATE TABLE IF NOT EXISTS media_items",
			"version int NOT NULL DEFAULT 1",
			"gcs_uris text[] NOT NULL",
			"CHECK (status IN ('processing','completed','failed'))",
			"(workspace_id, created_at DESC, id DESC)",
			"DROP TABLE IF EXISTS media_items",
		},
		"create_source_assets": {
			"CREATE UNIQUE INDEX IF NOT EXISTS ux_source_assets_user_hash ON source_assets (user_id, file_hash)",
			"DROP TABLE IF EXISTS source_assets",
		},
		"create_workspaces": {
			"member_ids uuid[] NOT NULL",
			"members jsonb NOT NULL",
			"USING GIN (member_ids)",
		},
		"create_brand_guidelines": {
			"CREATE UNIQUE INDEX IF NOT EXISTS ux_brand_guidelines_workspace ON brand_guidelines (workspace_id)",
		},
		"create_users": {
			"CREATE UNIQUE INDEX IF NOT EXISTS ux_users_email",
			"ARRAY['user','creator','admin']",
		},
		"create_templates": {
			"CREATE TABLE IF NOT EXISTS templates",
			"DROP TABLE IF EXISTS templates",
		},
	}

	for suffix, checks := range cases {
		content := readMigration(t, suffix)
		for _, sub := range checks {
			if !strings.Contains(content, sub) {
				t.Errorf("%s: missing expected statement %q", suffix, sub)
			}
		}
	}
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, " Add Media Index! ")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_media_index.sql") {
		t.Fatalf("unexpected filename %s", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("created migration should validate: %v", err)
	}
}
