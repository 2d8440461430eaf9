package media

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/genmedia-backend/pkg/db/dbtest"
	"github.com/angelmondragon/genmedia-backend/pkg/db/models"
)

func TestCompleteOnlyMovesProcessingItems(t *testing.T) {
	t.Parallel()

	gdb, mock := dbtest.NewMock(t)
	repo := NewRepository(gdb)
	id := uuid.New()

	mock.ExpectExec(`UPDATE "media_items" SET .* WHERE id = \$\d+ AND status = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.Complete(context.Background(), id, 1, models.MediaItemCompletion{
		GCSURIs:         []string{"gs://media/0.png"},
		RewrittenPrompt: "a cat",
		GenerationTime:  3.2,
	})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFailReportsAlreadyTerminal(t *testing.T) {
	t.Parallel()

	gdb, mock := dbtest.NewMock(t)
	repo := NewRepository(gdb)

	mock.ExpectExec(`UPDATE "media_items" SET .*"version"=version \+ 1.* WHERE id = \$\d+ AND status = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Fail(context.Background(), uuid.New(), 2, models.MediaItemFailure{ErrorMessage: "boom"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTransitionSurfacesDatabaseErrors(t *testing.T) {
	t.Parallel()

	gdb, mock := dbtest.NewMock(t)
	repo := NewRepository(gdb)

	mock.ExpectExec(`UPDATE "media_items"`).WillReturnError(errors.New("connection reset"))

	_, err := repo.Fail(context.Background(), uuid.New(), 1, models.MediaItemFailure{ErrorMessage: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestFindStuck(t *testing.T) {
	t.Parallel()

	gdb, mock := dbtest.NewMock(t)
	repo := NewRepository(gdb)
	id := uuid.New()
	cutoff := time.Now().Add(-20 * time.Minute)

	rows := sqlmock.NewRows([]string{"id", "status", "version", "created_at"}).
		AddRow(id.String(), "processing", 1, cutoff.Add(-time.Minute))
	mock.ExpectQuery(`SELECT \* FROM "media_items" WHERE status = \$1 AND created_at < \$2 ORDER BY created_at ASC LIMIT \$3`).
		WithArgs("processing", cutoff, 50).
		WillReturnRows(rows)

	items, err := repo.FindStuck(context.Background(), cutoff, 50)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ID)
	assert.Equal(t, 1, items[0].Version)
}
