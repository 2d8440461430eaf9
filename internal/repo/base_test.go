package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/genmedia-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/genmedia-backend/pkg/errors"
	"github.com/angelmondragon/genmedia-backend/pkg/pagination"
)

type note struct {
	models.Record
	Body  string
	Owner string
}

type noteBody struct{ body *string }

func (n noteBody) Columns() map[string]any {
	cols := map[string]any{}
	if n.body != nil {
		cols["body"] = *n.body
	}
	return cols
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	require.NoError(t, conn.AutoMigrate(&note{}))
	return conn
}

func TestStoreInTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore[note](newTestDB(t), "note")
	keep := &note{Body: "keep"}
	require.NoError(t, store.Create(ctx, keep))

	err := store.InTx(ctx, func(tx *Store[note]) error {
		if _, err := tx.Delete(ctx, keep.ID); err != nil {
			return err
		}
		return errors.New("insert failed")
	})
	require.EqualError(t, err, "insert failed")

	got, err := store.Get(ctx, keep.ID)
	require.NoError(t, err)
	require.Equal(t, "keep", got.Body)
}

func TestBaseDB_BindsContext(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "value")
	withCtx := base.DB(ctx)
	if withCtx.Statement.Context != ctx {
		t.Fatalf("expected context to be bound to the connection")
	}
}

func TestStoreCRUD(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore[note](newTestDB(t), "note")

	n := &note{Body: "first", Owner: "ana"}
	require.NoError(t, store.Create(ctx, n))
	require.NotEqual(t, uuid.Nil, n.ID)
	require.False(t, n.CreatedAt.IsZero())

	got, err := store.Get(ctx, n.ID)
	require.NoError(t, err)
	require.Equal(t, "first", got.Body)

	body := "second"
	updated, err := store.Update(ctx, n.ID, noteBody{body: &body})
	require.NoError(t, err)
	require.Equal(t, "second", updated.Body)
	require.Equal(t, "ana", updated.Owner)
	require.False(t, updated.UpdatedAt.Before(got.UpdatedAt))

	unchanged, err := store.Update(ctx, n.ID, noteBody{})
	require.NoError(t, err)
	require.Equal(t, "second", unchanged.Body)

	_, err = store.Update(ctx, uuid.New(), noteBody{body: &body})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	deleted, err := store.Delete(ctx, n.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	deleted, err = store.Delete(ctx, n.ID)
	require.NoError(t, err)
	require.False(t, deleted)

	_, err = store.Get(ctx, n.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestStoreSaveUpserts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore[note](newTestDB(t), "note")

	n := &note{Body: "draft"}
	n.ID = uuid.New()
	require.NoError(t, store.Save(ctx, n))

	n.Body = "final"
	require.NoError(t, store.Save(ctx, n))

	got, err := store.Get(ctx, n.ID)
	require.NoError(t, err)
	require.Equal(t, "final", got.Body)
}

func TestStoreQueryFilters(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore[note](newTestDB(t), "note")
	for _, owner := range []string{"ana", "ana", "ben"} {
		require.NoError(t, store.Create(ctx, &note{Body: "x", Owner: owner}))
	}

	page, err := store.Query(ctx, pagination.Request{Filters: []pagination.Filter{pagination.Eq("owner", "ana")}}, pagination.DefaultBounds)
	require.NoError(t, err)
	require.Equal(t, int64(2), page.Count)
	require.Len(t, page.Data, 2)

	zero := 0
	_, err = store.Query(ctx, pagination.Request{Limit: &zero}, pagination.DefaultBounds)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
