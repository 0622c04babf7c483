package sessions

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/notevault/internal/common"
	"github.com/dmitrijs2005/notevault/internal/testutil/sqlitetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLite_UpsertOverwrites(t *testing.T) {
	db := sqlitetest.Open(t)
	sqlitetest.InsertUser(t, db, "alice")
	sqlitetest.InsertUser(t, db, "bob")
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, 100, "alice"))
	require.NoError(t, r.Upsert(ctx, 100, "bob"))

	s, err := r.Get(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "bob", s.UserName)
	assert.False(t, s.CreatedAt.IsZero())
}

func TestSQLite_DeleteIsIdempotent(t *testing.T) {
	db := sqlitetest.Open(t)
	sqlitetest.InsertUser(t, db, "alice")
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, 1, "alice"))
	require.NoError(t, r.Delete(ctx, 1))
	require.NoError(t, r.Delete(ctx, 1))

	_, err := r.Get(ctx, 1)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSQLite_DeleteByUser(t *testing.T) {
	db := sqlitetest.Open(t)
	sqlitetest.InsertUser(t, db, "alice")
	sqlitetest.InsertUser(t, db, "bob")
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, 1, "alice"))
	require.NoError(t, r.Upsert(ctx, 2, "alice"))
	require.NoError(t, r.Upsert(ctx, 3, "bob"))

	n, err := r.DeleteByUser(ctx, "ALICE")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	s, err := r.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "bob", s.UserName)
}

func TestSQLite_UpsertUnknownUserFails(t *testing.T) {
	db := sqlitetest.Open(t)
	r := NewSQLiteRepository(db)

	err := r.Upsert(context.Background(), 1, "ghost")
	require.Error(t, err)
}
