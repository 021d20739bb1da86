package store_test

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/ayush/simple-blog/backend/internal/store"
)

// newTestStore opens a migrated in-memory SQLite store. A single connection
// keeps the shared memory database alive and the foreign_keys pragma applied.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	db, err := sqlx.Connect("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	s := store.New(db)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}
