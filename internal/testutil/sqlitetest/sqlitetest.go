// Package sqlitetest opens throwaway, fully migrated SQLite databases for tests.
package sqlitetest

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/notevault/internal/migrations"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// Open creates a SQLite database file in t.TempDir, applies all migrations
// and closes it when the test ends.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "vault.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	p, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.SQLite())
	require.NoError(t, err)
	_, err = p.Up(context.Background())
	require.NoError(t, err)

	return db
}

// InsertUser adds a bare user row so that notes and sessions can reference it.
func InsertUser(t *testing.T, db *sql.DB, userName string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO users (username, username_key, password_hash, created_at) VALUES (?, ?, ?, 0)`,
		userName, strings.ToLower(userName), []byte("x"))
	require.NoError(t, err)
}
