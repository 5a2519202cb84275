package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestOpenAndMigrate verifies a fresh database file is created with the
// schema applied, and that Migrate is safe to run again.
func TestOpenAndMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "novelhub.db")

	db, err := Open(Config{Path: path})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db), "migrate should be idempotent")

	for _, table := range []string{"authors", "genres", "novels", "novel_genres"} {
		var n int
		err := db.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n)
		assert.NoError(t, err, "table %s should exist", table)
		assert.Zero(t, n)
	}
}

// TestOpen_UniqueConstraints verifies the schema's unique keys hold.
func TestOpen_UniqueConstraints(t *testing.T) {
	db, err := Open(Config{Path: ":memory:"})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, Migrate(db))

	_, err = db.Exec(`INSERT INTO authors (name) VALUES ('Jane Doe')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO authors (name) VALUES ('Jane Doe')`)
	assert.Error(t, err, "duplicate author name must violate the unique key")
}
