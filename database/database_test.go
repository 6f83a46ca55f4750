package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestDialectOf(t *testing.T) {
	assert.Equal(t, Postgres, DialectOf("postgres://u@h/db"))
	assert.Equal(t, Postgres, DialectOf("postgresql://u@h/db"))
	assert.Equal(t, SQLite, DialectOf("site.sqlite"))
	assert.Equal(t, SQLite, DialectOf("/var/lib/site/data.db"))
}

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, "a.db?_foreign_keys=on&_busy_timeout=5000", sqliteDSN("a.db"))
	assert.Equal(t, "a.db?mode=rwc&_foreign_keys=on&_busy_timeout=5000", sqliteDSN("a.db?mode=rwc"))
}

func openTemp(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenMigratesAndIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.sqlite")

	db, err := Open(context.Background(), path)
	require.NoError(t, err)
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM surveys").Scan(&n))
	assert.Zero(t, n)
	db.Close()

	db, err = Open(context.Background(), path)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM users").Scan(&n))
}

func TestForeignKeysEnforced(t *testing.T) {
	db := openTemp(t)

	_, err := db.Exec(`INSERT INTO questions (id, survey_id, text, type, display_order)
		VALUES ('q', 'missing', 'Q', 'text', 1)`)
	assert.Error(t, err)
}

func TestEnsureAdmin(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()

	created, err := EnsureAdmin(ctx, db, "Admin@Example.com", "first")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = EnsureAdmin(ctx, db, "admin@example.com", "second")
	require.NoError(t, err)
	assert.False(t, created)

	var hash, role string
	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count))
	require.NoError(t, db.QueryRow("SELECT password_hash, role FROM users WHERE email = 'admin@example.com'").Scan(&hash, &role))
	assert.Equal(t, 1, count)
	assert.Equal(t, "admin", role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("second")))

	_, err = EnsureAdmin(ctx, db, "", "x")
	assert.Error(t, err)
}

func TestIsUniqueViolation(t *testing.T) {
	db := openTemp(t)

	insert := `INSERT INTO users (id, name, email, password_hash, role, created_at)
		VALUES ($1, 'n', 'dup@example.com', 'h', 'user', CURRENT_TIMESTAMP)`
	_, err := db.Exec(insert, "u1")
	require.NoError(t, err)
	_, err = db.Exec(insert, "u2")
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	assert.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
}
