package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))

	v, dirty, err := SchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, uint(3), v)
	assert.False(t, dirty)
}

func TestMigrate_CreatesAllTables(t *testing.T) {
	db := openTestDB(t)

	expected := []string{"work_items", "relations", "working_weekdays", "non_working_dates", "job_locks", "journal_entries"}
	for _, table := range expected {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_CreatesIndexes(t *testing.T) {
	db := openTestDB(t)

	expected := []string{
		"idx_work_items_parent",
		"idx_work_items_mode",
		"idx_relations_from",
		"idx_relations_to",
		"idx_journal_work_item",
	}
	for _, idx := range expected {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='index' AND name=?`, idx).Scan(&name)
		require.NoError(t, err, "index %s should exist", idx)
	}
}

func TestMigrate_SeedsMondayToFriday(t *testing.T) {
	db := openTestDB(t)

	var working int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM working_weekdays WHERE working = 1`).Scan(&working))
	assert.Equal(t, 5, working)

	var sunday int
	require.NoError(t, db.QueryRow(`SELECT working FROM working_weekdays WHERE weekday = 0`).Scan(&sunday))
	assert.Equal(t, 0, sunday)
}

func TestMigrate_EnforcesConstraints(t *testing.T) {
	db := openTestDB(t)
	now := "2025-06-01T00:00:00Z"

	_, err := db.Exec(`INSERT INTO work_items (id, start_date, due_date, created_at, updated_at) VALUES ('a', '2025-06-05', '2025-06-02', ?, ?)`, now, now)
	assert.Error(t, err, "due before start")

	_, err = db.Exec(`INSERT INTO work_items (id, schedule_mode, created_at, updated_at) VALUES ('b', 'sometimes', ?, ?)`, now, now)
	assert.Error(t, err, "unknown schedule mode")

	_, err = db.Exec(`INSERT INTO relations (id, from_id, to_id, created_at) VALUES ('r', 'x', 'y', ?)`, now)
	assert.Error(t, err, "foreign keys are enforced")
}

func TestOpenDB_FileReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cadence.db")

	db, err := OpenDB(path)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO non_working_dates (date, reason) VALUES ('2025-12-25', 'holiday')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = OpenDB(path)
	require.NoError(t, err)
	defer db.Close()

	var reason string
	require.NoError(t, db.QueryRow(`SELECT reason FROM non_working_dates WHERE date = '2025-12-25'`).Scan(&reason))
	assert.Equal(t, "holiday", reason)
}
