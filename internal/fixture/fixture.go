// Package fixture builds SQLite database files for tests. CreateDB uses a
// real SQLite driver, so fixtures carry whatever page layout the engine
// writes; RawDB assembles a single-page image byte by byte for tests that
// need exact control over the format.
package fixture

import (
	"database/sql"
	"path/filepath"
	"testing"
)

// DriverName returns the database/sql driver name the build selected.
// The default build embeds the pure-Go driver; the cgo_sqlite tag swaps
// in the CGO one.
func DriverName() string {
	return driverName
}

// DriverType reports "purego" or "cgo".
func DriverType() string {
	return driverType
}

// CreateDB creates a SQLite database at path and executes each statement
// against it in order. Failures end the test.
func CreateDB(tb testing.TB, path string, statements ...string) {
	tb.Helper()

	db, err := sql.Open(driverName, path)
	if err != nil {
		tb.Fatalf("open %s with %s driver: %v", path, driverType, err)
	}
	defer db.Close()

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			tb.Fatalf("exec %q: %v", stmt, err)
		}
	}
}

// CreateTempDB creates a database in a fresh temp directory and returns
// its path.
func CreateTempDB(tb testing.TB, statements ...string) string {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "fixture.db")
	CreateDB(tb, path, statements...)
	return path
}
