// CLI integration tests.
// These tests verify the litescope commands work correctly end-to-end.
package integration

import (
	"bytes"
	"compress/gzip"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ulikunitz/xz"

	"github.com/litescope/litescope/core/inspect"
	"github.com/litescope/litescope/internal/fixture"
)

// litescopeBinary returns the path to the litescope binary.
func litescopeBinary(t *testing.T) string {
	t.Helper()

	// Look for existing binary first
	paths := []string{
		"../../cmd/litescope/litescope",
		"./cmd/litescope/litescope",
		"litescope",
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			absPath, _ := filepath.Abs(path)
			return absPath
		}
	}

	// Check if it's in PATH
	if path, err := exec.LookPath("litescope"); err == nil {
		return path
	}

	// Binary not found - skip test
	t.Skip("litescope binary not found - run 'go build ./cmd/litescope' first")
	return ""
}

// runLitescope runs the litescope CLI with the given arguments.
func runLitescope(t *testing.T, args ...string) (string, string, int) {
	t.Helper()

	binary := litescopeBinary(t)

	cmd := exec.Command(binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			t.Fatalf("failed to run litescope: %v", err)
		}
	}

	return stdout.String(), stderr.String(), exitCode
}

// writeFixtureDB writes a raw three-row schema page database and returns
// its path.
func writeFixtureDB(t *testing.T) string {
	t.Helper()
	rows := []fixture.SchemaRow{
		fixture.Table("users", "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL)"),
		{Type: "index", Name: "sqlite_autoindex_users_1", TblName: "users", RootPage: 3},
		fixture.Table("orders", "CREATE TABLE orders (id INTEGER, total REAL)"),
	}
	return fixture.WriteRawDB(t, t.TempDir(), 4096, rows)
}

// TestCLIVersionFlag tests the --version flag.
func TestCLIVersionFlag(t *testing.T) {
	stdout, _, exitCode := runLitescope(t, "--version")

	if exitCode != 0 {
		t.Errorf("expected exit code 0, got %d", exitCode)
	}
	if !strings.Contains(stdout, "litescope version") {
		t.Errorf("expected version output, got: %s", stdout)
	}

	t.Logf("Version: %s", strings.TrimSpace(stdout))
}

// TestCLIVersionCommand tests the version command. It needs no database,
// so the path may point at a file that does not exist.
func TestCLIVersionCommand(t *testing.T) {
	stdout, _, exitCode := runLitescope(t, "no-such-file.db", "version")

	if exitCode != 0 {
		t.Errorf("expected exit code 0, got %d", exitCode)
	}
	if !strings.Contains(stdout, "litescope version") {
		t.Errorf("expected version output, got: %s", stdout)
	}
}

// TestCLIHelp tests the help flag.
func TestCLIHelp(t *testing.T) {
	stdout, _, exitCode := runLitescope(t, "--help")

	if exitCode != 0 {
		t.Errorf("expected exit code 0, got %d", exitCode)
	}

	for _, section := range []string{"database", "command", "log-level"} {
		if !strings.Contains(strings.ToLower(stdout), section) {
			t.Errorf("expected help to contain '%s'", section)
		}
	}

	t.Logf("Help output length: %d bytes", len(stdout))
}

// TestCLIDBInfo tests .dbinfo output byte for byte.
func TestCLIDBInfo(t *testing.T) {
	dbPath := writeFixtureDB(t)

	stdout, stderr, exitCode := runLitescope(t, dbPath, ".dbinfo")

	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d\nstderr: %s", exitCode, stderr)
	}
	want := "database page size: 4096\nnumber of tables: 3\n"
	if stdout != want {
		t.Errorf("stdout = %q, want %q", stdout, want)
	}
}

// TestCLITables tests that .tables lists table rows only, one per line.
func TestCLITables(t *testing.T) {
	dbPath := writeFixtureDB(t)

	stdout, stderr, exitCode := runLitescope(t, dbPath, ".tables")

	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d\nstderr: %s", exitCode, stderr)
	}
	if stdout != "users\norders\n" {
		t.Errorf("stdout = %q, want %q", stdout, "users\norders\n")
	}
}

// TestCLIDeterminism runs the same command twice and expects identical
// output.
func TestCLIDeterminism(t *testing.T) {
	dbPath := writeFixtureDB(t)

	first, _, exitCode := runLitescope(t, dbPath, ".tables")
	if exitCode != 0 {
		t.Fatalf("first run failed with exit code %d", exitCode)
	}
	second, _, exitCode := runLitescope(t, dbPath, ".tables")
	if exitCode != 0 {
		t.Fatalf("second run failed with exit code %d", exitCode)
	}

	if first != second {
		t.Errorf("output changed between runs:\nfirst:  %q\nsecond: %q", first, second)
	}
}

// TestCLIMissingCommand tests that a missing command fails before any file
// access: the database path does not exist, yet the error is about the
// command.
func TestCLIMissingCommand(t *testing.T) {
	_, stderr, exitCode := runLitescope(t, "no-such-file.db")

	if exitCode == 0 {
		t.Error("expected non-zero exit code for missing command")
	}
	if !strings.Contains(stderr, "missing command") {
		t.Errorf("stderr = %q, want missing command", stderr)
	}
}

// TestCLIUnknownCommand tests that unrecognized commands fail before any
// file access.
func TestCLIUnknownCommand(t *testing.T) {
	_, stderr, exitCode := runLitescope(t, "no-such-file.db", ".frobnicate")

	if exitCode == 0 {
		t.Error("expected non-zero exit code for unknown command")
	}
	if !strings.Contains(stderr, "unknown command") {
		t.Errorf("stderr = %q, want unknown command", stderr)
	}
}

// TestCLIMissingFile tests the error path for an unreadable database.
func TestCLIMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.db")

	_, stderr, exitCode := runLitescope(t, missing, ".dbinfo")

	if exitCode == 0 {
		t.Error("expected non-zero exit code for missing file")
	}
	if len(stderr) == 0 {
		t.Error("expected error output for missing file")
	}

	t.Logf("Error message: %s", strings.TrimSpace(stderr))
}

// TestCLISchema tests .schema output.
func TestCLISchema(t *testing.T) {
	dbPath := writeFixtureDB(t)

	stdout, stderr, exitCode := runLitescope(t, dbPath, ".schema")
	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d\nstderr: %s", exitCode, stderr)
	}
	if !strings.Contains(stdout, "CREATE TABLE users") || !strings.Contains(stdout, "CREATE TABLE orders") {
		t.Errorf("stdout = %q", stdout)
	}

	stdout, _, exitCode = runLitescope(t, dbPath, ".schema", "users")
	if exitCode != 0 {
		t.Fatalf("filtered .schema failed with exit code %d", exitCode)
	}
	if strings.Contains(stdout, "CREATE TABLE orders") {
		t.Errorf("filter leaked other tables: %q", stdout)
	}
}

// TestCLIColumns tests .columns output.
func TestCLIColumns(t *testing.T) {
	dbPath := writeFixtureDB(t)

	stdout, stderr, exitCode := runLitescope(t, dbPath, ".columns", "users")
	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d\nstderr: %s", exitCode, stderr)
	}
	want := "id INTEGER PRIMARY KEY\nname TEXT NOT NULL\n"
	if stdout != want {
		t.Errorf("stdout = %q, want %q", stdout, want)
	}
}

// TestCLIPageInfo tests .pageinfo with and without the cell listing.
func TestCLIPageInfo(t *testing.T) {
	dbPath := writeFixtureDB(t)

	stdout, stderr, exitCode := runLitescope(t, dbPath, ".pageinfo")
	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d\nstderr: %s", exitCode, stderr)
	}
	for _, want := range []string{"File header:", "Page size: 4096", "Page 1:", "Type: leaf table"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}

	stdout, _, exitCode = runLitescope(t, dbPath, ".pageinfo", "--cells")
	if exitCode != 0 {
		t.Fatalf(".pageinfo --cells failed with exit code %d", exitCode)
	}
	if !strings.Contains(stdout, "rowid=1") {
		t.Errorf("cell listing missing:\n%s", stdout)
	}
}

// TestCLIDigest tests that .digest prints the digest of the stored bytes.
func TestCLIDigest(t *testing.T) {
	dbPath := writeFixtureDB(t)

	img, err := os.ReadFile(dbPath)
	if err != nil {
		t.Fatal(err)
	}

	stdout, stderr, exitCode := runLitescope(t, dbPath, ".digest")
	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d\nstderr: %s", exitCode, stderr)
	}
	if want := inspect.DigestBytes(img) + "\n"; stdout != want {
		t.Errorf("stdout = %q, want %q", stdout, want)
	}
}

// TestCLILogsToStderr verifies logging never contaminates stdout.
func TestCLILogsToStderr(t *testing.T) {
	dbPath := writeFixtureDB(t)

	stdout, stderr, exitCode := runLitescope(t, "--log-level", "debug", dbPath, ".dbinfo")

	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d\nstderr: %s", exitCode, stderr)
	}
	want := "database page size: 4096\nnumber of tables: 3\n"
	if stdout != want {
		t.Errorf("stdout = %q, want %q", stdout, want)
	}
	if !strings.Contains(stderr, "database_opened") {
		t.Errorf("expected debug logs on stderr, got: %s", stderr)
	}
}

// TestCLICompressedEqualsPlain verifies gzip and xz inputs inspect the
// same as the plain file.
func TestCLICompressedEqualsPlain(t *testing.T) {
	dbPath := writeFixtureDB(t)
	img, err := os.ReadFile(dbPath)
	if err != nil {
		t.Fatal(err)
	}

	plain, _, exitCode := runLitescope(t, dbPath, ".dbinfo")
	if exitCode != 0 {
		t.Fatalf("plain .dbinfo failed with exit code %d", exitCode)
	}

	t.Run("gzip", func(t *testing.T) {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(img); err != nil {
			t.Fatal(err)
		}
		if err := zw.Close(); err != nil {
			t.Fatal(err)
		}
		gzPath := filepath.Join(t.TempDir(), "db.gz")
		if err := os.WriteFile(gzPath, buf.Bytes(), 0o644); err != nil {
			t.Fatal(err)
		}

		stdout, stderr, exitCode := runLitescope(t, gzPath, ".dbinfo")
		if exitCode != 0 {
			t.Fatalf("gzip .dbinfo failed with exit code %d\nstderr: %s", exitCode, stderr)
		}
		if stdout != plain {
			t.Errorf("gzip output %q != plain output %q", stdout, plain)
		}
	})

	t.Run("xz", func(t *testing.T) {
		var buf bytes.Buffer
		xw, err := xz.NewWriter(&buf)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := xw.Write(img); err != nil {
			t.Fatal(err)
		}
		if err := xw.Close(); err != nil {
			t.Fatal(err)
		}
		xzPath := filepath.Join(t.TempDir(), "db.xz")
		if err := os.WriteFile(xzPath, buf.Bytes(), 0o644); err != nil {
			t.Fatal(err)
		}

		stdout, stderr, exitCode := runLitescope(t, xzPath, ".dbinfo")
		if exitCode != 0 {
			t.Fatalf("xz .dbinfo failed with exit code %d\nstderr: %s", exitCode, stderr)
		}
		if stdout != plain {
			t.Errorf("xz output %q != plain output %q", stdout, plain)
		}
	})
}

// TestCLIAgainstSQLite3 cross-checks litescope against the reference
// sqlite3 shell on a database the real engine wrote.
func TestCLIAgainstSQLite3(t *testing.T) {
	RequireTool(t, ToolSQLite3)
	litescopeBinary(t)

	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")

	sql := `
CREATE TABLE books (
    id INTEGER PRIMARY KEY,
    title TEXT NOT NULL,
    author TEXT NOT NULL
);
CREATE TABLE authors (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL
);
INSERT INTO books (title, author) VALUES ('The Go Programming Language', 'Alan Donovan');
`

	cmd := exec.Command("sqlite3", dbPath, sql)
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to create database: %v\nOutput: %s", err, output)
	}

	// Page size must match PRAGMA page_size.
	out, err := exec.Command("sqlite3", dbPath, "PRAGMA page_size;").CombinedOutput()
	if err != nil {
		t.Fatalf("PRAGMA page_size failed: %v", err)
	}
	wantPageSize := strings.TrimSpace(string(out))

	stdout, stderr, exitCode := runLitescope(t, dbPath, ".dbinfo")
	if exitCode != 0 {
		t.Fatalf(".dbinfo failed with exit code %d\nstderr: %s", exitCode, stderr)
	}
	if !strings.Contains(stdout, "database page size: "+wantPageSize+"\n") {
		t.Errorf(".dbinfo = %q, want page size %s", stdout, wantPageSize)
	}

	// The schema entry count equals the sqlite_master row count while the
	// schema fits on the first page.
	out, err = exec.Command("sqlite3", dbPath, "SELECT count(*) FROM sqlite_master;").CombinedOutput()
	if err != nil {
		t.Fatalf("count sqlite_master failed: %v", err)
	}
	wantCount := strings.TrimSpace(string(out))
	if !strings.Contains(stdout, "number of tables: "+wantCount+"\n") {
		t.Errorf(".dbinfo = %q, want %s schema entries", stdout, wantCount)
	}

	// Table names must agree with the shell's .tables, ignoring layout.
	out, err = exec.Command("sqlite3", dbPath, ".tables").CombinedOutput()
	if err != nil {
		t.Fatalf(".tables via sqlite3 failed: %v", err)
	}
	wantTables := strings.Fields(string(out))

	stdout, _, exitCode = runLitescope(t, dbPath, ".tables")
	if exitCode != 0 {
		t.Fatalf(".tables failed with exit code %d", exitCode)
	}
	gotTables := strings.Fields(stdout)

	if len(gotTables) != len(wantTables) {
		t.Fatalf("table list = %v, sqlite3 says %v", gotTables, wantTables)
	}
	got := make(map[string]bool, len(gotTables))
	for _, name := range gotTables {
		got[name] = true
	}
	for _, name := range wantTables {
		if !got[name] {
			t.Errorf("table %s missing from litescope output %v", name, gotTables)
		}
	}
}
