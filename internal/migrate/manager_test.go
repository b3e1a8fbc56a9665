package migrate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestListSQLFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "0002_events.up.sql", "create table events();")
	writeFile(t, dir, "0001_users.up.sql", "create table users();")
	writeFile(t, dir, "0001_users.down.sql", "drop table users;")
	writeFile(t, dir, "README.md", "not sql")

	names, err := listSQLFiles(dir, ".up.sql")
	if err != nil {
		t.Fatalf("listSQLFiles: %v", err)
	}
	if len(names) != 2 || names[0] != "0001_users.up.sql" || names[1] != "0002_events.up.sql" {
		t.Fatalf("unexpected names: %v", names)
	}

	missing, err := listSQLFiles(filepath.Join(dir, "nope"), ".sql")
	if err != nil || missing != nil {
		t.Fatalf("missing dir should be empty: %v %v", missing, err)
	}
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements("create table a(); insert into a values ('x;y'); drop table a")
	if len(stmts) != 3 {
		t.Fatalf("expected 3 statements, got %d: %q", len(stmts), stmts)
	}
	// The quoted semicolon must not split the insert.
	if stmts[1] != ` insert into a values ('x;y');` {
		t.Fatalf("unexpected middle statement: %q", stmts[1])
	}
}

func TestUpAppliesPendingOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "0001_users.up.sql", "create table users(id text primary key);")
	writeFile(t, dir, "0002_events.up.sql", "create table events(id text primary key);")

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("create table if not exists ecovia_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("create table if not exists ecovia_seeds").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select name from ecovia_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("0001_users.up.sql"))

	// Only the second migration runs.
	mock.ExpectBegin()
	mock.ExpectExec("create table events").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectExec("insert into ecovia_migrations").
		WithArgs("0002_events.up.sql", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mgr := NewManager(db, dir, "")
	if err := mgr.Up(context.Background()); err != nil {
		t.Fatalf("Up: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDownRequiresHistory(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("create table if not exists ecovia_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("create table if not exists ecovia_seeds").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select name from ecovia_migrations order by applied_at").
		WillReturnRows(sqlmock.NewRows([]string{"name"}))

	mgr := NewManager(db, t.TempDir(), "")
	if err := mgr.Down(context.Background()); err == nil {
		t.Fatalf("expected error with no applied migrations")
	}
}

func TestPending(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "0001_users.up.sql", "create table users();")
	writeFile(t, dir, "0002_events.up.sql", "create table events();")

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("create table if not exists ecovia_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("create table if not exists ecovia_seeds").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select name from ecovia_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("0001_users.up.sql"))

	mgr := NewManager(db, dir, "")
	pending, err := mgr.Pending(context.Background())
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 1 || pending[0] != "0002_events.up.sql" {
		t.Fatalf("unexpected pending set: %v", pending)
	}
}
