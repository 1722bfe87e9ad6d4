package migrations

import (
	"context"
	"database/sql"
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	destinations "github.com/goliatone/go-destinations"
	_ "github.com/mattn/go-sqlite3"
)

func TestFilesystems_ReturnsPostgresAndSQLite(t *testing.T) {
	filesystems, err := Filesystems()
	if err != nil {
		t.Fatalf("filesystems: %v", err)
	}
	if len(filesystems) != 2 {
		t.Fatalf("expected 2 filesystems, got %d", len(filesystems))
	}

	found := map[string]bool{}
	for _, entry := range filesystems {
		versions, err := entry.Versions()
		if err != nil {
			t.Fatalf("versions %s: %v", entry.Dialect, err)
		}
		if len(versions) == 0 || versions[0] != "00001_destination_entries.up.sql" {
			t.Fatalf("expected destination_entries migration for %s, got %v", entry.Dialect, versions)
		}
		found[entry.Dialect] = true
	}
	if !found[DialectPostgres] || !found[DialectSQLite] {
		t.Fatalf("expected postgres and sqlite filesystems, got %v", found)
	}
}

func TestFilesystems_RejectsTreeWithoutMigrations(t *testing.T) {
	empty := fstest.MapFS{
		"data/sql/migrations/README": &fstest.MapFile{Data: []byte("none")},
	}
	if _, err := Filesystems(empty); err == nil {
		t.Fatalf("expected error for tree without up migrations")
	}
}

func TestRegister_UsesValidationTargets(t *testing.T) {
	var calls []string
	var labels []string
	_, err := Register(context.Background(), func(_ context.Context, dialect string, label string, _ fs.FS) error {
		calls = append(calls, dialect)
		labels = append(labels, label)
		return nil
	}, WithValidationTargets(" SQLite "))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(calls) != 1 || calls[0] != DialectSQLite {
		t.Fatalf("expected single sqlite registration, got %v", calls)
	}
	if labels[0] != "go-destinations" {
		t.Fatalf("expected default source label, got %q", labels[0])
	}
}

func TestRegister_RequiresRegisterFunc(t *testing.T) {
	if _, err := Register(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil register func")
	}
}

func TestDialectForDriver(t *testing.T) {
	cases := map[string]string{
		"sqlite3":  DialectSQLite,
		"postgres": DialectPostgres,
		"pgx":      DialectPostgres,
	}
	for driver, want := range cases {
		got, err := DialectForDriver(driver)
		if err != nil {
			t.Fatalf("dialect for %s: %v", driver, err)
		}
		if got != want {
			t.Fatalf("expected %s for %s, got %s", want, driver, got)
		}
	}
	if _, err := DialectForDriver("oracle"); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestDestinationEntriesMigrationPair_ExistsForBothDialects(t *testing.T) {
	root := destinations.GetMigrationsFS()
	paths := []string{
		"data/sql/migrations/00001_destination_entries.up.sql",
		"data/sql/migrations/00001_destination_entries.down.sql",
		"data/sql/migrations/sqlite/00001_destination_entries.up.sql",
		"data/sql/migrations/sqlite/00001_destination_entries.down.sql",
	}
	for _, migrationPath := range paths {
		content, err := fs.ReadFile(root, migrationPath)
		if err != nil {
			t.Fatalf("read migration %s: %v", migrationPath, err)
		}
		if strings.TrimSpace(string(content)) == "" {
			t.Fatalf("expected migration %s to have SQL content", migrationPath)
		}
	}
}

func TestSQLiteDestinationEntriesMigration_ApplyAndRollback(t *testing.T) {
	db, err := sql.Open("sqlite3", "file:migrations-destination-entries?mode=memory&cache=shared&_foreign_keys=on")
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	defer func() { _ = db.Close() }()

	sqliteMigrations, err := fs.Sub(destinations.GetMigrationsFS(), "data/sql/migrations/sqlite")
	if err != nil {
		t.Fatalf("resolve sqlite migrations: %v", err)
	}
	ctx := context.Background()

	if err := execSQLMigration(ctx, db, sqliteMigrations, "00001_destination_entries.up.sql"); err != nil {
		t.Fatalf("apply up migration: %v", err)
	}

	insert := `INSERT INTO destination_entries (id, name, url) VALUES (?, ?, ?)`
	if _, err := db.ExecContext(ctx, insert, "id-1", "backend", "https://backend.example"); err != nil {
		t.Fatalf("insert destination: %v", err)
	}
	if _, err := db.ExecContext(ctx, insert, "id-2", "backend", "https://other.example"); err == nil {
		t.Fatalf("expected unique name violation")
	}

	var authentication, proxyType string
	if err := db.QueryRowContext(
		ctx,
		`SELECT authentication, proxy_type FROM destination_entries WHERE name=?`,
		"backend",
	).Scan(&authentication, &proxyType); err != nil {
		t.Fatalf("select defaults: %v", err)
	}
	if authentication != "NoAuthentication" || proxyType != "Internet" {
		t.Fatalf("unexpected column defaults %q %q", authentication, proxyType)
	}

	if err := execSQLMigration(ctx, db, sqliteMigrations, "00001_destination_entries.down.sql"); err != nil {
		t.Fatalf("apply down migration: %v", err)
	}
	var count int
	if err := db.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`,
		"destination_entries",
	).Scan(&count); err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected destination_entries to be dropped after down migration")
	}
}

func execSQLMigration(ctx context.Context, db *sql.DB, migrations fs.FS, name string) error {
	content, err := fs.ReadFile(migrations, name)
	if err != nil {
		return err
	}
	for _, statement := range strings.Split(string(content), ";") {
		if strings.TrimSpace(statement) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return err
		}
	}
	return nil
}
