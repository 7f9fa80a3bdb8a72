package database

import (
	"context"
	"testing"
)

func TestOpenMemoryRunsMigrations(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	for _, table := range []string{"families", "members", "custom_checklist_items", "daily_entries", "prayer_times_cache"} {
		var name string
		err := db.QueryRowContext(context.Background(),
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}

	v, err := db.MigrationVersion()
	if err != nil {
		t.Fatalf("migration version: %v", err)
	}
	if v < 1 {
		t.Errorf("version = %d, want >= 1", v)
	}
	if db.Driver() != DriverSQLite {
		t.Errorf("driver = %q, want %q", db.Driver(), DriverSQLite)
	}
}

func TestUnsupportedDriver(t *testing.T) {
	if _, err := Connect("oracle", "x"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestRebind(t *testing.T) {
	pg, err := dialectFor("postgres")
	if err != nil {
		t.Fatal(err)
	}
	lite, err := dialectFor("sqlite")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		query string
		pg    string
	}{
		{"SELECT 1", "SELECT 1"},
		{"SELECT * FROM t WHERE a = ?", "SELECT * FROM t WHERE a = $1"},
		{"UPDATE t SET a = ?, b = COALESCE(?, b) WHERE id = ?", "UPDATE t SET a = $1, b = COALESCE($2, b) WHERE id = $3"},
	}
	for _, tt := range tests {
		if got := pg.rebind(tt.query); got != tt.pg {
			t.Errorf("postgres rebind(%q) = %q, want %q", tt.query, got, tt.pg)
		}
		if got := lite.rebind(tt.query); got != tt.query {
			t.Errorf("sqlite rebind(%q) = %q, want unchanged", tt.query, got)
		}
	}
}

func TestForeignKeyCascade(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()

	var familyID int64
	if err := db.QueryRowContext(ctx, "INSERT INTO families (name) VALUES (?) RETURNING id", "Rahman").Scan(&familyID); err != nil {
		t.Fatalf("insert family: %v", err)
	}
	if _, err := db.ExecContext(ctx, "INSERT INTO members (family_id, name) VALUES (?, ?)", familyID, "Aisha"); err != nil {
		t.Fatalf("insert member: %v", err)
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM families WHERE id = ?", familyID); err != nil {
		t.Fatalf("delete family: %v", err)
	}

	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM members").Scan(&n); err != nil {
		t.Fatalf("count members: %v", err)
	}
	if n != 0 {
		t.Errorf("members after cascade = %d, want 0", n)
	}
}
