package db

import (
	"io/fs"
	"strings"
	"testing"
)

func TestMigrateURL(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@localhost:5432/todolist?sslmode=disable":   "pgx5://u:p@localhost:5432/todolist?sslmode=disable",
		"postgresql://u:p@localhost:5432/todolist?sslmode=disable": "pgx5://u:p@localhost:5432/todolist?sslmode=disable",
		"pgx5://already":                                           "pgx5://already",
	}

	for in, want := range tests {
		if got := migrateURL(in); got != want {
			t.Fatalf("migrateURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}

	ups := map[string]bool{}
	downs := map[string]bool{}

	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Fatalf("unexpected file in migrations: %s", name)
		}
	}

	if len(ups) == 0 {
		t.Fatalf("no migrations embedded")
	}

	for base := range ups {
		if !downs[base] {
			t.Fatalf("migration %s has no down script", base)
		}
	}
}
