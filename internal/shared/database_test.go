package shared

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestDatabase(t *testing.T) {
	t.Run("dsn", func(t *testing.T) {
		tests := []struct {
			name    string
			path    string
			want    string
			wantWAL bool
		}{
			{name: "memory", path: ":memory:", want: "file::memory:?_foreign_keys=on", wantWAL: false},
			{name: "file", path: "tracklib.db", want: "file:tracklib.db?_foreign_keys=on", wantWAL: true},
			{name: "existing params", path: "file:x.db?cache=shared", want: "file:x.db?cache=shared&_foreign_keys=on", wantWAL: true},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got := dsn(tt.path)
				if !strings.HasPrefix(got, tt.want) {
					t.Errorf("dsn(%q) = %q, want prefix %q", tt.path, got, tt.want)
				}
				if strings.Contains(got, "_journal_mode=WAL") != tt.wantWAL {
					t.Errorf("dsn(%q) = %q, WAL expected %v", tt.path, got, tt.wantWAL)
				}
			})
		}
	})

	t.Run("file database uses WAL and foreign keys", func(t *testing.T) {
		db, err := NewDatabase(filepath.Join(t.TempDir(), "wal.db"))
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		var mode string
		if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
			t.Fatalf("failed to read journal mode: %v", err)
		}
		if mode != "wal" {
			t.Errorf("expected wal journal mode, got %q", mode)
		}

		var fk int
		if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
			t.Fatalf("failed to read foreign_keys: %v", err)
		}
		if fk != 1 {
			t.Errorf("expected foreign keys on, got %d", fk)
		}
	})
}
