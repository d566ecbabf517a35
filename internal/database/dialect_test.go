package database

import (
	"testing"
)

func TestDialectSQLite(t *testing.T) {
	dialect := NewSQLiteDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "sqlite3"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("DSN", func(t *testing.T) {
		result := dialect.DSN(DialectConfig{Path: "./safeguard.db"})
		expected := "./safeguard.db?_busy_timeout=5000&_txlock=immediate&_foreign_keys=1"
		if result != expected {
			t.Errorf("DSN() = %v, want %v", result, expected)
		}
	})

	t.Run("InsertIgnore", func(t *testing.T) {
		result := dialect.InsertIgnore("toxic_terms", []string{"term", "source"})
		expected := "INSERT OR IGNORE INTO toxic_terms (term, source) VALUES (?, ?)"
		if result != expected {
			t.Errorf("InsertIgnore() = %v, want %v", result, expected)
		}
	})

	t.Run("LockClause", func(t *testing.T) {
		if result := dialect.LockClause(); result != "" {
			t.Errorf("LockClause() = %q, want empty", result)
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "sqlite"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})
}

func TestDialectPostgreSQL(t *testing.T) {
	dialect := NewPostgresDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "postgres"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("InsertIgnore", func(t *testing.T) {
		result := dialect.InsertIgnore("behavior_profiles", []string{"id", "child_id"})
		expected := "INSERT INTO behavior_profiles (id, child_id) VALUES (?, ?) ON CONFLICT DO NOTHING"
		if result != expected {
			t.Errorf("InsertIgnore() = %v, want %v", result, expected)
		}
	})

	t.Run("LockClause", func(t *testing.T) {
		if result := dialect.LockClause(); result != " FOR UPDATE" {
			t.Errorf("LockClause() = %q, want %q", result, " FOR UPDATE")
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "postgres"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})
}

func TestDialectMySQL(t *testing.T) {
	dialect := NewMySQLDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "mysql"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("DSN adds parseTime", func(t *testing.T) {
		result := dialect.DSN(DialectConfig{URL: "user:pw@tcp(localhost:3306)/safeguard"})
		expected := "user:pw@tcp(localhost:3306)/safeguard?parseTime=true&loc=UTC"
		if result != expected {
			t.Errorf("DSN() = %v, want %v", result, expected)
		}
	})

	t.Run("DSN keeps explicit parseTime", func(t *testing.T) {
		result := dialect.DSN(DialectConfig{URL: "u@tcp(h)/db?parseTime=false&loc=Local"})
		expected := "u@tcp(h)/db?parseTime=false&loc=Local"
		if result != expected {
			t.Errorf("DSN() = %v, want %v", result, expected)
		}
	})

	t.Run("InsertIgnore", func(t *testing.T) {
		result := dialect.InsertIgnore("toxic_terms", []string{"term"})
		expected := "INSERT IGNORE INTO toxic_terms (term) VALUES (?)"
		if result != expected {
			t.Errorf("InsertIgnore() = %v, want %v", result, expected)
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "mysql"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})
}

func TestRewritePlaceholdersToNumbered(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "no placeholders",
			input:    "SELECT * FROM tracked_videos",
			expected: "SELECT * FROM tracked_videos",
		},
		{
			name:     "two placeholders",
			input:    "SELECT * FROM tracked_videos WHERE child_id = ? AND watched_at >= ?",
			expected: "SELECT * FROM tracked_videos WHERE child_id = $1 AND watched_at >= $2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := rewritePlaceholdersToNumbered(tt.input)
			if result != tt.expected {
				t.Errorf("rewritePlaceholdersToNumbered() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestSplitStatements(t *testing.T) {
	content := `-- header comment
CREATE TABLE a (id TEXT);

-- second
CREATE INDEX idx ON a(id);
`
	got := splitStatements(content)
	if len(got) != 2 {
		t.Fatalf("splitStatements() returned %d statements: %q", len(got), got)
	}
	if got[0] != "CREATE TABLE a (id TEXT)" {
		t.Errorf("first statement = %q", got[0])
	}
	if got[1] != "CREATE INDEX idx ON a(id)" {
		t.Errorf("second statement = %q", got[1])
	}
}
