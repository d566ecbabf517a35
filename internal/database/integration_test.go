package database

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(nil); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

// TestDatabaseIntegration tests the complete database lifecycle
func TestDatabaseIntegration(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	tables := []string{"behavior_profiles", "tracked_videos", "hidden_comments", "activity_logs", "weekly_reports", "toxic_terms"}
	for _, table := range tables {
		query := "SELECT name FROM sqlite_master WHERE type='table' AND name=?"
		var name string
		if err := db.QueryRowContext(ctx, query, table).Scan(&name); err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}

	// Running again is a no-op
	if err := db.RunMigrations(nil); err != nil {
		t.Fatalf("Second migration run failed: %v", err)
	}
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM migrations").Scan(&count); err != nil {
		t.Fatalf("Failed to count migrations: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 recorded migration, got %d", count)
	}
}

// TestDatabaseTransactions tests transaction support
func TestDatabaseTransactions(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := Timestamp(time.Now())

	errBoom := errors.New("boom")
	err := db.WithinTx(ctx, func(tx *Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO toxic_terms (term, source, created_at) VALUES (?, ?, ?)", "rolled", "test", now); err != nil {
			return err
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("WithinTx() error = %v, want %v", err, errBoom)
	}

	err = db.WithinTx(ctx, func(tx *Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO toxic_terms (term, source, created_at) VALUES (?, ?, ?)", "kept", "test", now)
		return err
	})
	if err != nil {
		t.Fatalf("WithinTx() error = %v", err)
	}

	terms, err := db.ToxicTerms(ctx)
	if err != nil {
		t.Fatalf("ToxicTerms() error = %v", err)
	}
	if len(terms) != 1 || terms[0] != "kept" {
		t.Errorf("ToxicTerms() = %v, want [kept]", terms)
	}
}

func TestTimestampRangeOrdering(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	monday := time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC)
	for i, at := range []time.Time{monday.Add(-time.Second), monday, monday.Add(90 * time.Minute)} {
		_, err := db.ExecContext(ctx, "INSERT INTO toxic_terms (term, source, created_at) VALUES (?, ?, ?)",
			fmt.Sprintf("t%d", i), "test", Timestamp(at))
		if err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	var count int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM toxic_terms WHERE created_at >= ? AND created_at <= ?",
		Timestamp(monday), Timestamp(monday.AddDate(0, 0, 7).Add(-time.Microsecond))).Scan(&count)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 rows inside the week, got %d", count)
	}
}

func TestSeedToxicTerms(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "Alpha\n\nbeta\nalpha\n")
	}))
	defer server.Close()

	if err := db.SeedToxicTerms(ctx, server.URL, nil); err != nil {
		t.Fatalf("SeedToxicTerms() error = %v", err)
	}
	// second call sees the populated table and skips the download
	if err := db.SeedToxicTerms(ctx, server.URL, nil); err != nil {
		t.Fatalf("SeedToxicTerms() second call error = %v", err)
	}

	terms, err := db.ToxicTerms(ctx)
	if err != nil {
		t.Fatalf("ToxicTerms() error = %v", err)
	}
	if len(terms) != 2 || terms[0] != "alpha" || terms[1] != "beta" {
		t.Errorf("ToxicTerms() = %v, want [alpha beta]", terms)
	}

	if err := db.SeedToxicTerms(ctx, "", nil); err != nil {
		t.Errorf("SeedToxicTerms() with empty URL error = %v", err)
	}
}

func TestSeedToxicTermsBadStatus(t *testing.T) {
	db := openTestDB(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	if err := db.SeedToxicTerms(context.Background(), server.URL, nil); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
