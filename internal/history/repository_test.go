package history

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nerrad567/bvmctl/internal/core"
)

// setupTestDB creates an in-memory SQLite database with the state_history table.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE state_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded_at TEXT NOT NULL,
			link_up INTEGER NOT NULL,
			connected INTEGER NOT NULL,
			valid INTEGER NOT NULL,
			snapshot TEXT NOT NULL
		);
		CREATE INDEX idx_state_history_recorded_at ON state_history(recorded_at);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// insertHistoryRow inserts a history row with a specific timestamp.
func insertHistoryRow(t *testing.T, db *sql.DB, snapshot string, recordedAt time.Time) {
	t.Helper()

	_, err := db.Exec(
		"INSERT INTO state_history (recorded_at, link_up, connected, valid, snapshot) VALUES (?, 1, 1, 1, ?)",
		recordedAt.UTC().Format(time.RFC3339),
		snapshot,
	)
	if err != nil {
		t.Fatalf("failed to insert history row: %v", err)
	}
}

// TestRecord verifies history writes and retrieval.
func TestRecord(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	state := core.DeviceState{Power: true, Marker: true, LinkUp: true, Connected: true, Valid: true}
	if err := repo.Record(ctx, state); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	entries, err := repo.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries length = %d, want 1", len(entries))
	}

	entry := entries[0]
	if entry.RecordedAt.IsZero() {
		t.Error("RecordedAt is zero, want non-zero")
	}
	if !entry.State.Power {
		t.Error("State.Power = false, want true")
	}
	if !entry.State.Marker {
		t.Error("State.Marker = false, want true")
	}
	if entry.State.BlueOnly {
		t.Error("State.BlueOnly = true, want false")
	}
	if !entry.State.Connected || !entry.State.Valid {
		t.Error("link metadata not round-tripped")
	}
}

// TestRecordLinkColumns verifies the link flags land in dedicated columns.
func TestRecordLinkColumns(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	if err := repo.Record(ctx, core.DeviceState{LinkUp: true, Connected: false, Valid: false}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	var linkUp, connected, valid int
	err := db.QueryRow("SELECT link_up, connected, valid FROM state_history").Scan(&linkUp, &connected, &valid)
	if err != nil {
		t.Fatalf("query error = %v", err)
	}
	if linkUp != 1 || connected != 0 || valid != 0 {
		t.Errorf("columns = (%d, %d, %d), want (1, 0, 0)", linkUp, connected, valid)
	}
}

// TestRecent verifies ordering and limit enforcement.
func TestRecent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	insertHistoryRow(t, db, `{"power":false}`, now.Add(-2*time.Hour))
	insertHistoryRow(t, db, `{"power":true}`, now.Add(-1*time.Hour))
	insertHistoryRow(t, db, `{"power":true,"marker":true}`, now)

	entries, err := repo.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries length = %d, want 2", len(entries))
	}

	if !entries[0].RecordedAt.Equal(now) {
		t.Errorf("entry[0] RecordedAt = %s, want %s", entries[0].RecordedAt, now)
	}
	if !entries[0].State.Marker {
		t.Error("entry[0] State.Marker = false, want true")
	}
	if !entries[1].RecordedAt.Equal(now.Add(-1 * time.Hour)) {
		t.Errorf("entry[1] RecordedAt = %s, want %s", entries[1].RecordedAt, now.Add(-1*time.Hour))
	}
}

// TestRecentClampsLimit verifies zero and oversized limits are clamped.
func TestRecentClampsLimit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		insertHistoryRow(t, db, `{"power":true}`, now.Add(time.Duration(-i)*time.Minute))
	}

	entries, err := repo.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("entries length = %d, want 3", len(entries))
	}

	entries, err = repo.Recent(ctx, 100000)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("entries length = %d, want 3", len(entries))
	}
}

// TestPrune verifies old entries are removed.
func TestPrune(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	insertHistoryRow(t, db, `{"power":true}`, now.Add(-40*24*time.Hour))
	insertHistoryRow(t, db, `{"power":false}`, now.Add(-12*time.Hour))

	deleted, err := repo.Prune(ctx, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}

	entries, err := repo.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries length = %d, want 1", len(entries))
	}
	if !entries[0].RecordedAt.Equal(now.Add(-12 * time.Hour)) {
		t.Errorf("remaining RecordedAt = %s, want %s", entries[0].RecordedAt, now.Add(-12*time.Hour))
	}
}

// TestPruneRejectsNonPositive verifies the retention guard.
func TestPruneRejectsNonPositive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)

	if _, err := repo.Prune(context.Background(), 0); err == nil {
		t.Error("Prune(0) error = nil, want error")
	}
}
