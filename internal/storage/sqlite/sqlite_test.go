package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mmynk/racha/internal/models"
	"github.com/mmynk/racha/internal/storage"
	"github.com/mmynk/racha/internal/storage/storagetest"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		return newTestStore(t)
	})
}

func TestSQLiteStore_Reopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "racha.db")

	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	original := storagetest.NewTable("MESA-REOPEN", "Reopen", 42)
	if err := store.CreateTable(ctx, original); err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	store.Close()

	// Migrations must be safe to run again on an existing file
	reopened, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.GetTable(ctx, original.Code)
	if err != nil {
		t.Fatalf("GetTable failed: %v", err)
	}
	if got.Name != original.Name {
		t.Errorf("Name mismatch: got %s, want %s", got.Name, original.Name)
	}
	if len(got.Expenses) != 1 || len(got.Expenses[0].Consumers) != 2 {
		t.Errorf("Expenses not restored: %+v", got.Expenses)
	}
}

func TestSQLiteStore_DeleteExpenseDropsConsumers(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.CreateTable(ctx, storagetest.NewTable("MESA-CONS", "Consumers", 1)); err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	if _, err := store.UpdateTable(ctx, "MESA-CONS", func(table *models.Table) error {
		table.Expenses = nil
		return nil
	}); err != nil {
		t.Fatalf("UpdateTable failed: %v", err)
	}

	var n int
	if err := store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM expense_consumers").Scan(&n); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected orphaned consumers to be removed, found %d", n)
	}
}
