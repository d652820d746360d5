// Package storagetest holds behaviour tests every storage.Store backend must pass.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/racha/internal/models"
	"github.com/mmynk/racha/internal/storage"
)

// NewTable builds a populated table for round-trip checks.
func NewTable(code, name string, createdAt int64) *models.Table {
	return &models.Table{
		ID:        "id-" + code,
		Code:      code,
		Name:      name,
		CreatedAt: createdAt,
		Mode:      models.ModeSplit,
		Members: []models.Member{
			{ID: "m1", Name: "Alice", Cash: 50, Balance: 15},
			{ID: "m2", Name: "Bob", Paid: 3.5, Balance: -15},
		},
		Expenses: []models.Expense{
			{ID: code + "-e1", Item: "Beer", Value: 30, PaidBy: "m1", Consumers: []string{"m1", "m2"}, CreatedAt: createdAt},
		},
		History: []models.ClosureRecord{
			{ID: code + "-h1", Total: 30, Winner: "Alice", CreatedAt: createdAt},
		},
	}
}

// Run exercises a storage backend. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	ctx := context.Background()

	t.Run("CreateTable and GetTable round trip", func(t *testing.T) {
		store := newStore(t)
		original := NewTable("MESA-AB12", "Mesa 1", 100)

		require.NoError(t, store.CreateTable(ctx, original))

		got, err := store.GetTable(ctx, original.Code)
		require.NoError(t, err)
		assert.Equal(t, original, got)
	})

	t.Run("CreateTable rejects a taken code", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.CreateTable(ctx, NewTable("DUP-000001", "first", 1)))

		err := store.CreateTable(ctx, NewTable("DUP-000001", "second", 2))
		assert.ErrorIs(t, err, storage.ErrAlreadyExists)
	})

	t.Run("GetTable returns ErrNotFound", func(t *testing.T) {
		store := newStore(t)
		_, err := store.GetTable(ctx, "NOPE-000000")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("returned tables are copies", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.CreateTable(ctx, NewTable("COPY-000001", "copy", 1)))

		got, err := store.GetTable(ctx, "COPY-000001")
		require.NoError(t, err)
		got.Members[0].Name = "Mallory"
		got.Expenses[0].Consumers[0] = "m9"

		again, err := store.GetTable(ctx, "COPY-000001")
		require.NoError(t, err)
		assert.Equal(t, "Alice", again.Members[0].Name)
		assert.Equal(t, "m1", again.Expenses[0].Consumers[0])
	})

	t.Run("GetTableByName finds the oldest match", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.CreateTable(ctx, NewTable("NEW-000002", "Friday", 20)))
		require.NoError(t, store.CreateTable(ctx, NewTable("OLD-000001", "Friday", 10)))

		got, err := store.GetTableByName(ctx, "Friday")
		require.NoError(t, err)
		assert.Equal(t, "OLD-000001", got.Code)

		_, err = store.GetTableByName(ctx, "Saturday")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("ListTables summarises oldest first", func(t *testing.T) {
		store := newStore(t)
		empty, err := store.ListTables(ctx)
		require.NoError(t, err)
		assert.Empty(t, empty)

		second := NewTable("B-000002", "second", 20)
		second.Bar = "Boteco"
		require.NoError(t, store.CreateTable(ctx, second))
		require.NoError(t, store.CreateTable(ctx, NewTable("A-000001", "first", 10)))

		summaries, err := store.ListTables(ctx)
		require.NoError(t, err)
		assert.Equal(t, []models.TableSummary{
			{Code: "A-000001", Name: "first", CreatedAt: 10, MemberCount: 2},
			{Code: "B-000002", Name: "second", Bar: "Boteco", CreatedAt: 20, MemberCount: 2},
		}, summaries)
	})

	t.Run("UpdateTable persists changes", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.CreateTable(ctx, NewTable("UPD-000001", "upd", 1)))

		updated, err := store.UpdateTable(ctx, "UPD-000001", func(table *models.Table) error {
			table.Mode = models.ModeFree
			table.Members = append(table.Members, models.Member{ID: "m3", Name: "Carol"})
			table.Expenses = table.Expenses[:0]
			table.History = append(table.History, models.ClosureRecord{ID: "UPD-h2", Total: 0, Winner: "", CreatedAt: 2})
			return nil
		})
		require.NoError(t, err)
		assert.Len(t, updated.Members, 3)

		got, err := store.GetTable(ctx, "UPD-000001")
		require.NoError(t, err)
		assert.Equal(t, updated, got)
		assert.Equal(t, models.ModeFree, got.Mode)
		assert.Empty(t, got.Expenses)
		assert.Len(t, got.History, 2)
	})

	t.Run("UpdateTable aborts when fn fails", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.CreateTable(ctx, NewTable("ABT-000001", "abort", 1)))

		boom := errors.New("boom")
		_, err := store.UpdateTable(ctx, "ABT-000001", func(table *models.Table) error {
			table.Members = nil
			return boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := store.GetTable(ctx, "ABT-000001")
		require.NoError(t, err)
		assert.Len(t, got.Members, 2)
	})

	t.Run("UpdateTable returns ErrNotFound", func(t *testing.T) {
		store := newStore(t)
		_, err := store.UpdateTable(ctx, "NOPE-000000", func(*models.Table) error { return nil })
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("UpdateTable serialises concurrent writers", func(t *testing.T) {
		store := newStore(t)
		table := NewTable("RACE-000001", "race", 1)
		table.Members = []models.Member{}
		table.Expenses = []models.Expense{}
		require.NoError(t, store.CreateTable(ctx, table))

		const writers = 8
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := store.UpdateTable(ctx, "RACE-000001", func(table *models.Table) error {
					table.Members = append(table.Members, models.Member{ID: fmt.Sprintf("w%d", i), Name: "writer"})
					return nil
				})
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		got, err := store.GetTable(ctx, "RACE-000001")
		require.NoError(t, err)
		assert.Len(t, got.Members, writers)
	})

	t.Run("DeleteAllTables keeps accounts", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.CreateTable(ctx, NewTable("DEL-000001", "one", 1)))
		require.NoError(t, store.CreateTable(ctx, NewTable("DEL-000002", "two", 2)))
		require.NoError(t, store.CreateBar(ctx, &models.Bar{Name: "Boteco", PasswordHash: "x", CreatedAt: 1}))

		n, err := store.DeleteAllTables(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		summaries, err := store.ListTables(ctx)
		require.NoError(t, err)
		assert.Empty(t, summaries)

		_, err = store.GetBar(ctx, "Boteco")
		assert.NoError(t, err)
	})

	t.Run("bars", func(t *testing.T) {
		store := newStore(t)
		bar := &models.Bar{Name: "Boteco", Email: "oi@boteco.bar", Phone: "555", PasswordHash: "hash", CreatedAt: 7}
		require.NoError(t, store.CreateBar(ctx, bar))
		assert.ErrorIs(t, store.CreateBar(ctx, bar), storage.ErrAlreadyExists)

		got, err := store.GetBar(ctx, "Boteco")
		require.NoError(t, err)
		assert.Equal(t, bar, got)

		_, err = store.GetBar(ctx, "Nobody")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}
