package redis

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/racha/internal/storage"
	"github.com/mmynk/racha/internal/storage/storagetest"
)

// setupTestRedis creates a miniredis server and a store on top of it.
func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := New(client, "test")
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestRedisStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		store, _ := setupTestRedis(t)
		return store
	})
}

func TestRedisStore_KeyLayout(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.CreateTable(ctx, storagetest.NewTable("MESA-KEYS01", "keys", 5)))

	assert.True(t, mr.Exists("test:table:MESA-KEYS01"))
	members, err := mr.ZMembers("test:tables")
	require.NoError(t, err)
	assert.Equal(t, []string{"MESA-KEYS01"}, members)
}

func TestRedisStore_DuplicateCodeLeavesIndexAlone(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.CreateTable(ctx, storagetest.NewTable("MESA-DUP001", "first", 5)))
	err := store.CreateTable(ctx, storagetest.NewTable("MESA-DUP001", "second", 9))
	require.ErrorIs(t, err, storage.ErrAlreadyExists)

	got, err := store.GetTable(ctx, "MESA-DUP001")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Name)
	score, err := mr.ZScore("test:tables", "MESA-DUP001")
	require.NoError(t, err)
	assert.Equal(t, 5.0, score)
}

func TestRedisStore_CreateDuringDeleteAllKeepsIndex(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, store.CreateTable(ctx, storagetest.NewTable(fmt.Sprintf("MESA-OLD%03d", i), "", int64(i))))
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			assert.NoError(t, store.CreateTable(ctx, storagetest.NewTable(fmt.Sprintf("MESA-NEW%03d", i), "", int64(100+i))))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 5; i++ {
			_, err := store.DeleteAllTables(ctx)
			assert.NoError(t, err)
		}
	}()
	wg.Wait()

	indexed := map[string]bool{}
	if mr.Exists("test:tables") {
		members, err := mr.ZMembers("test:tables")
		require.NoError(t, err)
		for _, code := range members {
			indexed[code] = true
			assert.True(t, mr.Exists("test:table:"+code), "index entry %s has no table", code)
		}
	}
	for _, key := range mr.Keys() {
		if code, ok := strings.CutPrefix(key, "test:table:"); ok {
			assert.True(t, indexed[code], "table %s is missing from the index", code)
		}
	}

	summaries, err := store.ListTables(ctx)
	require.NoError(t, err)
	assert.Len(t, summaries, len(indexed))
}

func TestRedisStore_StorageErrorsSurface(t *testing.T) {
	store, mr := setupTestRedis(t)
	mr.Close()

	_, err := store.GetTable(context.Background(), "MESA-DOWN00")
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrNotFound)
}

func TestDial(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := Dial(context.Background(), mr.Addr(), "", 0, "")
	require.NoError(t, err)
	defer store.Close()
	assert.Equal(t, "racha", store.prefix)

	mr.Close()
	_, err = Dial(context.Background(), mr.Addr(), "", 0, "racha")
	assert.Error(t, err)
}
