// Package redis provides a Redis-backed implementation of storage.Store.
// It lets several server instances share one ledger.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mmynk/racha/internal/models"
	"github.com/mmynk/racha/internal/storage"
)

// Ensure RedisStore implements storage.Store
var _ storage.Store = (*RedisStore)(nil)

// maxUpdateAttempts bounds optimistic retries when another writer touches the
// same table between WATCH and EXEC.
const maxUpdateAttempts = 50

// createTableScript writes a table and its index entry together, or neither
// when the code is taken.
//
//	KEYS[1] table key, KEYS[2] index key
//	ARGV[1] encoded table, ARGV[2] created_at, ARGV[3] code
var createTableScript = redis.NewScript(`
if not redis.call('SET', KEYS[1], ARGV[1], 'NX') then
	return 0
end
redis.call('ZADD', KEYS[2], ARGV[2], ARGV[3])
return 1
`)

// RedisStore implements storage.Store on top of Redis.
//
// Layout, with prefix P:
//
//	P:table:<code>  JSON encoded table
//	P:tables        sorted set of codes scored by created_at
//	P:bar:<name>    JSON encoded account
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// barRecord is the stored form of an account. models.Bar hides the hash from JSON.
type barRecord struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	PasswordHash string `json:"password_hash"`
	CreatedAt    int64  `json:"created_at"`
}

// New wraps an existing client. prefix namespaces every key.
func New(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "racha"
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Dial connects to addr and verifies the connection with PING.
func Dial(ctx context.Context, addr, password string, db int, prefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return New(client, prefix), nil
}

// Client exposes the underlying client so the notifier can share the connection.
func (s *RedisStore) Client() redis.UniversalClient {
	return s.client
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) tableKey(code string) string { return s.prefix + ":table:" + code }
func (s *RedisStore) indexKey() string            { return s.prefix + ":tables" }
func (s *RedisStore) barKey(name string) string   { return s.prefix + ":bar:" + name }

// CreateTable stores a new table unless the code is taken.
func (s *RedisStore) CreateTable(ctx context.Context, table *models.Table) error {
	data, err := json.Marshal(table.Clone())
	if err != nil {
		return fmt.Errorf("failed to encode table: %w", err)
	}

	keys := []string{s.tableKey(table.Code), s.indexKey()}
	created, err := createTableScript.Run(ctx, s.client, keys, data, table.CreatedAt, table.Code).Int()
	if err != nil {
		return fmt.Errorf("failed to insert table: %w", err)
	}
	if created == 0 {
		return fmt.Errorf("%w: table %s", storage.ErrAlreadyExists, table.Code)
	}
	return nil
}

// GetTable loads a table by code.
func (s *RedisStore) GetTable(ctx context.Context, code string) (*models.Table, error) {
	data, err := s.client.Get(ctx, s.tableKey(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: table %s", storage.ErrNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get table: %w", err)
	}
	return decodeTable(data)
}

// GetTableByName scans tables oldest first and returns the first name match.
func (s *RedisStore) GetTableByName(ctx context.Context, name string) (*models.Table, error) {
	tables, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, table := range tables {
		if table.Name == name {
			return table, nil
		}
	}
	return nil, fmt.Errorf("%w: table named %q", storage.ErrNotFound, name)
}

// ListTables returns summaries oldest first.
func (s *RedisStore) ListTables(ctx context.Context) ([]models.TableSummary, error) {
	tables, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]models.TableSummary, len(tables))
	for i, table := range tables {
		summaries[i] = table.Summary()
	}
	return summaries, nil
}

// UpdateTable applies fn inside a WATCH/MULTI transaction, retrying when a
// concurrent writer wins the race.
func (s *RedisStore) UpdateTable(ctx context.Context, code string, fn storage.UpdateFunc) (*models.Table, error) {
	key := s.tableKey(code)
	var result *models.Table

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("%w: table %s", storage.ErrNotFound, code)
		}
		if err != nil {
			return fmt.Errorf("failed to get table: %w", err)
		}

		table, err := decodeTable(data)
		if err != nil {
			return err
		}
		if err := fn(table); err != nil {
			return err
		}
		table.Code = code

		encoded, err := json.Marshal(table)
		if err != nil {
			return fmt.Errorf("failed to encode table: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, 0)
			return nil
		})
		if err != nil {
			return err
		}
		result = table
		return nil
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("failed to update table %s: too much contention", code)
}

// DeleteAllTables removes every indexed table. The index is watched so a
// table created meanwhile either goes too or survives with its index entry.
func (s *RedisStore) DeleteAllTables(ctx context.Context) (int, error) {
	index := s.indexKey()
	var deleted int

	txf := func(tx *redis.Tx) error {
		codes, err := tx.ZRange(ctx, index, 0, -1).Result()
		if err != nil {
			return fmt.Errorf("failed to list tables: %w", err)
		}

		keys := make([]string, 0, len(codes)+1)
		for _, code := range codes {
			keys = append(keys, s.tableKey(code))
		}
		keys = append(keys, index)

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, keys...)
			return nil
		})
		if err != nil {
			return err
		}
		deleted = len(codes)
		return nil
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, index)
		if err == nil {
			return deleted, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return 0, err
	}
	return 0, errors.New("failed to delete tables: too much contention")
}

// CreateBar stores a new account unless the name is taken.
func (s *RedisStore) CreateBar(ctx context.Context, bar *models.Bar) error {
	data, err := json.Marshal(barRecord{
		Name:         bar.Name,
		Email:        bar.Email,
		Phone:        bar.Phone,
		PasswordHash: bar.PasswordHash,
		CreatedAt:    bar.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode bar: %w", err)
	}

	created, err := s.client.SetNX(ctx, s.barKey(bar.Name), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to create bar: %w", err)
	}
	if !created {
		return fmt.Errorf("%w: bar %s", storage.ErrAlreadyExists, bar.Name)
	}
	return nil
}

// GetBar loads an account by name.
func (s *RedisStore) GetBar(ctx context.Context, name string) (*models.Bar, error) {
	data, err := s.client.Get(ctx, s.barKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: bar %s", storage.ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bar: %w", err)
	}

	var record barRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode bar: %w", err)
	}
	return &models.Bar{
		Name:         record.Name,
		Email:        record.Email,
		Phone:        record.Phone,
		PasswordHash: record.PasswordHash,
		CreatedAt:    record.CreatedAt,
	}, nil
}

// loadAll returns every indexed table ordered by creation time, then code.
func (s *RedisStore) loadAll(ctx context.Context) ([]*models.Table, error) {
	codes, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	if len(codes) == 0 {
		return []*models.Table{}, nil
	}

	keys := make([]string, len(codes))
	for i, code := range codes {
		keys[i] = s.tableKey(code)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load tables: %w", err)
	}

	tables := make([]*models.Table, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Deleted between ZRANGE and MGET
			continue
		}
		table, err := decodeTable([]byte(raw))
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, nil
}

func decodeTable(data []byte) (*models.Table, error) {
	var table models.Table
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to decode table: %w", err)
	}
	return table.Clone(), nil
}
