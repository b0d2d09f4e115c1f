package repo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"trash-notify/internal/cache"
	"trash-notify/internal/weekly"
)

// DefaultRedisPrefix namespaces record keys.
const DefaultRedisPrefix = "trash-disposal-notification:"

// RedisStore keeps each user record in a Redis hash named prefix+id.
type RedisStore struct {
	redis  *cache.Redis
	prefix string
	logger *slog.Logger
	codec  codec
}

// NewRedis returns a store backed by the given Redis client.
func NewRedis(client *cache.Redis, prefix string, loc *time.Location, logger *slog.Logger) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{
		redis:  client,
		prefix: prefix,
		logger: logger.With("component", "repo_redis"),
		codec:  newCodec(loc),
	}
}

func (r *RedisStore) key(id string) string {
	return r.prefix + id
}

// Close releases the Redis connection.
func (r *RedisStore) Close() {
	if err := r.redis.Close(); err != nil {
		r.logger.Warn("failed closing redis", "error", err)
	}
}

// Ping verifies Redis connectivity.
func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.redis.Ping(ctx); err != nil {
		return unavailable("ping redis", err)
	}
	return nil
}

// Get returns the record for id or ErrNotFound.
func (r *RedisStore) Get(ctx context.Context, id string) (*weekly.Record, error) {
	fields, err := r.redis.HashGetAll(ctx, r.key(id))
	if err != nil {
		return nil, unavailable("get record", err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	return r.decode(fields)
}

// Put writes every attribute of rec.
func (r *RedisStore) Put(ctx context.Context, rec *weekly.Record) error {
	it := r.codec.item(rec)
	setting, err := encodeSetting(it.Setting)
	if err != nil {
		return err
	}
	fields := map[string]any{
		"id":      it.ID,
		"name":    it.Name,
		"setting": setting,
		"state":   it.State,
		"create":  it.Create,
	}
	if err := r.redis.HashSet(ctx, r.key(rec.ID), fields); err != nil {
		return unavailable("put record", err)
	}
	return nil
}

// UpdateField rewrites a single attribute of an existing record.
func (r *RedisStore) UpdateField(ctx context.Context, id string, field Field, value any) error {
	encoded, err := encodeField(field, value)
	if err != nil {
		return err
	}
	found, err := r.redis.HashSetExisting(ctx, r.key(id), string(field), encoded)
	if err != nil {
		return unavailable("update "+string(field), err)
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

// Delete removes the record for id.
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.redis.Delete(ctx, r.key(id)); err != nil {
		return unavailable("delete record", err)
	}
	return nil
}

// ListAll scans every record key under the prefix.
func (r *RedisStore) ListAll(ctx context.Context) ([]weekly.Record, error) {
	keys, err := r.redis.ScanKeys(ctx, scanPattern(r.prefix))
	if err != nil {
		return nil, unavailable("list records", err)
	}

	records := make([]weekly.Record, 0, len(keys))
	for _, key := range keys {
		if !strings.HasPrefix(key, r.prefix) {
			continue
		}
		fields, err := r.redis.HashGetAll(ctx, key)
		if err != nil {
			return nil, unavailable("list records", err)
		}
		if len(fields) == 0 {
			// Deleted between SCAN and HGETALL.
			continue
		}
		rec, err := r.decode(fields)
		if err != nil {
			r.logger.Warn("skipping undecodable record", "key", key, "error", err)
			continue
		}
		records = append(records, *rec)
	}
	return records, nil
}

func (r *RedisStore) decode(fields map[string]string) (*weekly.Record, error) {
	notes, err := decodeSetting(fields["setting"])
	if err != nil {
		return nil, err
	}
	id := fields["id"]
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("record without id")
	}
	return r.codec.record(Item{
		ID:      id,
		Name:    fields["name"],
		Setting: notes,
		State:   fields["state"],
		Create:  fields["create"],
	})
}

// scanPattern matches every key starting with prefix. Glob metacharacters
// in prefix are escaped so they match literally.
func scanPattern(prefix string) string {
	var b strings.Builder
	for _, c := range prefix {
		switch c {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	b.WriteByte('*')
	return b.String()
}
