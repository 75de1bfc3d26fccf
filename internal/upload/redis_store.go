package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "upload:session:"

// RedisStore keeps session metadata in a hash field "meta" and received chunk
// indexes in a companion set, both expiring with the session TTL.
type RedisStore struct {
	rdb goredis.Cmdable
}

func NewRedisStore(rdb goredis.Cmdable) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func metaKey(id string) string   { return redisKeyPrefix + id }
func chunksKey(id string) string { return redisKeyPrefix + id + ":chunks" }

func (r *RedisStore) Create(ctx context.Context, s *Session, ttl time.Duration) error {
	meta := *s
	meta.Received = nil
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, metaKey(s.ID), data, ttl)
	pipe.Del(ctx, chunksKey(s.ID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := r.rdb.Get(ctx, metaKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	members, err := r.rdb.SMembers(ctx, chunksKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("load received chunks: %w", err)
	}
	s.Received = make([]bool, s.TotalChunks)
	for _, m := range members {
		if idx, err := strconv.Atoi(m); err == nil && idx >= 0 && idx < s.TotalChunks {
			s.Received[idx] = true
		}
	}
	return &s, nil
}

func (r *RedisStore) MarkReceived(ctx context.Context, id string, index int) (*Session, error) {
	s, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= s.TotalChunks {
		return nil, ErrChunkOutOfRange
	}
	ttl, err := r.rdb.TTL(ctx, metaKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("session ttl: %w", err)
	}
	pipe := r.rdb.TxPipeline()
	pipe.SAdd(ctx, chunksKey(id), strconv.Itoa(index))
	if ttl > 0 {
		pipe.Expire(ctx, chunksKey(id), ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("mark chunk: %w", err)
	}
	s.Received[index] = true
	return s, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, metaKey(id), chunksKey(id)).Err()
}

// ConnectRedis parses a redis:// URL and verifies the connection.
func ConnectRedis(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}
