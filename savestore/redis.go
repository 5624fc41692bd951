package savestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "storycore:save:"
	indexKey  = "storycore:saves"
)

// RedisStore keeps each blob in a hash under storycore:save:<slot> and
// the slot names in the storycore:saves set.
type RedisStore struct {
	client *redis.Client
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects using a redis:// URL and pings the server.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	s := &RedisStore{client: redis.NewClient(opts)}
	if err := s.client.Ping(ctx).Err(); err != nil {
		s.client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return s, nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, slot, blob string) error {
	if err := ValidateSlot(slot); err != nil {
		return err
	}
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, keyPrefix+slot,
			"blob", blob,
			"updated_at", time.Now().UTC().UnixMilli(),
		)
		p.SAdd(ctx, indexKey, slot)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", slot, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, slot string) (string, error) {
	if err := ValidateSlot(slot); err != nil {
		return "", err
	}
	blob, err := s.client.HGet(ctx, keyPrefix+slot, "blob").Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("%s: %w", slot, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to load %s: %w", slot, err)
	}
	return blob, nil
}

func (s *RedisStore) List(ctx context.Context) ([]Entry, error) {
	slots, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}
	sort.Strings(slots)
	out := make([]Entry, 0, len(slots))
	for _, slot := range slots {
		fields, err := s.client.HGetAll(ctx, keyPrefix+slot).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to list saves: %w", err)
		}
		blob, ok := fields["blob"]
		if !ok {
			// Index entry outlived its hash.
			continue
		}
		ms, _ := strconv.ParseInt(fields["updated_at"], 10, 64)
		out = append(out, Entry{
			Slot:      slot,
			Size:      len(blob),
			UpdatedAt: time.UnixMilli(ms).UTC(),
		})
	}
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, slot string) error {
	if err := ValidateSlot(slot); err != nil {
		return err
	}
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		del = p.Del(ctx, keyPrefix+slot)
		p.SRem(ctx, indexKey, slot)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", slot, err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("%s: %w", slot, ErrNotFound)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
