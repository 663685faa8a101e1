package todos

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each todo as a JSON document under "<prefix><id>".
// It takes ownership of the client: Close closes it.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a Redis-backed todo store. Prefix may be empty.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "todo:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisStore) Put(ctx context.Context, t Todo) error {
	b, err := json.Marshal(t.normalize())
	if err != nil {
		return storeErr("put", err)
	}
	return storeErr("put", s.client.Set(ctx, s.key(t.ID), b, 0).Err())
}

func (s *RedisStore) Get(ctx context.Context, id string) (Todo, bool, error) {
	b, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Todo{}, false, nil
	}
	if err != nil {
		return Todo{}, false, storeErr("get", err)
	}
	t, err := decodeTodo(b)
	if err != nil {
		return Todo{}, false, storeErr("get", err)
	}
	return t, true, nil
}

func (s *RedisStore) Scan(ctx context.Context) ([]Todo, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, storeErr("scan", err)
	}

	out := []Todo{}
	if len(keys) == 0 {
		return out, nil
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, storeErr("scan", err)
	}
	for _, v := range vals {
		// a key removed between SCAN and MGET comes back nil
		str, ok := v.(string)
		if !ok {
			continue
		}
		t, err := decodeTodo([]byte(str))
		if err != nil {
			return nil, storeErr("scan", err)
		}
		out = append(out, t)
	}
	sortTodos(out)
	return out, nil
}

// Update is an optimistic compare-and-swap: the key is watched while it is
// read, patched and written back. A concurrent write aborts the transaction
// with redis.TxFailedErr, which is reported rather than retried.
func (s *RedisStore) Update(ctx context.Context, id string, p Patch) (Todo, error) {
	key := s.key(id)
	var updated Todo
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		b, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		t, err := decodeTodo(b)
		if err != nil {
			return err
		}
		p.apply(&t)
		nb, err := json.Marshal(t)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, nb, 0)
			return nil
		})
		if err != nil {
			return err
		}
		updated = t
		return nil
	}, key)
	if err != nil {
		return Todo{}, storeErr("update", err)
	}
	return updated, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return storeErr("delete", s.client.Del(ctx, s.key(id)).Err())
}

func (s *RedisStore) Close() error { return s.client.Close() }

func decodeTodo(b []byte) (Todo, error) {
	var t Todo
	if err := json.Unmarshal(b, &t); err != nil {
		return Todo{}, err
	}
	return t.normalize(), nil
}
