package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each calculation as a JSON value under <prefix>:calc:<id>
// and orders them with a sorted set at <prefix> scored by save sequence.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to the Redis server at addr.
func NewRedisStore(addr, password string, db int, prefix string) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedisStoreFromClient(rdb, prefix)
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// Ping checks that the server is reachable.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the client connections.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) indexKey() string {
	return r.prefix
}

func (r *RedisStore) sequenceKey() string {
	return r.prefix + ":seq"
}

func (r *RedisStore) calcKey(id string) string {
	return r.prefix + ":calc:" + id
}

// Save stores calc and moves it to the front of the index.
func (r *RedisStore) Save(ctx context.Context, calc Calculation) error {
	data, err := json.Marshal(calc)
	if err != nil {
		return fmt.Errorf("failed to encode calculation %d: %w", calc.ID, err)
	}

	seq, err := r.client.Incr(ctx, r.sequenceKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to allocate save sequence: %w", err)
	}

	member := strconv.FormatInt(calc.ID, 10)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.calcKey(member), data, 0)
		pipe.ZAdd(ctx, r.indexKey(), redis.Z{Score: float64(seq), Member: member})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save calculation %d: %w", calc.ID, err)
	}
	return nil
}

// Get returns the calculation with the given id.
func (r *RedisStore) Get(ctx context.Context, id int64) (Calculation, error) {
	val, err := r.client.Get(ctx, r.calcKey(strconv.FormatInt(id, 10))).Result()
	if errors.Is(err, redis.Nil) {
		return Calculation{}, ErrNotFound
	}
	if err != nil {
		return Calculation{}, fmt.Errorf("failed to get calculation %d: %w", id, err)
	}

	var calc Calculation
	if err := json.Unmarshal([]byte(val), &calc); err != nil {
		return Calculation{}, fmt.Errorf("failed to decode calculation %d: %w", id, err)
	}
	return calc, nil
}

// List returns all calculations, newest first.
func (r *RedisStore) List(ctx context.Context) ([]Calculation, error) {
	ids, err := r.client.ZRevRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read calculation index: %w", err)
	}
	if len(ids) == 0 {
		return []Calculation{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.calcKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read calculations: %w", err)
	}

	calcs := make([]Calculation, 0, len(values))
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			// Index entry without a value; skip it.
			continue
		}
		var calc Calculation
		if err := json.Unmarshal([]byte(raw), &calc); err != nil {
			return nil, fmt.Errorf("failed to decode calculation %s: %w", ids[i], err)
		}
		calcs = append(calcs, calc)
	}
	return calcs, nil
}

// Delete removes the calculation with the given id.
func (r *RedisStore) Delete(ctx context.Context, id int64) error {
	member := strconv.FormatInt(id, 10)
	var removed *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.ZRem(ctx, r.indexKey(), member)
		pipe.Del(ctx, r.calcKey(member))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete calculation %d: %w", id, err)
	}
	if removed.Val() == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear removes every calculation and the index.
func (r *RedisStore) Clear(ctx context.Context) error {
	ids, err := r.client.ZRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to read calculation index: %w", err)
	}
	keys := []string{r.indexKey(), r.sequenceKey()}
	for _, id := range ids {
		keys = append(keys, r.calcKey(id))
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to clear calculations: %w", err)
	}
	return nil
}

// Trim keeps the newest keep calculations.
func (r *RedisStore) Trim(ctx context.Context, keep int) (int, error) {
	keep = max(keep, 0)
	stale, err := r.client.ZRevRange(ctx, r.indexKey(), int64(keep), -1).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read calculation index: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	keys := make([]string, len(stale))
	members := make([]interface{}, len(stale))
	for i, id := range stale {
		keys[i] = r.calcKey(id)
		members[i] = id
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, r.indexKey(), members...)
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to trim calculations: %w", err)
	}
	return len(stale), nil
}
