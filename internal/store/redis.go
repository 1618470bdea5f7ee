package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/cardroom/cardroom/internal/game"
)

// Redis is the production Store. The session snapshot lives in one value
// next to a version counter; a Lua script compares and swaps both
// atomically, which is what makes the conditional-write guard real across
// processes.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis-backed store.
func NewRedis(addr, password string, db int) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// Ping verifies connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

func sessionKey(room string) string { return "cardroom:" + room + ":session" }
func versionKey(room string) string { return "cardroom:" + room + ":version" }
func actionsKey(room string) string { return "cardroom:" + room + ":actions" }
func notifyKey(room string) string  { return "cardroom:" + room + ":notify" }
func leaseKey(room string) string   { return "cardroom:" + room + ":lease" }

var createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[2]) == 1 then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1])
redis.call('SET', KEYS[2], 1)
return 1
`)

var updateScript = redis.NewScript(`
local ver = redis.call('GET', KEYS[2])
if not ver then
	return -1
end
if ver ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2])
redis.call('INCR', KEYS[2])
redis.call('PUBLISH', KEYS[3], ARGV[2])
return 1
`)

var acquireScript = redis.NewScript(`
local owner = redis.call('GET', KEYS[1])
if owner == false or owner == ARGV[1] then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
	return 1
end
return 0
`)

var renewScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	redis.call('PEXPIRE', KEYS[1], ARGV[2])
	return 1
end
return 0
`)

var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	redis.call('DEL', KEYS[1])
end
return 1
`)

func (r *Redis) Create(ctx context.Context, sess *game.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	created, err := createScript.Run(ctx, r.client,
		[]string{sessionKey(sess.Room), versionKey(sess.Room)}, data).Int()
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	if created == 0 {
		return fmt.Errorf("room %s already exists", sess.Room)
	}
	return nil
}

func (r *Redis) Load(ctx context.Context, room string) (*game.Session, int64, error) {
	pipe := r.client.Pipeline()
	dataCmd := pipe.Get(ctx, sessionKey(room))
	verCmd := pipe.Get(ctx, versionKey(room))
	if _, err := pipe.Exec(ctx); err != nil {
		if err == redis.Nil {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("loading session: %w", err)
	}

	var sess game.Session
	if err := json.Unmarshal([]byte(dataCmd.Val()), &sess); err != nil {
		return nil, 0, fmt.Errorf("decoding session: %w", err)
	}
	version, err := verCmd.Int64()
	if err != nil {
		return nil, 0, fmt.Errorf("decoding version: %w", err)
	}
	return &sess, version, nil
}

func (r *Redis) Update(ctx context.Context, room string, expect int64, sess *game.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	result, err := updateScript.Run(ctx, r.client,
		[]string{sessionKey(room), versionKey(room), notifyKey(room)},
		expect, data).Int()
	if err != nil {
		return fmt.Errorf("updating session: %w", err)
	}
	switch result {
	case -1:
		return ErrNotFound
	case 0:
		return ErrConflict
	default:
		return nil
	}
}

func (r *Redis) AppendAction(ctx context.Context, record game.ActionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding action: %w", err)
	}
	if err := r.client.RPush(ctx, actionsKey(record.Room), data).Err(); err != nil {
		return fmt.Errorf("appending action: %w", err)
	}
	return nil
}

func (r *Redis) Actions(ctx context.Context, room string) ([]game.ActionRecord, error) {
	raw, err := r.client.LRange(ctx, actionsKey(room), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading action log: %w", err)
	}
	records := make([]game.ActionRecord, 0, len(raw))
	for _, item := range raw {
		var record game.ActionRecord
		if err := json.Unmarshal([]byte(item), &record); err != nil {
			return nil, fmt.Errorf("decoding action: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}

func (r *Redis) Watch(ctx context.Context, room string) (<-chan struct{}, error) {
	sub := r.client.Subscribe(ctx, notifyKey(room))
	if _, err := sub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", room, err)
	}

	ch := make(chan struct{}, 1)
	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-sub.Channel():
				if !ok {
					return
				}
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()
	return ch, nil
}

func (r *Redis) AcquireLease(ctx context.Context, room, clientID string, ttl time.Duration) (bool, error) {
	ok, err := acquireScript.Run(ctx, r.client,
		[]string{leaseKey(room)}, clientID, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("acquiring lease: %w", err)
	}
	return ok == 1, nil
}

func (r *Redis) RenewLease(ctx context.Context, room, clientID string, ttl time.Duration) (bool, error) {
	ok, err := renewScript.Run(ctx, r.client,
		[]string{leaseKey(room)}, clientID, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("renewing lease: %w", err)
	}
	return ok == 1, nil
}

func (r *Redis) ReleaseLease(ctx context.Context, room, clientID string) error {
	if err := releaseScript.Run(ctx, r.client, []string{leaseKey(room)}, clientID).Err(); err != nil {
		return fmt.Errorf("releasing lease: %w", err)
	}
	return nil
}
