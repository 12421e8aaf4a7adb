package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPollTimeout = time.Second

// RedisQueue is a Queue on a Redis list: LPUSH to publish, BRPOP to receive.
// Intents survive a process restart.
type RedisQueue struct {
	client      *redis.Client
	key         string
	pollTimeout time.Duration
	closed      atomic.Bool
}

type RedisOptions struct {
	Addr        string
	Password    string
	DB          int
	Key         string
	PollTimeout time.Duration
}

func NewRedisQueue(opts RedisOptions) *RedisQueue {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	pollTimeout := opts.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = defaultPollTimeout
	}
	return &RedisQueue{client: client, key: opts.Key, pollTimeout: pollTimeout}
}

// Ping checks the connection.
func (q *RedisQueue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

func (q *RedisQueue) Publish(ctx context.Context, intent Intent) error {
	if q.closed.Load() {
		return ErrQueueClosed
	}
	payload, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("encode intent: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("push intent: %w", err)
	}
	return nil
}

func (q *RedisQueue) Receive(ctx context.Context) (Intent, error) {
	for {
		if q.closed.Load() {
			return Intent{}, ErrQueueClosed
		}
		if err := ctx.Err(); err != nil {
			return Intent{}, err
		}
		result, err := q.client.BRPop(ctx, q.pollTimeout, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return Intent{}, ctx.Err()
			}
			if q.closed.Load() {
				return Intent{}, ErrQueueClosed
			}
			return Intent{}, fmt.Errorf("pop intent: %w", err)
		}
		// result is [key, value]
		var intent Intent
		if err := json.Unmarshal([]byte(result[1]), &intent); err != nil {
			return Intent{}, fmt.Errorf("decode intent: %w", err)
		}
		return intent, nil
	}
}

func (q *RedisQueue) Close() error {
	if q.closed.Swap(true) {
		return nil
	}
	return q.client.Close()
}
