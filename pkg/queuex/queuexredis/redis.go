package queuexredis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/Abraxas-365/workgate/pkg/queuex"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisBackend implements queuex.Backend backed by Redis. Ready tasks live in
// a list, delayed tasks in a sorted set scored by their due time, and the
// task body in a plain key that Ack deletes.
type RedisBackend struct {
	rdb *redis.Client
}

// NewRedisBackend creates a new Redis-backed queue.
func NewRedisBackend(rdb *redis.Client) *RedisBackend {
	return &RedisBackend{rdb: rdb}
}

// Key helpers
func queueKey(name string) string     { return fmt.Sprintf("queuex:queue:%s", name) }
func scheduledKey(name string) string { return fmt.Sprintf("queuex:scheduled:%s", name) }
func taskKey(id string) string        { return fmt.Sprintf("queuex:task:%s", id) }

// Enqueue adds a task to the ready queue immediately.
func (q *RedisBackend) Enqueue(ctx context.Context, task queuex.Task) (string, error) {
	id, data, err := marshalTask(task)
	if err != nil {
		return "", err
	}

	pipe := q.rdb.Pipeline()
	pipe.Set(ctx, taskKey(id), data, 0)
	pipe.LPush(ctx, queueKey(task.Queue), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", redisErrors.NewWithCause(ErrEnqueue, err).WithDetail("queue", task.Queue)
	}

	return id, nil
}

// EnqueueIn adds a task to the scheduled set with a future ready time.
func (q *RedisBackend) EnqueueIn(ctx context.Context, task queuex.Task, delay time.Duration) (string, error) {
	id, data, err := marshalTask(task)
	if err != nil {
		return "", err
	}

	score := float64(time.Now().UTC().Add(delay).Unix())

	pipe := q.rdb.Pipeline()
	pipe.Set(ctx, taskKey(id), data, 0)
	pipe.ZAdd(ctx, scheduledKey(task.Queue), redis.Z{Score: score, Member: id})
	if _, err := pipe.Exec(ctx); err != nil {
		return "", redisErrors.NewWithCause(ErrEnqueue, err).
			WithDetail("queue", task.Queue).
			WithDetail("delay", delay.String())
	}

	return id, nil
}

// Dequeue blocks until a task is available from one of the given queues or the timeout expires.
func (q *RedisBackend) Dequeue(ctx context.Context, queues []string, timeout time.Duration) (*queuex.TaskInfo, error) {
	keys := make([]string, len(queues))
	for i, name := range queues {
		keys[i] = queueKey(name)
	}

	result, err := q.rdb.BRPop(ctx, timeout, keys...).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // timeout, no task
		}
		if ctx.Err() != nil {
			return nil, nil // context cancelled
		}
		return nil, redisErrors.NewWithCause(ErrDequeue, err)
	}

	// result[0] = key, result[1] = task ID
	taskID := result[1]

	data, err := q.rdb.Get(ctx, taskKey(taskID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			// Body already gone; nothing to process.
			return nil, nil
		}
		return nil, redisErrors.NewWithCause(ErrDequeue, err).WithDetail("task_id", taskID)
	}

	var info queuex.TaskInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, redisErrors.NewWithCause(ErrUnmarshal, err).WithDetail("task_id", taskID)
	}

	return &info, nil
}

// Ack deletes the task body. Safe to call more than once.
func (q *RedisBackend) Ack(ctx context.Context, taskID string) error {
	if err := q.rdb.Del(ctx, taskKey(taskID)).Err(); err != nil {
		return redisErrors.NewWithCause(ErrAck, err).WithDetail("task_id", taskID)
	}
	return nil
}

// PromoteScheduled moves tasks whose scheduled time has passed from the sorted
// set to the ready queue. Uses a Lua script for atomicity.
var promoteScript = redis.NewScript(`
local scheduled_key = KEYS[1]
local queue_key = KEYS[2]
local now = tonumber(ARGV[1])
local ids = redis.call('ZRANGEBYSCORE', scheduled_key, '-inf', now)
if #ids > 0 then
    for _, id in ipairs(ids) do
        redis.call('LPUSH', queue_key, id)
    end
    redis.call('ZREMRANGEBYSCORE', scheduled_key, '-inf', now)
end
return #ids
`)

func (q *RedisBackend) PromoteScheduled(ctx context.Context, queues []string) error {
	now := strconv.FormatInt(time.Now().UTC().Unix(), 10)

	for _, name := range queues {
		err := promoteScript.Run(ctx, q.rdb,
			[]string{scheduledKey(name), queueKey(name)},
			now,
		).Err()

		if err != nil && err != redis.Nil {
			return redisErrors.NewWithCause(ErrPromote, err).WithDetail("queue", name)
		}
	}

	return nil
}

func marshalTask(task queuex.Task) (string, []byte, error) {
	if task.Type == "" {
		return "", nil, redisErrors.New(ErrInvalidTask).WithDetail("reason", "task type is empty")
	}

	id := uuid.New().String()
	info := queuex.TaskInfo{
		ID:         id,
		Type:       task.Type,
		Queue:      task.Queue,
		Payload:    task.Payload,
		EnqueuedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(info)
	if err != nil {
		return "", nil, redisErrors.NewWithCause(ErrMarshal, err)
	}
	return id, data, nil
}
