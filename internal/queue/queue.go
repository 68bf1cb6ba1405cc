package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultKey = "jobs:pending"

// Queue is a redis-list job queue. Producers LPUSH envelopes, the
// worker BRPOPs them, so delivery order is FIFO per list.
type Queue struct {
	rdb *redis.Client
	key string
}

func New(rdb *redis.Client) *Queue {
	return &Queue{rdb: rdb, key: defaultKey}
}

// Enqueue validates the payload against the job type and pushes a fresh
// envelope.
func (q *Queue) Enqueue(ctx context.Context, t JobType, payload any) (Job, error) {
	b, err := EncodePayload(t, payload)

	if err != nil {
		return Job{}, err
	}

	j := Job{
		ID:         uuid.NewString(),
		Type:       t,
		Payload:    b,
		EnqueuedAt: time.Now().UTC(),
	}

	return j, q.push(ctx, j)
}

// Requeue puts an already-built envelope back on the list. The worker
// uses it for retries, with Attempts already incremented.
func (q *Queue) Requeue(ctx context.Context, j Job) error {
	return q.push(ctx, j)
}

func (q *Queue) push(ctx context.Context, j Job) error {
	raw, err := json.Marshal(j)

	if err != nil {
		return err
	}

	return q.rdb.LPush(ctx, q.key, raw).Err()
}

// Dequeue blocks up to timeout for the next job. ok is false when the
// wait timed out with nothing to do.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (j Job, ok bool, err error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.key).Result()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Job{}, false, nil
		}
		return Job{}, false, err
	}

	// BRPOP returns [key, value]
	if len(res) != 2 {
		return Job{}, false, ErrInvalidJobPayload
	}

	if err := json.Unmarshal([]byte(res[1]), &j); err != nil {
		return Job{}, false, ErrInvalidJobPayload
	}

	return j, true, nil
}

// Len reports the number of pending jobs.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.key).Result()
}
