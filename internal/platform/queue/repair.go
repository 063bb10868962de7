package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RepairTask asks the repair worker to re-run the blob-write/presign steps
// for a record whose metadata row exists but whose content link is stale or
// empty. Content is never carried in the task; a repair can only reuse a
// blob that already landed, or be resubmitted by the caller with files.
type RepairTask struct {
	Kind    string `json:"kind"`
	ID      string `json:"id"`
	Retries int    `json:"retries"`
}

// RepairQueue is a Redis list used as a work queue, producer on the left,
// worker blocking on the right.
type RepairQueue struct {
	rdb  *redis.Client
	name string
}

func NewRepairQueue(rdb *redis.Client, name string) *RepairQueue {
	return &RepairQueue{rdb: rdb, name: name}
}

func (q *RepairQueue) Enqueue(ctx context.Context, task RepairTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal repair task: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.name, payload).Err(); err != nil {
		return fmt.Errorf("enqueue repair task: %w", err)
	}
	return nil
}

// Dequeue blocks up to timeout. It returns (nil, nil) when the queue stayed
// empty so the worker loop can poll again without treating it as a failure.
func (q *RepairQueue) Dequeue(ctx context.Context, timeout time.Duration) (*RepairTask, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.name).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dequeue repair task: %w", err)
	}
	// BRPOP returns [key, value]
	var task RepairTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		return nil, fmt.Errorf("decode repair task: %w", err)
	}
	return &task, nil
}
