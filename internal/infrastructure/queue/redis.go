package queue

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/greenbite/mealplanner/internal/domain/task"
	"github.com/greenbite/mealplanner/internal/ports/outbound"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisQueue stores jobs in a Redis list: LPUSH to publish, BRPOP to consume.
// A popped job belongs to the worker that popped it.
type RedisQueue struct {
	client  redis.UniversalClient
	key     string
	pollFor time.Duration
	logger  *zap.Logger
}

// NewRedisQueue creates a queue on the list named key
func NewRedisQueue(client redis.UniversalClient, key string, logger *zap.Logger) *RedisQueue {
	return &RedisQueue{
		client:  client,
		key:     "mealplanner:queue:" + key,
		pollFor: time.Second,
		logger:  logger.Named("redis-queue"),
	}
}

var _ outbound.JobQueue = (*RedisQueue)(nil)

// Publish pushes a job onto the list
func (q *RedisQueue) Publish(ctx context.Context, job task.GenerateJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, body).Err(); err != nil {
		return fmt.Errorf("failed to publish job: %w", err)
	}
	return nil
}

// Consume pops jobs until ctx is cancelled
func (q *RedisQueue) Consume(ctx context.Context, handler outbound.JobHandler) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		res, err := q.client.BRPop(ctx, q.pollFor, q.key).Result()
		if err != nil {
			if stderrors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			q.logger.Error("Failed to pop job", zap.Error(err))
			select {
			case <-time.After(q.pollFor):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		// res is [key, value]
		var job task.GenerateJob
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			q.logger.Error("Dropping malformed job", zap.Error(err))
			continue
		}
		if err := handler(ctx, job); err != nil {
			q.logger.Warn("Job handler returned error",
				zap.String("task_id", job.TaskID.String()),
				zap.Error(err),
			)
		}
	}
}

// Close is a no-op; the Redis client is shared and closed by its owner
func (q *RedisQueue) Close() error {
	return nil
}
