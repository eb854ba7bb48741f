package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// QueueMediaCleanup is the Redis list key for media object cleanup jobs.
	QueueMediaCleanup = "worker:media_cleanup"
	// QueueDLQ is the dead-letter queue for failed jobs after retries.
	QueueDLQ = "worker:dlq"
	// MaxRetries is the number of times to retry a job before moving to DLQ.
	MaxRetries = 3
	// RetryBackoff is the delay between retries.
	RetryBackoff = 10 * time.Second
	// dequeueWait bounds one BLPOP so the worker notices context cancellation.
	dequeueWait = 5 * time.Second
)

// JobType identifies the job kind.
type JobType string

const (
	JobTypeMediaCleanup JobType = "media_cleanup"
)

// MediaCleanupPayload lists the media-store objects left behind by a deleted video.
type MediaCleanupPayload struct {
	VideoID uuid.UUID `json:"video_id"`
	Keys    []string  `json:"keys"`
}

// Job is a generic job envelope.
type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Queue     string          `json:"queue"`
	Payload   json.RawMessage `json:"payload"`
	Attempt   int             `json:"attempt"`
	CreatedAt time.Time       `json:"created_at"`
}

// Queue enqueues and dequeues jobs via Redis lists.
type Queue struct {
	client *redis.Client
	logger *zap.Logger
}

// NewQueue creates a new Redis-backed job queue.
func NewQueue(client *redis.Client, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{client: client, logger: logger}
}

// NewJob builds a job envelope for the given queue.
func NewJob(queueName string, jobType JobType, payload interface{}) (*Job, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Queue:     queueName,
		Payload:   body,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (q *Queue) push(ctx context.Context, key string, job *Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, key, raw).Err(); err != nil {
		return fmt.Errorf("rpush %s: %w", key, err)
	}
	return nil
}

// EnqueueMediaCleanup enqueues deletion of media objects for a removed video.
func (q *Queue) EnqueueMediaCleanup(ctx context.Context, payload MediaCleanupPayload) error {
	job, err := NewJob(QueueMediaCleanup, JobTypeMediaCleanup, payload)
	if err != nil {
		return err
	}
	if err := q.push(ctx, QueueMediaCleanup, job); err != nil {
		return err
	}
	q.logger.Debug("enqueued media cleanup job", zap.String("job_id", job.ID), zap.String("video_id", payload.VideoID.String()))
	return nil
}

// Dequeue waits briefly for a job. It returns a nil job when nothing arrived in time.
func (q *Queue) Dequeue(ctx context.Context, queues ...string) (*Job, error) {
	if len(queues) == 0 {
		queues = []string{QueueMediaCleanup}
	}
	result, err := q.client.BLPop(ctx, dequeueWait, queues...).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}
	job, err := DecodeJob(result[1])
	if err != nil {
		q.logger.Warn("invalid job payload", zap.String("raw", result[1]), zap.Error(err))
		return nil, nil
	}
	if job.Queue == "" {
		job.Queue = result[0]
	}
	return job, nil
}

// DecodeJob parses a raw job envelope.
func DecodeJob(raw string) (*Job, error) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Retry re-enqueues a job with incremented attempt. If attempt >= MaxRetries, pushes to DLQ instead.
func (q *Queue) Retry(ctx context.Context, job *Job) error {
	job.Attempt++
	if ShouldDeadLetter(job) {
		if err := q.push(ctx, QueueDLQ, job); err != nil {
			q.logger.Error("dlq push failed", zap.Error(err), zap.String("job_id", job.ID))
			return err
		}
		q.logger.Warn("job moved to DLQ", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
		return nil
	}
	target := job.Queue
	if target == "" {
		target = QueueMediaCleanup
	}
	if err := q.push(ctx, target, job); err != nil {
		return err
	}
	q.logger.Info("job retried", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
	return nil
}

// ShouldDeadLetter reports whether the job has exhausted its retries.
func ShouldDeadLetter(job *Job) bool {
	return job.Attempt >= MaxRetries
}
