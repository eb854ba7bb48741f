// Package worker runs background jobs pulled from the Redis queue.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vidshare/backend/pkg/queue"
)

// ObjectDeleter removes objects from the media store.
type ObjectDeleter interface {
	DeleteObject(ctx context.Context, key string) error
}

// JobQueue is the subset of the queue used by the processor.
type JobQueue interface {
	Dequeue(ctx context.Context, queues ...string) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// MediaCleanupProcessor deletes media objects left behind by removed or replaced videos.
type MediaCleanupProcessor struct {
	media   ObjectDeleter
	queue   JobQueue
	backoff time.Duration
	logger  *zap.Logger
}

// NewMediaCleanupProcessor creates a media cleanup processor.
func NewMediaCleanupProcessor(media ObjectDeleter, q JobQueue, logger *zap.Logger) *MediaCleanupProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MediaCleanupProcessor{media: media, queue: q, backoff: queue.RetryBackoff, logger: logger}
}

// Process executes one cleanup job. Every key is attempted; the job fails if any delete failed.
func (p *MediaCleanupProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeMediaCleanup {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.MediaCleanupPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	var errs []error
	for _, key := range payload.Keys {
		if err := p.media.DeleteObject(ctx, key); err != nil {
			errs = append(errs, err)
			continue
		}
		p.logger.Debug("media object deleted", zap.String("key", key), zap.String("video_id", payload.VideoID.String()))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	p.logger.Info("media cleanup completed", zap.String("video_id", payload.VideoID.String()), zap.Int("objects", len(payload.Keys)))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *MediaCleanupProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("media cleanup worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx, queue.QueueMediaCleanup)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *MediaCleanupProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
