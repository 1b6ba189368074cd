// Package worker consumes the job queues: thumbnail derivation for uploaded
// images and the welcome hook for new users.
package worker

import (
	"context"
	"errors"
	"time"

	"github.com/filesmanager/backend/internal/metrics"
	"github.com/filesmanager/backend/internal/models"
	"github.com/filesmanager/backend/internal/queue"
	"github.com/filesmanager/backend/pkg/logger"
)

const defaultPollTimeout = 5 * time.Second

// Handler processes one raw payload. A returned error marks the job failed;
// failed jobs are logged and dropped.
type Handler func(ctx context.Context, payload []byte) error

type Runner struct {
	broker      queue.Broker
	pollTimeout time.Duration
	retryDelay  time.Duration
}

func NewRunner(broker queue.Broker, pollTimeout time.Duration) *Runner {
	if pollTimeout <= 0 {
		pollTimeout = defaultPollTimeout
	}
	return &Runner{broker: broker, pollTimeout: pollTimeout, retryDelay: time.Second}
}

// Run consumes queueName until ctx is cancelled. Jobs are handled one at a time.
func (r *Runner) Run(ctx context.Context, queueName string, handle Handler) {
	logger.Info("worker_started", map[string]interface{}{"queue": queueName})
	defer logger.Info("worker_stopped", map[string]interface{}{"queue": queueName})

	for ctx.Err() == nil {
		payload, err := r.broker.Pop(ctx, queueName, r.pollTimeout)
		switch {
		case err == nil:
			r.process(ctx, queueName, payload, handle)
		case errors.Is(err, queue.ErrEmpty):
		case ctx.Err() != nil:
			return
		case errors.Is(err, queue.ErrClosed):
			logger.Warn("worker_queue_closed", map[string]interface{}{"queue": queueName})
			return
		default:
			logger.Error("worker_pop_failed", err, map[string]interface{}{"queue": queueName})
			select {
			case <-time.After(r.retryDelay):
			case <-ctx.Done():
			}
		}
	}
}

func (r *Runner) process(ctx context.Context, queueName string, payload []byte, handle Handler) {
	details := map[string]interface{}{
		"queue":  queueName,
		"status": models.JobStatusProcessing,
	}
	logger.Info("job_processing", details)

	start := time.Now()
	if err := handle(ctx, payload); err != nil {
		metrics.Jobs.WithLabelValues(queueName, string(models.JobStatusFailed)).Inc()
		logger.Error("job_failed", err, map[string]interface{}{
			"queue":       queueName,
			"status":      models.JobStatusFailed,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return
	}

	metrics.Jobs.WithLabelValues(queueName, string(models.JobStatusDone)).Inc()
	logger.Info("job_done", map[string]interface{}{
		"queue":       queueName,
		"status":      models.JobStatusDone,
		"duration_ms": time.Since(start).Milliseconds(),
	})
}
