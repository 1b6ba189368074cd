// Package queue is the message-passing boundary between the API and the
// workers: named FIFO queues of small JSON payloads.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/filesmanager/backend/internal/models"
	"github.com/filesmanager/backend/pkg/logger"
)

const (
	FileQueue = "fileQueue"
	UserQueue = "userQueue"
)

var (
	// ErrEmpty is returned by Pop when nothing arrived before the timeout.
	ErrEmpty     = errors.New("queue: empty")
	ErrQueueFull = errors.New("queue: full")
	ErrClosed    = errors.New("queue: closed")
)

type Broker interface {
	Push(ctx context.Context, queue string, payload []byte) error
	// Pop blocks until a payload is available, the timeout elapses (ErrEmpty)
	// or ctx is done.
	Pop(ctx context.Context, queue string, timeout time.Duration) ([]byte, error)
	Close() error
}

// Jobs is the typed producer side of the queues.
type Jobs struct {
	broker Broker
}

func NewJobs(broker Broker) *Jobs {
	return &Jobs{broker: broker}
}

func (j *Jobs) EnqueueThumbnail(ctx context.Context, job models.ThumbnailJob) error {
	if err := j.push(ctx, FileQueue, job); err != nil {
		return err
	}
	logger.InfoWithUser(job.UserID, "thumbnail_job_enqueued", map[string]interface{}{
		"file_id": job.FileID,
		"status":  models.JobStatusQueued,
	})
	return nil
}

func (j *Jobs) EnqueueWelcome(ctx context.Context, job models.WelcomeJob) error {
	if err := j.push(ctx, UserQueue, job); err != nil {
		return err
	}
	logger.InfoWithUser(job.UserID, "welcome_job_enqueued", map[string]interface{}{
		"status": models.JobStatusQueued,
	})
	return nil
}

func (j *Jobs) push(ctx context.Context, queue string, job interface{}) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encoding %s job: %w", queue, err)
	}
	if err := j.broker.Push(ctx, queue, payload); err != nil {
		return fmt.Errorf("enqueueing %s job: %w", queue, err)
	}
	return nil
}
