package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/filesmanager/backend/internal/models"
	"github.com/filesmanager/backend/internal/storage"
	"github.com/filesmanager/backend/internal/store"
	"github.com/filesmanager/backend/internal/thumbnail"
	"github.com/filesmanager/backend/pkg/logger"
	"golang.org/x/sync/errgroup"
)

var (
	ErrMissingFileID = errors.New("missing fileId")
	ErrMissingUserID = errors.New("missing userId")
	ErrFileNotFound  = errors.New("file not found")
	ErrUserNotFound  = errors.New("user not found")
)

// ThumbnailProcessor writes the 500, 250 and 100 pixel wide variants of an
// image next to its original blob.
type ThumbnailProcessor struct {
	Files store.Files
	Blobs storage.Blobs
}

func NewThumbnailProcessor(files store.Files, blobs storage.Blobs) *ThumbnailProcessor {
	return &ThumbnailProcessor{Files: files, Blobs: blobs}
}

func (p *ThumbnailProcessor) Handle(ctx context.Context, payload []byte) error {
	var job models.ThumbnailJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return fmt.Errorf("decoding thumbnail job: %w", err)
	}
	return p.Process(ctx, job)
}

func (p *ThumbnailProcessor) Process(ctx context.Context, job models.ThumbnailJob) error {
	if job.FileID == "" {
		return ErrMissingFileID
	}
	if job.UserID == "" {
		return ErrMissingUserID
	}

	file, err := p.Files.FindOwned(ctx, job.FileID, job.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrFileNotFound
	}
	if err != nil {
		return err
	}

	path, ok := file.BlobPath()
	if !ok {
		return fmt.Errorf("file %s has no content", file.ID)
	}

	original, err := p.Blobs.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("reading original: %w", err)
	}

	// Variants are independent: a failed width does not stop the others, but
	// any failure fails the job.
	var g errgroup.Group
	for _, width := range thumbnail.Widths {
		g.Go(func() error {
			resized, err := thumbnail.Resize(original, width)
			if err != nil {
				return fmt.Errorf("resizing to %d: %w", width, err)
			}
			if err := p.Blobs.PutAt(ctx, storage.VariantPath(path, width), resized); err != nil {
				return fmt.Errorf("writing %d variant: %w", width, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logger.InfoWithUser(job.UserID, "thumbnails_generated", map[string]interface{}{
		"file_id": file.ID,
		"widths":  thumbnail.Widths,
	})
	return nil
}
