package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/filesmanager/backend/internal/metrics"
	"github.com/filesmanager/backend/internal/models"
	"github.com/filesmanager/backend/internal/storage"
	"github.com/filesmanager/backend/internal/store"
	"github.com/filesmanager/backend/internal/thumbnail"
	"github.com/filesmanager/backend/pkg/logger"
	"github.com/filesmanager/backend/pkg/utils"
)

const defaultContentType = "application/octet-stream"

// ThumbnailEnqueuer is the producer capability FileService needs.
type ThumbnailEnqueuer interface {
	EnqueueThumbnail(ctx context.Context, job models.ThumbnailJob) error
}

type FileService struct {
	Files store.Files
	Blobs storage.Blobs
	Jobs  ThumbnailEnqueuer
}

func NewFileService(files store.Files, blobs storage.Blobs, jobs ThumbnailEnqueuer) *FileService {
	return &FileService{Files: files, Blobs: blobs, Jobs: jobs}
}

type CreateEntryInput struct {
	Name     string
	Type     string
	ParentID string
	// Data is the base64 payload; required for every type except folder.
	Data     string
	IsPublic bool
}

// Content is the payload of a non-folder record.
type Content struct {
	Name        string
	ContentType string
	Data        []byte
}

// CreateEntry validates the input in full before writing anything, then
// writes the blob (non-folders), inserts the record and, for images, queues
// thumbnail generation.
func (s *FileService) CreateEntry(ctx context.Context, userID string, in CreateEntryInput) (*models.File, error) {
	if in.Name == "" {
		return nil, ErrMissingName
	}
	name := in.Name
	typ, ok := models.ParseFileType(in.Type)
	if !ok {
		return nil, ErrMissingType
	}

	var payload []byte
	if typ != models.FileTypeFolder {
		if in.Data == "" {
			return nil, ErrMissingData
		}
		decoded, err := base64.StdEncoding.DecodeString(in.Data)
		if err != nil {
			return nil, ErrInvalidData
		}
		payload = decoded
	}

	parentID := strings.TrimSpace(in.ParentID)
	if parentID == "" {
		parentID = models.RootParentID
	}
	if parentID != models.RootParentID {
		if err := s.checkParent(ctx, parentID); err != nil {
			return nil, err
		}
	}

	var file *models.File
	if typ == models.FileTypeFolder {
		file = models.NewFolder(userID, name, parentID, in.IsPublic)
	} else {
		path, err := s.Blobs.Put(ctx, payload)
		if err != nil {
			return nil, fmt.Errorf("writing blob: %w", err)
		}
		file = models.NewBlob(userID, name, typ, parentID, in.IsPublic, path)
	}

	if err := s.Files.InsertUnder(ctx, file); err != nil {
		if path, ok := file.BlobPath(); ok {
			if delErr := s.Blobs.Delete(ctx, path); delErr != nil {
				logger.ErrorWithUser(userID, "orphan_blob_cleanup_failed", delErr, map[string]interface{}{
					"path": path,
				})
			}
		}
		// The parent can vanish or change between checkParent and the insert;
		// the insert re-validates it.
		switch {
		case errors.Is(err, store.ErrParentNotFound):
			return nil, ErrParentNotFound
		case errors.Is(err, store.ErrParentNotFolder):
			return nil, ErrParentNotAFolder
		}
		return nil, fmt.Errorf("inserting file: %w", err)
	}

	metrics.FilesCreated.WithLabelValues(string(file.Type)).Inc()
	logger.InfoWithUser(userID, "file_created", map[string]interface{}{
		"file_id":   file.ID,
		"type":      file.Type,
		"parent_id": file.ParentID,
		"size":      len(payload),
	})

	if file.Type == models.FileTypeImage && s.Jobs != nil {
		if err := s.Jobs.EnqueueThumbnail(ctx, models.ThumbnailJob{FileID: file.ID, UserID: userID}); err != nil {
			logger.ErrorWithUser(userID, "thumbnail_enqueue_failed", err, map[string]interface{}{
				"file_id": file.ID,
			})
		}
	}
	return file, nil
}

func (s *FileService) checkParent(ctx context.Context, parentID string) error {
	parent, err := s.Files.FindByID(ctx, parentID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrParentNotFound
	}
	if err != nil {
		return fmt.Errorf("loading parent: %w", err)
	}
	if !parent.IsFolder() {
		return ErrParentNotAFolder
	}
	return nil
}

// GetEntry returns the caller's record. Foreign and missing records are both
// ErrNotFound.
func (s *FileService) GetEntry(ctx context.Context, userID, id string) (*models.File, error) {
	file, err := s.Files.FindOwned(ctx, id, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading file: %w", err)
	}
	return file, nil
}

// ListEntries returns one page of the caller's records directly under parentID.
func (s *FileService) ListEntries(ctx context.Context, userID, parentID string, page int) ([]models.File, error) {
	parentID = strings.TrimSpace(parentID)
	if parentID == "" {
		parentID = models.RootParentID
	}
	if page < 0 {
		page = 0
	}
	if page > utils.MaxPage {
		return []models.File{}, nil
	}

	files, err := s.Files.List(ctx, userID, parentID, page*utils.PageSize, utils.PageSize)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	return files, nil
}

func (s *FileService) SetPublic(ctx context.Context, userID, id string, isPublic bool) (*models.File, error) {
	file, err := s.Files.SetPublic(ctx, id, userID, isPublic)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating file: %w", err)
	}

	action := "file_unpublished"
	if isPublic {
		action = "file_published"
	}
	logger.InfoWithUser(userID, action, map[string]interface{}{"file_id": file.ID})
	return file, nil
}

// ReadContent returns the bytes of a record, or of one of its thumbnail
// variants when size is 100, 250 or 500. viewerID may be empty: public
// records are readable by anyone, private ones only by their owner.
func (s *FileService) ReadContent(ctx context.Context, viewerID, id string, size int) (*Content, error) {
	file, err := s.Files.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading file: %w", err)
	}

	if !file.IsPublic && (viewerID == "" || viewerID != file.UserID) {
		return nil, ErrNotFound
	}
	if file.IsFolder() {
		return nil, ErrFolderHasNoContent
	}

	path, ok := file.BlobPath()
	if !ok {
		return nil, ErrNotFound
	}
	if thumbnail.IsVariantSize(size) {
		path = storage.VariantPath(path, size)
	}

	data, err := s.Blobs.Get(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading blob: %w", err)
	}

	return &Content{
		Name:        file.Name,
		ContentType: ContentTypeFor(file.Name),
		Data:        data,
	}, nil
}

// ContentTypeFor guesses a content type from the extension of name.
func ContentTypeFor(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	return defaultContentType
}
