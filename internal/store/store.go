// Package store defines the Metadata Store contract shared by the SQL and
// document backends.
package store

import (
	"context"
	"errors"

	"github.com/filesmanager/backend/internal/models"
)

var (
	// ErrNotFound is returned when no record matches, including when the id
	// is not a valid identifier for the backend.
	ErrNotFound = errors.New("store: record not found")
	// ErrDuplicate is returned when a unique constraint (user email) rejects an insert.
	ErrDuplicate = errors.New("store: duplicate record")
	// ErrParentNotFound and ErrParentNotFolder are returned by InsertUnder.
	ErrParentNotFound  = errors.New("store: parent not found")
	ErrParentNotFolder = errors.New("store: parent is not a folder")
)

type Users interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Count(ctx context.Context) (int64, error)
}

type Files interface {
	// InsertUnder validates that file.ParentID is root or an existing folder and
	// inserts file, assigning its ID.
	InsertUnder(ctx context.Context, file *models.File) error
	FindByID(ctx context.Context, id string) (*models.File, error)
	FindOwned(ctx context.Context, id, userID string) (*models.File, error)
	// List returns the owner's records under parentID in insertion order.
	List(ctx context.Context, userID, parentID string, skip, limit int) ([]models.File, error)
	// SetPublic updates isPublic on the record matching both id and userID.
	SetPublic(ctx context.Context, id, userID string, isPublic bool) (*models.File, error)
	Count(ctx context.Context) (int64, error)
}

// Backend is a connected metadata store with an explicit lifecycle.
type Backend interface {
	Users() Users
	Files() Files
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
