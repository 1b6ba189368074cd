// Package storage holds write-once blobs addressed by generated paths.
package storage

import (
	"context"
	"errors"
	"strconv"
)

var ErrNotFound = errors.New("storage: blob not found")

type Blobs interface {
	// Put writes data under a fresh, collision-free path and returns it.
	Put(ctx context.Context, data []byte) (string, error)
	// PutAt writes data at a path derived from an existing blob path.
	PutAt(ctx context.Context, path string, data []byte) error
	Get(ctx context.Context, path string) ([]byte, error)
	// Delete removes a blob. A missing blob is not an error.
	Delete(ctx context.Context, path string) error
}

// VariantPath names the sibling blob holding a resized variant.
func VariantPath(path string, size int) string {
	return path + "_" + strconv.Itoa(size)
}
