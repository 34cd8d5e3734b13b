// Package blobstore stores uploaded files such as front-page cover photos.
// Objects get random names so uploads never overwrite each other; callers
// keep the returned key.
package blobstore

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Open and Delete when no object has the key.
var ErrNotFound = errors.New("blobstore: object not found")

// Object is an opened blob. Callers must close Body.
type Object struct {
	Body        io.ReadCloser
	ContentType string
}

// Store is a flat key/value blob store.
type Store interface {
	// Put stores the size bytes of r under a new random key beginning with
	// prefix and ending with ext, and returns the key. A body whose length
	// differs from size is an error.
	Put(ctx context.Context, prefix, ext string, r io.Reader, size int64, contentType string) (string, error)

	// Open returns ErrNotFound if key does not exist.
	Open(ctx context.Context, key string) (Object, error)

	// Delete removes key. Deleting a missing key returns ErrNotFound.
	Delete(ctx context.Context, key string) error
}

// randomKey builds prefix + random name + ext.
func randomKey(prefix, ext string) string {
	return prefix + uuid.NewString() + ext
}
