// Package storage abstracts the byte-addressed backing store used by jm's
// metadata and artifact caches, adapted from a-h-depot's storage package so
// a team can point either cache at local disk or a shared S3 bucket.
package storage

import (
	"context"
	"io"
)

// Storage reads and writes content keyed by filename.
type Storage interface {
	// Stat reports whether filename exists, and its size if so.
	Stat(ctx context.Context, filename string) (size int64, exists bool, err error)
	// Read opens filename for reading. exists is false, with a nil
	// ReadCloser, when the key is absent.
	Read(ctx context.Context, filename string) (r io.ReadCloser, exists bool, err error)
	// Write creates or overwrites filename with the full contents of data.
	Write(ctx context.Context, filename string, data io.Reader) error
	// Delete removes filename. Deleting an absent key is not an error.
	Delete(ctx context.Context, filename string) error
}
