package models

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no record matches the lookup
	ErrNotFound = errors.New("media not found")

	// ErrDuplicateIdentity is returned when a record with the same
	// (metadata provider, metadata id) pair already exists
	ErrDuplicateIdentity = errors.New("media already exists")
)

// Store persists media records. Implementations must enforce the
// identity uniqueness with an atomic conditional insert.
type Store interface {
	// FindByIdentity returns the record for a metadata identity or ErrNotFound
	FindByIdentity(ctx context.Context, provider MetadataProvider, metadataID string) (*MediaRecord, error)

	// Insert stores a new record, failing with ErrDuplicateIdentity if the identity is taken
	Insert(ctx context.Context, media *MediaRecord) error

	// InsertOrRequeue stores a new record, or resets the status of the record
	// already holding the identity to StatusQueued. It returns the stored
	// record and whether it was newly created.
	InsertOrRequeue(ctx context.Context, media *MediaRecord) (*MediaRecord, bool, error)

	// UpdateStatus overwrites the status of a record
	UpdateStatus(ctx context.Context, id string, status Status) error

	// GetByID returns a record or ErrNotFound
	GetByID(ctx context.Context, id string) (*MediaRecord, error)

	// List returns all records, newest first
	List(ctx context.Context) ([]*MediaRecord, error)

	// ListStaleQueued returns records queued and untouched since before the given time
	ListStaleQueued(ctx context.Context, before time.Time) ([]*MediaRecord, error)

	Close() error
}
