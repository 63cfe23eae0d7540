package interfaces

import (
	"context"

	"github.com/lheh1167/slack-pair-bot/pkg/domain/model"
)

// Repository defines the interface for data persistence
type Repository interface {
	Directory() DirectoryRepository
	Close() error
}

// DirectoryRepository mirrors the workspace directory.
//
// The refresh worker replaces the whole mirror: DeleteAll → SaveMany. There
// is no single-entry write.
type DirectoryRepository interface {
	// GetAll retrieves all entries in the order they were saved
	GetAll(ctx context.Context) ([]*model.DirectoryEntry, error)

	// GetByEmail finds an entry by email, ignoring case. Returns nil, nil if
	// no entry matches.
	GetByEmail(ctx context.Context, email string) (*model.DirectoryEntry, error)

	// SaveMany upserts entries by ID. New IDs are ordered after the entries
	// already stored.
	SaveMany(ctx context.Context, entries []*model.DirectoryEntry) error

	// DeleteAll deletes every entry
	DeleteAll(ctx context.Context) error

	// GetMetadata retrieves refresh metadata. Zero value if never saved.
	GetMetadata(ctx context.Context) (*model.DirectoryMetadata, error)

	// SaveMetadata saves refresh metadata
	SaveMetadata(ctx context.Context, metadata *model.DirectoryMetadata) error
}
