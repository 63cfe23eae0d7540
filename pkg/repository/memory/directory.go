package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/lheh1167/slack-pair-bot/pkg/domain/interfaces"
	"github.com/lheh1167/slack-pair-bot/pkg/domain/model"
)

type directoryRepository struct {
	mu       sync.RWMutex
	entries  []*model.DirectoryEntry
	index    map[model.UserID]int
	metadata *model.DirectoryMetadata
}

var _ interfaces.DirectoryRepository = &directoryRepository{}

func newDirectoryRepository() *directoryRepository {
	return &directoryRepository{
		index:    make(map[model.UserID]int),
		metadata: &model.DirectoryMetadata{},
	}
}

// GetAll retrieves all entries in saved order
func (r *directoryRepository) GetAll(ctx context.Context) ([]*model.DirectoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]*model.DirectoryEntry, 0, len(r.entries))
	for _, entry := range r.entries {
		// Return a copy to prevent external modifications
		entryCopy := *entry
		entries = append(entries, &entryCopy)
	}

	return entries, nil
}

// GetByEmail finds an entry by email, ignoring case
func (r *directoryRepository) GetByEmail(ctx context.Context, email string) (*model.DirectoryEntry, error) {
	if email == "" {
		return nil, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, entry := range r.entries {
		if strings.EqualFold(entry.Email, email) {
			entryCopy := *entry
			return &entryCopy, nil
		}
	}
	return nil, nil
}

// SaveMany upserts entries. New IDs are appended; existing IDs keep their
// position.
func (r *directoryRepository) SaveMany(ctx context.Context, entries []*model.DirectoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entry := range entries {
		entryCopy := *entry
		if pos, ok := r.index[entry.ID]; ok {
			r.entries[pos] = &entryCopy
			continue
		}
		r.index[entry.ID] = len(r.entries)
		r.entries = append(r.entries, &entryCopy)
	}

	return nil
}

// DeleteAll deletes all entries
func (r *directoryRepository) DeleteAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = nil
	r.index = make(map[model.UserID]int)
	return nil
}

// GetMetadata retrieves refresh metadata
func (r *directoryRepository) GetMetadata(ctx context.Context) (*model.DirectoryMetadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	metadataCopy := *r.metadata
	return &metadataCopy, nil
}

// SaveMetadata saves refresh metadata
func (r *directoryRepository) SaveMetadata(ctx context.Context, metadata *model.DirectoryMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	metadataCopy := *metadata
	r.metadata = &metadataCopy
	return nil
}
