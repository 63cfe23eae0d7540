package interfaces

import (
	"context"

	"github.com/lheh1167/slack-pair-bot/pkg/domain/model"
)

// DirectoryProvider is the source of truth for workspace members
type DirectoryProvider interface {
	// ListUsers returns every member, including deleted and automated ones.
	// Order is preserved into the directory snapshot.
	ListUsers(ctx context.Context) ([]*model.DirectoryEntry, error)

	// LookupByEmail finds one member by email. It returns nil, nil when no
	// member has that address.
	LookupByEmail(ctx context.Context, email string) (*model.DirectoryEntry, error)
}
