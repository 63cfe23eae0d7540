package directory

import (
	"context"
	"time"

	"github.com/lheh1167/slack-pair-bot/pkg/domain/interfaces"
	"github.com/lheh1167/slack-pair-bot/pkg/domain/model"
	"github.com/lheh1167/slack-pair-bot/pkg/service/slack"
	"github.com/m-mizutani/goerr/v2"
)

// SlackProvider reads the directory straight from the Slack Web API
type SlackProvider struct {
	svc slack.Service
	now func() time.Time
}

var _ interfaces.DirectoryProvider = &SlackProvider{}

func NewSlackProvider(svc slack.Service) *SlackProvider {
	return &SlackProvider{
		svc: svc,
		now: time.Now,
	}
}

func (p *SlackProvider) toEntry(u *slack.User, now time.Time) *model.DirectoryEntry {
	return &model.DirectoryEntry{
		ID:          model.UserID(u.ID),
		Handle:      u.Name,
		DisplayName: u.DisplayName,
		RealName:    u.RealName,
		Email:       u.Email,
		Deleted:     u.Deleted,
		IsAutomated: u.IsBot,
		UpdatedAt:   now,
	}
}

func (p *SlackProvider) ListUsers(ctx context.Context) ([]*model.DirectoryEntry, error) {
	users, err := p.svc.ListUsers(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list Slack users")
	}

	now := p.now()
	entries := make([]*model.DirectoryEntry, len(users))
	for i, u := range users {
		entries[i] = p.toEntry(u, now)
	}
	return entries, nil
}

func (p *SlackProvider) LookupByEmail(ctx context.Context, email string) (*model.DirectoryEntry, error) {
	u, err := p.svc.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to lookup Slack user by email", goerr.V("email", email))
	}
	if u == nil {
		return nil, nil
	}
	return p.toEntry(u, p.now()), nil
}

// RepositoryProvider reads the directory from the mirror kept up to date by
// the refresh worker
type RepositoryProvider struct {
	repo interfaces.DirectoryRepository
}

var _ interfaces.DirectoryProvider = &RepositoryProvider{}

func NewRepositoryProvider(repo interfaces.DirectoryRepository) *RepositoryProvider {
	return &RepositoryProvider{repo: repo}
}

// ListUsers returns the mirrored entries. It fails with ErrMirrorEmpty until
// the mirror has been refreshed once, and while a refresh has emptied a
// mirror that last held users, so an unpopulated mirror is never mistaken
// for an empty workspace.
func (p *RepositoryProvider) ListUsers(ctx context.Context) ([]*model.DirectoryEntry, error) {
	metadata, err := p.repo.GetMetadata(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get directory metadata")
	}
	if metadata.LastRefreshSuccess.IsZero() {
		return nil, goerr.Wrap(ErrMirrorEmpty, "directory mirror is not ready",
			goerr.V("last_refresh_attempt", metadata.LastRefreshAttempt))
	}

	entries, err := p.repo.GetAll(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read directory mirror")
	}
	// A refresh replaces the mirror with DeleteAll then SaveMany
	if len(entries) == 0 && metadata.UserCount > 0 {
		return nil, goerr.Wrap(ErrMirrorEmpty, "directory mirror is being replaced",
			goerr.V("user_count", metadata.UserCount),
			goerr.V("last_refresh_attempt", metadata.LastRefreshAttempt))
	}
	return entries, nil
}

func (p *RepositoryProvider) LookupByEmail(ctx context.Context, email string) (*model.DirectoryEntry, error) {
	entry, err := p.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to lookup mirrored entry by email", goerr.V("email", email))
	}
	return entry, nil
}
