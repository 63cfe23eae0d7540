package usecase

import (
	"context"
	"strings"

	"github.com/lheh1167/slack-pair-bot/pkg/domain/interfaces"
	"github.com/lheh1167/slack-pair-bot/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// AllowAllPolicy authorizes every caller. Used for local CLI runs.
type AllowAllPolicy struct{}

var _ interfaces.AuthPolicy = AllowAllPolicy{}

func (AllowAllPolicy) IsAuthorized(context.Context, model.UserID) (bool, error) {
	return true, nil
}

// AllowListPolicy authorizes callers listed by user ID or by email. Emails
// are resolved to user IDs through the directory provider and the result is
// cached for a few minutes. An empty list authorizes everyone.
type AllowListPolicy struct {
	ids      map[model.UserID]struct{}
	emails   []string
	provider interfaces.DirectoryProvider
	cache    *authCache
}

var _ interfaces.AuthPolicy = &AllowListPolicy{}

// NewAllowListPolicy builds a policy from configured callers. Entries
// containing "@" are treated as emails; anything else as a user ID.
func NewAllowListPolicy(callers []string, provider interfaces.DirectoryProvider) *AllowListPolicy {
	p := &AllowListPolicy{
		ids:      make(map[model.UserID]struct{}),
		provider: provider,
		cache:    newAuthCache(),
	}

	for _, c := range callers {
		c = strings.TrimSpace(c)
		switch {
		case c == "":
			continue
		case strings.Contains(c, "@"):
			p.emails = append(p.emails, strings.ToLower(c))
		default:
			p.ids[model.UserID(strings.ToUpper(c))] = struct{}{}
		}
	}
	return p
}

// IsOpen reports whether the policy authorizes everyone
func (p *AllowListPolicy) IsOpen() bool {
	return len(p.ids) == 0 && len(p.emails) == 0
}

func (p *AllowListPolicy) IsAuthorized(ctx context.Context, callerID model.UserID) (bool, error) {
	if p.IsOpen() {
		return true, nil
	}
	if callerID == "" {
		return false, nil
	}

	caller := model.UserID(strings.ToUpper(string(callerID)))
	if _, ok := p.ids[caller]; ok {
		return true, nil
	}

	for _, email := range p.emails {
		id, err := p.resolveEmail(ctx, email)
		if err != nil {
			return false, err
		}
		if id == caller {
			return true, nil
		}
	}

	return false, nil
}

func (p *AllowListPolicy) resolveEmail(ctx context.Context, email string) (model.UserID, error) {
	if id, ok := p.cache.get(email); ok {
		return id, nil
	}
	if p.provider == nil {
		return "", goerr.New("no directory provider to resolve allow-listed email", goerr.V(EmailKey, email))
	}

	entry, err := p.provider.LookupByEmail(ctx, email)
	if err != nil {
		return "", goerr.Wrap(err, "failed to resolve allow-listed email", goerr.V(EmailKey, email))
	}

	var id model.UserID
	if entry != nil && entry.IsResolvable() {
		id = model.UserID(strings.ToUpper(string(entry.ID)))
	}
	p.cache.set(email, id)
	return id, nil
}
