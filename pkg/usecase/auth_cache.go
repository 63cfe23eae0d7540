package usecase

import (
	"sync"
	"time"

	"github.com/lheh1167/slack-pair-bot/pkg/domain/model"
)

const (
	authCacheTTL = 5 * time.Minute
)

// cachedEmail is the resolution of an allow-listed email. An empty ID
// records that the email did not resolve.
type cachedEmail struct {
	id        model.UserID
	expiresAt time.Time
}

type authCache struct {
	cache sync.Map
	now   func() time.Time
}

func newAuthCache() *authCache {
	return &authCache{now: time.Now}
}

func (c *authCache) get(email string) (model.UserID, bool) {
	val, ok := c.cache.Load(email)
	if !ok {
		return "", false
	}

	cached := val.(*cachedEmail)
	if c.now().After(cached.expiresAt) {
		c.cache.Delete(email)
		return "", false
	}

	return cached.id, true
}

func (c *authCache) set(email string, id model.UserID) {
	c.cache.Store(email, &cachedEmail{
		id:        id,
		expiresAt: c.now().Add(authCacheTTL),
	})
}
