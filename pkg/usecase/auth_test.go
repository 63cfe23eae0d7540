package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/lheh1167/slack-pair-bot/pkg/domain/model"
	"github.com/lheh1167/slack-pair-bot/pkg/usecase"
	"github.com/m-mizutani/gt"
)

func TestAllowListPolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("empty list is open", func(t *testing.T) {
		policy := usecase.NewAllowListPolicy([]string{" ", ""}, nil)
		gt.Bool(t, policy.IsOpen()).True()

		ok, err := policy.IsAuthorized(ctx, "U999")
		gt.NoError(t, err)
		gt.Bool(t, ok).True()
	})

	t.Run("matches user IDs case-insensitively", func(t *testing.T) {
		policy := usecase.NewAllowListPolicy([]string{"u1"}, nil)
		gt.Bool(t, policy.IsOpen()).False()

		ok, err := policy.IsAuthorized(ctx, "U1")
		gt.NoError(t, err)
		gt.Bool(t, ok).True()

		ok, err = policy.IsAuthorized(ctx, "U2")
		gt.NoError(t, err)
		gt.Bool(t, ok).False()

		ok, err = policy.IsAuthorized(ctx, "")
		gt.NoError(t, err)
		gt.Bool(t, ok).False()
	})

	t.Run("resolves emails through the provider and caches them", func(t *testing.T) {
		provider := &mockProvider{entries: testEntries()}
		policy := usecase.NewAllowListPolicy([]string{"Bob@Co.com"}, provider)

		for range 3 {
			ok, err := policy.IsAuthorized(ctx, "U2")
			gt.NoError(t, err)
			gt.Bool(t, ok).True()
		}
		gt.Number(t, provider.lookups).Equal(1)

		ok, err := policy.IsAuthorized(ctx, "U1")
		gt.NoError(t, err)
		gt.Bool(t, ok).False()
	})

	t.Run("unknown and automated emails never authorize", func(t *testing.T) {
		entries := append(testEntries(), &model.DirectoryEntry{ID: "B2", Email: "bot@co.com", IsAutomated: true})
		provider := &mockProvider{entries: entries}
		policy := usecase.NewAllowListPolicy([]string{"ghost@co.com", "bot@co.com"}, provider)

		ok, err := policy.IsAuthorized(ctx, "B2")
		gt.NoError(t, err)
		gt.Bool(t, ok).False()

		// not-found results are cached too
		_, _ = policy.IsAuthorized(ctx, "B2")
		gt.Number(t, provider.lookups).Equal(2)
	})

	t.Run("provider failure is an error", func(t *testing.T) {
		provider := &mockProvider{listErr: errors.New("slack down")}
		policy := usecase.NewAllowListPolicy([]string{"bob@co.com"}, provider)

		_, err := policy.IsAuthorized(ctx, "U2")
		gt.Error(t, err)
	})

	t.Run("email without provider is an error", func(t *testing.T) {
		policy := usecase.NewAllowListPolicy([]string{"bob@co.com"}, nil)
		_, err := policy.IsAuthorized(ctx, "U2")
		gt.Error(t, err)
	})
}

func TestAllowAllPolicy(t *testing.T) {
	ok, err := usecase.AllowAllPolicy{}.IsAuthorized(context.Background(), "")
	gt.NoError(t, err)
	gt.Bool(t, ok).True()
}
