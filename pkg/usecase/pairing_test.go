package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/lheh1167/slack-pair-bot/pkg/domain/types"
	"github.com/lheh1167/slack-pair-bot/pkg/service/directory"
	"github.com/lheh1167/slack-pair-bot/pkg/usecase"
	"github.com/m-mizutani/gt"
)

func newPairingUseCases(provider *mockProvider, messenger *recordingMessenger, opts ...usecase.Option) *usecase.UseCases {
	opts = append([]usecase.Option{
		usecase.WithRateLimit(usecase.NoDelay{}),
		usecase.WithMessenger(messenger, messenger),
	}, opts...)
	return usecase.New(directory.NewCache(provider), opts...)
}

func TestPairingUseCase_Preview(t *testing.T) {
	ctx := context.Background()

	t.Run("classifies lines without sending anything", func(t *testing.T) {
		messenger := &recordingMessenger{}
		uc := newPairingUseCases(&mockProvider{entries: testEntries()}, messenger)

		pairs, err := uc.Pairing.Preview(ctx, "U1", "@alice, @bob\nalice@co.com, alice@co.com\nonlyone")
		gt.NoError(t, err).Required()
		gt.Array(t, pairs).Length(3).Required()
		gt.Bool(t, pairs[0].Valid).True()
		gt.Value(t, pairs[1].ErrorReason).Equal(types.PairErrorSelfPair)
		gt.Value(t, pairs[2].ErrorReason).Equal(types.PairErrorMalformedLine)
		gt.Array(t, messenger.opened).Length(0)
	})

	t.Run("unauthorized caller is rejected before the directory is read", func(t *testing.T) {
		provider := &mockProvider{listErr: errors.New("must not be called")}
		uc := newPairingUseCases(provider, &recordingMessenger{},
			usecase.WithAuthPolicy(usecase.NewAllowListPolicy([]string{"U1"}, nil)))

		_, err := uc.Pairing.Preview(ctx, "U2", "alice, bob")
		gt.Error(t, err).Is(usecase.ErrAuthorizationDenied)
	})

	t.Run("directory failure aborts the whole operation", func(t *testing.T) {
		uc := newPairingUseCases(&mockProvider{listErr: errors.New("slack down")}, &recordingMessenger{})

		pairs, err := uc.Pairing.Preview(ctx, "U1", "alice, bob")
		gt.Error(t, err).Is(usecase.ErrDirectoryUnavailable)
		gt.Array(t, pairs).Length(0)
	})
}

func TestPairingUseCase_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("sends intros for valid pairs with the default template", func(t *testing.T) {
		messenger := &recordingMessenger{}
		uc := newPairingUseCases(&mockProvider{entries: testEntries()}, messenger)

		result, err := uc.Pairing.Run(ctx, "U1", "alice, bob\nnobody, carol", "")
		gt.NoError(t, err).Required()
		gt.Array(t, result.Pairs).Length(2)
		gt.Number(t, result.Execution.SuccessCount).Equal(1)

		gt.Array(t, messenger.sent).Length(1).Required()
		gt.Value(t, messenger.sent[0].text).Equal(usecase.RenderIntro(
			uc.Pairing.Config().DefaultIntroTemplate,
			testSnapshot().Users()[0], testSnapshot().Users()[1],
		))

		report := result.Report()
		gt.Array(t, report.Failures).Length(1)
		gt.Array(t, report.Successes).Length(1)
	})

	t.Run("custom template", func(t *testing.T) {
		messenger := &recordingMessenger{}
		uc := newPairingUseCases(&mockProvider{entries: testEntries()}, messenger)

		_, err := uc.Pairing.Run(ctx, "U1", "bob, carol", "{name1} x {name2}")
		gt.NoError(t, err).Required()
		gt.Array(t, messenger.sent).Length(1).Required()
		gt.Value(t, messenger.sent[0].text).Equal("Bob Brown x Caz")
	})

	t.Run("nothing is sent when the directory is unavailable", func(t *testing.T) {
		messenger := &recordingMessenger{}
		uc := newPairingUseCases(&mockProvider{listErr: errors.New("slack down")}, messenger)

		_, err := uc.Pairing.Run(ctx, "U1", "alice, bob", "")
		gt.Error(t, err).Is(usecase.ErrDirectoryUnavailable)
		gt.Array(t, messenger.opened).Length(0)
	})

	t.Run("fails without a messenger", func(t *testing.T) {
		uc := usecase.New(directory.NewCache(&mockProvider{entries: testEntries()}))

		_, err := uc.Pairing.Run(ctx, "U1", "alice, bob", "")
		gt.Error(t, err)
	})
}

func TestPairingUseCase_SearchAndRefresh(t *testing.T) {
	ctx := context.Background()
	provider := &mockProvider{entries: testEntries()}
	uc := newPairingUseCases(provider, &recordingMessenger{})

	users, err := uc.Pairing.Search(ctx, "U1", "bro")
	gt.NoError(t, err).Required()
	gt.Array(t, users).Length(1).Required()
	gt.Value(t, string(users[0].ID)).Equal("U2")

	snapshot, err := uc.Pairing.RefreshDirectory(ctx, "U1")
	gt.NoError(t, err).Required()
	gt.Number(t, snapshot.Len()).Equal(3)
}
