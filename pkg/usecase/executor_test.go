package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lheh1167/slack-pair-bot/pkg/domain/model"
	"github.com/lheh1167/slack-pair-bot/pkg/usecase"
	"github.com/m-mizutani/gt"
)

const testTemplate = "Hi {user1} and {user2}"

func TestBatchExecutor_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("runs valid pairs in input order and skips invalid ones", func(t *testing.T) {
		pairs := validatePairs("@alice, @bob\nnobody, @bob\nU3, alice@co.com")
		messenger := &recordingMessenger{}
		policy := &countingPolicy{}
		executor := usecase.NewBatchExecutor(usecase.WithRateLimitPolicy(policy))

		report := executor.Execute(ctx, pairs, testTemplate, messenger, messenger)

		gt.Number(t, report.Total()).Equal(2)
		gt.Number(t, report.SuccessCount).Equal(2)
		gt.Number(t, report.FailureCount).Equal(0)
		gt.String(t, string(report.RunID)).NotEqual("")
		gt.Array(t, report.Outcomes).Length(2).Required()
		gt.Number(t, report.Outcomes[0].LineNumber).Equal(1)
		gt.Number(t, report.Outcomes[1].LineNumber).Equal(3)
		gt.Value(t, report.Outcomes[1].ConversationRef).Equal(model.ConversationRef("D-U3-U1"))

		gt.Array(t, messenger.opened).Length(2).Required()
		gt.Value(t, messenger.opened[0]).Equal([2]model.UserID{"U1", "U2"})
		gt.Value(t, messenger.opened[1]).Equal([2]model.UserID{"U3", "U1"})
		gt.Array(t, messenger.sent).Length(2).Required()
		gt.Value(t, messenger.sent[0].text).Equal("Hi <@U1> and <@U2>")
	})

	t.Run("waits between pairs but not after the last", func(t *testing.T) {
		pairs := validatePairs("alice, bob\nbob, carol\ncarol, alice")
		messenger := &recordingMessenger{}
		policy := &countingPolicy{}
		executor := usecase.NewBatchExecutor(usecase.WithRateLimitPolicy(policy))

		executor.Execute(ctx, pairs, testTemplate, messenger, messenger)
		gt.Number(t, policy.waits).Equal(2)
	})

	t.Run("single pair never waits", func(t *testing.T) {
		policy := &countingPolicy{}
		executor := usecase.NewBatchExecutor(usecase.WithRateLimitPolicy(policy))
		messenger := &recordingMessenger{}

		executor.Execute(ctx, validatePairs("alice, bob"), testTemplate, messenger, messenger)
		gt.Number(t, policy.waits).Equal(0)
	})

	t.Run("a failing pair does not stop the batch", func(t *testing.T) {
		pairs := validatePairs("alice, bob\nbob, carol\ncarol, alice")
		messenger := &recordingMessenger{
			openErr: map[model.UserID]error{"U2": errors.New("cannot_dm_bot")},
		}
		executor := usecase.NewBatchExecutor(usecase.WithRateLimitPolicy(usecase.NoDelay{}))

		report := executor.Execute(ctx, pairs, testTemplate, messenger, messenger)

		gt.Number(t, report.SuccessCount).Equal(2)
		gt.Number(t, report.FailureCount).Equal(1)
		gt.Array(t, report.Outcomes).Length(3).Required()
		gt.Bool(t, report.Outcomes[1].Success).False()
		gt.Value(t, report.Outcomes[1].ConversationRef).Equal(model.ConversationRef(""))
		gt.Bool(t, strings.Contains(report.Outcomes[1].ErrorMessage, "cannot_dm_bot")).True()
		gt.Bool(t, report.Outcomes[2].Success).True()
	})

	t.Run("post failure keeps the conversation reference", func(t *testing.T) {
		messenger := &recordingMessenger{postErr: errors.New("not_in_channel")}
		executor := usecase.NewBatchExecutor(usecase.WithRateLimitPolicy(usecase.NoDelay{}))

		report := executor.Execute(ctx, validatePairs("alice, bob"), testTemplate, messenger, messenger)

		gt.Array(t, report.Outcomes).Length(1).Required()
		gt.Bool(t, report.Outcomes[0].Success).False()
		gt.Value(t, report.Outcomes[0].ConversationRef).Equal(model.ConversationRef("D-U1-U2"))
		gt.Bool(t, strings.Contains(report.Outcomes[0].ErrorMessage, "not_in_channel")).True()
	})

	t.Run("cancelled run fails remaining pairs without calling Slack", func(t *testing.T) {
		cancelCtx, cancel := context.WithCancel(ctx)
		messenger := &recordingMessenger{}
		messenger.onOpened = cancel
		executor := usecase.NewBatchExecutor(usecase.WithRateLimitPolicy(usecase.NoDelay{}))

		report := executor.Execute(cancelCtx, validatePairs("alice, bob\nbob, carol\ncarol, alice"), testTemplate, messenger, messenger)

		gt.Array(t, messenger.opened).Length(1)
		gt.Number(t, report.SuccessCount).Equal(1)
		gt.Number(t, report.FailureCount).Equal(2)
		gt.Bool(t, strings.Contains(report.Outcomes[2].ErrorMessage, "cancelled")).True()
	})

	t.Run("no valid pairs yields an empty report", func(t *testing.T) {
		messenger := &recordingMessenger{}
		executor := usecase.NewBatchExecutor()

		report := executor.Execute(ctx, validatePairs("nobody, @bob\nalice"), testTemplate, messenger, messenger)
		gt.Number(t, report.Total()).Equal(0)
		gt.Array(t, messenger.opened).Length(0)
	})

	t.Run("uses the injected clock", func(t *testing.T) {
		start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		calls := 0
		clock := func() time.Time {
			calls++
			return start.Add(time.Duration(calls) * time.Second)
		}
		messenger := &recordingMessenger{}
		executor := usecase.NewBatchExecutor(usecase.WithRateLimitPolicy(usecase.NoDelay{}), usecase.WithExecutorClock(clock))

		report := executor.Execute(ctx, validatePairs("alice, bob"), testTemplate, messenger, messenger)
		gt.Value(t, report.FinishedAt.Sub(report.StartedAt)).Equal(time.Second)
	})
}

func TestFixedDelay(t *testing.T) {
	t.Run("returns when ctx is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		start := time.Now()
		err := usecase.FixedDelay{Delay: time.Hour}.Wait(ctx)
		gt.Error(t, err).Is(context.Canceled)
		gt.Bool(t, time.Since(start) < time.Second).True()
	})

	t.Run("zero delay returns immediately", func(t *testing.T) {
		gt.NoError(t, usecase.FixedDelay{}.Wait(context.Background()))
	})

	t.Run("waits the configured delay", func(t *testing.T) {
		start := time.Now()
		gt.NoError(t, usecase.FixedDelay{Delay: 20 * time.Millisecond}.Wait(context.Background()))
		gt.Bool(t, time.Since(start) >= 20*time.Millisecond).True()
	})
}
