package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lheh1167/slack-pair-bot/pkg/domain/interfaces"
	"github.com/lheh1167/slack-pair-bot/pkg/domain/model"
	"github.com/lheh1167/slack-pair-bot/pkg/domain/model/config"
	"github.com/lheh1167/slack-pair-bot/pkg/utils/errutil"
	"github.com/lheh1167/slack-pair-bot/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// RateLimitPolicy is consulted between two consecutive pair operations
type RateLimitPolicy interface {
	Wait(ctx context.Context) error
}

// FixedDelay waits a constant duration, or until ctx is done
type FixedDelay struct {
	Delay time.Duration
}

func (p FixedDelay) Wait(ctx context.Context) error {
	if p.Delay <= 0 {
		return nil
	}

	timer := time.NewTimer(p.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NoDelay never waits
type NoDelay struct{}

func (NoDelay) Wait(context.Context) error {
	return nil
}

// BatchExecutor opens a conversation and posts the intro message for each
// valid pair, one pair at a time in input order
type BatchExecutor struct {
	policy   RateLimitPolicy
	now      func() time.Time
	newRunID func() model.RunID
}

type ExecutorOption func(*BatchExecutor)

func WithRateLimitPolicy(policy RateLimitPolicy) ExecutorOption {
	return func(e *BatchExecutor) {
		e.policy = policy
	}
}

func WithExecutorClock(now func() time.Time) ExecutorOption {
	return func(e *BatchExecutor) {
		e.now = now
	}
}

func NewBatchExecutor(opts ...ExecutorOption) *BatchExecutor {
	e := &BatchExecutor{
		policy: FixedDelay{Delay: config.DefaultInterPairDelay},
		now:    time.Now,
		newRunID: func() model.RunID {
			return model.RunID(uuid.NewString())
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs every valid pair and returns one outcome per valid pair.
// Invalid pairs are skipped. A failing pair never aborts the batch, and the
// rate limit policy is consulted after every attempted pair except the last.
func (e *BatchExecutor) Execute(ctx context.Context, pairs []model.ValidatedPair, introTemplate string, conv interfaces.ConversationProvider, sender interfaces.MessageSender) *model.ExecutionReport {
	report := &model.ExecutionReport{
		RunID:     e.newRunID(),
		StartedAt: e.now(),
	}
	logger := logging.From(ctx).With(RunIDKey, report.RunID)
	ctx = logging.With(ctx, logger)

	valid := model.ValidPairs(pairs)
	logger.Info("pairing run started", "pairs", len(valid), "skipped", len(pairs)-len(valid))

	for i, pair := range valid {
		report.Add(e.executePair(ctx, pair, introTemplate, conv, sender))

		if i == len(valid)-1 {
			break
		}
		if err := e.policy.Wait(ctx); err != nil {
			logger.Warn("rate limit wait interrupted", "error", err, "remaining", len(valid)-i-1)
		}
	}

	report.FinishedAt = e.now()
	logger.Info("pairing run finished",
		"succeeded", report.SuccessCount,
		"failed", report.FailureCount,
		"duration", report.FinishedAt.Sub(report.StartedAt).String(),
	)
	return report
}

func (e *BatchExecutor) executePair(ctx context.Context, pair model.ValidatedPair, introTemplate string, conv interfaces.ConversationProvider, sender interfaces.MessageSender) model.PairOutcome {
	outcome := model.PairOutcome{
		LineNumber: pair.LineNumber,
		PairLabel:  pair.Label(),
	}
	a, b := pair.User1.Resolved, pair.User2.Resolved

	fail := func(err error) model.PairOutcome {
		outcome.ErrorMessage = err.Error()
		errutil.Handle(ctx, err, "pair execution failed")
		return outcome
	}

	if err := ctx.Err(); err != nil {
		return fail(goerr.Wrap(err, "run was cancelled", goerr.V(LineNumberKey, pair.LineNumber)))
	}

	ref, err := conv.OpenDirect(ctx, a.ID, b.ID)
	if err != nil {
		return fail(goerr.Wrap(err, "failed to open conversation",
			goerr.V(LineNumberKey, pair.LineNumber),
			goerr.V("user1", a.ID),
			goerr.V("user2", b.ID)))
	}
	outcome.ConversationRef = ref

	if err := sender.Post(ctx, ref, RenderIntro(introTemplate, a, b)); err != nil {
		return fail(goerr.Wrap(err, "failed to send intro message",
			goerr.V(LineNumberKey, pair.LineNumber),
			goerr.V("conversation", ref)))
	}

	outcome.Success = true
	return outcome
}
