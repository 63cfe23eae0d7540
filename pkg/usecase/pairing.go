package usecase

import (
	"context"

	"github.com/lheh1167/slack-pair-bot/pkg/domain/interfaces"
	"github.com/lheh1167/slack-pair-bot/pkg/domain/model"
	"github.com/lheh1167/slack-pair-bot/pkg/domain/model/config"
	"github.com/lheh1167/slack-pair-bot/pkg/service/directory"
	"github.com/lheh1167/slack-pair-bot/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// PairingUseCase is the pairing pipeline: authorize, snapshot the directory,
// parse, validate and optionally execute
type PairingUseCase struct {
	cache    *directory.Cache
	policy   interfaces.AuthPolicy
	executor *BatchExecutor
	conv     interfaces.ConversationProvider
	sender   interfaces.MessageSender
	cfg      *config.PairingConfig
}

// PairRunResult holds everything a run produced
type PairRunResult struct {
	Pairs     []model.ValidatedPair
	Execution *model.ExecutionReport
}

// Report returns the merged operator-facing report
func (r *PairRunResult) Report() *model.Report {
	return FormatRun(r.Pairs, r.Execution)
}

func NewPairingUseCase(cache *directory.Cache, policy interfaces.AuthPolicy, executor *BatchExecutor, conv interfaces.ConversationProvider, sender interfaces.MessageSender, cfg *config.PairingConfig) *PairingUseCase {
	if policy == nil {
		policy = AllowAllPolicy{}
	}
	if executor == nil {
		executor = NewBatchExecutor()
	}
	if cfg == nil {
		cfg = config.DefaultPairingConfig()
	}

	return &PairingUseCase{
		cache:    cache,
		policy:   policy,
		executor: executor,
		conv:     conv,
		sender:   sender,
		cfg:      cfg,
	}
}

// Config returns the active pairing configuration
func (uc *PairingUseCase) Config() *config.PairingConfig {
	return uc.cfg
}

// Authorize returns ErrAuthorizationDenied unless callerID may use pairing
func (uc *PairingUseCase) Authorize(ctx context.Context, callerID model.UserID) error {
	ok, err := uc.policy.IsAuthorized(ctx, callerID)
	if err != nil {
		return goerr.Wrap(err, "failed to check authorization", goerr.V(CallerIDKey, callerID))
	}
	if !ok {
		logging.From(ctx).Warn("pairing request denied", CallerIDKey, callerID)
		return goerr.Wrap(ErrAuthorizationDenied, "caller is not on the allow list", goerr.V(CallerIDKey, callerID))
	}
	return nil
}

// Preview validates raw input without executing anything
func (uc *PairingUseCase) Preview(ctx context.Context, callerID model.UserID, raw string) ([]model.ValidatedPair, error) {
	if err := uc.Authorize(ctx, callerID); err != nil {
		return nil, err
	}
	return uc.validate(ctx, raw)
}

// Run validates raw input and executes every valid pair. An empty template
// falls back to the configured default.
func (uc *PairingUseCase) Run(ctx context.Context, callerID model.UserID, raw, introTemplate string) (*PairRunResult, error) {
	if err := uc.Authorize(ctx, callerID); err != nil {
		return nil, err
	}
	return uc.run(ctx, raw, introTemplate)
}

// Search looks up directory users matching query
func (uc *PairingUseCase) Search(ctx context.Context, callerID model.UserID, query string) ([]*model.User, error) {
	if err := uc.Authorize(ctx, callerID); err != nil {
		return nil, err
	}
	return uc.search(ctx, query)
}

// RefreshDirectory rebuilds the directory snapshot now
func (uc *PairingUseCase) RefreshDirectory(ctx context.Context, callerID model.UserID) (*model.DirectorySnapshot, error) {
	if err := uc.Authorize(ctx, callerID); err != nil {
		return nil, err
	}
	return uc.refresh(ctx)
}

func (uc *PairingUseCase) search(ctx context.Context, query string) ([]*model.User, error) {
	snapshot, err := uc.cache.Get(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get directory snapshot")
	}
	return model.Search(query, snapshot, uc.cfg.MaxSearchResults), nil
}

func (uc *PairingUseCase) refresh(ctx context.Context) (*model.DirectorySnapshot, error) {
	snapshot, err := uc.cache.Refresh(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to refresh directory snapshot")
	}
	logging.From(ctx).Info("directory refreshed", "users", snapshot.Len())
	return snapshot, nil
}

func (uc *PairingUseCase) validate(ctx context.Context, raw string) ([]model.ValidatedPair, error) {
	snapshot, err := uc.cache.Get(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get directory snapshot")
	}

	lines := model.ParsePairLines(raw)
	pairs := model.ValidatePairs(lines, snapshot)

	logging.From(ctx).Info("pairs validated",
		"lines", len(lines),
		"valid", len(model.ValidPairs(pairs)),
		"directory_users", snapshot.Len(),
	)
	return pairs, nil
}

func (uc *PairingUseCase) run(ctx context.Context, raw, introTemplate string) (*PairRunResult, error) {
	if uc.conv == nil || uc.sender == nil {
		return nil, goerr.New("messaging is not configured")
	}

	pairs, err := uc.validate(ctx, raw)
	if err != nil {
		return nil, err
	}

	if introTemplate == "" {
		introTemplate = uc.cfg.DefaultIntroTemplate
	}

	return &PairRunResult{
		Pairs:     pairs,
		Execution: uc.executor.Execute(ctx, pairs, introTemplate, uc.conv, uc.sender),
	}, nil
}
