package usecase

import (
	"github.com/lheh1167/slack-pair-bot/pkg/domain/interfaces"
	"github.com/lheh1167/slack-pair-bot/pkg/domain/model/config"
	"github.com/lheh1167/slack-pair-bot/pkg/service/directory"
	"github.com/lheh1167/slack-pair-bot/pkg/service/slack"
)

type UseCases struct {
	pairingConfig *config.PairingConfig
	policy        interfaces.AuthPolicy
	rateLimit     RateLimitPolicy
	slackService  slack.Service
	conv          interfaces.ConversationProvider
	sender        interfaces.MessageSender

	Pairing *PairingUseCase
	Slack   *SlackUseCases
}

type Option func(*UseCases)

func WithPairingConfig(cfg *config.PairingConfig) Option {
	return func(uc *UseCases) {
		uc.pairingConfig = cfg
	}
}

func WithAuthPolicy(policy interfaces.AuthPolicy) Option {
	return func(uc *UseCases) {
		uc.policy = policy
	}
}

// WithRateLimit overrides the delay between pairs derived from the config
func WithRateLimit(policy RateLimitPolicy) Option {
	return func(uc *UseCases) {
		uc.rateLimit = policy
	}
}

// WithSlackService enables Slack commands and, unless WithMessenger is
// given, sends intros through Slack
func WithSlackService(svc slack.Service) Option {
	return func(uc *UseCases) {
		uc.slackService = svc
	}
}

func WithMessenger(conv interfaces.ConversationProvider, sender interfaces.MessageSender) Option {
	return func(uc *UseCases) {
		uc.conv = conv
		uc.sender = sender
	}
}

func New(cache *directory.Cache, opts ...Option) *UseCases {
	uc := &UseCases{}
	for _, opt := range opts {
		opt(uc)
	}

	if uc.pairingConfig == nil {
		uc.pairingConfig = config.DefaultPairingConfig()
	}
	if uc.rateLimit == nil {
		uc.rateLimit = FixedDelay{Delay: uc.pairingConfig.InterPairDelay}
	}
	if uc.slackService != nil && uc.conv == nil && uc.sender == nil {
		messenger := NewSlackMessenger(uc.slackService)
		uc.conv, uc.sender = messenger, messenger
	}

	executor := NewBatchExecutor(WithRateLimitPolicy(uc.rateLimit))
	uc.Pairing = NewPairingUseCase(cache, uc.policy, executor, uc.conv, uc.sender, uc.pairingConfig)
	uc.Slack = NewSlackUseCases(uc.Pairing, uc.slackService)

	return uc
}
