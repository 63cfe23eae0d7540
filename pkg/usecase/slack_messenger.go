package usecase

import (
	"context"

	"github.com/lheh1167/slack-pair-bot/pkg/domain/interfaces"
	"github.com/lheh1167/slack-pair-bot/pkg/domain/model"
	"github.com/lheh1167/slack-pair-bot/pkg/service/slack"
	"github.com/m-mizutani/goerr/v2"
)

// SlackMessenger opens conversations and posts messages through Slack
type SlackMessenger struct {
	svc slack.Service
}

var (
	_ interfaces.ConversationProvider = &SlackMessenger{}
	_ interfaces.MessageSender        = &SlackMessenger{}
)

func NewSlackMessenger(svc slack.Service) *SlackMessenger {
	return &SlackMessenger{svc: svc}
}

func (m *SlackMessenger) OpenDirect(ctx context.Context, a, b model.UserID) (model.ConversationRef, error) {
	channelID, err := m.svc.OpenConversation(ctx, string(a), string(b))
	if err != nil {
		return "", goerr.Wrap(err, "failed to open direct conversation")
	}
	return model.ConversationRef(channelID), nil
}

func (m *SlackMessenger) Post(ctx context.Context, conversation model.ConversationRef, text string) error {
	if _, err := m.svc.PostMessage(ctx, string(conversation), nil, text); err != nil {
		return goerr.Wrap(err, "failed to post message")
	}
	return nil
}
