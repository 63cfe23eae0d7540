package interfaces

import (
	"context"

	"github.com/lheh1167/slack-pair-bot/pkg/domain/model"
)

// ConversationProvider opens (or reuses) a private conversation containing
// exactly a and b
type ConversationProvider interface {
	OpenDirect(ctx context.Context, a, b model.UserID) (model.ConversationRef, error)
}

// MessageSender posts text into a conversation
type MessageSender interface {
	Post(ctx context.Context, conversation model.ConversationRef, text string) error
}
