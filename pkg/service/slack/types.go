package slack

import (
	"context"

	"github.com/slack-go/slack"
)

// Service provides the subset of the Slack Web API used for pairing
type Service interface {
	// ListUsers retrieves every member of the workspace, including deleted
	// members and bots. Callers filter with User.Deleted and User.IsBot.
	ListUsers(ctx context.Context) ([]*User, error)

	// GetUserByEmail retrieves one member by email. Returns nil, nil when
	// Slack reports users_not_found.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// OpenConversation opens (or reuses) a direct or multi-person direct
	// conversation with exactly userIDs and returns the channel ID
	OpenConversation(ctx context.Context, userIDs ...string) (string, error)

	// PostMessage posts a message to a channel and returns the message
	// timestamp. blocks may be empty; text is the notification fallback.
	PostMessage(ctx context.Context, channelID string, blocks []slack.Block, text string) (string, error)

	// PostResponse replies through a slash command response_url. The reply
	// is only visible to the caller.
	PostResponse(ctx context.Context, responseURL string, blocks []slack.Block, text string) error

	// OpenView opens a modal using the trigger ID of an interaction
	OpenView(ctx context.Context, triggerID string, view slack.ModalViewRequest) error
}

// User represents a Slack workspace member
type User struct {
	ID          string
	Name        string // Slack username (e.g., "john.doe")
	DisplayName string
	RealName    string
	Email       string
	Deleted     bool
	IsBot       bool // bots, app users and Slackbot
}
