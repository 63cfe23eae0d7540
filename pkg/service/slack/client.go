package slack

import (
	"context"
	"errors"
	"time"

	"github.com/lheh1167/slack-pair-bot/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

const (
	// slackbotID is Slackbot's fixed member ID. users.list reports it as a
	// regular user.
	slackbotID = "USLACKBOT"

	// DefaultMaxRateLimitRetries is zero: a rate limited call fails unless
	// retries are enabled with WithMaxRateLimitRetries
	DefaultMaxRateLimitRetries = 0

	responseTypeEphemeral = "ephemeral"
)

// client implements Service interface
type client struct {
	api        *slack.Client
	maxRetries int
	apiURL     string
}

// Option is a functional option for client configuration
type Option func(*client)

// WithAPIURL points the client at another Web API base URL. The URL must end
// with a slash.
func WithAPIURL(url string) Option {
	return func(c *client) {
		c.apiURL = url
	}
}

// WithMaxRateLimitRetries sets how many times a rate limited call is retried
func WithMaxRateLimitRetries(n int) Option {
	return func(c *client) {
		c.maxRetries = n
	}
}

// New creates a new Slack service with the provided bot token
func New(token string, opts ...Option) (Service, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}

	c := &client{
		maxRetries: DefaultMaxRateLimitRetries,
	}
	for _, opt := range opts {
		opt(c)
	}

	var apiOpts []slack.Option
	if c.apiURL != "" {
		apiOpts = append(apiOpts, slack.OptionAPIURL(c.apiURL))
	}
	c.api = slack.New(token, apiOpts...)

	return c, nil
}

// withRetry runs fn again when Slack answers with HTTP 429, waiting for the
// advertised Retry-After. ctx cancellation stops the wait.
func (c *client) withRetry(ctx context.Context, method string, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()

		var rateLimited *slack.RateLimitedError
		if err == nil || !errors.As(err, &rateLimited) || attempt >= c.maxRetries {
			return err
		}

		logging.From(ctx).Warn("slack API rate limited, retrying",
			"method", method,
			"retry_after", rateLimited.RetryAfter,
			"attempt", attempt+1,
		)

		timer := time.NewTimer(rateLimited.RetryAfter)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func toUser(u *slack.User) *User {
	return &User{
		ID:          u.ID,
		Name:        u.Name,
		DisplayName: u.Profile.DisplayName,
		RealName:    u.RealName,
		Email:       u.Profile.Email,
		Deleted:     u.Deleted,
		IsBot:       u.IsBot || u.IsAppUser || u.ID == slackbotID,
	}
}

// ListUsers retrieves every member of the workspace in the order Slack
// returns them
func (c *client) ListUsers(ctx context.Context) ([]*User, error) {
	// GetUsersContext waits out rate limits between pages itself
	users, err := c.api.GetUsersContext(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list users")
	}

	result := make([]*User, 0, len(users))
	for i := range users {
		result = append(result, toUser(&users[i]))
	}

	return result, nil
}

// GetUserByEmail retrieves a member by email address
func (c *client) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user *slack.User
	err := c.withRetry(ctx, "users.lookupByEmail", func() error {
		var err error
		user, err = c.api.GetUserByEmailContext(ctx, email)
		return err
	})
	if err != nil {
		var slackErr slack.SlackErrorResponse
		if errors.As(err, &slackErr) && slackErr.Err == "users_not_found" {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to lookup user by email", goerr.V("email", email))
	}

	return toUser(user), nil
}

// OpenConversation opens a direct conversation with the given users
func (c *client) OpenConversation(ctx context.Context, userIDs ...string) (string, error) {
	if len(userIDs) == 0 {
		return "", goerr.New("at least one user is required to open a conversation")
	}

	var channel *slack.Channel
	err := c.withRetry(ctx, "conversations.open", func() error {
		var err error
		channel, _, _, err = c.api.OpenConversationContext(ctx, &slack.OpenConversationParameters{
			Users:    userIDs,
			ReturnIM: true,
		})
		return err
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to open conversation", goerr.V("user_ids", userIDs))
	}

	return channel.ID, nil
}

// PostMessage posts a message to a channel
func (c *client) PostMessage(ctx context.Context, channelID string, blocks []slack.Block, text string) (string, error) {
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if len(blocks) > 0 {
		opts = append(opts, slack.MsgOptionBlocks(blocks...))
	}

	var ts string
	err := c.withRetry(ctx, "chat.postMessage", func() error {
		var err error
		_, ts, err = c.api.PostMessageContext(ctx, channelID, opts...)
		return err
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to post message", goerr.V("channel_id", channelID))
	}

	return ts, nil
}

// PostResponse sends an ephemeral reply to a slash command response_url
func (c *client) PostResponse(ctx context.Context, responseURL string, blocks []slack.Block, text string) error {
	msg := &slack.WebhookMessage{
		Text:         text,
		ResponseType: responseTypeEphemeral,
	}
	if len(blocks) > 0 {
		msg.Blocks = &slack.Blocks{BlockSet: blocks}
	}

	if err := slack.PostWebhookContext(ctx, responseURL, msg); err != nil {
		return goerr.Wrap(err, "failed to post to response_url")
	}
	return nil
}

// OpenView opens a modal
func (c *client) OpenView(ctx context.Context, triggerID string, view slack.ModalViewRequest) error {
	if _, err := c.api.OpenViewContext(ctx, triggerID, view); err != nil {
		return goerr.Wrap(err, "failed to open view", goerr.V("trigger_id", triggerID))
	}
	return nil
}
