package config

import (
	"log/slog"

	"github.com/lheh1167/slack-pair-bot/pkg/service/slack"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

type Slack struct {
	botToken      string
	signingSecret string
	apiURL        string
	maxRetries    int
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token (users:read, users:read.email, im:write, mpim:write, chat:write)",
			Category:    "Slack",
			Destination: &x.botToken,
			Sources:     cli.EnvVars("PAIRBOT_SLACK_BOT_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-signing-secret",
			Usage:       "Slack Signing Secret (for slash command and interaction verification)",
			Category:    "Slack",
			Destination: &x.signingSecret,
			Sources:     cli.EnvVars("PAIRBOT_SLACK_SIGNING_SECRET"),
		},
		&cli.StringFlag{
			Name:        "slack-api-url",
			Usage:       "Slack Web API base URL, ending with a slash",
			Category:    "Slack",
			Destination: &x.apiURL,
			Sources:     cli.EnvVars("PAIRBOT_SLACK_API_URL"),
		},
		&cli.IntFlag{
			Name:        "slack-max-retries",
			Usage:       "Retries for a rate limited Slack call (0 disables retry)",
			Category:    "Slack",
			Value:       slack.DefaultMaxRateLimitRetries,
			Destination: &x.maxRetries,
			Sources:     cli.EnvVars("PAIRBOT_SLACK_MAX_RETRIES"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.Int("signing-secret.len", len(x.signingSecret)),
		slog.String("api-url", x.apiURL),
		slog.Int("max-retries", x.maxRetries),
	)
}

// IsConfigured reports whether a bot token is set
func (x *Slack) IsConfigured() bool {
	return x.botToken != ""
}

// IsWebhookConfigured checks if Slack webhook is configured
func (x *Slack) IsWebhookConfigured() bool {
	return x.signingSecret != ""
}

// SigningSecret returns the Slack signing secret
func (x *Slack) SigningSecret() string {
	return x.signingSecret
}

// Configure creates the Slack service
func (x *Slack) Configure() (slack.Service, error) {
	if x.botToken == "" {
		return nil, goerr.Wrap(ErrInvalidConfig, "--slack-bot-token is required", goerr.V(FlagKey, "slack-bot-token"))
	}
	if x.maxRetries < 0 {
		return nil, goerr.Wrap(ErrInvalidConfig, "--slack-max-retries must not be negative", goerr.V(ValueKey, x.maxRetries))
	}

	opts := []slack.Option{
		slack.WithMaxRateLimitRetries(x.maxRetries),
	}
	if x.apiURL != "" {
		opts = append(opts, slack.WithAPIURL(x.apiURL))
	}

	svc, err := slack.New(x.botToken, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize slack service")
	}
	return svc, nil
}
