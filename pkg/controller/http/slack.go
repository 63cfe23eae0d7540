package http

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/lheh1167/slack-pair-bot/pkg/usecase"
	"github.com/lheh1167/slack-pair-bot/pkg/utils/async"
	"github.com/lheh1167/slack-pair-bot/pkg/utils/errutil"
	"github.com/lheh1167/slack-pair-bot/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

// verifySlackSignature checks the v0 request signature and rejects
// timestamps older than five minutes
func verifySlackSignature(signingSecret string, header http.Header, body []byte) error {
	verifier, err := slack.NewSecretsVerifier(header, signingSecret)
	if err != nil {
		return goerr.Wrap(err, "invalid slack signature headers")
	}
	if _, err := verifier.Write(body); err != nil {
		return goerr.Wrap(err, "failed to compute HMAC")
	}
	if err := verifier.Ensure(); err != nil {
		return goerr.Wrap(err, "signature mismatch")
	}
	return nil
}

// SlackSignatureMiddleware creates a middleware that verifies Slack request signatures
func SlackSignatureMiddleware(signingSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			body, err := io.ReadAll(r.Body)
			if err != nil {
				errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
				return
			}
			defer func() {
				if err := r.Body.Close(); err != nil {
					logging.From(ctx).Error("failed to close request body", "error", err)
				}
			}()

			if err := verifySlackSignature(signingSecret, r.Header, body); err != nil {
				errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "slack signature verification failed"), http.StatusUnauthorized)
				return
			}

			// Restore the body for form parsing downstream
			r.Body = io.NopCloser(bytes.NewBuffer(body))
			next.ServeHTTP(w, r)
		})
	}
}

// SlackCommandHandler handles slash command requests
type SlackCommandHandler struct {
	slackUC *usecase.SlackUseCases
}

func NewSlackCommandHandler(slackUC *usecase.SlackUseCases) *SlackCommandHandler {
	return &SlackCommandHandler{
		slackUC: slackUC,
	}
}

// ServeHTTP acknowledges the command at once and answers through the
// command's response URL, since a batch easily outlasts Slack's 3-second
// deadline
func (h *SlackCommandHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cmd, err := slack.SlashCommandParse(r)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to parse slash command"), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)

	async.Dispatch(ctx, func(ctx context.Context) error {
		logging.From(ctx).Info("processing slash command",
			"team_id", cmd.TeamID,
			"channel_id", cmd.ChannelID,
		)

		if err := h.slackUC.HandleSlashCommand(ctx, cmd); err != nil {
			return goerr.Wrap(err, "failed to handle slash command")
		}
		return nil
	})
}
