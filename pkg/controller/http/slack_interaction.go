package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/lheh1167/slack-pair-bot/pkg/usecase"
	"github.com/lheh1167/slack-pair-bot/pkg/utils/async"
	"github.com/lheh1167/slack-pair-bot/pkg/utils/errutil"
	"github.com/lheh1167/slack-pair-bot/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

// SlackInteractionHandler handles Slack interactive payloads (modal submissions)
type SlackInteractionHandler struct {
	slackUC *usecase.SlackUseCases
}

// NewSlackInteractionHandler creates a new Slack interaction handler
func NewSlackInteractionHandler(slackUC *usecase.SlackUseCases) *SlackInteractionHandler {
	return &SlackInteractionHandler{
		slackUC: slackUC,
	}
}

// ServeHTTP handles Slack interaction webhook requests
func (h *SlackInteractionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Slack sends interaction payloads as application/x-www-form-urlencoded
	// with a "payload" field containing JSON
	payload := r.FormValue("payload")
	if payload == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("missing payload field in interaction request"), http.StatusBadRequest)
		return
	}

	var callback slack.InteractionCallback
	if err := json.Unmarshal([]byte(payload), &callback); err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to parse interaction payload"), http.StatusBadRequest)
		return
	}

	if callback.Type != slack.InteractionTypeViewSubmission || callback.View.CallbackID != usecase.PairsModalCallbackID {
		logging.From(ctx).Debug("ignoring slack interaction",
			"type", callback.Type,
			"callback_id", callback.View.CallbackID,
		)
		w.WriteHeader(http.StatusOK)
		return
	}

	// Input errors keep the modal open
	if errs := h.slackUC.ValidateModalSubmission(&callback); len(errs) > 0 {
		writeJSON(ctx, w, http.StatusOK, slack.NewErrorsViewSubmissionResponse(errs))
		return
	}

	w.WriteHeader(http.StatusOK)

	async.Dispatch(ctx, func(ctx context.Context) error {
		if err := h.slackUC.HandleModalSubmission(ctx, &callback); err != nil {
			return goerr.Wrap(err, "failed to handle pairing modal submission")
		}
		return nil
	})
}
