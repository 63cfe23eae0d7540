package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lheh1167/slack-pair-bot/pkg/domain/model"
	"github.com/lheh1167/slack-pair-bot/pkg/service/slack"
	"github.com/lheh1167/slack-pair-bot/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	goslack "github.com/slack-go/slack"
)

// Slash command subcommands. Anything else is treated as pair lines.
const (
	subcommandHelp    = "help"
	subcommandPreview = "preview"
	subcommandFind    = "find"
	subcommandSearch  = "search"
	subcommandRefresh = "refresh"
)

// SlackUseCases adapts the pairing pipeline to slash commands and modals
type SlackUseCases struct {
	pairing      *PairingUseCase
	slackService slack.Service
}

// NewSlackUseCases creates a new SlackUseCases instance
func NewSlackUseCases(pairing *PairingUseCase, slackService slack.Service) *SlackUseCases {
	return &SlackUseCases{
		pairing:      pairing,
		slackService: slackService,
	}
}

// IsEnabled reports whether a Slack service is configured
func (uc *SlackUseCases) IsEnabled() bool {
	return uc.slackService != nil
}

func splitSubcommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ""
	}

	head, rest, _ := strings.Cut(text, " ")
	if i := strings.IndexAny(head, "\r\n"); i >= 0 {
		head, rest = head[:i], text[i:]
	}

	switch sub := strings.ToLower(head); sub {
	case subcommandHelp, subcommandPreview, subcommandFind, subcommandSearch, subcommandRefresh:
		return sub, strings.TrimSpace(rest)
	}
	return "pairs", text
}

// HandleSlashCommand answers a slash command through its response URL
func (uc *SlackUseCases) HandleSlashCommand(ctx context.Context, cmd goslack.SlashCommand) error {
	if uc.slackService == nil {
		return goerr.New("slack service is not configured")
	}

	logger := logging.From(ctx).With("command", cmd.Command, CallerIDKey, cmd.UserID)
	ctx = logging.With(ctx, logger)

	sub, rest := splitSubcommand(cmd.Text)
	logger.Info("slash command received", "subcommand", sub)

	if sub == subcommandHelp {
		return uc.respond(ctx, cmd.ResponseURL, BuildHelpBlocks(cmd.Command), "Pairing help")
	}

	if err := uc.pairing.Authorize(ctx, model.UserID(cmd.UserID)); err != nil {
		return uc.respondError(ctx, cmd.ResponseURL, err)
	}

	switch sub {
	case "":
		view := BuildPairsModal(uc.pairing.Config().DefaultIntroTemplate)
		if err := uc.slackService.OpenView(ctx, cmd.TriggerID, view); err != nil {
			return goerr.Wrap(err, "failed to open pairing modal")
		}
		return nil

	case subcommandPreview:
		if rest == "" {
			return uc.respond(ctx, cmd.ResponseURL, BuildHelpBlocks(cmd.Command), "Pairing help")
		}
		pairs, err := uc.pairing.validate(ctx, rest)
		if err != nil {
			return uc.respondError(ctx, cmd.ResponseURL, err)
		}
		report := FormatValidation(pairs)
		return uc.respond(ctx, cmd.ResponseURL, BuildReportBlocks(report), ReportSummary(report))

	case subcommandFind, subcommandSearch:
		users, err := uc.pairing.search(ctx, rest)
		if err != nil {
			return uc.respondError(ctx, cmd.ResponseURL, err)
		}
		return uc.respond(ctx, cmd.ResponseURL, BuildSearchBlocks(rest, users), fmt.Sprintf("%d users found", len(users)))

	case subcommandRefresh:
		snapshot, err := uc.pairing.refresh(ctx)
		if err != nil {
			return uc.respondError(ctx, cmd.ResponseURL, err)
		}
		text := fmt.Sprintf(":arrows_counterclockwise: Directory refreshed, %d users available.", snapshot.Len())
		return uc.respond(ctx, cmd.ResponseURL, BuildMessageBlocks(text), text)
	}

	progress := ":hourglass_flowing_sand: Pairing in progress…"
	if err := uc.respond(ctx, cmd.ResponseURL, BuildMessageBlocks(progress), progress); err != nil {
		logger.Warn("failed to post progress message", "error", err)
	}

	result, err := uc.pairing.run(ctx, rest, "")
	if err != nil {
		return uc.respondError(ctx, cmd.ResponseURL, err)
	}
	report := result.Report()
	return uc.respond(ctx, cmd.ResponseURL, BuildReportBlocks(report), ReportSummary(report))
}

// ValidateModalSubmission returns input errors keyed by block ID, or nil
// when the submission can be accepted
func (uc *SlackUseCases) ValidateModalSubmission(callback *goslack.InteractionCallback) map[string]string {
	pairs, _ := ParsePairsModal(callback.View)
	if len(model.ParsePairLines(pairs)) == 0 {
		return map[string]string{
			PairsBlockID: "Enter at least one pair, for example: @alice, @bob",
		}
	}
	return nil
}

// HandleModalSubmission runs the submitted pairs and sends the report to the
// submitter in a direct message
func (uc *SlackUseCases) HandleModalSubmission(ctx context.Context, callback *goslack.InteractionCallback) error {
	if uc.slackService == nil {
		return goerr.New("slack service is not configured")
	}

	caller := model.UserID(callback.User.ID)
	logger := logging.From(ctx).With(CallerIDKey, caller)
	ctx = logging.With(ctx, logger)

	raw, introTemplate := ParsePairsModal(callback.View)

	if err := uc.pairing.Authorize(ctx, caller); err != nil {
		return uc.notifyError(ctx, caller, err)
	}

	result, err := uc.pairing.run(ctx, raw, introTemplate)
	if err != nil {
		return uc.notifyError(ctx, caller, err)
	}

	report := result.Report()
	return uc.notify(ctx, caller, BuildReportBlocks(report), ReportSummary(report))
}

func (uc *SlackUseCases) respond(ctx context.Context, responseURL string, blocks []goslack.Block, text string) error {
	if err := uc.slackService.PostResponse(ctx, responseURL, blocks, text); err != nil {
		return goerr.Wrap(err, "failed to respond to slash command")
	}
	return nil
}

// notify sends a direct message from the bot to user
func (uc *SlackUseCases) notify(ctx context.Context, user model.UserID, blocks []goslack.Block, text string) error {
	channelID, err := uc.slackService.OpenConversation(ctx, string(user))
	if err != nil {
		return goerr.Wrap(err, "failed to open conversation with submitter", goerr.V(CallerIDKey, user))
	}
	if _, err := uc.slackService.PostMessage(ctx, channelID, blocks, text); err != nil {
		return goerr.Wrap(err, "failed to send report to submitter", goerr.V(CallerIDKey, user))
	}
	return nil
}

// errorText maps a pipeline error to what the operator sees. Denials are
// expected and not returned as errors.
func errorText(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrAuthorizationDenied):
		return ":no_entry: You are not allowed to use this command.", false
	case errors.Is(err, ErrDirectoryUnavailable):
		return ":x: The user directory is unavailable right now. Nothing was sent, please try again in a minute.", true
	default:
		return ":x: Pairing failed unexpectedly. Nothing more was sent.", true
	}
}

func (uc *SlackUseCases) respondError(ctx context.Context, responseURL string, err error) error {
	text, fatal := errorText(err)
	if rerr := uc.respond(ctx, responseURL, BuildMessageBlocks(text), text); rerr != nil {
		logging.From(ctx).Warn("failed to report error to caller", "error", rerr)
	}
	if fatal {
		return err
	}
	return nil
}

func (uc *SlackUseCases) notifyError(ctx context.Context, user model.UserID, err error) error {
	text, fatal := errorText(err)
	if nerr := uc.notify(ctx, user, BuildMessageBlocks(text), text); nerr != nil {
		logging.From(ctx).Warn("failed to report error to submitter", "error", nerr)
	}
	if fatal {
		return err
	}
	return nil
}
