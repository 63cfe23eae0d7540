package cli

import (
	"context"

	"github.com/lheh1167/slack-pair-bot/pkg/cli/config"
	"github.com/lheh1167/slack-pair-bot/pkg/service/directory"
	"github.com/lheh1167/slack-pair-bot/pkg/service/worker"
	"github.com/lheh1167/slack-pair-bot/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdSync() *cli.Command {
	var slackCfg config.Slack
	var repoCfg config.Repository

	var flags []cli.Flag
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:  "sync",
		Usage: "Copy the Slack user directory into the repository mirror once",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			slackSvc, err := slackCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to initialize slack service")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer closeRepo(repo)

			// Interval is unused for a single refresh
			w := worker.NewDirectoryRefreshWorker(repo, directory.NewSlackProvider(slackSvc), 0)
			if err := w.Refresh(ctx); err != nil {
				return goerr.Wrap(err, "failed to sync directory")
			}

			meta, err := repo.Directory().GetMetadata(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to read directory metadata")
			}
			logger.Info("Directory synced",
				"users", meta.UserCount,
				"at", meta.LastRefreshSuccess,
			)
			return nil
		},
	}
}
