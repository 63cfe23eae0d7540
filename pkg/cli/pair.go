package cli

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/lheh1167/slack-pair-bot/pkg/cli/config"
	"github.com/lheh1167/slack-pair-bot/pkg/domain/interfaces"
	"github.com/lheh1167/slack-pair-bot/pkg/domain/model"
	"github.com/lheh1167/slack-pair-bot/pkg/service/directory"
	"github.com/lheh1167/slack-pair-bot/pkg/service/slack"
	"github.com/lheh1167/slack-pair-bot/pkg/usecase"
	"github.com/lheh1167/slack-pair-bot/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// cliCaller identifies local runs in logs. The CLI operator is trusted.
const cliCaller = model.UserID("cli")

// pairingEnv wires the use cases shared by the pair subcommands
type pairingEnv struct {
	pairingCfg config.Pairing
	slackCfg   config.Slack
	repoCfg    config.Repository
	dirCfg     config.Directory
	file       string
}

func (e *pairingEnv) flags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "file",
			Aliases:     []string{"f"},
			Usage:       "File with one pair per line (- or empty reads stdin)",
			Destination: &e.file,
		},
	}
	flags = append(flags, e.pairingCfg.Flags()...)
	flags = append(flags, e.slackCfg.Flags()...)
	flags = append(flags, e.repoCfg.Flags()...)
	flags = append(flags, e.dirCfg.Flags()...)
	return flags
}

func (e *pairingEnv) build(ctx context.Context, c *cli.Command) (*usecase.UseCases, interfaces.Repository, error) {
	pairing, err := e.pairingCfg.Configure(c)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to load pairing configuration")
	}

	var slackSvc slack.Service
	if e.slackCfg.IsConfigured() {
		if slackSvc, err = e.slackCfg.Configure(); err != nil {
			return nil, nil, goerr.Wrap(err, "failed to initialize slack service")
		}
	}

	repo, err := e.repoCfg.Configure(ctx)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to initialize repository")
	}

	provider, err := e.dirCfg.Configure(repo.Directory(), slackSvc)
	if err != nil {
		_ = repo.Close()
		return nil, nil, goerr.Wrap(err, "failed to configure directory source")
	}

	opts := []usecase.Option{
		usecase.WithPairingConfig(pairing),
		usecase.WithAuthPolicy(usecase.AllowAllPolicy{}),
	}
	if slackSvc != nil {
		opts = append(opts, usecase.WithSlackService(slackSvc))
	}

	cache := directory.NewCache(provider, directory.WithTTL(pairing.DirectoryTTL))
	return usecase.New(cache, opts...), repo, nil
}

func (e *pairingEnv) readInput(stdin io.Reader) (string, error) {
	if e.file == "" || e.file == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", goerr.Wrap(err, "failed to read pairs from stdin")
		}
		return string(data), nil
	}

	// #nosec G304 - path is provided by the operator
	data, err := os.ReadFile(e.file)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read pairs file", goerr.V("path", e.file))
	}
	return string(data), nil
}

func closeRepo(repo interfaces.Repository) {
	if err := repo.Close(); err != nil {
		logging.Default().Error("failed to close repository", "error", err.Error())
	}
}

func cmdPair() *cli.Command {
	return &cli.Command{
		Name:    "pair",
		Aliases: []string{"p"},
		Usage:   "Validate and run pairings from the command line",
		Commands: []*cli.Command{
			cmdPairPreview(),
			cmdPairRun(),
			cmdPairSearch(),
		},
	}
}

func cmdPairPreview() *cli.Command {
	var env pairingEnv

	return &cli.Command{
		Name:  "preview",
		Usage: "Check pairs against the directory without sending anything",
		Flags: env.flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, repo, err := env.build(ctx, c)
			if err != nil {
				return err
			}
			defer closeRepo(repo)

			raw, err := env.readInput(os.Stdin)
			if err != nil {
				return err
			}

			pairs, err := uc.Pairing.Preview(ctx, cliCaller, raw)
			if err != nil {
				return goerr.Wrap(err, "failed to preview pairs")
			}
			return printReport(c.Root().Writer, usecase.FormatValidation(pairs))
		},
	}
}

func cmdPairRun() *cli.Command {
	var env pairingEnv
	var introTemplate string

	flags := append(env.flags(), &cli.StringFlag{
		Name:        "template",
		Aliases:     []string{"t"},
		Usage:       "Intro message for this run; defaults to --intro-template",
		Destination: &introTemplate,
	})

	return &cli.Command{
		Name:  "run",
		Usage: "Open a direct message for every valid pair and post the intro",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, repo, err := env.build(ctx, c)
			if err != nil {
				return err
			}
			defer closeRepo(repo)

			if !uc.Slack.IsEnabled() {
				return goerr.New("--slack-bot-token is required to send intros")
			}

			raw, err := env.readInput(os.Stdin)
			if err != nil {
				return err
			}

			result, err := uc.Pairing.Run(ctx, cliCaller, raw, strings.TrimSpace(introTemplate))
			if err != nil {
				return goerr.Wrap(err, "failed to run pairs")
			}
			return printReport(c.Root().Writer, result.Report())
		},
	}
}

func cmdPairSearch() *cli.Command {
	var env pairingEnv

	return &cli.Command{
		Name:      "search",
		Usage:     "Find directory users by handle, name or email",
		ArgsUsage: "<query>",
		Flags:     env.flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			query := strings.Join(c.Args().Slice(), " ")
			if strings.TrimSpace(query) == "" {
				return goerr.New("search query is required")
			}

			uc, repo, err := env.build(ctx, c)
			if err != nil {
				return err
			}
			defer closeRepo(repo)

			users, err := uc.Pairing.Search(ctx, cliCaller, query)
			if err != nil {
				return goerr.Wrap(err, "failed to search directory")
			}
			return printUsers(c.Root().Writer, users)
		},
	}
}
