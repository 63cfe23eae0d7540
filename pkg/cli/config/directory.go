package config

import (
	"log/slog"
	"time"

	"github.com/lheh1167/slack-pair-bot/pkg/domain/interfaces"
	"github.com/lheh1167/slack-pair-bot/pkg/service/directory"
	"github.com/lheh1167/slack-pair-bot/pkg/service/slack"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Directory sources
const (
	DirectorySourceSlack  = "slack"
	DirectorySourceMirror = "mirror"
)

// DefaultRefreshInterval is how often the mirror is synced from Slack
const DefaultRefreshInterval = 10 * time.Minute

// Directory selects where snapshots are built from and how the mirror is kept
type Directory struct {
	source          string
	refreshInterval time.Duration
}

func (x *Directory) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "directory-source",
			Usage:       "Where snapshots are built from: slack (live users.list) or mirror (repository copy)",
			Category:    "Directory",
			Value:       DirectorySourceSlack,
			Sources:     cli.EnvVars("PAIRBOT_DIRECTORY_SOURCE"),
			Destination: &x.source,
		},
		&cli.DurationFlag{
			Name:        "directory-refresh-interval",
			Usage:       "How often the repository mirror is synced from Slack with --directory-source=mirror (0 disables)",
			Category:    "Directory",
			Value:       DefaultRefreshInterval,
			Sources:     cli.EnvVars("PAIRBOT_DIRECTORY_REFRESH_INTERVAL"),
			Destination: &x.refreshInterval,
		},
	}
}

func (x Directory) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("source", x.source),
		slog.Duration("refresh-interval", x.refreshInterval),
	)
}

// RefreshInterval returns how often the mirror is synced. It is zero when
// snapshots come straight from Slack, since nothing reads the mirror then.
func (x *Directory) RefreshInterval() time.Duration {
	if x.source != DirectorySourceMirror {
		return 0
	}
	return x.refreshInterval
}

// Configure returns the provider snapshots are built from
func (x *Directory) Configure(repo interfaces.DirectoryRepository, svc slack.Service) (interfaces.DirectoryProvider, error) {
	if x.refreshInterval < 0 {
		return nil, goerr.Wrap(ErrInvalidConfig, "refresh interval must not be negative", goerr.V(FlagKey, "directory-refresh-interval"))
	}

	switch x.source {
	case DirectorySourceSlack:
		if svc == nil {
			return nil, goerr.Wrap(ErrInvalidConfig, "slack directory source requires --slack-bot-token")
		}
		return directory.NewSlackProvider(svc), nil

	case DirectorySourceMirror:
		if x.refreshInterval == 0 {
			return nil, goerr.Wrap(ErrInvalidConfig, "mirror directory source requires a refresh interval")
		}
		return directory.NewRepositoryProvider(repo), nil

	default:
		return nil, goerr.Wrap(ErrInvalidConfig, "invalid directory source", goerr.V(FlagKey, "directory-source"), goerr.V(ValueKey, x.source))
	}
}
