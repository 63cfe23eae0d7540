package config

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"time"

	domainConfig "github.com/lheh1167/slack-pair-bot/pkg/domain/model/config"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// Pairing holds pairing workflow flags. Values come from defaults, then the
// TOML file given by --config, then explicitly set flags or env vars.
type Pairing struct {
	configPath        string
	directoryTTL      time.Duration
	interPairDelay    time.Duration
	introTemplate     string
	maxSearchResults  int
	authorizedCallers []string
}

// pairingFile is the TOML layout of --config. Durations use Go syntax ("5m").
type pairingFile struct {
	DirectoryTTL      *string  `toml:"directory_ttl"`
	InterPairDelay    *string  `toml:"inter_pair_delay"`
	IntroTemplate     *string  `toml:"intro_template"`
	MaxSearchResults  *int     `toml:"max_search_results"`
	AuthorizedCallers []string `toml:"authorized_callers"`
}

func (x *Pairing) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Pairing configuration file (TOML)",
			Category:    "Pairing",
			Sources:     cli.EnvVars("PAIRBOT_CONFIG"),
			Destination: &x.configPath,
		},
		&cli.DurationFlag{
			Name:        "directory-ttl",
			Usage:       "How long a directory snapshot is reused",
			Category:    "Pairing",
			Value:       domainConfig.DefaultDirectoryTTL,
			Sources:     cli.EnvVars("PAIRBOT_DIRECTORY_TTL"),
			Destination: &x.directoryTTL,
		},
		&cli.DurationFlag{
			Name:        "inter-pair-delay",
			Usage:       "Delay between two pairs of a batch",
			Category:    "Pairing",
			Value:       domainConfig.DefaultInterPairDelay,
			Sources:     cli.EnvVars("PAIRBOT_INTER_PAIR_DELAY"),
			Destination: &x.interPairDelay,
		},
		&cli.StringFlag{
			Name:        "intro-template",
			Usage:       "Default intro message; {user1}/{user2} become mentions, {name1}/{name2} names",
			Category:    "Pairing",
			Value:       domainConfig.DefaultIntroTemplate,
			Sources:     cli.EnvVars("PAIRBOT_INTRO_TEMPLATE"),
			Destination: &x.introTemplate,
		},
		&cli.IntFlag{
			Name:        "max-search-results",
			Usage:       "Maximum users returned by a directory search",
			Category:    "Pairing",
			Value:       domainConfig.DefaultMaxSearchResults,
			Sources:     cli.EnvVars("PAIRBOT_MAX_SEARCH_RESULTS"),
			Destination: &x.maxSearchResults,
		},
		&cli.StringSliceFlag{
			Name:        "authorized-caller",
			Usage:       "Slack user ID or email allowed to run pairings (repeatable, empty allows everyone)",
			Category:    "Pairing",
			Sources:     cli.EnvVars("PAIRBOT_AUTHORIZED_CALLERS"),
			Destination: &x.authorizedCallers,
		},
	}
}

func (x Pairing) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("config", x.configPath),
		slog.Duration("directory-ttl", x.directoryTTL),
		slog.Duration("inter-pair-delay", x.interPairDelay),
		slog.Int("max-search-results", x.maxSearchResults),
		slog.Int("authorized-callers", len(x.authorizedCallers)),
	)
}

// Configure resolves and validates the pairing configuration
func (x *Pairing) Configure(c *cli.Command) (*domainConfig.PairingConfig, error) {
	cfg := domainConfig.DefaultPairingConfig()

	if x.configPath != "" {
		if err := loadPairingFile(x.configPath, cfg); err != nil {
			return nil, err
		}
	}

	if c.IsSet("directory-ttl") {
		cfg.DirectoryTTL = x.directoryTTL
	}
	if c.IsSet("inter-pair-delay") {
		cfg.InterPairDelay = x.interPairDelay
	}
	if c.IsSet("intro-template") {
		cfg.DefaultIntroTemplate = x.introTemplate
	}
	if c.IsSet("max-search-results") {
		cfg.MaxSearchResults = x.maxSearchResults
	}
	if c.IsSet("authorized-caller") {
		cfg.AuthorizedCallers = x.authorizedCallers
	}

	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "pairing configuration is invalid",
			goerr.V(ConfigPathKey, x.configPath), goerr.V("error", err))
	}
	return cfg, nil
}

func parseDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, goerr.Wrap(ErrInvalidConfig, "invalid duration", goerr.V(FlagKey, key), goerr.V(ValueKey, value))
	}
	return d, nil
}

func loadPairingFile(path string, cfg *domainConfig.PairingConfig) error {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return goerr.Wrap(ErrConfigNotFound, "pairing config file does not exist", goerr.V(ConfigPathKey, path))
		}
		return goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var file pairingFile
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		return goerr.Wrap(ErrInvalidConfig, "failed to parse TOML config", goerr.V(ConfigPathKey, path), goerr.V("error", err))
	}

	if file.DirectoryTTL != nil {
		if cfg.DirectoryTTL, err = parseDuration("directory_ttl", *file.DirectoryTTL); err != nil {
			return err
		}
	}
	if file.InterPairDelay != nil {
		if cfg.InterPairDelay, err = parseDuration("inter_pair_delay", *file.InterPairDelay); err != nil {
			return err
		}
	}
	if file.IntroTemplate != nil {
		cfg.DefaultIntroTemplate = *file.IntroTemplate
	}
	if file.MaxSearchResults != nil {
		cfg.MaxSearchResults = *file.MaxSearchResults
	}
	if file.AuthorizedCallers != nil {
		cfg.AuthorizedCallers = file.AuthorizedCallers
	}

	return nil
}
