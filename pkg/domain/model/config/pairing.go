package config

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lheh1167/slack-pair-bot/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// DefaultIntroTemplate is posted into each pair's conversation unless the
// operator supplies another one. {user1} and {user2} become mentions.
const DefaultIntroTemplate = "Hi {user1} and {user2} :wave: You have been paired up! Find some time this week to get to know each other."

const (
	DefaultDirectoryTTL     = model.DefaultDirectoryTTL
	DefaultInterPairDelay   = 200 * time.Millisecond
	DefaultMaxSearchResults = model.DefaultMaxSearchResults
)

// PairingConfig holds the tunables of the pairing workflow
type PairingConfig struct {
	DirectoryTTL         time.Duration `validate:"gt=0"`
	InterPairDelay       time.Duration `validate:"gte=0"`
	DefaultIntroTemplate string        `validate:"required"`
	MaxSearchResults     int           `validate:"gte=1,lte=100"`
	// AuthorizedCallers lists Slack user IDs or emails allowed to trigger
	// runs. Empty means everyone is allowed.
	AuthorizedCallers []string `validate:"dive,required"`
}

// DefaultPairingConfig returns the configuration used when nothing is set
func DefaultPairingConfig() *PairingConfig {
	return &PairingConfig{
		DirectoryTTL:         DefaultDirectoryTTL,
		InterPairDelay:       DefaultInterPairDelay,
		DefaultIntroTemplate: DefaultIntroTemplate,
		MaxSearchResults:     DefaultMaxSearchResults,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints
func (c *PairingConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return goerr.Wrap(err, "invalid pairing configuration")
	}
	return nil
}
