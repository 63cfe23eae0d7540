package config_test

import (
	"testing"
	"time"

	"github.com/lheh1167/slack-pair-bot/pkg/domain/model/config"
	"github.com/m-mizutani/gt"
)

func TestPairingConfig_Validate(t *testing.T) {
	t.Run("default is valid", func(t *testing.T) {
		gt.NoError(t, config.DefaultPairingConfig().Validate())
	})

	tests := []struct {
		name   string
		modify func(c *config.PairingConfig)
	}{
		{"zero ttl", func(c *config.PairingConfig) { c.DirectoryTTL = 0 }},
		{"negative delay", func(c *config.PairingConfig) { c.InterPairDelay = -time.Second }},
		{"empty template", func(c *config.PairingConfig) { c.DefaultIntroTemplate = "" }},
		{"zero search results", func(c *config.PairingConfig) { c.MaxSearchResults = 0 }},
		{"too many search results", func(c *config.PairingConfig) { c.MaxSearchResults = 101 }},
		{"empty caller", func(c *config.PairingConfig) { c.AuthorizedCallers = []string{"U1", ""} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := config.DefaultPairingConfig()
			tt.modify(c)
			gt.Error(t, c.Validate())
		})
	}

	t.Run("zero delay is allowed", func(t *testing.T) {
		c := config.DefaultPairingConfig()
		c.InterPairDelay = 0
		gt.NoError(t, c.Validate())
	})
}
