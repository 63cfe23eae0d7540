package cli

import (
	"testing"

	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/gt"
)

func TestDirectoryIndexes(t *testing.T) {
	t.Run("uses the prefixed collection", func(t *testing.T) {
		cfg := directoryIndexes("staging")
		gt.Array(t, cfg.Collections).Length(1).Required()
		gt.Value(t, cfg.Collections[0].Name).Equal("staging_directory_entries")
	})

	t.Run("orders email matches by position", func(t *testing.T) {
		cfg := directoryIndexes("")
		gt.Array(t, cfg.Collections[0].Indexes).Length(1).Required()
		gt.Value(t, cfg.Collections[0].Indexes[0].Fields).Equal([]fireconf.IndexField{
			{Path: "email_lower", Order: fireconf.OrderAscending},
			{Path: "position", Order: fireconf.OrderAscending},
		})
	})
}
