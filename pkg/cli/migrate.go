package cli

import (
	"context"
	"fmt"

	"github.com/lheh1167/slack-pair-bot/pkg/cli/config"
	"github.com/lheh1167/slack-pair-bot/pkg/repository/firestore"
	"github.com/lheh1167/slack-pair-bot/pkg/utils/logging"
	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	var repoCfg config.Repository
	var dryRun bool

	flags := append(repoCfg.Flags(), &cli.BoolFlag{
		Name:        "dry-run",
		Usage:       "Print the index plan without applying it",
		Destination: &dryRun,
	})

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Create the Firestore indexes used by the directory mirror",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			target, err := repoCfg.Firestore()
			if err != nil {
				return err
			}
			logging.Default().Info("Migrating directory mirror indexes",
				"project_id", target.ProjectID,
				"database_id", target.DatabaseID,
				"collection", firestore.DirectoryEntriesCollection(target.CollectionPrefix),
				"dry_run", dryRun)

			client, err := fireconf.NewClient(ctx, target.ProjectID, target.DatabaseID)
			if err != nil {
				return goerr.Wrap(err, "failed to create fireconf client")
			}
			defer func() {
				if err := client.Close(); err != nil {
					logging.Default().Error("failed to close fireconf client", "error", err.Error())
				}
			}()

			indexes := directoryIndexes(target.CollectionPrefix)
			w := writerOrStdout(c.Root().Writer)

			if dryRun {
				plan, err := client.GetMigrationPlan(ctx, indexes)
				if err != nil {
					return goerr.Wrap(err, "failed to create migration plan")
				}
				if len(plan.Steps) == 0 {
					mutedColor.Fprintln(w, "No index changes required")
					return nil
				}
				for _, step := range plan.Steps {
					marker := successColor.Sprint("+")
					if step.Destructive {
						marker = failureColor.Sprint("!")
					}
					fmt.Fprintf(w, "%s %s  %s  %s\n", marker, step.Collection, step.Operation, step.Description)
				}
				return nil
			}

			if err := client.Migrate(ctx, indexes); err != nil {
				return goerr.Wrap(err, "failed to apply index migration")
			}
			successColor.Fprintln(w, "Directory mirror indexes are up to date")
			return nil
		},
	}
}

// directoryIndexes lists the composite indexes behind email lookups in the
// mirror. Entries sharing an email resolve to the lowest position.
func directoryIndexes(collectionPrefix string) *fireconf.Config {
	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name: firestore.DirectoryEntriesCollection(collectionPrefix),
				Indexes: []fireconf.Index{
					{
						Fields: []fireconf.IndexField{
							{Path: "email_lower", Order: fireconf.OrderAscending},
							{Path: "position", Order: fireconf.OrderAscending},
						},
					},
				},
			},
		},
	}
}
