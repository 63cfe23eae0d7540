package config

import (
	"context"
	"log/slog"

	"github.com/lheh1167/slack-pair-bot/pkg/domain/interfaces"
	"github.com/lheh1167/slack-pair-bot/pkg/repository/firestore"
	"github.com/lheh1167/slack-pair-bot/pkg/repository/memory"
	"github.com/lheh1167/slack-pair-bot/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Repository holds flags for the directory mirror backend
type Repository struct {
	backend          string
	projectID        string
	databaseID       string
	collectionPrefix string
}

// Flags returns CLI flags for repository configuration
func (r *Repository) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repository-backend",
			Usage:       "Directory mirror backend (memory or firestore)",
			Category:    "Repository",
			Value:       "memory",
			Sources:     cli.EnvVars("PAIRBOT_REPOSITORY_BACKEND"),
			Destination: &r.backend,
		},
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore Project ID (required when using firestore backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("PAIRBOT_FIRESTORE_PROJECT_ID"),
			Destination: &r.projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-collection-prefix",
			Usage:       "Prefix for Firestore collection names",
			Category:    "Repository",
			Sources:     cli.EnvVars("PAIRBOT_FIRESTORE_COLLECTION_PREFIX"),
			Destination: &r.collectionPrefix,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore Database ID",
			Category:    "Repository",
			Sources:     cli.EnvVars("PAIRBOT_FIRESTORE_DATABASE_ID"),
			Destination: &r.databaseID,
		},
	}
}

func (r Repository) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", r.backend),
		slog.String("project-id", r.projectID),
		slog.String("database-id", r.databaseID),
	)
}

// Backend returns the configured backend type
func (r *Repository) Backend() string {
	return r.backend
}

// Configure initializes and returns a repository based on the configured backend.
// The caller is responsible for calling Close() on the returned repository.
func (r *Repository) Configure(ctx context.Context) (interfaces.Repository, error) {
	switch r.backend {
	case "firestore":
		if r.projectID == "" {
			return nil, goerr.Wrap(ErrInvalidConfig, "firestore-project-id is required when using firestore backend")
		}
		var opts []firestore.Option
		if r.collectionPrefix != "" {
			opts = append(opts, firestore.WithCollectionPrefix(r.collectionPrefix))
		}
		repo, err := firestore.New(ctx, r.projectID, r.databaseID, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize firestore repository")
		}
		logging.Default().Info("Using Firestore repository",
			"project_id", r.projectID,
			"database_id", r.databaseID,
		)
		return repo, nil

	case "memory":
		logging.Default().Info("Using in-memory directory mirror")
		return memory.New(), nil

	default:
		return nil, goerr.Wrap(ErrInvalidConfig, "invalid repository backend", goerr.V(FlagKey, "repository-backend"), goerr.V(ValueKey, r.backend))
	}
}

// FirestoreTarget identifies the Firestore database holding the mirror
type FirestoreTarget struct {
	ProjectID        string
	DatabaseID       string
	CollectionPrefix string
}

// Firestore returns the configured Firestore target regardless of backend.
// ProjectID is required.
func (r *Repository) Firestore() (FirestoreTarget, error) {
	if r.projectID == "" {
		return FirestoreTarget{}, goerr.Wrap(ErrInvalidConfig, "firestore-project-id is required", goerr.V(FlagKey, "firestore-project-id"))
	}
	return FirestoreTarget{
		ProjectID:        r.projectID,
		DatabaseID:       r.databaseID,
		CollectionPrefix: r.collectionPrefix,
	}, nil
}
