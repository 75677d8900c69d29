package cli

import (
	"context"
	"strings"

	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/idconsole/pkg/repository/firestore"
	"github.com/secmon-lab/idconsole/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	var projectID string
	var databaseID string
	var collectionPrefix string
	var dryRun bool

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Migrate Firestore indexes of the identity cache",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "firestore-project-id",
				Usage:       "Firestore Project ID (required)",
				Required:    true,
				Sources:     cli.EnvVars("IDCONSOLE_FIRESTORE_PROJECT_ID"),
				Destination: &projectID,
			},
			&cli.StringFlag{
				Name:        "firestore-database-id",
				Usage:       "Firestore Database ID",
				Value:       "(default)",
				Sources:     cli.EnvVars("IDCONSOLE_FIRESTORE_DATABASE_ID"),
				Destination: &databaseID,
			},
			&cli.StringFlag{
				Name:        "firestore-collection-prefix",
				Usage:       "Prefix of the Firestore collections holding the identity cache",
				Sources:     cli.EnvVars("IDCONSOLE_FIRESTORE_COLLECTION_PREFIX"),
				Destination: &collectionPrefix,
			},
			&cli.BoolFlag{
				Name:        "dry-run",
				Usage:       "Preview changes without applying",
				Destination: &dryRun,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			logger.Info("Migrate configuration",
				"projectID", projectID,
				"databaseID", databaseID,
				"collectionPrefix", collectionPrefix,
				"dryRun", dryRun)

			indexConfig := getIndexConfig(collectionPrefix)

			client, err := fireconf.New(ctx, projectID, databaseID, indexConfig,
				fireconf.WithLogger(logger))
			if err != nil {
				return goerr.Wrap(err, "failed to create fireconf client")
			}
			defer func() {
				if err := client.Close(); err != nil {
					logger.Error("failed to close fireconf client", "error", err.Error())
				}
			}()

			if dryRun {
				logger.Info("Dry run mode - previewing changes")
				names := make([]string, len(indexConfig.Collections))
				for i, col := range indexConfig.Collections {
					names[i] = col.Name
				}
				current, err := client.Import(ctx, names...)
				if err != nil {
					return goerr.Wrap(err, "failed to import current indexes")
				}
				diff, err := client.DiffConfigs(current)
				if err != nil {
					return goerr.Wrap(err, "failed to diff index configuration")
				}

				steps := migrationSteps(diff)
				if len(steps) == 0 {
					logger.Info("No changes required")
					return nil
				}
				for _, step := range steps {
					logger.Info("Migration step",
						"collection", step.Collection,
						"operation", step.Operation,
						"fields", step.Fields)
				}
				return nil
			}

			logger.Info("Applying migrations")
			if err := client.Migrate(ctx); err != nil {
				return goerr.Wrap(err, "failed to apply migrations")
			}
			logger.Info("Migrations applied successfully")
			return nil
		},
	}
}

type migrationStep struct {
	Collection string
	Operation  fireconf.DiffAction
	Fields     string
}

// migrationSteps flattens diff into one step per index to add or delete
func migrationSteps(diff *fireconf.DiffResult) []migrationStep {
	var steps []migrationStep
	for _, col := range diff.Collections {
		for _, idx := range col.IndexesToAdd {
			steps = append(steps, migrationStep{Collection: col.Name, Operation: fireconf.ActionAdd, Fields: indexFields(idx)})
		}
		for _, idx := range col.IndexesToDelete {
			steps = append(steps, migrationStep{Collection: col.Name, Operation: fireconf.ActionDelete, Fields: indexFields(idx)})
		}
	}
	return steps
}

func indexFields(idx fireconf.Index) string {
	parts := make([]string, len(idx.Fields))
	for i, f := range idx.Fields {
		parts[i] = f.Path + " " + string(f.Order)
	}
	return strings.Join(parts, ", ")
}

// getIndexConfig returns the composite indexes of the cached user collection.
// They back console queries run directly against Firestore, such as inactive
// accounts ordered by last sign in.
func getIndexConfig(collectionPrefix string) *fireconf.Config {
	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name: firestore.UsersCollection(collectionPrefix),
				Indexes: []fireconf.Index{
					// is_active ASC, last_sign_in DESC
					{
						Fields: []fireconf.IndexField{
							{Path: "is_active", Order: fireconf.OrderAscending},
							{Path: "last_sign_in", Order: fireconf.OrderDescending},
						},
					},
					// is_active ASC, created_at DESC
					{
						Fields: []fireconf.IndexField{
							{Path: "is_active", Order: fireconf.OrderAscending},
							{Path: "created_at", Order: fireconf.OrderDescending},
						},
					},
				},
			},
		},
	}
}
