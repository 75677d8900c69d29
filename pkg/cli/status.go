package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/idconsole/pkg/cli/config"
	"github.com/secmon-lab/idconsole/pkg/usecase"
	"github.com/secmon-lab/idconsole/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdStatus() *cli.Command {
	var repoCfg config.Repository
	var syncCfg config.Sync
	var probe bool

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "probe",
			Usage:       "Also probe the relay candidates and print the reachable one",
			Destination: &probe,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, syncCfg.Flags()...)

	return &cli.Command{
		Name:  "status",
		Usage: "Print the freshness of the cached user directory",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := syncCfg.Configure(c); err != nil {
				return goerr.Wrap(err, "failed to configure sync")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			uc := usecase.New(repo, nil, usecase.WithSyncOptions(syncCfg.UseCaseOptions()...))
			if _, err := uc.Dashboard.Load(ctx); err != nil {
				return goerr.Wrap(err, "failed to load cached users")
			}

			status, err := uc.Dashboard.Status(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to read sync status")
			}
			printStatus(os.Stdout, status, uc.Sync.StaleThreshold())

			if !probe {
				return nil
			}

			_, loc, err := syncCfg.NewService()
			if err != nil {
				return err
			}
			backend, err := loc.Resolve(ctx)
			if err != nil {
				printField(os.Stdout, "Backend", colorError.Sprintf("unreachable, falling back to %s", loc.Fallback()))
				return nil
			}
			printField(os.Stdout, "Backend", colorOK.Sprint(backend))
			return nil
		},
	}
}
