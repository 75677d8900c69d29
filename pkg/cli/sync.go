package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/idconsole/pkg/cli/config"
	"github.com/secmon-lab/idconsole/pkg/domain/types"
	"github.com/secmon-lab/idconsole/pkg/usecase"
	"github.com/secmon-lab/idconsole/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdSync() *cli.Command {
	var repoCfg config.Repository
	var syncCfg config.Sync
	var slackCfg config.Slack

	var flags []cli.Flag
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, syncCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)

	return &cli.Command{
		Name:  "sync",
		Usage: "Run one explicit sync and persist the result before exiting",
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

			svc, loc, err := syncCfg.NewService()
			if err != nil {
				return err
			}

			syncOpts := append(syncCfg.UseCaseOptions(),
				usecase.WithDispatcher(usecase.InlineDispatch),
				usecase.WithProgress(func(count int) {
					logging.Default().Info("Fetching users", "count", count)
				}),
			)
			dashOpts := []usecase.DashboardOption{
				usecase.WithNotifyDispatcher(usecase.InlineDispatch),
			}

			slackSvc, err := slackCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure slack")
			}
			if slackSvc != nil {
				dashOpts = append(dashOpts, usecase.WithNotifier(slackSvc))
			}

			uc := usecase.New(repo, svc,
				usecase.WithSyncOptions(syncOpts...),
				usecase.WithDashboardOptions(dashOpts...),
			)

			if _, err := uc.Dashboard.Load(ctx); err != nil {
				logging.Default().Warn("Failed to load cached users", "error", err.Error())
			}

			logging.Default().Info("Resolved backend", "url", loc.ResolveOrDefault(ctx))

			outcome, err := uc.Dashboard.Sync(ctx, types.SyncModeExplicit)
			if err != nil {
				if outcome != nil && outcome.ConnectionError != "" {
					_, _ = colorError.Fprintln(os.Stderr, outcome.ConnectionError)
				} else if outcome != nil {
					printNotice(os.Stderr, outcome.Notice)
				}
				return goerr.Wrap(err, "sync failed")
			}

			printNotice(os.Stdout, outcome.Notice)
			_, _ = colorOK.Fprintf(os.Stdout, "Synced %d users\n", outcome.Count)
			return nil
		},
	}
}
