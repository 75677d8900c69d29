package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/idconsole/pkg/cli/config"
	httpctrl "github.com/secmon-lab/idconsole/pkg/controller/http"
	"github.com/secmon-lab/idconsole/pkg/service/worker"
	"github.com/secmon-lab/idconsole/pkg/usecase"
	"github.com/secmon-lab/idconsole/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var repoCfg config.Repository
	var syncCfg config.Sync
	var slackCfg config.Slack

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("IDCONSOLE_ADDR"),
			Destination: &addr,
		},
	}

	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, syncCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the dashboard API with the background sync worker",
		Flags:   flags,
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

			svc, _, err := syncCfg.NewService()
			if err != nil {
				return err
			}

			ucOpts := []usecase.Option{
				usecase.WithSyncOptions(syncCfg.UseCaseOptions()...),
			}

			slackSvc, err := slackCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure slack")
			}
			if slackSvc != nil {
				ucOpts = append(ucOpts, usecase.WithDashboardOptions(usecase.WithNotifier(slackSvc)))
				logging.Default().Info("Slack notices enabled", "slack", slackCfg)
			} else {
				logging.Default().Info("Slack not configured, notices are kept in the dashboard only")
			}

			uc := usecase.New(repo, svc, ucOpts...)

			syncWorker := worker.NewSyncRefreshWorker(uc.Dashboard, syncCfg.Interval())
			if err := syncWorker.Start(ctx); err != nil {
				return goerr.Wrap(err, "failed to start sync refresh worker")
			}

			handler, err := httpctrl.New(uc.Dashboard)
			if err != nil {
				syncWorker.Stop()
				return goerr.Wrap(err, "failed to create http server")
			}

			logging.Default().Info("Serve configuration", "sync", syncCfg)
			return runServer(ctx, "dashboard API", addr, handler, syncWorker.Stop)
		},
	}
}
