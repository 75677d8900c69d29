package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/idconsole/pkg/cli/config"
	"github.com/secmon-lab/idconsole/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdRelay() *cli.Command {
	var relayCfg config.Relay

	return &cli.Command{
		Name:    "relay",
		Aliases: []string{"r"},
		Usage:   "Run the CORS relay in front of the upstream identity API",
		Flags:   relayCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			handler, err := relayCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to create relay")
			}

			logging.Default().Info("Relay configuration", "relay", relayCfg)
			return runServer(ctx, "relay", relayCfg.Addr(), handler, nil)
		},
	}
}
