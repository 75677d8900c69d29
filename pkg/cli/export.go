package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/idconsole/pkg/cli/config"
	"github.com/secmon-lab/idconsole/pkg/usecase"
	"github.com/secmon-lab/idconsole/pkg/utils/logging"
	"github.com/secmon-lab/idconsole/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

const csvContentType = "text/csv; charset=utf-8"

func cmdExport() *cli.Command {
	var repoCfg config.Repository
	var exportCfg config.Export

	var flags []cli.Flag
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, exportCfg.Flags()...)

	return &cli.Command{
		Name:  "export",
		Usage: "Export the cached users as CSV to stdout, a file, or Cloud Storage",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			// Export reads the cache only, no upstream service is needed
			uc := usecase.New(repo, nil,
				usecase.WithDashboardOptions(usecase.WithNotifyDispatcher(usecase.InlineDispatch)),
			)
			if _, err := uc.Dashboard.Load(ctx); err != nil {
				return goerr.Wrap(err, "failed to load cached users")
			}

			defaultName := usecase.ExportFileName(time.Now())

			if exportCfg.UseGCS() {
				return exportToGCS(ctx, uc.Dashboard, &exportCfg, defaultName)
			}
			return exportToFile(ctx, uc.Dashboard, exportCfg.Output(defaultName))
		},
	}
}

func exportToFile(ctx context.Context, dashboard *usecase.DashboardUseCase, path string) error {
	if path == "-" {
		_, err := dashboard.ExportCSV(ctx, os.Stdout)
		return err
	}

	var buf bytes.Buffer
	n, err := dashboard.ExportCSV(ctx, &buf)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return goerr.Wrap(err, "failed to create export file", goerr.V("path", path))
	}
	defer safe.Close(ctx, f)

	if _, err := io.Copy(f, &buf); err != nil {
		return goerr.Wrap(err, "failed to write export file", goerr.V("path", path))
	}

	_, _ = colorOK.Fprintf(os.Stderr, "Exported %d records to %s\n", n, path)
	return nil
}

func exportToGCS(ctx context.Context, dashboard *usecase.DashboardUseCase, cfg *config.Export, defaultName string) error {
	uploader, err := cfg.Configure(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to configure cloud storage")
	}
	defer safe.Close(ctx, uploader)

	var buf bytes.Buffer
	n, err := dashboard.ExportCSV(ctx, &buf)
	if err != nil {
		return err
	}

	location, err := uploader.Upload(ctx, cfg.Object(defaultName), csvContentType, &buf)
	if err != nil {
		return err
	}

	_, _ = colorOK.Fprintf(os.Stderr, "Exported %d records to %s\n", n, location)
	logging.Default().Info("Export uploaded", "location", location, "count", n)
	return nil
}
