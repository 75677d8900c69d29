package config

import (
	"context"
	"log/slog"

	"github.com/secmon-lab/idconsole/pkg/service/storage"
	"github.com/urfave/cli/v3"
)

// Export holds CLI flags for the CSV export destination
type Export struct {
	output    string
	gcsBucket string
	gcsObject string
}

func (x *Export) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Output file path, or - for stdout. Defaults to the dated export file name",
			Category:    "Export",
			Sources:     cli.EnvVars("IDCONSOLE_EXPORT_OUTPUT"),
			Destination: &x.output,
		},
		&cli.StringFlag{
			Name:        "gcs-bucket",
			Usage:       "Upload the export to this Cloud Storage bucket instead of a local file",
			Category:    "Export",
			Sources:     cli.EnvVars("IDCONSOLE_EXPORT_GCS_BUCKET"),
			Destination: &x.gcsBucket,
		},
		&cli.StringFlag{
			Name:        "gcs-object",
			Usage:       "Object name in the bucket. Defaults to the dated export file name",
			Category:    "Export",
			Sources:     cli.EnvVars("IDCONSOLE_EXPORT_GCS_OBJECT"),
			Destination: &x.gcsObject,
		},
	}
}

func (x Export) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("output", x.output),
		slog.String("gcs_bucket", x.gcsBucket),
		slog.String("gcs_object", x.gcsObject),
	)
}

// Output returns the local output path, or defaultName when none was given
func (x *Export) Output(defaultName string) string {
	if x.output == "" {
		return defaultName
	}
	return x.output
}

// Object returns the GCS object name, or defaultName when none was given
func (x *Export) Object(defaultName string) string {
	if x.gcsObject == "" {
		return defaultName
	}
	return x.gcsObject
}

// UseGCS reports whether the export goes to Cloud Storage
func (x *Export) UseGCS() bool {
	return x.gcsBucket != ""
}

// Configure creates the Cloud Storage uploader. It returns nil when no bucket is set.
func (x *Export) Configure(ctx context.Context) (storage.Uploader, error) {
	if !x.UseGCS() {
		return nil, nil
	}
	uploader, err := storage.New(ctx, x.gcsBucket)
	if err != nil {
		return nil, err
	}
	return uploader, nil
}
