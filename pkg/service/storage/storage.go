package storage

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/idconsole/pkg/utils/logging"
	"google.golang.org/api/option"
)

// Uploader stores export files
type Uploader interface {
	// Upload writes r to object and returns its gs:// URI
	Upload(ctx context.Context, object, contentType string, r io.Reader) (string, error)
	Close() error
}

// GCS is an Uploader backed by a Cloud Storage bucket
type GCS struct {
	client     *storage.Client
	bucket     string
	clientOpts []option.ClientOption
}

var _ Uploader = (*GCS)(nil)

// Option is a functional option for GCS
type Option func(*GCS)

// WithClientOptions passes options to the Cloud Storage client, e.g. an emulator endpoint
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(g *GCS) {
		g.clientOpts = append(g.clientOpts, opts...)
	}
}

// New creates a GCS uploader for bucket
func New(ctx context.Context, bucket string, opts ...Option) (*GCS, error) {
	if bucket == "" {
		return nil, goerr.New("GCS bucket is required")
	}

	g := &GCS{bucket: bucket}
	for _, opt := range opts {
		opt(g)
	}

	client, err := storage.NewClient(ctx, g.clientOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Cloud Storage client", goerr.V("bucket", bucket))
	}
	g.client = client

	return g, nil
}

func (g *GCS) Upload(ctx context.Context, object, contentType string, r io.Reader) (string, error) {
	if object == "" {
		return "", goerr.New("object name is required")
	}

	// Cancelling the writer context discards a partially written object
	writeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := g.client.Bucket(g.bucket).Object(object).NewWriter(writeCtx)
	w.ContentType = contentType

	n, err := io.Copy(w, r)
	if err != nil {
		cancel()
		return "", goerr.Wrap(err, "failed to write object",
			goerr.V("bucket", g.bucket),
			goerr.V("object", object))
	}
	if err := w.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to finalize object",
			goerr.V("bucket", g.bucket),
			goerr.V("object", object))
	}

	uri := "gs://" + g.bucket + "/" + object
	logging.From(ctx).Info("Uploaded export", "uri", uri, "bytes", n)
	return uri, nil
}

func (g *GCS) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}
