package safe

import (
	"context"
	"io"
	"log/slog"

	"github.com/secmon-lab/idconsole/pkg/utils/logging"
)

// maxDrainBytes bounds how much of an unread response body is discarded before close
const maxDrainBytes = 64 << 10

// Close closes closer and logs a failure. A nil closer is ignored.
func Close(ctx context.Context, closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.From(ctx).Error("Failed to close", slog.Any("error", err))
	}
}

// DrainClose discards what is left of an HTTP response body and closes it,
// so the connection can go back to the keep-alive pool
func DrainClose(ctx context.Context, body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxDrainBytes))
	Close(ctx, body)
}

// Write writes data to w and logs a failure, typically a client that went away
func Write(ctx context.Context, w io.Writer, data []byte) {
	if w == nil {
		return
	}
	if _, err := w.Write(data); err != nil {
		logging.From(ctx).Warn("Failed to write response", slog.Any("error", err))
	}
}

// Copy streams src into dst and returns the number of bytes copied.
// A failure midway is logged with the bytes already sent.
func Copy(ctx context.Context, dst io.Writer, src io.Reader) int64 {
	n, err := io.Copy(dst, src)
	if err != nil {
		logging.From(ctx).Warn("Failed to stream body", slog.Int64("bytes", n), slog.Any("error", err))
	}
	return n
}
