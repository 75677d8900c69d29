package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/idconsole/pkg/utils/logging"
)

const (
	readHeaderTimeout = 30 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// runServer serves handler on addr until ctx is canceled or SIGINT/SIGTERM arrives.
// beforeShutdown runs before the server is drained.
func runServer(ctx context.Context, name, addr string, handler http.Handler, beforeShutdown func()) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Setup signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		logging.Default().Info("Starting "+name, "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- goerr.Wrap(err, "failed to start server", goerr.V("addr", addr))
		}
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logging.Default().Info("Received shutdown signal", "signal", sig)
	case <-ctx.Done():
		logging.Default().Info("Context canceled, shutting down")
	}

	if beforeShutdown != nil {
		beforeShutdown()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return goerr.Wrap(err, "failed to shutdown server gracefully")
	}

	logging.Default().Info("Server shutdown completed", "name", name)
	return nil
}
