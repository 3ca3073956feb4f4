package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// ShutdownTimeout bounds how long [Shutdown] waits for in-flight requests.
const ShutdownTimeout = 5 * time.Second

// Serve binds addr and serves handler in the background.
//
// Binding happens before Serve returns, so an occupied port fails fast. The returned channel
// receives any error other than [http.ErrServerClosed] and is closed when the server stops.
func Serve(ctx context.Context, addr string, handler http.Handler) (*http.Server, <-chan error, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to bind %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()
	return srv, errs, nil
}

// Shutdown gracefully stops srv, waiting at most [ShutdownTimeout].
func Shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
