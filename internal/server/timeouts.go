// internal/server/timeouts.go
//
// HTTP server helper with robust timeouts and graceful shutdown.
//
// Production hardening recommends:
//
//   • ReadTimeout   – abort slow-loris headers (10 s)
//   • WriteTimeout  – cap total response time (15 s)
//   • IdleTimeout   – close keep-alives on idle clients (60 s)
//
// This helper centralises those defaults so cmd/formlint doesn’t repeat
// boilerplate.  Run blocks until ctx ends, then drains in-flight requests.
//

package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultShutdown bounds the drain when Run is given no timeout.
const DefaultShutdown = 10 * time.Second

// New constructs an *http.Server with sensible defaults.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// Run serves on ln (or srv.Addr when ln is nil) until ctx is cancelled,
// then shuts down within grace.  A clean shutdown returns nil.
func Run(ctx context.Context, srv *http.Server, ln net.Listener, grace time.Duration, log *zap.SugaredLogger) error {
	if log == nil {
		log = zap.S()
	}
	if grace <= 0 {
		grace = DefaultShutdown
	}
	if ln == nil {
		var err error
		if ln, err = net.Listen("tcp", srv.Addr); err != nil {
			return err
		}
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("http server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Infow("http server shutting down", "grace", grace)
	sctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Warnw("http server shutdown incomplete", "err", err)
		return err
	}
	<-errCh
	return nil
}
