package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

const shutdownGrace = 5 * time.Second

// Serve runs the HTTP transport on ln until ctx is done, then shuts down
// gracefully.
func (w *Wire) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           w.Transport.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	w.log.Noticef("Listening on %s", ln.Addr())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	w.log.Notice("Shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe binds the configured address and calls Serve.
func (w *Wire) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", w.Config.Server.Address)
	if err != nil {
		return err
	}
	return w.Serve(ctx, ln)
}
