package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/riskibarqy/osu-tournament-rating/internal/platform/logging"
)

// Serve runs srv until ctx is cancelled, then shuts it down within grace.
// A listener failure is returned immediately.
func Serve(ctx context.Context, srv *http.Server, grace time.Duration, logger *logging.Logger) error {
	if logger == nil {
		logger = logging.Default()
	}
	failed := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
		close(failed)
	}()

	select {
	case err, ok := <-failed:
		if ok {
			return fmt.Errorf("listen %s: %w", srv.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown %s: %w", srv.Addr, err)
	}
	logger.Info("stopped", "addr", srv.Addr)
	return nil
}

// PprofHandler exposes the net/http/pprof endpoints under /debug/pprof/.
func PprofHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}

// RunPprofServer serves PprofHandler on addr until ctx is done.
func RunPprofServer(ctx context.Context, addr string, logger *logging.Logger) error {
	if logger == nil {
		logger = logging.Default()
	}
	srv := &http.Server{Addr: addr, Handler: PprofHandler(), ReadHeaderTimeout: 5 * time.Second}
	return Serve(ctx, srv, 5*time.Second, logger.Named("pprof"))
}
