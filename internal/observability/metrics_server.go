package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// MetricsServer serves the prometheus registry on its own listener. It
// implements suture.Service so the supervisor restarts it on failure.
type MetricsServer struct {
	addr    string
	metrics *Metrics
	logger  *zap.Logger
}

// NewMetricsServer builds the supervised metrics listener.
func NewMetricsServer(addr string, metrics *Metrics, logger *zap.Logger) *MetricsServer {
	return &MetricsServer{addr: addr, metrics: metrics, logger: logger}
}

// Serve runs the listener until the supervisor context is cancelled.
func (s *MetricsServer) Serve(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.metrics.Handler())

	server := &http.Server{Addr: s.addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	s.logger.Info("metrics listener started", zap.String("addr", s.addr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	}
}

func (s *MetricsServer) String() string {
	return "metrics-server"
}
