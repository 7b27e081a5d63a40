package httpt

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"qrpay/internal/config"
	"qrpay/pkg/logger"
)

const _metricsShutdownTimeout = 5 * time.Second

// HTTPServer serves one handler until its context ends. The API and the
// Prometheus endpoint each run one.
type HTTPServer struct {
	server          *http.Server
	shutdownTimeout time.Duration
	log             logger.Logger

	mu       sync.Mutex
	listener net.Listener
}

func NewHTTPServer(handler http.Handler, cfg *config.HTTP, log logger.Logger) *HTTPServer {
	return &HTTPServer{
		server: &http.Server{
			Addr:              net.JoinHostPort(cfg.Host, cfg.Port),
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             log,
	}
}

// NewMetricsServer exposes the scrape endpoint on its own port.
func NewMetricsServer(handler http.Handler, cfg *config.Metrics, log logger.Logger) *HTTPServer {
	return &HTTPServer{
		server: &http.Server{
			Addr:              net.JoinHostPort(cfg.Host, cfg.Port),
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		},
		shutdownTimeout: _metricsShutdownTimeout,
		log:             log,
	}
}

// Start binds the address, serves until ctx is done and then drains in-flight
// requests for up to the shutdown timeout. A bind failure is returned at once.
func (s *HTTPServer) Start(ctx context.Context) error {
	const op = "transport.http.HTTPServer.Start"

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("%s: listen %s: %w", op, s.server.Addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.server.BaseContext = func(net.Listener) context.Context {
		return context.WithoutCancel(ctx)
	}

	served := make(chan error, 1)
	go func() {
		s.log.Infow("listening", "addr", ln.Addr().String())
		served <- s.server.Serve(ln)
	}()

	select {
	case err = <-served:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%s: serve: %w", op, err)
	case <-ctx.Done():
	}

	if err = s.Stop(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	<-served
	return nil
}

func (s *HTTPServer) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()

	s.log.Infow("draining connections", "timeout", s.shutdownTimeout.String())
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.log.Errorw("forced shutdown", "error", err)
		return fmt.Errorf("transport.http.HTTPServer.Stop: %w", err)
	}
	s.log.Infow("stopped")
	return nil
}

// Addr reports the bound address, which differs from the configured one when
// the port is "0". It is empty before Start.
func (s *HTTPServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
