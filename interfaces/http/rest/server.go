package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ShutdownTimeout bounds how long in-flight requests get once shutdown starts
const ShutdownTimeout = 30 * time.Second

// Server runs the HTTP listener next to optional background workers
type Server struct {
	srv        *http.Server
	background []func(context.Context) error
	logger     *zap.Logger
}

// NewServer creates a server for handler on addr
func NewServer(addr string, handler http.Handler, logger *zap.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Go registers a worker that runs until the server's context is done
func (s *Server) Go(worker func(context.Context) error) {
	s.background = append(s.background, worker)
}

// Run serves until ctx is canceled or a worker fails, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Starting server", zap.String("address", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	})

	for _, worker := range s.background {
		worker := worker
		g.Go(func() error { return worker(ctx) })
	}

	return g.Wait()
}
