// Package server exposes the signing service over HTTP.
//
// Routes live under /_api/v1:
//
//	POST /sign             sign the raw request body
//	POST /sign-store-path  sign the fingerprint of the store path in the body
//	GET  /publickey        list the public keys of the configured keys
//
// Every other request is answered with 404 Not Found.
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/vitalvas/narsign/config"
	"github.com/vitalvas/narsign/service"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// APIPrefix is the path prefix of every route.
const APIPrefix = "/_api/v1"

// ErrInvalidMaxSize is returned when the body limit is not greater than zero.
var ErrInvalidMaxSize = errors.New("server: max body size must be greater than zero")

// Server is the HTTP front of a service.Service.
type Server struct {
	cfg     config.Config
	svc     *service.Service
	logger  *zap.Logger
	engine  *gin.Engine
	handler http.Handler
}

// New builds the router for svc. logger may be nil.
func New(cfg config.Config, svc *service.Service, logger *zap.Logger) (*Server, error) {
	sizeLimit, err := RequestSizeLimitMiddleware(RequestSizeLimitConfig{MaxBytes: cfg.MaxBodyBytes})
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		cfg:    cfg,
		svc:    svc,
		logger: logger.Named("http"),
		engine: gin.New(),
	}

	s.engine.Use(accessLogMiddleware(s.logger))
	s.routes()

	s.handler = Chain(s.engine,
		RequestIDMiddleware(RequestIDConfig{TrustIncoming: cfg.TrustRequestID}),
		RecoveryMiddleware(RecoveryConfig{LogFunc: s.logPanic}),
		sizeLimit,
	)

	if cfg.H2C {
		s.handler = h2c.NewHandler(s.handler, &http2.Server{})
	}

	return s, nil
}

func (s *Server) routes() {
	v1 := s.engine.Group(APIPrefix)
	{
		v1.POST("/sign", s.handleSign)
		v1.POST("/sign-store-path", s.handleSignStorePath)
		v1.GET("/publickey", s.handlePublicKey)
	}

	s.engine.NoRoute(func(c *gin.Context) {
		c.String(http.StatusNotFound, "Not Found")
	})
}

func (s *Server) logPanic(r *http.Request, err any) {
	s.logger.Error("panic recovered",
		zap.String("request_id", RequestIDFromContext(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Any("panic", err),
		zap.Stack("stack"),
	)
}

// Handler returns the root handler, wrapped for h2c when enabled.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on the configured bind address and serves until ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig

	ln, err := lc.Listen(ctx, "tcp", s.cfg.Bind)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.cfg.Bind)
	}

	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully within the configured timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(s.logger),
	}

	s.logger.Info("listening",
		zap.String("addr", ln.Addr().String()),
		zap.Bool("h2c", s.cfg.H2C),
	)

	errCh := make(chan error, 1)

	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return errors.Wrap(err, "serve")

	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	s.logger.Info("shutting down")

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "serve")
	}

	return nil
}
