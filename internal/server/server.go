package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roach88/weavebridge/internal/config"
	"github.com/roach88/weavebridge/internal/engine"
	"github.com/roach88/weavebridge/internal/ir"
	"github.com/roach88/weavebridge/internal/logging"
	"github.com/roach88/weavebridge/internal/metrics"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8100"

// SourceNameHeader names the data source a request targets. It is accepted
// for CORS but otherwise unused.
const SourceNameHeader = "X-Hasura-DataConnector-SourceName"

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// Options configures a Server.
type Options struct {
	// Base is overlaid by each request's config header.
	Base config.Config

	// Logger defaults to a discarding logger.
	Logger *slog.Logger
}

// Server exposes an Engine over HTTP.
type Server struct {
	engine *engine.Engine
	base   config.Config
	logger *slog.Logger
	router *gin.Engine
}

// New builds a Server and its routes.
func New(eng *engine.Engine, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), cors(), observe(), requestLog(logger))

	s := &Server{engine: eng, base: opts.Base, logger: logger, router: router}

	router.GET("/health", s.health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/config-schema", s.configSchema)
	router.POST("/query", s.query)
	router.POST("/mutation", s.mutation)

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func (s *Server) configSchema(c *gin.Context) {
	c.JSON(http.StatusOK, config.ConfigSchemaResponse())
}

func (s *Server) query(c *gin.Context) {
	req, err := ir.DecodeQueryRequest(c.Request.Body)
	if err != nil {
		s.fail(c, err)
		return
	}
	cfg, err := config.FromHeader(s.base, c.GetHeader(config.HeaderName))
	if err != nil {
		s.fail(c, err)
		return
	}

	resp, err := s.engine.Query(c.Request.Context(), cfg, req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) mutation(c *gin.Context) {
	req, err := ir.DecodeMutationRequest(c.Request.Body)
	if err != nil {
		s.fail(c, err)
		return
	}
	cfg, err := config.FromHeader(s.base, c.GetHeader(config.HeaderName))
	if err != nil {
		s.fail(c, err)
		return
	}

	resp, err := s.engine.Mutate(c.Request.Context(), cfg, req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) fail(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Request.URL.Path, "status", status, "error", err)
	} else {
		s.logger.Debug("request rejected", "path", c.Request.URL.Path, "status", status, "error", err)
	}
	c.JSON(status, errorBody(err))
}
