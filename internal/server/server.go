package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	v1 "github.com/qaharness/api-test-framework/api/v1"
	"github.com/qaharness/api-test-framework/internal/config"
	"github.com/qaharness/api-test-framework/internal/server/middlewares"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	srv    *http.Server
	engine *gin.Engine
}

// NewServer builds the router. registerHandlerFn receives the /api group.
func NewServer(cfg config.Web, registerHandlerFn func(router *gin.RouterGroup)) (*Server, error) {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid web port %d", cfg.Port)
	}

	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(middlewares.Logger(), ginzap.RecoveryWithZap(zap.L(), true))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, v1.Envelope{Code: http.StatusOK, Msg: "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api")
	registerHandlerFn(api)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, v1.Envelope{Code: http.StatusNotFound, Msg: "route not found: " + c.Request.URL.Path})
	})

	return &Server{
		engine: engine,
		srv: &http.Server{
			Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Addr() string {
	return s.srv.Addr
}

// Start blocks until ctx is cancelled or the listener fails. Cancellation
// triggers a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	log := zap.S().Named("server")

	errCh := make(chan error, 1)
	go func() {
		log.Infow("http server listening", "addr", s.srv.Addr)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Stop(shutdownCtx)
	}
}

// Stop waits for in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	zap.S().Named("server").Info("shutting down http server")
	if err := s.srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
