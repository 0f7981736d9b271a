package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/catalog/config"
	"github.com/meghashyamc/catalog/db/kvdb"
	"github.com/meghashyamc/catalog/db/productdb"
	"github.com/meghashyamc/catalog/logger"
	"github.com/meghashyamc/catalog/metrics"
	"github.com/meghashyamc/catalog/validation"
)

const shutdownTimeout = 10 * time.Second

type server struct {
	cfg        *config.Config
	router     *gin.Engine
	httpServer *http.Server
	productdb  productdb.DB
	kvdb       kvdb.DB
	validator  *validation.Validator
	metrics    *metrics.Metrics
	logger     logger.Logger
	startedAt  time.Time
}

// Run serves the catalog API until ctx is done or the process is signalled.
func Run(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s := newServer(cfg, logger.New(cfg.GetLogLevel()))
	if err := s.setupDependencies(); err != nil {
		return err
	}
	s.setupRouter()

	serveErr := s.setupHTTPServer()
	return s.setupGracefulShutdown(ctx, serveErr)
}

// NewHandler wires the stores and services configured by cfg into an
// http.Handler without listening. The returned function releases the stores.
func NewHandler(cfg *config.Config, logger logger.Logger) (http.Handler, func() error, error) {
	s := newServer(cfg, logger)
	if err := s.setupDependencies(); err != nil {
		return nil, nil, err
	}
	s.setupRouter()

	return s.router.Handler(), s.closeStores, nil
}

func newServer(cfg *config.Config, logger logger.Logger) *server {
	return &server{
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics.New(),
		startedAt: time.Now(),
	}
}

func (s *server) setupDependencies() error {
	var err error
	s.productdb, err = productdb.New(s.logger, s.cfg)
	if err != nil {
		s.logger.Error("error creating product database", "err", err.Error())
		return err
	}
	s.kvdb, err = kvdb.New(s.logger, s.cfg)
	if err != nil {
		s.logger.Error("error creating kvDB", "err", err.Error())
		s.productdb.Close()
		return err
	}
	s.validator, err = validation.New(s.logger, validation.Limits{
		MaxGenerateCount:  s.cfg.GetGenerateMaxCount(),
		MaxSearchTermSize: s.cfg.GetSearchMaxTermLength(),
	})
	if err != nil {
		s.logger.Error("error creating validator", "err", err.Error())
		s.closeStores()
		return err
	}

	return nil
}

func (s *server) setupRouter() {
	router := newRouter(s.logger, s.metrics)

	setupRoutes(router, s)

	s.router = router
}

func (s *server) setupHTTPServer() <-chan error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%s", s.cfg.GetPort()),
		Handler:           s.router.Handler(),
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadHeaderTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       2 * s.cfg.GetWriteTimeout(),
	}

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", "addr", s.httpServer.Addr, "environment", s.cfg.GetEnvironment())
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	return serveErr
}

func (s *server) setupGracefulShutdown(ctx context.Context, serveErr <-chan error) error {

	var wg sync.WaitGroup
	var shutdownErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case err, ok := <-serveErr:
			if ok && err != nil {
				s.logger.Error("http server stopped", "err", err.Error())
				shutdownErr = err
				s.closeStores()
				return
			}
		case <-ctx.Done():
		}

		s.logger.Info("starting to shut down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error shutting down http server", "err", err)
			shutdownErr = err
		}
		if err := s.closeStores(); err != nil {
			s.logger.Error("error closing stores", "err", err)
		}
		s.logger.Info("shut down http server successfully")
	}()

	wg.Wait()
	return shutdownErr
}

func (s *server) closeStores() error {
	var firstErr error
	if s.kvdb != nil {
		if err := s.kvdb.Close(); err != nil {
			firstErr = err
		}
	}
	if s.productdb != nil {
		if err := s.productdb.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
