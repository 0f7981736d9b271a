package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/catalog/api/handlers"
	"github.com/meghashyamc/catalog/logger"
	"github.com/meghashyamc/catalog/metrics"
	"github.com/meghashyamc/catalog/services/catalog"
	"github.com/meghashyamc/catalog/services/generate"
	"github.com/meghashyamc/catalog/services/search"
)

type healthResponse struct {
	Status      string  `json:"status"`
	Timestamp   string  `json:"timestamp"`
	Uptime      float64 `json:"uptime"`
	Environment string  `json:"environment"`
}

func setupRoutes(router *gin.Engine, s *server) {
	router.GET("/health", health(s.cfg.GetEnvironment(), s.startedAt))
	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	searchService := search.New(s.logger, s.productdb, s.metrics)
	catalogService := catalog.New(s.logger, s.productdb)
	generateService := generate.New(s.logger, s.productdb, s.kvdb, s.metrics, generate.NewRandomSynthesizer())

	handlers.SetupProducts(router, s.logger, searchService, catalogService, s.validator)
	handlers.SetupGenerate(router, s.logger, generateService, s.validator, s.cfg.GetGenerateDefaultCount())
}

// health reports liveness only; it does not touch the stores.
func health(environment string, startedAt time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, healthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
			Uptime:      time.Since(startedAt).Seconds(),
			Environment: environment,
		})
	}
}

func newRouter(logger logger.Logger, metrics *metrics.Metrics) *gin.Engine {
	router := gin.New()
	router.UseRawPath = true
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(_CORSMiddleware())
	router.Use(loggingMiddleware(logger))
	router.Use(metrics.Middleware())

	return router
}
