package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/catalog/logger"
	"github.com/meghashyamc/catalog/services/generate"
	"github.com/meghashyamc/catalog/validation"
)

type GenerateRequest struct {
	Count *int `json:"count" validate:"omitempty,valid_count"`
}

type GenerateResponse struct {
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Inserted  int    `json:"inserted"`
	Skipped   int    `json:"skipped"`
}

func (r *GenerateRequest) count(defaultCount int) int {
	if r.Count == nil {
		return defaultCount
	}

	return *r.Count
}

func SetupGenerate(router *gin.Engine, logger logger.Logger, service *generate.Service, validator *validation.Validator, defaultCount int) {
	router.POST("/products/generate", handleGenerate(service, logger, validator, defaultCount))
	router.GET("/products/generate", handleListRuns(service, logger))
	router.GET("/products/generate/:id", handleGetRun(service, logger))
}

func handleGenerate(service *generate.Service, logger logger.Logger, validator *validation.Validator, defaultCount int) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := GenerateRequest{}
		// An empty body asks for the default count.
		if c.Request.Body != nil && c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&request); err != nil && !errors.Is(err, io.EOF) {
				logger.Warn("could not extract expected params from generate request", "request_id", requestID(c), "err", err.Error())
				writeError(c, http.StatusUnprocessableEntity, "failed to extract request body parameters")
				return
			}
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate generate request", "request_id", requestID(c), "err", err.Error())
			writeError(c, http.StatusNotAcceptable, err.Error())
			return
		}

		result, err := service.Generate(c.Request.Context(), request.count(defaultCount), requestID(c))
		if err != nil {
			if errors.Is(err, generate.ErrInvalidCount) {
				writeError(c, http.StatusNotAcceptable, err.Error())
				return
			}
			logger.Error("generating products failed", "request_id", requestID(c), "err", err.Error())
			writeError(c, http.StatusInternalServerError, "Failed to generate products")
			return
		}

		writeResponse(c, GenerateResponse{
			Message:   result.Message(),
			RequestID: result.RequestID,
			Inserted:  result.Inserted,
			Skipped:   result.Skipped,
		}, http.StatusOK)
	}
}

func handleListRuns(service *generate.Service, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		runs, err := service.ListRuns()
		if err != nil {
			logger.Error("listing generation runs failed", "request_id", requestID(c), "err", err.Error())
			writeError(c, http.StatusInternalServerError, "Failed to fetch generation runs")
			return
		}

		writeResponse(c, runs, http.StatusOK)
	}
}

func handleGetRun(service *generate.Service, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		run, err := service.GetRun(c.Param("id"))
		if err != nil {
			if errors.Is(err, generate.ErrRunNotFound) {
				writeError(c, http.StatusNotFound, "Generation run not found")
				return
			}
			logger.Error("getting generation run failed", "request_id", requestID(c), "err", err.Error())
			writeError(c, http.StatusInternalServerError, "Failed to fetch generation run")
			return
		}

		writeResponse(c, run, http.StatusOK)
	}
}
