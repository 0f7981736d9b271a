package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/catalog/db/productdb"
	"github.com/meghashyamc/catalog/logger"
	"github.com/meghashyamc/catalog/services/catalog"
	"github.com/meghashyamc/catalog/services/search"
	"github.com/meghashyamc/catalog/validation"
)

// PageRequest is optional: without per_page the full result is returned.
type PageRequest struct {
	PerPage int `form:"per_page" validate:"min=0,max=1000"`
	Page    int `form:"page" validate:"min=0"`
}

type ListRequest struct {
	PageRequest
}

type SearchRequest struct {
	Query string `form:"q" validate:"valid_term"`
	PageRequest
}

type CountResponse struct {
	Count int64 `json:"count"`
}

func SetupProducts(router *gin.Engine, logger logger.Logger, searchService *search.Service, catalogService *catalog.Service, validator *validation.Validator) {
	router.GET("/products", handleList(searchService, logger, validator))
	router.GET("/products/search", handleSearch(searchService, logger, validator))
	router.GET("/products/count", handleCount(catalogService, logger))
	router.GET("/products/:id", handleGet(catalogService, logger))
	router.DELETE("/products", handleClear(catalogService, logger))
	router.DELETE("/products/:id", handleDelete(catalogService, logger))
}

func handleList(service *search.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := ListRequest{}
		if !bindQuery(c, logger, validator, &request) {
			return
		}

		products, err := service.ListAll(c.Request.Context())
		if err != nil {
			logger.Error("listing products failed", "request_id", requestID(c), "err", err.Error())
			writeError(c, http.StatusInternalServerError, "Failed to fetch products")
			return
		}

		writeResponse(c, paginate(c, products, request.PageRequest), http.StatusOK)
	}
}

func handleSearch(service *search.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := SearchRequest{}
		if !bindQuery(c, logger, validator, &request) {
			return
		}

		products, err := service.Search(c.Request.Context(), request.Query)
		if err != nil {
			logger.Error("search failed", "request_id", requestID(c), "err", err.Error())
			writeError(c, http.StatusInternalServerError, "Failed to search products")
			return
		}

		writeResponse(c, paginate(c, products, request.PageRequest), http.StatusOK)
	}
}

func handleCount(service *catalog.Service, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := service.Count(c.Request.Context())
		if err != nil {
			logger.Error("counting products failed", "request_id", requestID(c), "err", err.Error())
			writeError(c, http.StatusInternalServerError, "Failed to count products")
			return
		}

		writeResponse(c, CountResponse{Count: count}, http.StatusOK)
	}
}

func handleClear(service *catalog.Service, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		deleted, err := service.Clear(c.Request.Context())
		if err != nil {
			logger.Error("clearing products failed", "request_id", requestID(c), "err", err.Error())
			writeError(c, http.StatusInternalServerError, "Failed to clear products")
			return
		}

		writeResponse(c, messageResponse{Message: "Deleted " + strconv.FormatInt(deleted, 10) + " products"}, http.StatusOK)
	}
}

func handleGet(service *catalog.Service, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := productID(c, logger)
		if !ok {
			return
		}

		product, err := service.Get(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				writeError(c, http.StatusNotFound, "Product not found")
				return
			}
			logger.Error("getting product failed", "request_id", requestID(c), "id", id, "err", err.Error())
			writeError(c, http.StatusInternalServerError, "Failed to fetch product")
			return
		}

		writeResponse(c, product, http.StatusOK)
	}
}

func handleDelete(service *catalog.Service, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := productID(c, logger)
		if !ok {
			return
		}

		if err := service.Delete(c.Request.Context(), id); err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				writeError(c, http.StatusNotFound, "Product not found")
				return
			}
			logger.Error("deleting product failed", "request_id", requestID(c), "id", id, "err", err.Error())
			writeError(c, http.StatusInternalServerError, "Failed to delete product")
			return
		}

		writeResponse(c, messageResponse{Message: "Deleted product " + strconv.FormatInt(id, 10)}, http.StatusOK)
	}
}

func productID(c *gin.Context, logger logger.Logger) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		logger.Warn("invalid product id", "request_id", requestID(c), "id", c.Param("id"))
		writeError(c, http.StatusNotAcceptable, "invalid product id")
		return 0, false
	}

	return id, true
}

func bindQuery(c *gin.Context, logger logger.Logger, validator *validation.Validator, request any) bool {
	if err := c.ShouldBindQuery(request); err != nil {
		logger.Warn("could not extract expected query params", "request_id", requestID(c), "err", err.Error())
		writeError(c, http.StatusUnprocessableEntity, "failed to extract request query parameters")
		return false
	}

	if err := validator.Validate(request); err != nil {
		logger.Warn("could not validate request", "request_id", requestID(c), "err", err.Error())
		writeError(c, http.StatusNotAcceptable, err.Error())
		return false
	}

	return true
}

func paginate(c *gin.Context, products []productdb.Product, request PageRequest) []productdb.Product {
	if products == nil {
		products = []productdb.Product{}
	}
	if request.PerPage == 0 {
		return products
	}

	setTotalCount(c, len(products))
	return search.Page(products, request.Page, request.PerPage)
}
