package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	HeaderRequestID            = "X-Request-ID"
	HeaderPaginationTotalCount = "X-Pagination-Total-Count"

	// ContextKeyRequestID is where the request id middleware leaves the id.
	ContextKeyRequestID = "request_id"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeResponse(c *gin.Context, data any, statusCode int) {
	if statusCode == http.StatusNoContent {
		c.Status(statusCode)
		return
	}

	c.JSON(statusCode, data)
}

// writeError aborts the request with a client-safe message. Internal error
// detail is logged by the caller and never sent.
func writeError(c *gin.Context, statusCode int, message string) {
	c.Abort()
	c.JSON(statusCode, errorResponse{Error: message})
}

func setTotalCount(c *gin.Context, total int) {
	c.Header(HeaderPaginationTotalCount, strconv.Itoa(total))
}

func requestID(c *gin.Context) string {
	return c.GetString(ContextKeyRequestID)
}
