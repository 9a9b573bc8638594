package response

import (
	"net/http"

	"codearena/pkg/errors"
	"codearena/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response represents a standard API response
type Response struct {
	Code    errors.ErrorCode `json:"code"`
	Message string           `json:"message"`
	Data    interface{}      `json:"data,omitempty"`
}

// Success sends a successful response with data
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    errors.Success,
		Message: "Success",
		Data:    data,
	})
}

// Error sends an error response, extracting code and message from the error.
func Error(c *gin.Context, err error) {
	code := errors.GetCode(err)

	logger.Error(c.Request.Context(), "request error",
		zap.Int("code", int(code)),
		zap.String("message", err.Error()),
	)

	c.JSON(httpStatus(code), Response{
		Code:    code,
		Message: err.Error(),
	})
}

func httpStatus(code errors.ErrorCode) int {
	switch code {
	case errors.NotFound, errors.RoomNotFound, errors.PlayerNotFound:
		return http.StatusNotFound
	case errors.InvalidParams, errors.ValidationFailed, errors.RequiredFieldEmpty:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
