package utils

import (
	"errors"
	"net/http"
	"time"

	"ridehive/internal/models"

	"github.com/gin-gonic/gin"
)

type APIResponse struct {
	Status    string      `json:"status"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Meta      *Meta       `json:"meta,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Meta struct {
	Pagination *PaginationMeta `json:"pagination,omitempty"`
	Total      int64           `json:"total,omitempty"`
	Count      int             `json:"count,omitempty"`
}

func SuccessResponse(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Status:    StatusSuccess,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	})
}

func CreatedResponse(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{
		Status:    StatusSuccess,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	})
}

func SuccessResponseWithMeta(c *gin.Context, message string, data interface{}, meta *Meta) {
	c.JSON(http.StatusOK, APIResponse{
		Status:    StatusSuccess,
		Message:   message,
		Data:      data,
		Meta:      meta,
		Timestamp: time.Now(),
	})
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, APIResponse{
		Status: StatusError,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
		Timestamp: time.Now(),
	})
}

func BadRequestResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

func UnauthorizedResponse(c *gin.Context) {
	ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
}

// ServiceErrorResponse maps a service error kind to an HTTP response without
// leaking storage internals.
func ServiceErrorResponse(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		ErrorResponse(c, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, models.ErrOutstandingDebt):
		ErrorResponse(c, http.StatusPaymentRequired, "OUTSTANDING_DEBT", err.Error())
	case errors.Is(err, models.ErrInsufficientBalance):
		ErrorResponse(c, http.StatusPaymentRequired, "INSUFFICIENT_BALANCE", err.Error())
	case errors.Is(err, models.ErrNotFound):
		ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, models.ErrRideUnavailable):
		ErrorResponse(c, http.StatusConflict, "RIDE_UNAVAILABLE", err.Error())
	case errors.Is(err, models.ErrForbidden):
		ErrorResponse(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, models.ErrTooFarFromPickup):
		ErrorResponse(c, http.StatusConflict, "TOO_FAR_FROM_PICKUP", err.Error())
	case errors.Is(err, models.ErrUpstreamUnavailable):
		ErrorResponse(c, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "A dependent service is unavailable, please retry")
	default:
		ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
	}
}
