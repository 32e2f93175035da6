package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	StatusCode int         `json:"statusCode"`
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Errors     []string    `json:"errors,omitempty"`
}

func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, &Response{
		StatusCode: status,
		Success:    true,
		Message:    message,
		Data:       data,
	})
}

func fail(c *gin.Context, status int, message string, errs ...string) {
	c.JSON(status, &Response{
		StatusCode: status,
		Success:    false,
		Message:    message,
		Errors:     errs,
	})
}

// Success responses

func Success(c *gin.Context, message string, data interface{}) {
	respond(c, http.StatusOK, message, data)
}

func Created(c *gin.Context, message string, data interface{}) {
	respond(c, http.StatusCreated, message, data)
}

// Error responses

func BadRequest(c *gin.Context, message string, errs ...string) {
	fail(c, http.StatusBadRequest, message, errs...)
}

func Unauthorized(c *gin.Context, message string) {
	fail(c, http.StatusUnauthorized, message)
}

func NotFound(c *gin.Context, message string) {
	fail(c, http.StatusNotFound, message)
}

func Conflict(c *gin.Context, message string) {
	fail(c, http.StatusConflict, message)
}

func TooManyRequests(c *gin.Context, message string) {
	fail(c, http.StatusTooManyRequests, message)
}

func BadGateway(c *gin.Context, message string) {
	fail(c, http.StatusBadGateway, message)
}

func InternalError(c *gin.Context, message string) {
	fail(c, http.StatusInternalServerError, message)
}
