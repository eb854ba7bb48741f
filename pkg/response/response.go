package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vidshare/backend/pkg/apperr"
)

// Body is the standard API response envelope.
type Body struct {
	Success    bool        `json:"success"`
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data,omitempty"`
	Message    string      `json:"message,omitempty"`
}

func write(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, Body{
		Success:    status < http.StatusBadRequest,
		StatusCode: status,
		Data:       data,
		Message:    message,
	})
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}, message string) {
	write(c, http.StatusOK, data, message)
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}, message string) {
	write(c, http.StatusCreated, data, message)
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, msg string) {
	write(c, http.StatusBadRequest, nil, msg)
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, msg string) {
	write(c, http.StatusUnauthorized, nil, msg)
}

// Forbidden sends 403.
func Forbidden(c *gin.Context, msg string) {
	write(c, http.StatusForbidden, nil, msg)
}

// NotFound sends 404.
func NotFound(c *gin.Context, msg string) {
	write(c, http.StatusNotFound, nil, msg)
}

// Internal sends 500.
func Internal(c *gin.Context, msg string) {
	write(c, http.StatusInternalServerError, nil, msg)
}

// Error sends the failure envelope for a service error, using its kind for the status code.
func Error(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	write(c, kind.StatusCode(), nil, apperr.Message(err))
}
