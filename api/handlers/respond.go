package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/media-pipeline-go/internal/app"
	"github.com/yourusername/media-pipeline-go/internal/domain"
)

// ErrorResponse is the body of every failed API call
type ErrorResponse struct {
	Error string           `json:"error"`
	Kind  domain.ErrorKind `json:"kind,omitempty"`
}

// StatusForKind maps a pipeline failure kind onto an HTTP status
func StatusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.ErrorInvalidInput:
		return http.StatusBadRequest
	case domain.ErrorNotFound:
		return http.StatusNotFound
	case domain.ErrorTimeout:
		return http.StatusGatewayTimeout
	case domain.ErrorAccessDenied, domain.ErrorNetwork:
		return http.StatusBadGateway
	case domain.ErrorProcess:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func respondKind(c *gin.Context, kind domain.ErrorKind, msg string) {
	c.JSON(StatusForKind(kind), ErrorResponse{Error: msg, Kind: kind})
}

func respondFailure[T any](c *gin.Context, result domain.OperationResult[T]) {
	respondKind(c, result.Kind, result.ErrorMessage)
}

func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: domain.ErrorInvalidInput})
}

// respondJobError maps job manager errors onto statuses
func respondJobError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app.ErrJobNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Kind: domain.ErrorNotFound})
	case errors.Is(err, domain.ErrInvalidURL):
		respondBadRequest(c, err)
	default:
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	}
}
