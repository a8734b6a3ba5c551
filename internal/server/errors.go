package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/chukul/cloudview/internal/errors"
)

// ErrorResponse is the body of every failed request. Clients read detail.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// Problem carries the exact status and detail a handler wants to report.
type Problem struct {
	Status int
	Detail string
	Err    error
}

func (p *Problem) Error() string {
	if p.Err != nil {
		return fmt.Sprintf("%d %s: %v", p.Status, p.Detail, p.Err)
	}
	return fmt.Sprintf("%d %s", p.Status, p.Detail)
}

func (p *Problem) Unwrap() error { return p.Err }

func problem(status int, detail string, err error) *Problem {
	return &Problem{Status: status, Detail: detail, Err: err}
}

// HandleError maps err to a status code and writes {"detail": ...}.
func HandleError(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	status, detail := classify(err)
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", slog.Int("status_code", status), slog.Any("error", err))
	} else {
		logger.Debug("request rejected", slog.Int("status_code", status), slog.Any("error", err))
	}

	c.AbortWithStatusJSON(status, ErrorResponse{Detail: detail})
}

func classify(err error) (int, string) {
	var p *Problem
	if apperrors.As(err, &p) {
		return p.Status, p.Detail
	}

	switch {
	case apperrors.Is(err, apperrors.ErrInvalidInput):
		return http.StatusUnprocessableEntity, err.Error()
	case apperrors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized, "Could not validate credentials"
	case apperrors.Is(err, apperrors.ErrConflict):
		return http.StatusBadRequest, "Conflict with existing data"
	case apperrors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, "Not found"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
