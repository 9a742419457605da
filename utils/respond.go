package utils

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"solarops-backend/apperrors"
)

// RespondWithError writes a plain error body.
func RespondWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// RespondWithAppError classifies err and writes the matching status. Storage
// and internal causes are logged but never sent to the client.
func RespondWithAppError(c *gin.Context, err error) {
	err = apperrors.Classify(err)
	status := apperrors.HTTPStatus(err)

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		RespondWithError(c, status, "Internal server error")
		return
	}

	body := gin.H{
		"error": appErr.Message,
		"code":  appErr.Type,
	}
	if len(appErr.Fields) > 0 {
		body["fields"] = appErr.Fields
	}
	if len(appErr.Context) > 0 && status < 500 {
		body["details"] = appErr.Context
	}
	if status >= 500 {
		slog.ErrorContext(c.Request.Context(), "request failed",
			slog.String("path", c.FullPath()),
			slog.String("error", err.Error()))
		body["error"] = "Internal server error"
	}

	c.AbortWithStatusJSON(status, body)
}
