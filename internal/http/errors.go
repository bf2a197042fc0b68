package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tazhibayda/workspace-service/internal/domain"
	"github.com/tazhibayda/workspace-service/internal/log"
)

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// writeErr maps a domain error kind to its status. Unclassified errors are
// logged and answered with a generic message.
func writeErr(c *gin.Context, err error) {
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		log.WithDD(c.Request.Context(), log.L(), zap.String("request_id", c.GetString(requestIDKey))).
			Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(code, gin.H{"error": "internal error"})
		return
	}
	c.JSON(code, gin.H{"error": err.Error()})
}
