package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ssuresh1228/finapp/internal/infra/logger"
	"github.com/ssuresh1228/finapp/internal/usecase"
)

// ErrorResponse matches handlers.ErrorResponse.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

func newErrorResponse(c *gin.Context, msg string) ErrorResponse {
	return ErrorResponse{Error: msg, TraceID: GetTraceID(c)}
}

// RequireSession resolves the session cookie through guard and stores the
// owning account on the gin context. Exempt routes pass through untouched.
func RequireSession(guard *usecase.SessionGuard, cookieName string, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		sessionKey, _ := c.Cookie(cookieName)
		accountID, err := guard.Authorize(c.Request.Context(), path, sessionKey)
		if err != nil {
			switch {
			case errors.Is(err, usecase.ErrNoActiveSession):
				c.AbortWithStatusJSON(http.StatusUnauthorized, newErrorResponse(c, "active session not found"))
			case errors.Is(err, usecase.ErrInvalidSession):
				c.AbortWithStatusJSON(http.StatusUnauthorized, newErrorResponse(c, "invalid or expired session token"))
			default:
				logger.WithContext(log, c.Request.Context()).Error("session lookup failed", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, newErrorResponse(c, "session store unavailable"))
			}
			return
		}

		if accountID != "" {
			c.Set(AccountIDKey, accountID)
		}
		c.Next()
	}
}
