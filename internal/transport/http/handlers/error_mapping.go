package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ssuresh1228/finapp/internal/infra/logger"
	"github.com/ssuresh1228/finapp/internal/usecase"
)

// ErrorCase maps a sentinel error to an HTTP status code and response message.
type ErrorCase struct {
	Err     error
	Status  int
	Message string
}

// RespondWithMappedError resolves the provided error against known cases or falls back to a generic response.
func RespondWithMappedError(c *gin.Context, err error, cases []ErrorCase, fallbackStatus int, fallbackMessage string) {
	if err == nil {
		c.Status(http.StatusOK)
		return
	}

	for _, cs := range cases {
		if cs.Err == nil {
			continue
		}
		if errors.Is(err, cs.Err) {
			resp := NewErrorResponse(c, cs.Message)
			if violation, ok := usecase.PasswordViolation(err); ok && errors.Is(cs.Err, usecase.ErrWeakPassword) {
				resp.Error = violation.Message
				resp.Code = violation.Code
			}
			c.JSON(cs.Status, resp)
			return
		}
	}

	c.JSON(fallbackStatus, NewErrorResponse(c, fallbackMessage))
}

// storeCases apply to every lifecycle endpoint.
var storeCases = []ErrorCase{
	{Err: usecase.ErrStoreUnavailable, Status: http.StatusServiceUnavailable, Message: "service temporarily unavailable"},
	{Err: usecase.ErrInvalidInput, Status: http.StatusBadRequest, Message: "invalid request"},
}

var (
	registerCases = append([]ErrorCase{
		{Err: usecase.ErrDuplicateAccount, Status: http.StatusBadRequest, Message: "account already exists"},
		{Err: usecase.ErrUsernameTaken, Status: http.StatusBadRequest, Message: "username already taken"},
		{Err: usecase.ErrWeakPassword, Status: http.StatusBadRequest, Message: "password does not meet requirements"},
	}, storeCases...)

	verifyCases = append([]ErrorCase{
		{Err: usecase.ErrInvalidOrExpiredToken, Status: http.StatusBadRequest, Message: "invalid or expired token"},
		{Err: usecase.ErrAlreadyVerified, Status: http.StatusConflict, Message: "account already verified"},
		{Err: usecase.ErrUsernameTaken, Status: http.StatusConflict, Message: "username already taken"},
	}, storeCases...)

	loginCases = append([]ErrorCase{
		{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
		{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid credentials"},
		{Err: usecase.ErrInactiveAccount, Status: http.StatusForbidden, Message: "account is not active"},
	}, storeCases...)

	sessionCases = append([]ErrorCase{
		{Err: usecase.ErrNoActiveSession, Status: http.StatusUnauthorized, Message: "active session not found"},
		{Err: usecase.ErrInvalidSession, Status: http.StatusUnauthorized, Message: "invalid or expired session token"},
	}, storeCases...)

	resetCases = append([]ErrorCase{
		{Err: usecase.ErrInvalidOrExpiredToken, Status: http.StatusBadRequest, Message: "invalid or expired token"},
		{Err: usecase.ErrWeakPassword, Status: http.StatusBadRequest, Message: "password does not meet requirements"},
		{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
	}, storeCases...)

	accountCases = append([]ErrorCase{
		{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
		{Err: usecase.ErrDeletionRejected, Status: http.StatusConflict, Message: "account cannot be deleted"},
	}, storeCases...)
)

// respondError maps err and logs anything that ends up as a server-side failure.
func respondError(c *gin.Context, log *zap.Logger, err error, cases []ErrorCase, fallbackMessage string) {
	RespondWithMappedError(c, err, cases, http.StatusInternalServerError, fallbackMessage)
	if c.Writer.Status() >= http.StatusInternalServerError {
		logger.WithContext(log, c.Request.Context()).Error(fallbackMessage, zap.Error(err))
		_ = c.Error(err)
	}
}
