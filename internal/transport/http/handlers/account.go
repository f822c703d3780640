package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ssuresh1228/finapp/internal/transport/http/middleware"
	"github.com/ssuresh1228/finapp/internal/usecase"
)

// AccountHandler serves the signed-in account. Every route requires a session.
type AccountHandler struct {
	accounts *usecase.AccountService
	cookie   SessionCookie
	logger   *zap.Logger
}

func NewAccountHandler(accounts *usecase.AccountService, cookie SessionCookie, log *zap.Logger) *AccountHandler {
	if log == nil {
		log = zap.NewNop()
	}
	if cookie.Name == "" {
		cookie.Name = "session_key"
	}
	return &AccountHandler{accounts: accounts, cookie: cookie, logger: log}
}

func (h *AccountHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/me", h.Get)
	r.PATCH("/me", h.Update)
	r.DELETE("/me", h.Delete)
}

func (h *AccountHandler) accountID(c *gin.Context) (string, bool) {
	id, ok := middleware.GetSessionAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "active session not found"))
	}
	return id, ok
}

// Get returns the signed-in account.
func (h *AccountHandler) Get(c *gin.Context) {
	id, ok := h.accountID(c)
	if !ok {
		return
	}

	account, err := h.accounts.GetAccount(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, accountCases, "failed to load account")
		return
	}
	c.JSON(http.StatusOK, newAccountSummary(account))
}

// Update changes the full name or phone number.
func (h *AccountHandler) Update(c *gin.Context) {
	id, ok := h.accountID(c)
	if !ok {
		return
	}

	var req ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid profile payload"))
		return
	}

	account, err := h.accounts.UpdateProfile(c.Request.Context(), id, usecase.ProfileUpdate{
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		respondError(c, h.logger, err, accountCases, "failed to update account")
		return
	}
	c.JSON(http.StatusOK, newAccountSummary(account))
}

// Delete removes the account and ends the current session.
func (h *AccountHandler) Delete(c *gin.Context) {
	id, ok := h.accountID(c)
	if !ok {
		return
	}
	sessionKey, _ := c.Cookie(h.cookie.Name)

	if err := h.accounts.DeleteAccount(c.Request.Context(), id, sessionKey); err != nil {
		respondError(c, h.logger, err, accountCases, "failed to delete account")
		return
	}

	h.cookie.clear(c)
	c.JSON(http.StatusOK, MessageResponse{Message: "account deleted"})
}
