package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ssuresh1228/finapp/internal/usecase"
)

// SessionCookie shapes the cookie carrying the session key.
type SessionCookie struct {
	Name   string
	Domain string
	Path   string
	Secure bool
}

// set writes the cookie with Max-Age equal to ttl.
func (sc SessionCookie) set(c *gin.Context, value string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sc.Name, value, int(ttl.Seconds()), sc.path(), sc.Domain, sc.Secure, true)
}

func (sc SessionCookie) clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sc.Name, "", -1, sc.path(), sc.Domain, sc.Secure, true)
}

func (sc SessionCookie) path() string {
	if sc.Path == "" {
		return "/"
	}
	return sc.Path
}

// AuthHandlerOptions configures AuthHandler.
type AuthHandlerOptions struct {
	Cookie SessionCookie
	// VerifiedRedirectURL is where a successful verification lands.
	VerifiedRedirectURL string
	// IsDev echoes the verification token in the register response.
	IsDev  bool
	Logger *zap.Logger
}

// AuthHandler exposes the account lifecycle over HTTP.
type AuthHandler struct {
	accounts *usecase.AccountService
	opts     AuthHandlerOptions
	logger   *zap.Logger
}

func NewAuthHandler(accounts *usecase.AccountService, opts AuthHandlerOptions) *AuthHandler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Cookie.Name == "" {
		opts.Cookie.Name = "session_key"
	}
	return &AuthHandler{accounts: accounts, opts: opts, logger: log}
}

// RegisterRoutes binds the lifecycle endpoints. The group is expected to run
// behind RequireSession; exempt paths are decided by the session guard.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/register", h.Register)
	r.GET("/verify", h.Verify)
	r.POST("/verify", h.Verify)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)
	r.POST("/forgot-password", h.ForgotPassword)
	r.POST("/reset-password", h.ResetPassword)
}

// Register godoc
// @Summary Register a new account
// @Description Stages the registration and emails a verification link. No account exists until it is verified.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration request"
// @Success 200 {object} RegisterResponse
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid registration payload"))
		return
	}

	result, err := h.accounts.Register(c.Request.Context(), usecase.RegisterInput{
		Email:       req.Email,
		Username:    req.Username,
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
	})
	if err != nil {
		respondError(c, h.logger, err, registerCases, "failed to register account")
		return
	}

	resp := RegisterResponse{
		Message:   "verification email sent",
		ExpiresAt: result.ExpiresAt,
	}
	if h.opts.IsDev {
		token := result.Token
		resp.DevToken = &token
	}
	c.JSON(http.StatusOK, resp)
}

// Verify godoc
// @Summary Verify a pending registration
// @Description Redeems the emailed verification token and redirects to the login page.
// @Tags Auth
// @Param verify_token query string true "Verification token"
// @Success 303
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /auth/verify [get]
func (h *AuthHandler) Verify(c *gin.Context) {
	token := c.Query("verify_token")
	if token == "" && c.Request.Method == http.MethodPost {
		var req VerifyRequest
		if err := c.ShouldBind(&req); err == nil {
			token = req.VerifyToken
		}
	}
	if strings.TrimSpace(token) == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "verify_token is required"))
		return
	}

	if _, err := h.accounts.Verify(c.Request.Context(), token); err != nil {
		respondError(c, h.logger, err, verifyCases, "failed to verify account")
		return
	}

	c.Redirect(http.StatusSeeOther, h.opts.VerifiedRedirectURL)
}

// Login godoc
// @Summary Log in
// @Description Checks credentials and sets the session cookie.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} LoginResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	result, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err, loginCases, "failed to log in")
		return
	}

	h.opts.Cookie.set(c, result.SessionKey, h.accounts.SessionTTL())
	c.JSON(http.StatusOK, LoginResponse{
		Message:   "logged in",
		ExpiresAt: result.ExpiresAt,
		Account:   newAccountSummary(result.Account),
	})
}

// Logout removes the session named by the cookie and clears it.
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionKey, _ := c.Cookie(h.opts.Cookie.Name)

	err := h.accounts.Logout(c.Request.Context(), sessionKey)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidSession) {
			h.opts.Cookie.clear(c)
		}
		respondError(c, h.logger, err, sessionCases, "failed to log out")
		return
	}

	h.opts.Cookie.clear(c)
	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}

// ForgotPassword answers identically whether or not the email is registered.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid password reset payload"))
		return
	}

	if err := h.accounts.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.logger, err, storeCases, "failed to start password reset")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{
		Message: "if an account exists for that email, a password reset link has been sent",
	})
}

// ResetPassword redeems a reset token.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid password reset payload"))
		return
	}

	if err := h.accounts.ResetPassword(c.Request.Context(), req.ResetToken, req.NewPassword); err != nil {
		respondError(c, h.logger, err, resetCases, "failed to reset password")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password updated"})
}
