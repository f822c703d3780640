package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ssuresh1228/finapp/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: c.GetString("trace_id"),
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// AccountSummary is the public view of an account.
type AccountSummary struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	FullName    string    `json:"fullname,omitempty"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	IsVerified  bool      `json:"is_verified"`
	CreatedAt   time.Time `json:"created_at"`
}

// RegisterRequest defines the account registration payload.
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	FullName    string `json:"fullname"`
	Username    string `json:"username" binding:"required"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password" binding:"required"`
}

// RegisterResponse acknowledges a staged registration.
type RegisterResponse struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
	// DevToken is only populated in development mode.
	DevToken *string `json:"dev_token,omitempty"`
}

// VerifyRequest carries the verification token for POST /auth/verify.
type VerifyRequest struct {
	VerifyToken string `json:"verify_token" form:"verify_token"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse describes a successful login. The session key itself only
// travels in the cookie.
type LoginResponse struct {
	Message   string         `json:"message"`
	ExpiresAt time.Time      `json:"expires_at"`
	Account   AccountSummary `json:"account"`
}

// ForgotPasswordRequest starts a password reset.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// ResetPasswordRequest redeems a reset token.
type ResetPasswordRequest struct {
	ResetToken  string `json:"reset_token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ProfileUpdateRequest changes profile fields; omitted fields stay untouched.
type ProfileUpdateRequest struct {
	FullName    *string `json:"fullname"`
	PhoneNumber *string `json:"phone_number"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadyResponse describes readiness check results with dependency checks.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

func newAccountSummary(account domain.Account) AccountSummary {
	return AccountSummary{
		ID:          account.ID,
		Email:       account.Email,
		Username:    account.Username,
		FullName:    account.FullName,
		PhoneNumber: account.PhoneNumber,
		IsVerified:  account.IsVerified,
		CreatedAt:   account.CreatedAt,
	}
}
