package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schoolbook/schoolbook/core"
	"github.com/schoolbook/schoolbook/service"
)

// CookieName is the session cookie set on successful verification.
const CookieName = "auth-token"

// cookieMaxAge mirrors the session TTL.
var cookieMaxAge = int(service.DefaultSessionTTL.Seconds())

// AuthHandlers contains HTTP handlers for the OTP login endpoints.
type AuthHandlers struct {
	auth *service.AuthService
}

// NewAuthHandlers creates new auth handlers.
func NewAuthHandlers(auth *service.AuthService) *AuthHandlers {
	return &AuthHandlers{auth: auth}
}

// RequestOTP handles POST /auth/request-otp.
func (h *AuthHandlers) RequestOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid email is required"})
		return
	}

	err := h.auth.RequestOTP(c.Request.Context(), req.Email)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"issued": true})
	case errors.Is(err, core.ErrInvalidEmail):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid email is required"})
	case errors.Is(err, core.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many codes requested, try again later"})
	case errors.Is(err, core.ErrDeliveryFailed):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send OTP email"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate OTP"})
	}
}

// VerifyOTP handles POST /auth/verify-otp. On success the token is returned
// in the body and set as an HttpOnly cookie.
func (h *AuthHandlers) VerifyOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
		OTP   string `json:"otp" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and OTP are required"})
		return
	}

	token, err := h.auth.VerifyOTP(c.Request.Context(), req.Email, req.OTP)
	switch {
	case err == nil:
		c.SetCookie(CookieName, token, cookieMaxAge, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{"token": token})
	case errors.Is(err, core.ErrInvalidEmail), errors.Is(err, core.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and OTP are required"})
	case errors.Is(err, core.ErrChallengeInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired OTP"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed, request a new code"})
	}
}

// Session handles GET /auth/session. It always answers 200; the body says
// whether the presented token authenticates.
func (h *AuthHandlers) Session(c *gin.Context) {
	token := extractToken(c)
	identityID, ok := h.auth.Authenticate(c.Request.Context(), token)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "identity_id": identityID})
}

// Logout handles POST /auth/logout. Always 200, and the cookie is cleared.
func (h *AuthHandlers) Logout(c *gin.Context) {
	h.auth.Logout(c.Request.Context(), extractToken(c))
	c.SetCookie(CookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
