package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/pagoseguro-auth/internal/domain"
	"github.com/prperemyshlev/pagoseguro-auth/internal/dto"
	"github.com/prperemyshlev/pagoseguro-auth/internal/service"
	"go.uber.org/zap"
)

const (
	refreshCookieName = "refresh_token"
	refreshCookiePath = "/api/v1/auth"
)

// CookieOptions controls the refresh token cookie
type CookieOptions struct {
	Domain string
	Secure bool
}

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService service.AuthService
	logger      *zap.Logger
	cookie      CookieOptions
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService service.AuthService, logger *zap.Logger, cookie CookieOptions) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
		cookie:      cookie,
	}
}

func originFrom(c *gin.Context) domain.Origin {
	return domain.Origin{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, token, int(ttl.Seconds()), refreshCookiePath, h.cookie.Domain, h.cookie.Secure, true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, "", -1, refreshCookiePath, h.cookie.Domain, h.cookie.Secure, true)
}

// refreshTokenFrom prefers the cookie and falls back to the request body
func refreshTokenFrom(c *gin.Context, body string) string {
	if token, err := c.Cookie(refreshCookieName); err == nil && token != "" {
		return token
	}
	return body
}

// Register handles account registration
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindingFailed(c, err)
		return
	}

	response, err := h.authService.Register(c.Request.Context(), &req, originFrom(c))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// Login handles account login
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindingFailed(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req, originFrom(c))
	if err != nil {
		h.handleError(c, err)
		return
	}

	h.setRefreshCookie(c, result.Response.RefreshToken, result.RefreshTokenTTL)
	c.JSON(http.StatusOK, result.Response)
}

// RecoverPassword emails a reset code
// @Router /auth/recover-password [post]
func (h *AuthHandler) RecoverPassword(c *gin.Context) {
	var req dto.RecoverPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindingFailed(c, err)
		return
	}

	response, err := h.authService.RecoverPassword(c.Request.Context(), &req, originFrom(c))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ConfirmResetCode exchanges a reset code for a reset token
// @Router /auth/recover-password/confirm [post]
func (h *AuthHandler) ConfirmResetCode(c *gin.Context) {
	var req dto.ConfirmResetCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindingFailed(c, err)
		return
	}

	response, err := h.authService.ConfirmResetCode(c.Request.Context(), &req, originFrom(c))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ResetPassword sets a new password
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindingFailed(c, err)
		return
	}

	response, err := h.authService.ResetPassword(c.Request.Context(), &req, originFrom(c))
	if err != nil {
		h.handleError(c, err)
		return
	}

	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, response)
}

// VerifyEmail confirms an email address
// @Router /auth/verify-email [post]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req dto.VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindingFailed(c, err)
		return
	}

	response, err := h.authService.VerifyEmail(c.Request.Context(), &req, originFrom(c))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ResendVerification sends a new verification email
// @Router /auth/verify-email/resend [post]
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req dto.ResendVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindingFailed(c, err)
		return
	}

	response, err := h.authService.ResendVerification(c.Request.Context(), &req, originFrom(c))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Refresh rotates the refresh token
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	_ = c.ShouldBindJSON(&req)

	refreshToken := refreshTokenFrom(c, req.RefreshToken)
	if refreshToken == "" {
		abortWithError(c, http.StatusBadRequest, "Bad request", "refresh token not found", nil)
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), refreshToken, originFrom(c))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			h.clearRefreshCookie(c)
			abortWithError(c, http.StatusUnauthorized, "Unauthorized", "invalid or expired refresh token", nil)
			return
		}
		h.handleError(c, err)
		return
	}

	h.setRefreshCookie(c, result.Response.RefreshToken, result.RefreshTokenTTL)
	c.JSON(http.StatusOK, result.Response)
}

// Logout closes the current session
// @Security BearerAuth
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := claimsFrom(c)
	if !ok {
		abortWithError(c, http.StatusUnauthorized, "Unauthorized", "authentication required", nil)
		return
	}

	var req dto.LogoutRequest
	_ = c.ShouldBindJSON(&req)

	err := h.authService.Logout(c.Request.Context(), service.LogoutInput{
		Claims:       claims,
		AccessToken:  c.GetString(contextAccessToken),
		RefreshToken: refreshTokenFrom(c, req.RefreshToken),
		Origin:       originFrom(c),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Logged out successfully",
	})
}

// GetMe returns the current account
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) GetMe(c *gin.Context) {
	claims, ok := claimsFrom(c)
	if !ok {
		abortWithError(c, http.StatusUnauthorized, "Unauthorized", "authentication required", nil)
		return
	}

	profile, err := h.authService.GetProfile(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			abortWithError(c, http.StatusUnauthorized, "Unauthorized", "account no longer exists", nil)
			return
		}
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}
