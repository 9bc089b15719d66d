package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/middleware"
	"papertrade/internal/services"
)

// AuthHandler handles local-auth requests: PIN setup, unlock, and the
// optional trading password and biometry toggles.
type AuthHandler struct {
	authService services.AuthServicer
	store       *services.ProfileStore
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService services.AuthServicer, store *services.ProfileStore) *AuthHandler {
	return &AuthHandler{authService: authService, store: store}
}

// SetPINRequest represents the request payload for initial PIN setup.
type SetPINRequest struct {
	PIN string `json:"pin" binding:"required,pin"`
}

// UnlockRequest represents the request payload for unlocking with a PIN.
type UnlockRequest struct {
	PIN string `json:"pin" binding:"required,pin"`
}

// ChangePINRequest represents the request payload for changing the PIN.
type ChangePINRequest struct {
	CurrentPIN string `json:"current_pin" binding:"required,pin"`
	NewPIN     string `json:"new_pin" binding:"required,pin"`
}

// SetTradingPasswordRequest represents the request payload for setting the
// trading password.
type SetTradingPasswordRequest struct {
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// SetBiometryRequest represents the request payload for toggling biometry.
type SetBiometryRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// SetPIN handles initial PIN setup. It is only available while no PIN exists.
func (h *AuthHandler) SetPIN(c *gin.Context) {
	var req SetPINRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.authService.SetPIN(c.Request.Context(), req.PIN); err != nil {
		respondWithError(c, err)
		return
	}

	token, err := middleware.GenerateSessionToken(h.store.Current().ID)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token})
}

// Unlock verifies the PIN and issues a session token.
func (h *AuthHandler) Unlock(c *gin.Context) {
	var req UnlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.authService.VerifyPIN(req.PIN); err != nil {
		respondWithError(c, err)
		return
	}

	token, err := middleware.GenerateSessionToken(h.store.Current().ID)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// ChangePIN rotates the PIN after verifying the current one.
func (h *AuthHandler) ChangePIN(c *gin.Context) {
	var req ChangePINRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.authService.ChangePIN(c.Request.Context(), req.CurrentPIN, req.NewPIN); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "PIN updated"})
}

// SetTradingPassword sets or replaces the trading password.
func (h *AuthHandler) SetTradingPassword(c *gin.Context) {
	var req SetTradingPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.authService.SetTradingPassword(c.Request.Context(), req.Password); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Trading password updated"})
}

// SetBiometry toggles the biometric unlock flag.
func (h *AuthHandler) SetBiometry(c *gin.Context) {
	var req SetBiometryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.authService.SetBiometry(c.Request.Context(), *req.Enabled); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"biometry_enabled": *req.Enabled})
}
