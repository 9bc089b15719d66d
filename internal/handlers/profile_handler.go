package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/services"
)

// ProfileHandler handles profile reads, refills, and account resets.
type ProfileHandler struct {
	store         *services.ProfileStore
	ledgerService services.LedgerServicer
	authService   services.AuthServicer
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(store *services.ProfileStore, ledgerService services.LedgerServicer, authService services.AuthServicer) *ProfileHandler {
	return &ProfileHandler{store: store, ledgerService: ledgerService, authService: authService}
}

// RefillRequest represents the request payload for topping up the fiat balance.
// The trading password is required only when one has been set.
type RefillRequest struct {
	Amount          string `json:"amount" binding:"required,positive_decimal"`
	TradingPassword string `json:"trading_password"`
}

// ResetRequest represents the request payload for a full account reset.
type ResetRequest struct {
	TradingPassword string `json:"trading_password"`
}

// GetProfile returns the current in-memory profile snapshot.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profile := h.store.Current()
	c.JSON(http.StatusOK, gin.H{
		"profile":              profile,
		"has_pin":              profile.HasPIN(),
		"has_trading_password": profile.HasTradingPassword(),
	})
}

// Refill adds paper money to the fiat balance.
func (h *ProfileHandler) Refill(c *gin.Context) {
	var req RefillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.authService.VerifyTradingPassword(req.TradingPassword); err != nil {
		respondWithError(c, err)
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	profile, err := h.ledgerService.Refill(c.Request.Context(), amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// Reset wipes positions, transactions and history and restores the starting
// balance. Credentials survive the wipe.
func (h *ProfileHandler) Reset(c *gin.Context) {
	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.authService.VerifyTradingPassword(req.TradingPassword); err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.ledgerService.Reset(c.Request.Context()); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": h.store.Current()})
}
