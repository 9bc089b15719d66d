package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/services"
)

// TradeHandler handles buy and sell order requests.
type TradeHandler struct {
	ledgerService services.LedgerServicer
	authService   services.AuthServicer
}

// NewTradeHandler creates a new TradeHandler.
func NewTradeHandler(ledgerService services.LedgerServicer, authService services.AuthServicer) *TradeHandler {
	return &TradeHandler{ledgerService: ledgerService, authService: authService}
}

// BuyRequest represents the request payload for a buy order. The unit price
// is the feed price the client last displayed, passed through as the deal
// price of the order.
type BuyRequest struct {
	AssetID         string `json:"asset_id" binding:"required,asset_id"`
	Name            string `json:"name" binding:"required,min=1,max=200"`
	Symbol          string `json:"symbol" binding:"required,min=1,max=20"`
	UnitPrice       string `json:"unit_price" binding:"required,positive_decimal"`
	Quantity        int64  `json:"quantity" binding:"required,gt=0"`
	TradingPassword string `json:"trading_password"`
}

// SellRequest represents the request payload for a sell order.
type SellRequest struct {
	AssetID         string `json:"asset_id" binding:"required,asset_id"`
	UnitPrice       string `json:"unit_price" binding:"required,positive_decimal"`
	Quantity        int64  `json:"quantity" binding:"required,gt=0"`
	TradingPassword string `json:"trading_password"`
}

// Buy executes a buy order against the ledger.
func (h *TradeHandler) Buy(c *gin.Context) {
	var req BuyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.authService.VerifyTradingPassword(req.TradingPassword); err != nil {
		respondWithError(c, err)
		return
	}

	unitPrice, err := parseAmount(req.UnitPrice)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tx, err := h.ledgerService.Buy(c.Request.Context(), req.AssetID, req.Name, req.Symbol, unitPrice, req.Quantity)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": tx})
}

// Sell executes a sell order against the ledger.
func (h *TradeHandler) Sell(c *gin.Context) {
	var req SellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.authService.VerifyTradingPassword(req.TradingPassword); err != nil {
		respondWithError(c, err)
		return
	}

	unitPrice, err := parseAmount(req.UnitPrice)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tx, err := h.ledgerService.Sell(c.Request.Context(), req.AssetID, unitPrice, req.Quantity)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": tx})
}
