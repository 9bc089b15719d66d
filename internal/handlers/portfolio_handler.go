package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/pagination"
	"papertrade/internal/services"
)

// PortfolioHandler handles valuation, position and history reads.
type PortfolioHandler struct {
	valuator       services.ValuatorServicer
	ledgerService  services.LedgerServicer
	historyService services.HistoryServicer
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(valuator services.ValuatorServicer, ledgerService services.LedgerServicer, historyService services.HistoryServicer) *PortfolioHandler {
	return &PortfolioHandler{valuator: valuator, ledgerService: ledgerService, historyService: historyService}
}

// GetPortfolio runs a valuation cycle on demand and returns the result.
// Feed failures for individual assets are reported in skipped_assets rather
// than failing the whole response.
func (h *PortfolioHandler) GetPortfolio(c *gin.Context) {
	valuation, err := h.valuator.Refresh(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"portfolio": valuation})
}

// GetPositions lists all held positions at their stored cost basis.
func (h *PortfolioHandler) GetPositions(c *gin.Context) {
	positions, err := h.ledgerService.Positions(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"positions": positions})
}

// GetPosition returns a single position by asset ID.
func (h *PortfolioHandler) GetPosition(c *gin.Context) {
	assetID := c.Param("asset_id")

	position, err := h.ledgerService.Position(c.Request.Context(), assetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"position": position})
}

// GetQuote fetches a fresh quote for one asset without touching the ledger.
func (h *PortfolioHandler) GetQuote(c *gin.Context) {
	assetID := c.Param("asset_id")

	quote, err := h.valuator.RefreshAsset(c.Request.Context(), assetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"quote": quote})
}

// GetTransactions lists trades, newest first, paginated.
func (h *PortfolioHandler) GetTransactions(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.ledgerService.Transactions(c.Request.Context(), page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetHistory lists daily balance snapshots, oldest first.
func (h *PortfolioHandler) GetHistory(c *gin.Context) {
	snapshots, err := h.historyService.Snapshots(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": snapshots})
}
