package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"papertrade/internal/config"
	"papertrade/internal/database"
	"papertrade/internal/handlers"
	"papertrade/internal/logger"
	"papertrade/internal/middleware"
	"papertrade/internal/models"
	"papertrade/internal/pricefeed"
	"papertrade/internal/services"
	"papertrade/internal/validator"
)

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Initialize the profile store; first run seeds the starting balance.
	db := dbManager.DB()
	store := services.NewProfileStore(db)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = store.Load(ctx, models.Profile{
		FiatBalance:  appConfig.StartingBalance,
		AssetBalance: decimal.Zero,
	})
	cancel()
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	// Initialize services
	feed := pricefeed.NewClient(
		&http.Client{Timeout: appConfig.FeedTimeout},
		appConfig.FeedBaseURL,
		appConfig.FeedRatePerSec,
	)
	ledgerService := services.NewLedgerService(db, store, appConfig.StartingBalance)
	historyService := services.NewHistoryTracker(db)
	valuator := services.NewPortfolioValuator(db, store, feed, historyService, appConfig.HistoryLimit)
	authService := services.NewAuthService(store)

	// Background revaluation loop
	scheduler := services.NewRefreshScheduler(appConfig.RefreshInterval, func(ctx context.Context) error {
		_, err := valuator.Refresh(ctx)
		return err
	})
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, store)
	profileHandler := handlers.NewProfileHandler(store, ledgerService, authService)
	tradeHandler := handlers.NewTradeHandler(ledgerService, authService)
	portfolioHandler := handlers.NewPortfolioHandler(valuator, ledgerService, historyService)

	// Register custom binding validators
	validator.Register()

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes: initial PIN setup and unlock
	auth := v1.Group("/auth")
	auth.POST("/pin", authHandler.SetPIN)
	auth.POST("/unlock", authHandler.Unlock)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.SessionAuth())

	protected.PUT("/auth/pin", authHandler.ChangePIN)
	protected.POST("/auth/trading-password", authHandler.SetTradingPassword)
	protected.PUT("/auth/biometry", authHandler.SetBiometry)

	protected.GET("/profile", profileHandler.GetProfile)
	protected.POST("/profile/refill", profileHandler.Refill)
	protected.POST("/profile/reset", profileHandler.Reset)

	protected.POST("/trade/buy", tradeHandler.Buy)
	protected.POST("/trade/sell", tradeHandler.Sell)

	protected.GET("/portfolio", portfolioHandler.GetPortfolio)
	protected.GET("/positions", portfolioHandler.GetPositions)
	protected.GET("/positions/:asset_id", portfolioHandler.GetPosition)
	protected.GET("/quotes/:asset_id", portfolioHandler.GetQuote)
	protected.GET("/transactions", portfolioHandler.GetTransactions)
	protected.GET("/history", portfolioHandler.GetHistory)

	log.Infof("Starting papertrade server on port %s", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
