package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/handlers"
	"papertrade/internal/logger"
	"papertrade/internal/middleware"
	"papertrade/internal/models"
	"papertrade/internal/pricefeed"
	"papertrade/internal/services"
	"papertrade/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Store  *services.ProfileStore
	Feed   *stubFeed
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// stubFeed is an in-memory Quoter with settable per-asset prices.
type stubFeed struct {
	mu     sync.Mutex
	prices map[string]decimal.Decimal
}

var _ pricefeed.Quoter = (*stubFeed)(nil)

func newStubFeed() *stubFeed {
	return &stubFeed{prices: make(map[string]decimal.Decimal)}
}

func (f *stubFeed) SetPrice(assetID, price string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[assetID] = decimal.RequireFromString(price)
}

func (f *stubFeed) GetQuote(_ context.Context, assetID string) (*pricefeed.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	price, ok := f.prices[assetID]
	if !ok {
		return nil, apperrors.WithMessage(apperrors.ErrFeedUnavailable, "no quote for "+assetID)
	}
	return &pricefeed.Quote{AssetID: assetID, PriceUSD: price}, nil
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:integrationdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get underlying DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	allModels := []interface{}{
		&models.Profile{},
		&models.Position{},
		&models.Transaction{},
		&models.BalanceSnapshot{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory
// SQLite database and a stub price feed, seeded with a 1000 starting balance.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)
	startingBalance := decimal.NewFromInt(1000)

	store := services.NewProfileStore(db)
	if err := store.Load(context.Background(), models.Profile{FiatBalance: startingBalance}); err != nil {
		t.Fatalf("failed to load profile: %v", err)
	}

	feed := newStubFeed()
	ledgerService := services.NewLedgerService(db, store, startingBalance)
	historyService := services.NewHistoryTracker(db)
	valuator := services.NewPortfolioValuator(db, store, feed, historyService, 7)
	authService := services.NewAuthService(store)

	authHandler := handlers.NewAuthHandler(authService, store)
	profileHandler := handlers.NewProfileHandler(store, ledgerService, authService)
	tradeHandler := handlers.NewTradeHandler(ledgerService, authService)
	portfolioHandler := handlers.NewPortfolioHandler(valuator, ledgerService, historyService)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/pin", authHandler.SetPIN)
	auth.POST("/unlock", authHandler.Unlock)

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

	return &testApp{DB: db, Store: store, Feed: feed, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// unlock sets up a PIN on first use and returns a session token.
func (app *testApp) unlock(t *testing.T) string {
	t.Helper()
	rec := app.request("POST", "/api/v1/auth/pin", `{"pin":"123456"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("pin setup failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["token"].(string)
}
