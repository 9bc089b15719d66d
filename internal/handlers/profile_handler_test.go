package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/models"
	"papertrade/internal/services"
)

func setupProfileRouter(handler *ProfileHandler) *gin.Engine {
	r := gin.New()
	r.GET("/profile", handler.GetProfile)
	r.POST("/profile/refill", handler.Refill)
	r.POST("/profile/reset", handler.Reset)
	return r
}

func TestProfileHandler_GetProfile(t *testing.T) {
	t.Run("returns_current_profile", func(t *testing.T) {
		handler := NewProfileHandler(services.NewProfileStore(nil), &mockLedgerService{}, &mockAuthService{})
		r := setupProfileRouter(handler)

		rec := doRequest(r, "GET", "/profile", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["profile"] == nil {
			t.Error("expected profile in response")
		}
		if result["has_pin"] != false {
			t.Errorf("expected has_pin=false, got %v", result["has_pin"])
		}
	})
}

func TestProfileHandler_Refill(t *testing.T) {
	t.Run("returns_200_with_updated_profile", func(t *testing.T) {
		svc := &mockLedgerService{
			refillFn: func(_ context.Context, amount decimal.Decimal) (models.Profile, error) {
				if !amount.Equal(decimal.RequireFromString("500")) {
					t.Errorf("expected amount 500, got %s", amount)
				}
				return models.Profile{FiatBalance: decimal.RequireFromString("1500")}, nil
			},
		}
		handler := NewProfileHandler(services.NewProfileStore(nil), svc, &mockAuthService{})
		r := setupProfileRouter(handler)

		rec := doRequest(r, "POST", "/profile/refill", `{"amount":"500"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		profile := result["profile"].(map[string]interface{})
		if profile["fiat_balance"] != "1500" {
			t.Errorf("expected fiat_balance=1500, got %v", profile["fiat_balance"])
		}
	})

	t.Run("returns_400_on_negative_amount", func(t *testing.T) {
		handler := NewProfileHandler(services.NewProfileStore(nil), &mockLedgerService{}, &mockAuthService{})
		r := setupProfileRouter(handler)

		rec := doRequest(r, "POST", "/profile/refill", `{"amount":"-10"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns_401_on_wrong_trading_password", func(t *testing.T) {
		auth := &mockAuthService{
			verifyTradingPasswordFn: func(_ string) error {
				return apperrors.ErrInvalidTradingPassword
			},
		}
		handler := NewProfileHandler(services.NewProfileStore(nil), &mockLedgerService{}, auth)
		r := setupProfileRouter(handler)

		rec := doRequest(r, "POST", "/profile/refill", `{"amount":"500","trading_password":"nope"}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestProfileHandler_Reset(t *testing.T) {
	t.Run("returns_200_and_calls_reset", func(t *testing.T) {
		called := false
		svc := &mockLedgerService{
			resetFn: func(_ context.Context) error {
				called = true
				return nil
			},
		}
		handler := NewProfileHandler(services.NewProfileStore(nil), svc, &mockAuthService{})
		r := setupProfileRouter(handler)

		rec := doRequest(r, "POST", "/profile/reset", `{}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !called {
			t.Error("expected ledger reset to be called")
		}
	})

	t.Run("returns_500_on_reset_failure", func(t *testing.T) {
		svc := &mockLedgerService{
			resetFn: func(_ context.Context) error {
				return apperrors.ErrPersistence
			},
		}
		handler := NewProfileHandler(services.NewProfileStore(nil), svc, &mockAuthService{})
		r := setupProfileRouter(handler)

		rec := doRequest(r, "POST", "/profile/reset", `{}`)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d: %s", rec.Code, rec.Body.String())
		}
		assertErrorCode(t, parseJSON(t, rec), "PERSISTENCE")
	})
}
