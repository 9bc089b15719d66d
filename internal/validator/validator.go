// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// assetIDRegex matches price feed asset identifiers such as "bitcoin" or
// "matic-network": lowercase alphanumeric segments joined by hyphens.
var assetIDRegex = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

var pinRegex = regexp.MustCompile(`^[0-9]{6}$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("trade_side", validateTradeSide)
		_ = v.RegisterValidation("asset_id", validateAssetID)
		_ = v.RegisterValidation("pin", validatePIN)
		_ = v.RegisterValidation("positive_decimal", validatePositiveDecimal)
	}
}

func validateTradeSide(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "buy", "sell":
		return true
	}
	return false
}

func validateAssetID(fl validator.FieldLevel) bool {
	return assetIDRegex.MatchString(fl.Field().String())
}

func validatePIN(fl validator.FieldLevel) bool {
	return pinRegex.MatchString(fl.Field().String())
}

// validatePositiveDecimal accepts decimal strings strictly greater than zero,
// e.g. unit prices supplied by the client.
func validatePositiveDecimal(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return d.IsPositive()
}
