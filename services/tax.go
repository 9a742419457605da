package services

import (
	"strings"

	"github.com/shopspring/decimal"

	"solarops-backend/apperrors"
)

var hundred = decimal.NewFromInt(100)

// TaxBreakdown is the GST split of one amount. Values are kept unrounded so that
// sums over many payments do not accumulate rounding error.
type TaxBreakdown struct {
	CGSTRate  decimal.Decimal `json:"cgst_rate"`
	SGSTRate  decimal.Decimal `json:"sgst_rate"`
	IGSTRate  decimal.Decimal `json:"igst_rate"`
	CGSTValue decimal.Decimal `json:"cgst_value"`
	SGSTValue decimal.Decimal `json:"sgst_value"`
	IGSTValue decimal.Decimal `json:"igst_value"`
}

// CalculateGST splits ratePercent of amount into CGST+SGST (home state) or IGST.
func CalculateGST(amount, ratePercent decimal.Decimal, homeState bool) (TaxBreakdown, error) {
	if amount.IsNegative() {
		return TaxBreakdown{}, apperrors.Validation("amount must not be negative",
			apperrors.FieldError{Field: "amount", Message: "must not be negative"})
	}
	if ratePercent.IsNegative() {
		return TaxBreakdown{}, apperrors.Validation("gst rate must not be negative",
			apperrors.FieldError{Field: "gst_rate", Message: "must not be negative"})
	}

	if !homeState {
		return TaxBreakdown{
			CGSTRate:  decimal.Zero,
			SGSTRate:  decimal.Zero,
			IGSTRate:  ratePercent,
			CGSTValue: decimal.Zero,
			SGSTValue: decimal.Zero,
			IGSTValue: amount.Mul(ratePercent).Div(hundred),
		}, nil
	}

	half := ratePercent.Div(decimal.NewFromInt(2))
	value := amount.Mul(half).Div(hundred)
	return TaxBreakdown{
		CGSTRate:  half,
		SGSTRate:  half,
		IGSTRate:  decimal.Zero,
		CGSTValue: value,
		SGSTValue: value,
		IGSTValue: decimal.Zero,
	}, nil
}

// Total is the sum of all tax components.
func (t TaxBreakdown) Total() decimal.Decimal {
	return t.CGSTValue.Add(t.SGSTValue).Add(t.IGSTValue)
}

// Rounded returns a copy with values rounded for display.
func (t TaxBreakdown) Rounded(places int32) TaxBreakdown {
	return TaxBreakdown{
		CGSTRate:  t.CGSTRate,
		SGSTRate:  t.SGSTRate,
		IGSTRate:  t.IGSTRate,
		CGSTValue: t.CGSTValue.Round(places),
		SGSTValue: t.SGSTValue.Round(places),
		IGSTValue: t.IGSTValue.Round(places),
	}
}

// IsHomeState is the jurisdiction flag: billing state equals the seller's state.
func IsHomeState(billingState, homeState string) bool {
	return strings.EqualFold(strings.TrimSpace(billingState), strings.TrimSpace(homeState))
}
