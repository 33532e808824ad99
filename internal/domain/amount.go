package domain

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// BalanceScale is the number of fractional digits kept for balances and amounts.
const BalanceScale = 8

// MaxIntegerDigits is the integer width of the decimal(20,8) balance column.
const MaxIntegerDigits = 12

// maxAmountLen caps the raw input before any parsing.
const maxAmountLen = 64

// plain decimal notation only: no sign, exponent or leading zeros
var amountPattern = regexp.MustCompile(`^(0|[1-9][0-9]*)(\.[0-9]+)?$`)

// MaxBalance is the largest value a balance column can hold.
var MaxBalance = decimal.New(1, MaxIntegerDigits).Sub(decimal.New(1, -BalanceScale))

// ParseAmount parses a positive plain decimal string. Amounts carrying more
// precision than BalanceScale are rejected rather than silently rounded.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxAmountLen || !amountPattern.MatchString(s) {
		return decimal.Zero, Newf(CodeInvalidAmount, "amount must be a positive number")
	}

	whole, frac, _ := strings.Cut(s, ".")
	if len(whole) > MaxIntegerDigits {
		return decimal.Zero, Newf(CodeInvalidAmount, "amount must be at most %s", MaxBalance.String())
	}
	if len(strings.TrimRight(frac, "0")) > BalanceScale {
		return decimal.Zero, Newf(CodeInvalidAmount, "amount supports at most %d decimal places", BalanceScale)
	}

	amount, err := decimal.NewFromString(s)
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, Newf(CodeInvalidAmount, "amount must be a positive number")
	}
	return amount, nil
}

// CheckBalance rejects a computed balance the balance column cannot store.
func CheckBalance(d decimal.Decimal) error {
	if d.GreaterThan(MaxBalance) {
		return Newf(CodeInvalidAmount, "resulting balance would exceed %s", MaxBalance.String())
	}
	return nil
}

// RoundBalance rounds half away from zero to BalanceScale digits.
func RoundBalance(d decimal.Decimal) decimal.Decimal {
	return d.Round(BalanceScale)
}
