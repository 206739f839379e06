// Package currencyutils provides amount and rate parsing for the
// variable-quality export formats consumed by the normalizers.
package currencyutils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	currencySymbolRe = regexp.MustCompile(`[€$£¥\s']`)
	embeddedAmountRe = regexp.MustCompile(`([\d,]+\.?\d*)`)
)

// StandardizeAmount strips currency symbols, thousands separators and
// whitespace so the remainder can be parsed as a decimal.
// Handles "€1,234.56", "$ 1234.56", "1'234.56" and plain numbers.
func StandardizeAmount(amountStr string) string {
	amountStr = currencySymbolRe.ReplaceAllString(amountStr, "")
	amountStr = strings.ReplaceAll(amountStr, ",", "")
	return strings.TrimSpace(amountStr)
}

// ParseAmount parses a string representation of an amount into a decimal.
// The caller decides whether a failure is soft (resolve to zero) or hard.
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	if strings.TrimSpace(amountStr) == "" {
		return decimal.Zero, nil
	}

	standardized := StandardizeAmount(amountStr)
	amount, err := decimal.NewFromString(standardized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}

	return amount, nil
}

// ParseAmountOrZero parses an amount, resolving unparseable input to zero.
// This is the soft-failure contract of the normalizers: bad amounts degrade
// to zero, they never abort the batch.
func ParseAmountOrZero(amountStr string) decimal.Decimal {
	amount, err := ParseAmount(amountStr)
	if err != nil {
		return decimal.Zero
	}
	return amount
}

// ParseRate parses a commission rate like "7.3%" or "0.073" into a decimal
// fraction. Values carrying a percent sign or greater than 1 are divided
// by 100. Unparseable rates resolve to zero.
func ParseRate(rateStr string) decimal.Decimal {
	rateStr = strings.TrimSpace(rateStr)
	if rateStr == "" {
		return decimal.Zero
	}

	hadPercent := strings.Contains(rateStr, "%")
	cleaned := strings.ReplaceAll(rateStr, "%", "")
	rate, err := decimal.NewFromString(strings.TrimSpace(cleaned))
	if err != nil {
		return decimal.Zero
	}

	if hadPercent || rate.GreaterThan(decimal.NewFromInt(1)) {
		rate = rate.Div(decimal.NewFromInt(100))
	}
	return rate
}

// ParseEmbeddedAmount parses amounts from composite fields such as
// "267.96 (EUR)" by extracting the first numeric token.
func ParseEmbeddedAmount(value string) decimal.Decimal {
	if strings.TrimSpace(value) == "" {
		return decimal.Zero
	}

	if match := embeddedAmountRe.FindString(value); match != "" {
		amount, err := decimal.NewFromString(strings.ReplaceAll(match, ",", ""))
		if err == nil {
			return amount
		}
	}

	return ParseAmountOrZero(value)
}
