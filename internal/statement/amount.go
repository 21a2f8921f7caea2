package statement

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// parseAmount reads a bank-formatted amount. It accepts currency symbols,
// thousands separators, a leading or trailing minus, parentheses and CR/DR
// suffixes. The result is rounded to cents.
func parseAmount(s string, style decimalStyle) (decimal.Decimal, error) {
	clean := strings.TrimSpace(s)
	negative := false

	upper := strings.ToUpper(clean)
	switch {
	case strings.HasSuffix(upper, "DR"):
		negative = true
		clean = strings.TrimSpace(clean[:len(clean)-2])
	case strings.HasSuffix(upper, "CR"):
		clean = strings.TrimSpace(clean[:len(clean)-2])
	}

	if strings.HasPrefix(clean, "(") && strings.HasSuffix(clean, ")") {
		negative = !negative
		clean = clean[1 : len(clean)-1]
	}

	clean = strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-', r == '+':
			return r
		}

		return -1
	}, clean)

	if strings.HasSuffix(clean, "-") {
		negative = !negative
		clean = strings.TrimSuffix(clean, "-")
	}

	switch style {
	case decimalComma:
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	default:
		clean = strings.ReplaceAll(clean, ",", "")
	}

	if clean == "" {
		return decimal.Zero, fmt.Errorf("empty amount %q", s)
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", s, err)
	}

	if negative {
		d = d.Neg()
	}

	return d.Round(2), nil
}
