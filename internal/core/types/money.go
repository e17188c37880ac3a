// Package types provides shared value types.
package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a fixed-point monetary value. All amounts in the system carry
// exactly two fractional digits once rounded; binary floating point is
// never used for money.
type Money = decimal.Decimal

// NewMoneyFromString creates a Money value from a decimal string.
// This is the preferred constructor for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panicking on error.
// For constants and tests only.
func MustMoney(s string) Money {
	return decimal.RequireFromString(s)
}

// NewMoneyFromFloat creates a Money value from a float.
// Prefer NewMoneyFromString where exactness matters.
func NewMoneyFromFloat(f float64) Money {
	return decimal.NewFromFloat(f)
}

// Zero returns the zero Money value.
func Zero() Money {
	return decimal.Zero
}

// Hundred is the percentage divisor.
var Hundred = decimal.NewFromInt(100)

// Round2 rounds to two fractional digits (half away from zero).
func Round2(m Money) Money {
	return m.Round(2)
}

// PercentOf returns total × pct / 100, rounded to cents.
func PercentOf(total, pct Money) Money {
	return Round2(total.Mul(pct).Div(Hundred))
}

// RatioPercent returns part / whole × 100, rounded to cents.
// Returns zero when whole is zero.
func RatioPercent(part, whole Money) Money {
	if whole.IsZero() {
		return decimal.Zero
	}
	return Round2(part.Mul(Hundred).Div(whole))
}

// SplitByPercents distributes total across the given percentages, rounding
// each share to cents. The rounding residual is absorbed by the last share
// so the shares always sum to the rounded total.
func SplitByPercents(total Money, percents []Money) []Money {
	if len(percents) == 0 {
		return nil
	}
	shares := make([]Money, len(percents))
	total = Round2(total)
	running := decimal.Zero
	for i, pct := range percents[:len(percents)-1] {
		shares[i] = PercentOf(total, pct)
		running = running.Add(shares[i])
	}
	shares[len(shares)-1] = total.Sub(running)
	return shares
}

// SplitEven divides total into n equal cent-rounded parts, assigning the
// residual to the last part.
func SplitEven(total Money, n int) []Money {
	if n <= 0 {
		return nil
	}
	total = Round2(total)
	parts := make([]Money, n)
	base := Round2(total.Div(decimal.NewFromInt(int64(n))))
	running := decimal.Zero
	for i := 0; i < n-1; i++ {
		parts[i] = base
		running = running.Add(base)
	}
	parts[n-1] = total.Sub(running)
	return parts
}

// WithinCent reports whether two amounts differ by at most 0.01.
var centTolerance = decimal.RequireFromString("0.01")

func WithinCent(a, b Money) bool {
	return a.Sub(b).Abs().Cmp(centTolerance) <= 0
}

// FormatKES renders an amount for display fields: "KES 1,234,567.89".
func FormatKES(m Money) string {
	fixed := Round2(m).StringFixed(2)
	neg := strings.HasPrefix(fixed, "-")
	if neg {
		fixed = fixed[1:]
	}
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	b.WriteString("KES ")
	if neg {
		b.WriteByte('-')
	}
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
		if len(intPart) > lead {
			b.WriteByte(',')
		}
	}
	for i := lead; i < len(intPart); i += 3 {
		b.WriteString(intPart[i : i+3])
		if i+3 < len(intPart) {
			b.WriteByte(',')
		}
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}
