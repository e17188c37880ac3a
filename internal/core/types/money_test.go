package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentOf(t *testing.T) {
	got := PercentOf(MustMoney("4800000"), MustMoney("20"))
	assert.True(t, got.Equal(MustMoney("960000")))

	got = PercentOf(MustMoney("100"), MustMoney("33.333"))
	assert.Equal(t, "33.33", got.StringFixed(2))
}

func TestRatioPercent(t *testing.T) {
	got := RatioPercent(MustMoney("800000"), MustMoney("960000"))
	assert.Equal(t, "83.33", got.StringFixed(2))

	assert.True(t, RatioPercent(MustMoney("10"), Zero()).IsZero())
}

func TestSplitByPercentsSumsExactly(t *testing.T) {
	total := MustMoney("1000000")
	percents := []Money{MustMoney("60"), MustMoney("40")}

	shares := SplitByPercents(total, percents)
	require.Len(t, shares, 2)
	assert.Equal(t, "600000.00", shares[0].StringFixed(2))
	assert.Equal(t, "400000.00", shares[1].StringFixed(2))
}

func TestSplitByPercentsResidualGoesLast(t *testing.T) {
	total := MustMoney("100")
	percents := []Money{MustMoney("33.33"), MustMoney("33.33"), MustMoney("33.34")}

	shares := SplitByPercents(total, percents)
	require.Len(t, shares, 3)

	sum := Zero()
	for _, s := range shares {
		sum = sum.Add(s)
	}
	assert.True(t, sum.Equal(total), "shares must sum to the total, got %s", sum)
}

func TestSplitEven(t *testing.T) {
	parts := SplitEven(MustMoney("960000"), 12)
	require.Len(t, parts, 12)
	for _, p := range parts {
		assert.Equal(t, "80000.00", p.StringFixed(2))
	}

	// 100 / 3 leaves a one-cent residual on the last part.
	parts = SplitEven(MustMoney("100"), 3)
	require.Len(t, parts, 3)
	assert.Equal(t, "33.33", parts[0].StringFixed(2))
	assert.Equal(t, "33.33", parts[1].StringFixed(2))
	assert.Equal(t, "33.34", parts[2].StringFixed(2))

	assert.Nil(t, SplitEven(MustMoney("100"), 0))
}

func TestWithinCent(t *testing.T) {
	assert.True(t, WithinCent(MustMoney("100.00"), MustMoney("100.01")))
	assert.False(t, WithinCent(MustMoney("100.00"), MustMoney("100.02")))
}

func TestFormatKES(t *testing.T) {
	cases := map[string]string{
		"0":           "KES 0.00",
		"999":         "KES 999.00",
		"1000":        "KES 1,000.00",
		"4800000":     "KES 4,800,000.00",
		"1234567.891": "KES 1,234,567.89",
		"-50000":      "KES -50,000.00",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatKES(MustMoney(in)), "input %s", in)
	}
}
