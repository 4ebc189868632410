package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRoundHalfUp(t *testing.T) {
	cases := []struct {
		in    string
		scale int32
		want  string
	}{
		{"2.5", 0, "3"},
		{"2.4999", 0, "2"},
		{"-2.5", 0, "-3"},
		{"1.005", 2, "1.01"},
		{"90909.0909", 0, "90909"},
	}
	for _, tc := range cases {
		got := RoundHalfUp(d(tc.in), tc.scale)
		assert.Truef(t, got.Equal(d(tc.want)), "RoundHalfUp(%s, %d) = %s, want %s", tc.in, tc.scale, got, tc.want)
	}
}

func TestDivHalfUp(t *testing.T) {
	assert.True(t, DivHalfUp(d("100000"), d("1.1"), 0).Equal(d("90909")))
	assert.True(t, DivHalfUp(d("11"), d("1.1"), 0).Equal(d("10")))
	// 5 / 2 = 2.5 rounds up
	assert.True(t, DivHalfUp(d("5"), d("2"), 0).Equal(d("3")))
	assert.True(t, DivHalfUp(d("1"), d("3"), 2).Equal(d("0.33")))
}

func TestSumAndLineTotal(t *testing.T) {
	assert.True(t, Sum().IsZero())
	assert.True(t, Sum(d("0.1"), d("0.2")).Equal(d("0.3")))
	assert.True(t, LineTotal(d("12.50"), 4).Equal(d("50")))
}

func TestParseTrimsInput(t *testing.T) {
	v, err := Parse(" 0.10 ")
	assert.NoError(t, err)
	assert.True(t, v.Equal(d("0.1")))

	_, err = Parse("ten")
	assert.Error(t, err)
}
