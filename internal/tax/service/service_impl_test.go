package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/settlement/internal/config"
	taxdomain "github.com/smallbiznis/settlement/internal/tax/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultPolicy() taxdomain.Policy {
	return taxdomain.Policy{
		TaxRate:        decimal.RequireFromString("0.10"),
		SupplyScale:    0,
		CommissionRate: decimal.RequireFromString("0.05"),
	}
}

func TestComputeTenPercent(t *testing.T) {
	got, err := Compute(defaultPolicy(), decimal.NewFromInt(100000))
	require.NoError(t, err)

	assert.True(t, got.Supply.Equal(decimal.NewFromInt(90909)), "supply %s", got.Supply)
	assert.True(t, got.Tax.Equal(decimal.NewFromInt(9091)), "tax %s", got.Tax)
	assert.True(t, got.Commission.Equal(decimal.NewFromInt(5000)), "commission %s", got.Commission)
	assert.True(t, got.SettlementAmount.Equal(decimal.NewFromInt(95000)), "settlement %s", got.SettlementAmount)
}

func TestComputeIsAdditive(t *testing.T) {
	totals := []string{"0", "1", "11", "99.99", "12345.67", "100000", "3333333.33"}
	for _, raw := range totals {
		total := decimal.RequireFromString(raw)
		got, err := Compute(defaultPolicy(), total)
		require.NoError(t, err)
		if !got.Supply.Add(got.Tax).Equal(total) {
			t.Fatalf("supply+tax != total for %s: %s + %s", raw, got.Supply, got.Tax)
		}
		if !got.Commission.Add(got.SettlementAmount).Equal(total) {
			t.Fatalf("commission+settlement != total for %s", raw)
		}
		if got.Tax.IsNegative() {
			t.Fatalf("negative tax for %s", raw)
		}
	}
}

func TestComputeZeroTotal(t *testing.T) {
	got, err := Compute(defaultPolicy(), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, got.Supply.IsZero())
	assert.True(t, got.Tax.IsZero())
	assert.True(t, got.Commission.IsZero())
}

func TestComputeRejectsNegativeTotal(t *testing.T) {
	_, err := Compute(defaultPolicy(), decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, taxdomain.ErrNegativeAmount)
}

func TestComputeRejectsInvalidPolicy(t *testing.T) {
	policy := defaultPolicy()
	policy.TaxRate = decimal.NewFromInt(-1)
	_, err := Compute(policy, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, taxdomain.ErrInvalidTaxRate)
}

func TestCalculatorUsesHolderPolicy(t *testing.T) {
	cfg := config.DefaultSettlementConfig()
	cfg.TaxRate = "0.20"
	calc := NewCalculator(CalculatorParam{Settings: config.NewStaticSettlementConfigHolder(cfg)})

	got, err := calc.Compute([]decimal.Decimal{decimal.NewFromInt(60), decimal.NewFromInt(60)})
	require.NoError(t, err)
	assert.True(t, got.Total.Equal(decimal.NewFromInt(120)))
	assert.True(t, got.Supply.Equal(decimal.NewFromInt(100)))
	assert.True(t, got.Tax.Equal(decimal.NewFromInt(20)))
}

func TestComputeRejectsScaleBeyondStorage(t *testing.T) {
	policy := defaultPolicy()
	policy.SupplyScale = 3
	_, err := Compute(policy, decimal.RequireFromString("0.05"))
	assert.ErrorIs(t, err, taxdomain.ErrInvalidScale)
}

func TestComputeAtStorageScaleStaysAdditive(t *testing.T) {
	policy := defaultPolicy()
	policy.SupplyScale = 2

	got, err := Compute(policy, decimal.RequireFromString("0.05"))
	require.NoError(t, err)
	assert.True(t, got.Supply.Equal(decimal.RequireFromString("0.05")), "supply %s", got.Supply)
	assert.True(t, got.Tax.IsZero(), "tax %s", got.Tax)
	assert.True(t, got.Supply.Round(2).Add(got.Tax.Round(2)).Equal(got.Total))
}
