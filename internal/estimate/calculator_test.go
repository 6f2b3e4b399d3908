package estimate_test

import (
	"math"
	"testing"

	"github.com/FluxtonX/partner-sub002/internal/estimate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const delta = 1e-9

func defaultSettings() *estimate.Settings {
	return &estimate.Settings{
		TaxRate:          0.08,
		SubscriptionType: estimate.SubscriptionEnterprise,
	}
}

func TestComputeTotals_ZeroItems(t *testing.T) {
	totals := estimate.ComputeTotals(nil, 0, defaultSettings())

	assert.Equal(t, 0.0, totals.Subtotal)
	assert.Equal(t, 0.0, totals.TaxAmount)
	assert.Equal(t, 0.0, totals.TotalAfterAdjustments)
	assert.Equal(t, 0.0, totals.EstimatedHours)

	totals = estimate.ComputeTotals([]estimate.LineItem{}, 0, &estimate.Settings{TaxRate: 0.25})
	assert.Equal(t, estimate.Totals{}, totals)
}

func TestComputeTotals_NilSettings(t *testing.T) {
	items := []estimate.LineItem{
		{BaseQuantity: 3, UnitPrice: 100, CostPrice: 40, Hours: 2, Type: estimate.TypeLabor},
	}

	totals := estimate.ComputeTotals(items, 50, nil)

	assert.Equal(t, estimate.Totals{}, totals)
}

func TestLineItem_WasteDerivation(t *testing.T) {
	item := estimate.LineItem{
		BaseQuantity:    10,
		WastePercentage: 0.1,
		UnitPrice:       5,
	}

	assert.InDelta(t, 11.0, item.Quantity(), delta)
	assert.InDelta(t, 55.0, item.Total(), delta)

	item.BaseQuantity = 20
	assert.InDelta(t, 22.0, item.Quantity(), delta, "quantity follows base quantity")
	assert.InDelta(t, 110.0, item.Total(), delta, "total follows base quantity")
}

func TestLineItem_AdjustmentAmount(t *testing.T) {
	item := estimate.LineItem{BaseQuantity: 2, UnitPrice: 50, AdjustmentAmount: -15}

	assert.InDelta(t, 85.0, item.Total(), delta)
}

func TestComputeTotals_TaxabilityExclusion(t *testing.T) {
	items := []estimate.LineItem{
		{ID: "a", BaseQuantity: 1, UnitPrice: 100, Taxable: estimate.Bool(true)},
		{ID: "b", BaseQuantity: 1, UnitPrice: 100, Taxable: estimate.Bool(false)},
	}

	totals := estimate.ComputeTotals(items, 0, &estimate.Settings{TaxRate: 0.08})

	assert.InDelta(t, 200.0, totals.Subtotal, delta)
	assert.InDelta(t, 100.0, totals.TaxableBase, delta)
	assert.InDelta(t, 8.0, totals.TaxAmount, delta)
	assert.InDelta(t, 208.0, totals.TotalAfterAdjustments, delta)
}

func TestComputeTotals_TaxableDefaultsToTrue(t *testing.T) {
	items := []estimate.LineItem{
		{BaseQuantity: 1, UnitPrice: 100},
	}

	totals := estimate.ComputeTotals(items, 0, &estimate.Settings{TaxRate: 0.1})

	assert.InDelta(t, 10.0, totals.TaxAmount, delta)
}

func TestComputeTotals_TaxableBaseIncludesItemAdjustments(t *testing.T) {
	items := []estimate.LineItem{
		{BaseQuantity: 1, UnitPrice: 100, AdjustmentAmount: -20},
	}

	totals := estimate.ComputeTotals(items, 0, &estimate.Settings{TaxRate: 0.1})

	assert.InDelta(t, 80.0, totals.TaxableBase, delta)
	assert.InDelta(t, 8.0, totals.TaxAmount, delta)
}

func TestComputeTotals_OverallAdjustmentAppliedOnce(t *testing.T) {
	items := []estimate.LineItem{
		{BaseQuantity: 1, UnitPrice: 100},
		{BaseQuantity: 1, UnitPrice: 100},
		{BaseQuantity: 1, UnitPrice: 100},
	}

	totals := estimate.ComputeTotals(items, -50, &estimate.Settings{TaxRate: 0})

	assert.InDelta(t, 300.0, totals.Subtotal, delta)
	assert.InDelta(t, 250.0, totals.TotalAfterAdjustments, delta)
}

func TestComputeTotals_CostBucketsAndHours(t *testing.T) {
	items := []estimate.LineItem{
		{Type: estimate.TypeLabor, BaseQuantity: 8, UnitPrice: 75, CostPrice: 30, Hours: 1},
		{Type: estimate.TypeMaterial, BaseQuantity: 10, WastePercentage: 0.5, UnitPrice: 12, CostPrice: 6, Hours: 0.25},
		{Type: estimate.TypeJobSupplies, BaseQuantity: 1, UnitPrice: 40, CostPrice: 20},
		{Type: estimate.ItemType("something_else"), BaseQuantity: 2, UnitPrice: 5, CostPrice: 1},
	}

	totals := estimate.ComputeTotals(items, 0, defaultSettings())

	assert.InDelta(t, 240.0, totals.EstimatedLaborCost, delta)
	// 15*6 + 1*20 + 2*1
	assert.InDelta(t, 112.0, totals.EstimatedMaterialsCost, delta)
	// 8*1 + 10*0.25
	assert.InDelta(t, 10.5, totals.EstimatedHours, delta)
}

func TestComputeTotals_NonFiniteInputsAreZero(t *testing.T) {
	items := []estimate.LineItem{
		{BaseQuantity: math.NaN(), UnitPrice: 10},
		{BaseQuantity: 2, UnitPrice: math.Inf(1), AdjustmentAmount: 5},
		{BaseQuantity: 1, UnitPrice: 10, CostPrice: math.Inf(-1), Hours: math.NaN()},
	}

	totals := estimate.ComputeTotals(items, math.NaN(), &estimate.Settings{TaxRate: math.NaN()})

	assert.InDelta(t, 15.0, totals.Subtotal, delta)
	assert.Equal(t, 0.0, totals.TaxAmount)
	assert.InDelta(t, 15.0, totals.TotalAfterAdjustments, delta)
	assert.Equal(t, 0.0, totals.EstimatedMaterialsCost)
	assert.Equal(t, 0.0, totals.EstimatedHours)
}

func TestComputeProfitability_ZeroSellingPrice(t *testing.T) {
	p := estimate.ComputeProfitability(nil, 0, estimate.Settings{
		MinimumProfitMargin: 0.2,
		SubscriptionType:    estimate.SubscriptionStarter,
	})

	assert.Equal(t, 0.0, p.SellingPrice)
	assert.Equal(t, 0.0, p.GrossMarginPct)
	assert.Equal(t, 0.0, p.NetMarginPct)
	assert.False(t, math.IsNaN(p.GrossMarginPct))
	assert.False(t, math.IsNaN(p.NetMarginPct))
}

func TestComputeProfitability_NegativeSellingPrice(t *testing.T) {
	items := []estimate.LineItem{{BaseQuantity: 1, UnitPrice: 100, CostPrice: 50}}

	p := estimate.ComputeProfitability(items, -300, estimate.Settings{})

	assert.InDelta(t, -200.0, p.SellingPrice, delta)
	assert.Equal(t, 0.0, p.GrossMarginPct)
	assert.Equal(t, 0.0, p.NetMarginPct)
}

func TestComputeProfitability_FeeTable(t *testing.T) {
	items := []estimate.LineItem{{BaseQuantity: 10, UnitPrice: 100}}

	enterprise := estimate.ComputeProfitability(items, 0, estimate.Settings{SubscriptionType: estimate.SubscriptionEnterprise})
	assert.InDelta(t, 1000.0, enterprise.SellingPrice, delta)
	assert.Equal(t, 0.0, enterprise.PartnerFeeApplied)

	partner := estimate.ComputeProfitability(items, 0, estimate.Settings{SubscriptionType: estimate.SubscriptionPartner})
	assert.InDelta(t, 70.0, partner.PartnerFeeApplied, delta)
	assert.InDelta(t, 0.07, partner.PartnerFeeRate, delta)
}

func TestPartnerFeeRate(t *testing.T) {
	tests := []struct {
		tier estimate.SubscriptionType
		want float64
	}{
		{estimate.SubscriptionTrial, 0.09},
		{estimate.SubscriptionStarter, 0.09},
		{estimate.SubscriptionPartner, 0.07},
		{estimate.SubscriptionEnterprise, 0},
		{estimate.SubscriptionEnterpriseAnnual, 0},
		{estimate.SubscriptionInactive, 0.09},
		{estimate.SubscriptionType(""), 0.09},
		{estimate.SubscriptionType("Platinum"), 0.09},
	}

	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			assert.Equal(t, tt.want, estimate.PartnerFeeRate(tt.tier))
		})
	}
}

func TestSubscriptionType_IsKnown(t *testing.T) {
	assert.True(t, estimate.SubscriptionEnterpriseAnnual.IsKnown())
	assert.False(t, estimate.SubscriptionType("enterprise").IsKnown())
}

func TestComputeProfitability_MarginGate(t *testing.T) {
	settings := estimate.Settings{
		MinimumProfitMargin: 0.2,
		SubscriptionType:    estimate.SubscriptionEnterprise,
	}

	t.Run("net margin below minimum", func(t *testing.T) {
		items := []estimate.LineItem{{BaseQuantity: 1, UnitPrice: 1000, CostPrice: 850}}
		p := estimate.ComputeProfitability(items, 0, settings)

		assert.InDelta(t, 0.15, p.NetMarginPct, delta)
		assert.True(t, p.IsMarginError)
	})

	t.Run("net margin above minimum", func(t *testing.T) {
		items := []estimate.LineItem{{BaseQuantity: 1, UnitPrice: 1000, CostPrice: 750}}
		p := estimate.ComputeProfitability(items, 0, settings)

		assert.InDelta(t, 0.25, p.NetMarginPct, delta)
		assert.False(t, p.IsMarginError)
	})

	t.Run("zero minimum disables gate", func(t *testing.T) {
		items := []estimate.LineItem{{BaseQuantity: 1, UnitPrice: 100, CostPrice: 150}}
		p := estimate.ComputeProfitability(items, 0, estimate.Settings{SubscriptionType: estimate.SubscriptionEnterprise})

		assert.Less(t, p.NetMarginPct, 0.0)
		assert.False(t, p.IsMarginError)
	})

	t.Run("gate uses net margin not gross", func(t *testing.T) {
		// gross 25%, net after the 9% starter fee 16%
		items := []estimate.LineItem{{BaseQuantity: 1, UnitPrice: 1000, CostPrice: 750}}
		p := estimate.ComputeProfitability(items, 0, estimate.Settings{
			MinimumProfitMargin: 0.2,
			SubscriptionType:    estimate.SubscriptionStarter,
		})

		assert.InDelta(t, 0.25, p.GrossMarginPct, delta)
		assert.InDelta(t, 0.16, p.NetMarginPct, delta)
		assert.True(t, p.IsMarginError)
	})
}

func TestComputeProfitability_IndirectCostOnlyOnLabor(t *testing.T) {
	settings := estimate.Settings{
		IncludeIndirectExpenseInEstimates: true,
		LastCalculatedIndirectRate:        12.5,
		SubscriptionType:                  estimate.SubscriptionEnterprise,
	}
	labor := estimate.LineItem{Type: estimate.TypeLabor, BaseQuantity: 8, WastePercentage: 0.25, UnitPrice: 80, CostPrice: 35}

	base := estimate.ComputeProfitability([]estimate.LineItem{labor}, 0, settings)
	assert.InDelta(t, 125.0, base.IndirectCostApplied, delta)

	material := estimate.LineItem{Type: estimate.TypeMaterial, BaseQuantity: 5000, UnitPrice: 2, CostPrice: 1}
	withMaterial := estimate.ComputeProfitability([]estimate.LineItem{labor, material}, 0, settings)
	assert.Equal(t, base.IndirectCostApplied, withMaterial.IndirectCostApplied)

	settings.IncludeIndirectExpenseInEstimates = false
	disabled := estimate.ComputeProfitability([]estimate.LineItem{labor}, 0, settings)
	assert.Equal(t, 0.0, disabled.IndirectCostApplied)
}

func TestComputeProfitability_FullBreakdown(t *testing.T) {
	items := []estimate.LineItem{
		{Type: estimate.TypeLabor, BaseQuantity: 10, UnitPrice: 90, CostPrice: 40},
		{Type: estimate.TypeMaterial, BaseQuantity: 20, WastePercentage: 0.5, UnitPrice: 10, CostPrice: 5},
	}
	settings := estimate.Settings{
		MinimumProfitMargin:               0.3,
		IncludeIndirectExpenseInEstimates: true,
		LastCalculatedIndirectRate:        5,
		SubscriptionType:                  estimate.SubscriptionPartner,
	}

	p := estimate.ComputeProfitability(items, 100, settings)

	// subtotal 900 + 300, plus overall adjustment
	assert.InDelta(t, 1300.0, p.SellingPrice, delta)
	assert.InDelta(t, 550.0, p.DirectCost, delta)
	assert.InDelta(t, 750.0, p.GrossProfit, delta)
	assert.InDelta(t, 750.0/1300.0, p.GrossMarginPct, delta)
	assert.InDelta(t, 50.0, p.IndirectCostApplied, delta)
	assert.InDelta(t, 91.0, p.PartnerFeeApplied, delta)
	assert.InDelta(t, 691.0, p.TotalCostForProfitability, delta)
	assert.InDelta(t, 609.0, p.NetProfit, delta)
	assert.InDelta(t, 609.0/1300.0, p.NetMarginPct, delta)
	assert.False(t, p.IsMarginError)
}

func TestCalculate_Idempotent(t *testing.T) {
	items := []estimate.LineItem{
		{Type: estimate.TypeLabor, BaseQuantity: 7.3, WastePercentage: 0.13, UnitPrice: 61.17, CostPrice: 22.9, Hours: 1.1},
		{Type: estimate.TypeInventoryMaterials, BaseQuantity: 3.7, WastePercentage: 0.07, UnitPrice: 19.99, CostPrice: 8.31, Taxable: estimate.Bool(false)},
	}
	settings := &estimate.Settings{
		TaxRate:                           0.0725,
		MinimumProfitMargin:               0.18,
		IncludeIndirectExpenseInEstimates: true,
		LastCalculatedIndirectRate:        3.33,
		SubscriptionType:                  estimate.SubscriptionTrial,
	}

	first := estimate.Calculate(items, 12.34, settings)
	second := estimate.Calculate(items, 12.34, settings)

	assert.Equal(t, first.Totals, second.Totals)
	require.NotNil(t, first.Profitability)
	require.NotNil(t, second.Profitability)
	assert.Equal(t, *first.Profitability, *second.Profitability)
}

func TestCalculate_NilSettingsOmitsProfitability(t *testing.T) {
	result := estimate.Calculate([]estimate.LineItem{{BaseQuantity: 1, UnitPrice: 10}}, 0, nil)

	assert.Equal(t, estimate.Totals{}, result.Totals)
	assert.Nil(t, result.Profitability)
}
