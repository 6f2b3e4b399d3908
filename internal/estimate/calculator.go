package estimate

// Settings holds the business settings consumed by the calculator
type Settings struct {
	TaxRate                           float64
	MinimumProfitMargin               float64 // 0 disables the margin gate
	IncludeIndirectExpenseInEstimates bool
	LastCalculatedIndirectRate        float64 // per unit of labor quantity
	SubscriptionType                  SubscriptionType
}

// Totals are the roll-ups of an estimate's line items
type Totals struct {
	Subtotal               float64 `json:"subtotal"`
	TaxableBase            float64 `json:"taxableBase"`
	TaxAmount              float64 `json:"taxAmount"`
	TotalAfterAdjustments  float64 `json:"totalAfterAdjustments"`
	EstimatedLaborCost     float64 `json:"estimatedLaborCost"`
	EstimatedMaterialsCost float64 `json:"estimatedMaterialsCost"`
	EstimatedHours         float64 `json:"estimatedHours"`
}

// Profitability holds gross, indirect-adjusted and net profit views
type Profitability struct {
	SellingPrice              float64 `json:"sellingPrice"`
	DirectCost                float64 `json:"directCost"`
	GrossProfit               float64 `json:"grossProfit"`
	GrossMarginPct            float64 `json:"grossMarginPct"`
	IndirectCostApplied       float64 `json:"indirectCostApplied"`
	PartnerFeeRate            float64 `json:"partnerFeeRate"`
	PartnerFeeApplied         float64 `json:"partnerFeeApplied"`
	TotalCostForProfitability float64 `json:"totalCostForProfitability"`
	NetProfit                 float64 `json:"netProfit"`
	NetMarginPct              float64 `json:"netMarginPct"`
	MinimumProfitMargin       float64 `json:"minimumProfitMargin"`
	IsMarginError             bool    `json:"isMarginError"`
}

// Result combines totals and profitability.
// Profitability is nil when no settings were supplied.
type Result struct {
	Totals        Totals         `json:"totals"`
	Profitability *Profitability `json:"profitability,omitempty"`
}

// ComputeTotals rolls up line items into estimate totals.
// A nil settings yields zero totals.
func ComputeTotals(items []LineItem, overallAdjustment float64, settings *Settings) Totals {
	if settings == nil {
		return Totals{}
	}

	var t Totals
	for _, item := range items {
		total := item.Total()
		t.Subtotal += total
		if item.IsTaxable() {
			t.TaxableBase += total
		}
		if item.Type.IsLabor() {
			t.EstimatedLaborCost += item.DirectCost()
		} else {
			t.EstimatedMaterialsCost += item.DirectCost()
		}
		t.EstimatedHours += item.EstimatedHours()
	}

	t.TaxAmount = Finite(t.TaxableBase * Finite(settings.TaxRate))
	t.TotalAfterAdjustments = Finite(t.Subtotal + t.TaxAmount + Finite(overallAdjustment))

	t.Subtotal = Finite(t.Subtotal)
	t.TaxableBase = Finite(t.TaxableBase)
	t.EstimatedLaborCost = Finite(t.EstimatedLaborCost)
	t.EstimatedMaterialsCost = Finite(t.EstimatedMaterialsCost)
	t.EstimatedHours = Finite(t.EstimatedHours)

	return t
}

// ComputeProfitability derives gross and net profit and evaluates the margin gate.
// The gate compares the net margin against settings.MinimumProfitMargin.
func ComputeProfitability(items []LineItem, overallAdjustment float64, settings Settings) Profitability {
	var subtotal, directCost, laborQuantity float64
	for _, item := range items {
		subtotal += item.Total()
		directCost += item.DirectCost()
		if item.Type.IsLabor() {
			laborQuantity += item.Quantity()
		}
	}

	p := Profitability{
		SellingPrice:        Finite(subtotal + Finite(overallAdjustment)),
		DirectCost:          Finite(directCost),
		MinimumProfitMargin: Finite(settings.MinimumProfitMargin),
	}

	p.GrossProfit = Finite(p.SellingPrice - p.DirectCost)
	p.GrossMarginPct = marginOf(p.GrossProfit, p.SellingPrice)

	// Indirect overhead is a per-labor-unit burden; materials never carry it.
	if settings.IncludeIndirectExpenseInEstimates {
		p.IndirectCostApplied = Finite(laborQuantity * Finite(settings.LastCalculatedIndirectRate))
	}

	p.PartnerFeeRate = PartnerFeeRate(settings.SubscriptionType)
	p.PartnerFeeApplied = Finite(p.SellingPrice * p.PartnerFeeRate)

	p.TotalCostForProfitability = Finite(p.DirectCost + p.IndirectCostApplied + p.PartnerFeeApplied)
	p.NetProfit = Finite(p.SellingPrice - p.TotalCostForProfitability)
	p.NetMarginPct = marginOf(p.NetProfit, p.SellingPrice)

	p.IsMarginError = p.MinimumProfitMargin > 0 && p.NetMarginPct < p.MinimumProfitMargin

	return p
}

// Calculate runs both computations
func Calculate(items []LineItem, overallAdjustment float64, settings *Settings) Result {
	result := Result{
		Totals: ComputeTotals(items, overallAdjustment, settings),
	}
	if settings != nil {
		p := ComputeProfitability(items, overallAdjustment, *settings)
		result.Profitability = &p
	}
	return result
}

// marginOf returns profit/sellingPrice, or 0 when sellingPrice is not positive
func marginOf(profit, sellingPrice float64) float64 {
	if sellingPrice <= 0 {
		return 0
	}
	return Finite(profit / sellingPrice)
}
