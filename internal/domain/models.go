package domain

import (
	"math"
	"time"

	"github.com/FluxtonX/partner-sub002/internal/estimate"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns a new UUID when none is set
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// EstimateStatus represents where an estimate is in its lifecycle
type EstimateStatus string

const (
	EstimateStatusDraft     EstimateStatus = "draft"
	EstimateStatusSubmitted EstimateStatus = "submitted"
	EstimateStatusApproved  EstimateStatus = "approved"
	EstimateStatusDeclined  EstimateStatus = "declined"
)

// IsValid checks if the status is a known estimate status
func (s EstimateStatus) IsValid() bool {
	switch s {
	case EstimateStatusDraft, EstimateStatusSubmitted, EstimateStatusApproved, EstimateStatusDeclined:
		return true
	}
	return false
}

// IsEditable reports whether line items and header fields may change
func (s EstimateStatus) IsEditable() bool {
	return s == EstimateStatusDraft
}

// BusinessSettings holds the per-business inputs to estimate pricing
type BusinessSettings struct {
	BaseModel
	BusinessID                        uuid.UUID                 `gorm:"type:uuid;not null;uniqueIndex;column:business_id"`
	TaxRate                           float64                   `gorm:"type:decimal(7,5);not null;default:0;column:tax_rate"`
	MinimumProfitMargin               float64                   `gorm:"type:decimal(7,5);not null;default:0;column:minimum_profit_margin"`
	IncludeIndirectExpenseInEstimates bool                      `gorm:"not null;default:false;column:include_indirect_expense_in_estimates"`
	LastCalculatedIndirectRate        float64                   `gorm:"type:decimal(15,4);not null;default:0;column:last_calculated_indirect_rate"`
	IndirectRateCalculatedAt          *time.Time                `gorm:"column:indirect_rate_calculated_at"`
	SubscriptionType                  estimate.SubscriptionType `gorm:"type:varchar(50);not null;default:'Trial';column:subscription_type"`
}

// TableName returns the table name for BusinessSettings
func (BusinessSettings) TableName() string {
	return "business_settings"
}

// CalculatorSettings converts the row into calculator input
func (s *BusinessSettings) CalculatorSettings() *estimate.Settings {
	if s == nil {
		return nil
	}
	return &estimate.Settings{
		TaxRate:                           s.TaxRate,
		MinimumProfitMargin:               s.MinimumProfitMargin,
		IncludeIndirectExpenseInEstimates: s.IncludeIndirectExpenseInEstimates,
		LastCalculatedIndirectRate:        s.LastCalculatedIndirectRate,
		SubscriptionType:                  s.SubscriptionType,
	}
}

// Estimate is a priced proposal made of line items.
// The totals columns cache the last calculation and are never authoritative.
type Estimate struct {
	BaseModel
	BusinessID        uuid.UUID      `gorm:"type:uuid;not null;index;column:business_id"`
	Number            string         `gorm:"type:varchar(50);not null;index"`
	Title             string         `gorm:"type:varchar(200);not null"`
	CustomerName      string         `gorm:"type:varchar(200);column:customer_name"`
	Notes             string         `gorm:"type:text"`
	Status            EstimateStatus `gorm:"type:varchar(50);not null;default:'draft';index"`
	OverallAdjustment float64        `gorm:"type:decimal(15,2);not null;default:0;column:overall_adjustment"`
	CreatedByID       string         `gorm:"type:varchar(100);column:created_by_id"`
	SubmittedAt       *time.Time     `gorm:"column:submitted_at"`

	Subtotal               float64    `gorm:"type:decimal(38,2);not null;default:0"`
	TaxAmount              float64    `gorm:"type:decimal(38,2);not null;default:0;column:tax_amount"`
	TotalAfterAdjustments  float64    `gorm:"type:decimal(38,2);not null;default:0;column:total_after_adjustments"`
	EstimatedLaborCost     float64    `gorm:"type:decimal(38,2);not null;default:0;column:estimated_labor_cost"`
	EstimatedMaterialsCost float64    `gorm:"type:decimal(38,2);not null;default:0;column:estimated_materials_cost"`
	EstimatedHours         float64    `gorm:"type:decimal(38,2);not null;default:0;column:estimated_hours"`
	GrossMarginPct         float64    `gorm:"type:decimal(24,6);not null;default:0;column:gross_margin_pct"`
	NetMarginPct           float64    `gorm:"type:decimal(24,6);not null;default:0;column:net_margin_pct"`
	IsMarginError          bool       `gorm:"not null;default:false;column:is_margin_error"`
	TotalsCalculatedAt     *time.Time `gorm:"column:totals_calculated_at"`

	LineItems []LineItem `gorm:"foreignKey:EstimateID"`
}

// TableName returns the table name for Estimate
func (Estimate) TableName() string {
	return "estimates"
}

// Largest magnitudes the cached totals columns can hold
const (
	MaxStoredAmount    = 1e35 // decimal(38,2)
	MaxStoredMarginPct = 1e17 // decimal(24,6)
)

// ApplyResult copies a calculation into the cached totals columns. Values
// outside a column's range are clamped; responses always use the live result.
func (e *Estimate) ApplyResult(result estimate.Result, at time.Time) {
	e.Subtotal = clampStored(result.Totals.Subtotal, MaxStoredAmount)
	e.TaxAmount = clampStored(result.Totals.TaxAmount, MaxStoredAmount)
	e.TotalAfterAdjustments = clampStored(result.Totals.TotalAfterAdjustments, MaxStoredAmount)
	e.EstimatedLaborCost = clampStored(result.Totals.EstimatedLaborCost, MaxStoredAmount)
	e.EstimatedMaterialsCost = clampStored(result.Totals.EstimatedMaterialsCost, MaxStoredAmount)
	e.EstimatedHours = clampStored(result.Totals.EstimatedHours, MaxStoredAmount)
	e.GrossMarginPct = 0
	e.NetMarginPct = 0
	e.IsMarginError = false
	if result.Profitability != nil {
		e.GrossMarginPct = clampStored(result.Profitability.GrossMarginPct, MaxStoredMarginPct)
		e.NetMarginPct = clampStored(result.Profitability.NetMarginPct, MaxStoredMarginPct)
		e.IsMarginError = result.Profitability.IsMarginError
	}
	e.TotalsCalculatedAt = &at
}

func clampStored(v, limit float64) float64 {
	return math.Max(-limit, math.Min(limit, v))
}

// LineItem is one persisted priced row of an estimate.
// Quantity and Total are recomputed in BeforeSave on every write.
type LineItem struct {
	BaseModel
	EstimateID       uuid.UUID         `gorm:"type:uuid;not null;index;column:estimate_id"`
	Name             string            `gorm:"type:varchar(200);not null"`
	Description      string            `gorm:"type:text"`
	Type             estimate.ItemType `gorm:"type:varchar(50);not null;default:'material'"`
	Category         string            `gorm:"type:varchar(100)"`
	Unit             string            `gorm:"type:varchar(50)"`
	BaseQuantity     float64           `gorm:"type:decimal(14,4);not null;default:0;column:base_quantity"`
	WastePercentage  float64           `gorm:"type:decimal(7,4);not null;default:0;column:waste_percentage"`
	Quantity         float64           `gorm:"type:decimal(20,4);not null;default:0"`
	UnitPrice        float64           `gorm:"type:decimal(19,4);not null;default:0;column:unit_price"`
	CostPrice        float64           `gorm:"type:decimal(19,4);not null;default:0;column:cost_price"`
	AdjustmentAmount float64           `gorm:"type:decimal(15,2);not null;default:0;column:adjustment_amount"`
	Total            float64           `gorm:"type:decimal(30,2);not null;default:0"`
	Taxable          bool              `gorm:"not null"`
	Hours            float64           `gorm:"type:decimal(10,4);not null;default:0"`
	DisplayOrder     int               `gorm:"not null;default:0;column:display_order"`
}

// TableName returns the table name for LineItem
func (LineItem) TableName() string {
	return "estimate_line_items"
}

// CalculatorItem converts the row into calculator input
func (li *LineItem) CalculatorItem() estimate.LineItem {
	return estimate.LineItem{
		ID:               li.ID.String(),
		BaseQuantity:     li.BaseQuantity,
		WastePercentage:  li.WastePercentage,
		UnitPrice:        li.UnitPrice,
		CostPrice:        li.CostPrice,
		AdjustmentAmount: li.AdjustmentAmount,
		Taxable:          estimate.Bool(li.Taxable),
		Type:             li.Type,
		Category:         li.Category,
		Hours:            li.Hours,
	}
}

// Recalculate refreshes the derived Quantity and Total from their inputs
func (li *LineItem) Recalculate() {
	item := li.CalculatorItem()
	li.Quantity = item.Quantity()
	li.Total = item.Total()
}

// BeforeSave keeps the derived columns in step with their inputs
func (li *LineItem) BeforeSave(tx *gorm.DB) error {
	li.Recalculate()
	return nil
}

// CalculatorItems converts persisted line items into calculator input
func CalculatorItems(items []LineItem) []estimate.LineItem {
	result := make([]estimate.LineItem, len(items))
	for i := range items {
		result[i] = items[i].CalculatorItem()
	}
	return result
}

// EstimateSequence tracks the last estimate number issued to a business
type EstimateSequence struct {
	BusinessID   uuid.UUID `gorm:"type:uuid;primaryKey;column:business_id"`
	LastSequence int       `gorm:"not null;default:0;column:last_sequence"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for EstimateSequence
func (EstimateSequence) TableName() string {
	return "estimate_sequences"
}
