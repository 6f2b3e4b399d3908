package domain

import (
	"github.com/FluxtonX/partner-sub002/internal/estimate"
	"github.com/google/uuid"
)

// DTOs for API responses

type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

type BusinessSettingsDTO struct {
	BusinessID                        uuid.UUID                 `json:"businessId"`
	TaxRate                           float64                   `json:"taxRate"`
	MinimumProfitMargin               float64                   `json:"minimumProfitMargin"`
	IncludeIndirectExpenseInEstimates bool                      `json:"includeIndirectExpenseInEstimates"`
	LastCalculatedIndirectRate        float64                   `json:"lastCalculatedIndirectRate"`
	IndirectRateCalculatedAt          *string                   `json:"indirectRateCalculatedAt,omitempty"` // ISO 8601
	SubscriptionType                  estimate.SubscriptionType `json:"subscriptionType"`
	PartnerFeeRate                    float64                   `json:"partnerFeeRate"`
	UpdatedAt                         string                    `json:"updatedAt"` // ISO 8601
}

type LineItemDTO struct {
	ID               uuid.UUID         `json:"id"`
	EstimateID       uuid.UUID         `json:"estimateId"`
	Name             string            `json:"name"`
	Description      string            `json:"description,omitempty"`
	Type             estimate.ItemType `json:"type"`
	Category         string            `json:"category,omitempty"`
	Unit             string            `json:"unit,omitempty"`
	BaseQuantity     float64           `json:"baseQuantity"`
	WastePercentage  float64           `json:"wastePercentage"`
	Quantity         float64           `json:"quantity"`
	UnitPrice        float64           `json:"unitPrice"`
	CostPrice        float64           `json:"costPrice"`
	AdjustmentAmount float64           `json:"adjustmentAmount"`
	Total            float64           `json:"total"`
	Taxable          bool              `json:"taxable"`
	Hours            float64           `json:"hours"`
	DisplayOrder     int               `json:"displayOrder"`
}

// EstimateSummaryDTO is the list representation of an estimate, built from cached totals
type EstimateSummaryDTO struct {
	ID                    uuid.UUID      `json:"id"`
	Number                string         `json:"number"`
	Title                 string         `json:"title"`
	CustomerName          string         `json:"customerName,omitempty"`
	Status                EstimateStatus `json:"status"`
	Subtotal              float64        `json:"subtotal"`
	TotalAfterAdjustments float64        `json:"totalAfterAdjustments"`
	NetMarginPct          float64        `json:"netMarginPct"`
	IsMarginError         bool           `json:"isMarginError"`
	SubmittedAt           *string        `json:"submittedAt,omitempty"`
	CreatedAt             string         `json:"createdAt"`
	UpdatedAt             string         `json:"updatedAt"`
}

// EstimateDTO is the full estimate with freshly computed totals
type EstimateDTO struct {
	ID                uuid.UUID               `json:"id"`
	BusinessID        uuid.UUID               `json:"businessId"`
	Number            string                  `json:"number"`
	Title             string                  `json:"title"`
	CustomerName      string                  `json:"customerName,omitempty"`
	Notes             string                  `json:"notes,omitempty"`
	Status            EstimateStatus          `json:"status"`
	OverallAdjustment float64                 `json:"overallAdjustment"`
	LineItems         []LineItemDTO           `json:"lineItems"`
	Totals            estimate.Totals         `json:"totals"`
	Profitability     *estimate.Profitability `json:"profitability,omitempty"`
	SubmittedAt       *string                 `json:"submittedAt,omitempty"`
	CreatedByID       string                  `json:"createdById,omitempty"`
	CreatedAt         string                  `json:"createdAt"`
	UpdatedAt         string                  `json:"updatedAt"`
}

// CalculationDTO is the result of a stateless calculation preview
type CalculationDTO struct {
	Items         []CalculatedLineDTO        `json:"items"`
	Totals        estimate.Totals            `json:"totals"`
	Profitability *estimate.Profitability    `json:"profitability,omitempty"`
	Categories    []estimate.CategorySummary `json:"categories"`
}

// CalculatedLineDTO echoes a previewed line with its derived values
type CalculatedLineDTO struct {
	ID       string  `json:"id,omitempty"`
	Quantity float64 `json:"quantity"`
	Total    float64 `json:"total"`
}

// EstimateExportDTO describes a stored estimate snapshot
type EstimateExportDTO struct {
	EstimateID  uuid.UUID `json:"estimateId"`
	StoragePath string    `json:"storagePath"`
	Size        int64     `json:"size"`
	ExportedAt  string    `json:"exportedAt"`
}

// Request DTOs

// LineItemInput carries the editable fields of a line item.
// Numeric fields accept blank or unparseable values as 0 and are bounded so
// every persisted value and its derived quantity and total fit their columns.
type LineItemInput struct {
	Name             string            `json:"name" validate:"required,max=200"`
	Description      string            `json:"description,omitempty" validate:"max=2000"`
	Type             estimate.ItemType `json:"type" validate:"required,itemtype"`
	Category         string            `json:"category,omitempty" validate:"max=100"`
	Unit             string            `json:"unit,omitempty" validate:"max=50"`
	BaseQuantity     estimate.Number   `json:"baseQuantity" validate:"gte=0,lte=1000000000"`
	WastePercentage  estimate.Number   `json:"wastePercentage" validate:"gte=0,lte=100"`
	UnitPrice        estimate.Number   `json:"unitPrice" validate:"gte=-1000000000000,lte=1000000000000"`
	CostPrice        estimate.Number   `json:"costPrice" validate:"gte=-1000000000000,lte=1000000000000"`
	AdjustmentAmount estimate.Number   `json:"adjustmentAmount" validate:"gte=-1000000000000,lte=1000000000000"`
	Taxable          *bool             `json:"taxable,omitempty"`
	Hours            estimate.Number   `json:"hours" validate:"gte=0,lte=100000"`
}

type CreateLineItemRequest struct {
	LineItemInput
	DisplayOrder int `json:"displayOrder,omitempty" validate:"gte=0"`
}

// UpdateLineItemRequest keeps the item's position when DisplayOrder is omitted
type UpdateLineItemRequest struct {
	LineItemInput
	DisplayOrder *int `json:"displayOrder,omitempty" validate:"omitempty,gte=0"`
}

type ReorderLineItemsRequest struct {
	OrderedIDs []uuid.UUID `json:"orderedIds" validate:"required,min=1"`
}

type CreateEstimateRequest struct {
	Title             string                  `json:"title" validate:"required,max=200"`
	CustomerName      string                  `json:"customerName,omitempty" validate:"max=200"`
	Notes             string                  `json:"notes,omitempty" validate:"max=5000"`
	OverallAdjustment estimate.Number         `json:"overallAdjustment" validate:"gte=-1000000000000,lte=1000000000000"`
	LineItems         []CreateLineItemRequest `json:"lineItems,omitempty" validate:"dive"`
}

type UpdateEstimateRequest struct {
	Title             string          `json:"title" validate:"required,max=200"`
	CustomerName      string          `json:"customerName,omitempty" validate:"max=200"`
	Notes             string          `json:"notes,omitempty" validate:"max=5000"`
	OverallAdjustment estimate.Number `json:"overallAdjustment" validate:"gte=-1000000000000,lte=1000000000000"`
}

type UpdateEstimateStatusRequest struct {
	Status EstimateStatus `json:"status" validate:"required,oneof=approved declined"`
}

// CalculateEstimateRequest previews a calculation without persisting anything.
// Settings override the stored business settings when present.
type CalculateEstimateRequest struct {
	LineItems         []CalculateLineItemInput `json:"lineItems" validate:"dive"`
	OverallAdjustment estimate.Number          `json:"overallAdjustment"`
	Settings          *SettingsInput           `json:"settings,omitempty"`
}

type CalculateLineItemInput struct {
	ID               string            `json:"id,omitempty"`
	Type             estimate.ItemType `json:"type"`
	Category         string            `json:"category,omitempty"`
	BaseQuantity     estimate.Number   `json:"baseQuantity"`
	WastePercentage  estimate.Number   `json:"wastePercentage"`
	UnitPrice        estimate.Number   `json:"unitPrice"`
	CostPrice        estimate.Number   `json:"costPrice"`
	AdjustmentAmount estimate.Number   `json:"adjustmentAmount"`
	Taxable          *bool             `json:"taxable,omitempty"`
	Hours            estimate.Number   `json:"hours"`
}

// SettingsInput carries editable business settings
type SettingsInput struct {
	TaxRate                           estimate.Number           `json:"taxRate" validate:"gte=0,lte=1"`
	MinimumProfitMargin               estimate.Number           `json:"minimumProfitMargin" validate:"gte=0,lt=1"`
	IncludeIndirectExpenseInEstimates bool                      `json:"includeIndirectExpenseInEstimates"`
	LastCalculatedIndirectRate        estimate.Number           `json:"lastCalculatedIndirectRate" validate:"gte=0,lte=10000000000"`
	SubscriptionType                  estimate.SubscriptionType `json:"subscriptionType" validate:"required,oneof=Trial Starter Partner Enterprise 'Enterprise Annual' Inactive"`
}

type UpsertSettingsRequest struct {
	SettingsInput
}

// RecalculateIndirectRateRequest derives the indirect rate from period totals
type RecalculateIndirectRateRequest struct {
	IndirectExpenses estimate.Number `json:"indirectExpenses" validate:"gte=0"`
	LaborUnits       estimate.Number `json:"laborUnits" validate:"gt=0"`
}
