package mapper

import (
	"strings"
	"time"

	"github.com/FluxtonX/partner-sub002/internal/domain"
	"github.com/FluxtonX/partner-sub002/internal/estimate"
	"github.com/google/uuid"
)

const timeFormat = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

// ToBusinessSettingsDTO converts BusinessSettings to BusinessSettingsDTO
func ToBusinessSettingsDTO(settings *domain.BusinessSettings) domain.BusinessSettingsDTO {
	return domain.BusinessSettingsDTO{
		BusinessID:                        settings.BusinessID,
		TaxRate:                           settings.TaxRate,
		MinimumProfitMargin:               settings.MinimumProfitMargin,
		IncludeIndirectExpenseInEstimates: settings.IncludeIndirectExpenseInEstimates,
		LastCalculatedIndirectRate:        settings.LastCalculatedIndirectRate,
		IndirectRateCalculatedAt:          formatTimePtr(settings.IndirectRateCalculatedAt),
		SubscriptionType:                  settings.SubscriptionType,
		PartnerFeeRate:                    estimate.PartnerFeeRate(settings.SubscriptionType),
		UpdatedAt:                         formatTime(settings.UpdatedAt),
	}
}

// ApplySettingsInput copies editable settings onto a row
func ApplySettingsInput(settings *domain.BusinessSettings, input domain.SettingsInput) {
	settings.TaxRate = input.TaxRate.Float64()
	settings.MinimumProfitMargin = input.MinimumProfitMargin.Float64()
	settings.IncludeIndirectExpenseInEstimates = input.IncludeIndirectExpenseInEstimates
	settings.LastCalculatedIndirectRate = input.LastCalculatedIndirectRate.Float64()
	settings.SubscriptionType = input.SubscriptionType
}

// ToCalculatorSettings converts request settings into calculator input
func ToCalculatorSettings(input *domain.SettingsInput) *estimate.Settings {
	if input == nil {
		return nil
	}
	return &estimate.Settings{
		TaxRate:                           input.TaxRate.Float64(),
		MinimumProfitMargin:               input.MinimumProfitMargin.Float64(),
		IncludeIndirectExpenseInEstimates: input.IncludeIndirectExpenseInEstimates,
		LastCalculatedIndirectRate:        input.LastCalculatedIndirectRate.Float64(),
		SubscriptionType:                  input.SubscriptionType,
	}
}

// ToLineItemDTO converts LineItem to LineItemDTO
func ToLineItemDTO(item *domain.LineItem) domain.LineItemDTO {
	return domain.LineItemDTO{
		ID:               item.ID,
		EstimateID:       item.EstimateID,
		Name:             item.Name,
		Description:      item.Description,
		Type:             item.Type,
		Category:         item.Category,
		Unit:             item.Unit,
		BaseQuantity:     item.BaseQuantity,
		WastePercentage:  item.WastePercentage,
		Quantity:         item.Quantity,
		UnitPrice:        item.UnitPrice,
		CostPrice:        item.CostPrice,
		AdjustmentAmount: item.AdjustmentAmount,
		Total:            item.Total,
		Taxable:          item.Taxable,
		Hours:            item.Hours,
		DisplayOrder:     item.DisplayOrder,
	}
}

// ApplyLineItemInput copies request fields onto a line item.
// Non-finite numbers become 0 and a missing taxable flag means taxable.
func ApplyLineItemInput(item *domain.LineItem, input domain.LineItemInput) {
	item.Name = strings.TrimSpace(input.Name)
	item.Description = input.Description
	item.Type = input.Type
	item.Category = strings.TrimSpace(input.Category)
	item.Unit = input.Unit
	item.BaseQuantity = estimate.Finite(input.BaseQuantity.Float64())
	item.WastePercentage = estimate.Finite(input.WastePercentage.Float64())
	item.UnitPrice = estimate.Finite(input.UnitPrice.Float64())
	item.CostPrice = estimate.Finite(input.CostPrice.Float64())
	item.AdjustmentAmount = estimate.Finite(input.AdjustmentAmount.Float64())
	item.Taxable = input.Taxable == nil || *input.Taxable
	item.Hours = estimate.Finite(input.Hours.Float64())
	item.Recalculate()
}

// ToCalculatorLineItem converts a preview line into calculator input
func ToCalculatorLineItem(input domain.CalculateLineItemInput) estimate.LineItem {
	return estimate.LineItem{
		ID:               input.ID,
		BaseQuantity:     input.BaseQuantity.Float64(),
		WastePercentage:  input.WastePercentage.Float64(),
		UnitPrice:        input.UnitPrice.Float64(),
		CostPrice:        input.CostPrice.Float64(),
		AdjustmentAmount: input.AdjustmentAmount.Float64(),
		Taxable:          input.Taxable,
		Type:             input.Type,
		Category:         input.Category,
		Hours:            input.Hours.Float64(),
	}
}

// ToCalculationDTO builds the preview response from calculator input and result
func ToCalculationDTO(items []estimate.LineItem, result estimate.Result) domain.CalculationDTO {
	lines := make([]domain.CalculatedLineDTO, len(items))
	for i, item := range items {
		lines[i] = domain.CalculatedLineDTO{
			ID:       item.ID,
			Quantity: item.Quantity(),
			Total:    item.Total(),
		}
	}
	return domain.CalculationDTO{
		Items:         lines,
		Totals:        result.Totals,
		Profitability: result.Profitability,
		Categories:    estimate.SummarizeByCategory(items),
	}
}

// ToEstimateDTO converts Estimate to EstimateDTO using a fresh calculation result
func ToEstimateDTO(e *domain.Estimate, result estimate.Result) domain.EstimateDTO {
	items := make([]domain.LineItemDTO, len(e.LineItems))
	for i := range e.LineItems {
		items[i] = ToLineItemDTO(&e.LineItems[i])
	}

	return domain.EstimateDTO{
		ID:                e.ID,
		BusinessID:        e.BusinessID,
		Number:            e.Number,
		Title:             e.Title,
		CustomerName:      e.CustomerName,
		Notes:             e.Notes,
		Status:            e.Status,
		OverallAdjustment: e.OverallAdjustment,
		LineItems:         items,
		Totals:            result.Totals,
		Profitability:     result.Profitability,
		SubmittedAt:       formatTimePtr(e.SubmittedAt),
		CreatedByID:       e.CreatedByID,
		CreatedAt:         formatTime(e.CreatedAt),
		UpdatedAt:         formatTime(e.UpdatedAt),
	}
}

// ToEstimateSummaryDTO converts Estimate to EstimateSummaryDTO from its cached totals
func ToEstimateSummaryDTO(e *domain.Estimate) domain.EstimateSummaryDTO {
	return domain.EstimateSummaryDTO{
		ID:                    e.ID,
		Number:                e.Number,
		Title:                 e.Title,
		CustomerName:          e.CustomerName,
		Status:                e.Status,
		Subtotal:              e.Subtotal,
		TotalAfterAdjustments: e.TotalAfterAdjustments,
		NetMarginPct:          e.NetMarginPct,
		IsMarginError:         e.IsMarginError,
		SubmittedAt:           formatTimePtr(e.SubmittedAt),
		CreatedAt:             formatTime(e.CreatedAt),
		UpdatedAt:             formatTime(e.UpdatedAt),
	}
}

// CopyLineItem returns an unsaved copy of item for another estimate
func CopyLineItem(item *domain.LineItem) domain.LineItem {
	clone := *item
	clone.BaseModel = domain.BaseModel{}
	clone.EstimateID = uuid.Nil
	return clone
}
