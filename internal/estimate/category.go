package estimate

import (
	"sort"
	"strings"
)

// UncategorizedLabel groups items with a blank category
const UncategorizedLabel = "Uncategorized"

// CategorySummary is a reporting roll-up of the items sharing a category
type CategorySummary struct {
	Category       string  `json:"category"`
	ItemCount      int     `json:"itemCount"`
	Total          float64 `json:"total"`
	DirectCost     float64 `json:"directCost"`
	EstimatedHours float64 `json:"estimatedHours"`
}

// SummarizeByCategory groups line items by category, sorted by name.
// Category never influences the financial totals.
func SummarizeByCategory(items []LineItem) []CategorySummary {
	byCategory := make(map[string]*CategorySummary)
	for _, item := range items {
		name := strings.TrimSpace(item.Category)
		if name == "" {
			name = UncategorizedLabel
		}
		summary, ok := byCategory[name]
		if !ok {
			summary = &CategorySummary{Category: name}
			byCategory[name] = summary
		}
		summary.ItemCount++
		summary.Total += item.Total()
		summary.DirectCost += item.DirectCost()
		summary.EstimatedHours += item.EstimatedHours()
	}

	result := make([]CategorySummary, 0, len(byCategory))
	for _, summary := range byCategory {
		result = append(result, *summary)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Category < result[j].Category
	})
	return result
}
