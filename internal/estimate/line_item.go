// Package estimate computes estimate totals and profitability from line items
// and business settings. Everything here is a pure function of its inputs.
package estimate

import (
	"math"
	"slices"
)

// ItemType drives labor/material cost bucketing
type ItemType string

const (
	TypeLabor                 ItemType = "labor"
	TypeMaterial              ItemType = "material"
	TypeInventoryMaterials    ItemType = "inventory_materials"
	TypeJobSupplies           ItemType = "job_supplies"
	TypeNonInventoryMaterials ItemType = "non_inventory_materials"
)

// ItemTypes lists every recognised item type
var ItemTypes = []ItemType{
	TypeLabor,
	TypeMaterial,
	TypeInventoryMaterials,
	TypeJobSupplies,
	TypeNonInventoryMaterials,
}

// Valid reports whether t is one of ItemTypes
func (t ItemType) Valid() bool {
	return slices.Contains(ItemTypes, t)
}

// IsLabor reports whether the type is bucketed as labor
func (t ItemType) IsLabor() bool {
	return t == TypeLabor
}

// LineItem is one priced entry in an estimate.
// Quantity and Total are derived on every read and never stored here.
type LineItem struct {
	ID               string
	BaseQuantity     float64
	WastePercentage  float64 // fraction, 0.15 = 15%
	UnitPrice        float64
	CostPrice        float64
	AdjustmentAmount float64
	Taxable          *bool // nil is taxable
	Type             ItemType
	Category         string
	Hours            float64 // per base unit
}

// Quantity returns BaseQuantity * (1 + WastePercentage)
func (li LineItem) Quantity() float64 {
	return Finite(Finite(li.BaseQuantity) * (1 + Finite(li.WastePercentage)))
}

// Total returns Quantity * UnitPrice + AdjustmentAmount
func (li LineItem) Total() float64 {
	return Finite(li.Quantity()*Finite(li.UnitPrice) + Finite(li.AdjustmentAmount))
}

// DirectCost returns Quantity * CostPrice
func (li LineItem) DirectCost() float64 {
	return Finite(li.Quantity() * Finite(li.CostPrice))
}

// EstimatedHours returns BaseQuantity * Hours
func (li LineItem) EstimatedHours() float64 {
	return Finite(Finite(li.BaseQuantity) * Finite(li.Hours))
}

// IsTaxable reports whether the item counts toward the taxable base
func (li LineItem) IsTaxable() bool {
	return li.Taxable == nil || *li.Taxable
}

// Finite maps NaN and ±Inf to 0
func Finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Bool returns a pointer to b, for Taxable literals
func Bool(b bool) *bool {
	return &b
}
