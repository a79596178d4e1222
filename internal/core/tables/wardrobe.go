package tables

import (
	"fmt"

	"github.com/JonMunkholm/glee/internal/core"
)

func init() {
	registerWardrobe()
}

var (
	wardrobeCategories = []string{"dresses", "pearls", "lipstick", "polos", "t-shirts", "garment-bags"}
	wardrobeConditions = []string{"new", "good", "fair", "poor", "damaged"}
)

const defaultLowStockThreshold = 5

func registerWardrobe() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{
			Key:         "wardrobe",
			Label:       "Wardrobe",
			KeyLabel:    "Item",
			Description: "Wardrobe inventory; every row is added as a new stock line",
		},
		Schema: core.Schema{
			Fields: []core.FieldSpec{
				{Name: "category", Type: core.FieldEnum, Required: true, NotEmpty: true, EnumValues: wardrobeCategories},
				{Name: "item_name", Type: core.FieldString, Required: true, NotEmpty: true},
				{Name: "sizes", Type: core.FieldList},
				{Name: "colors", Type: core.FieldList},
				{Name: "quantity_total", Type: core.FieldInteger, Required: true},
				{Name: "quantity_available", Type: core.FieldInteger, Required: true},
				{Name: "condition", Type: core.FieldEnum, EnumValues: wardrobeConditions, Fallback: "good"},
				{Name: "low_stock_threshold", Type: core.FieldInteger, Default: defaultLowStockThreshold},
				{Name: "notes", Type: core.FieldString},
			},
			KeyFields: []string{"category", "item_name"},
			KeyLabel:  "Item",
			Refine:    clampAvailable,
		},
		Mode: core.ModeInsert,
		Sample: []string{
			"dresses", "Black Evening Gown", "S,M,L,XL", "Black", "10", "8", "good", "2", "Formal performance dress",
		},
		Decode: decodeWardrobeItem,
	})
}

// clampAvailable caps quantity_available at quantity_total.
func clampAvailable(v core.Values) []core.Issue {
	total, avail := v.Int("quantity_total"), v.Int("quantity_available")
	if avail <= total {
		return nil
	}
	v["quantity_available"] = core.IntValue(total)
	return []core.Issue{{
		Field:   "quantity_available",
		Message: fmt.Sprintf("quantity_available %d exceeds quantity_total; set to %d", avail, total),
		Level:   core.LevelWarning,
	}}
}

func decodeWardrobeItem(v core.Values) core.Entity {
	return &core.WardrobeItem{
		Category:          v.Str("category"),
		ItemName:          v.Str("item_name"),
		Sizes:             v.List("sizes"),
		Colors:            v.List("colors"),
		QuantityTotal:     v.Int("quantity_total"),
		QuantityAvailable: v.Int("quantity_available"),
		Condition:         v.Str("condition"),
		LowStockThreshold: v.Int("low_stock_threshold"),
		Notes:             v.Str("notes"),
	}
}
