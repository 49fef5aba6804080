package model

import "github.com/google/uuid"

// StockPreset represents a reusable bar definition.
type StockPreset struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Length   float64 `json:"length"` // mm
	Cost     float64 `json:"cost"`   // per bar
	Material string  `json:"material"`
}

// NewStockPreset creates a new StockPreset with a generated ID.
func NewStockPreset(name string, length, cost float64, material string) StockPreset {
	return StockPreset{
		ID:       uuid.New().String()[:8],
		Name:     name,
		Length:   length,
		Cost:     cost,
		Material: material,
	}
}

// ToStock converts a StockPreset into a Stock row with the given limit.
func (sp StockPreset) ToStock(limit int) Stock {
	if limit <= 0 {
		limit = DefaultStockLimit
	}
	return NewStock(sp.Name, sp.Length, sp.Cost, limit)
}

// Inventory holds the user's saved stock presets.
type Inventory struct {
	Stocks []StockPreset `json:"stocks"`
}

// DefaultInventory returns an inventory populated with common bar stock.
func DefaultInventory() Inventory {
	return Inventory{
		Stocks: []StockPreset{
			NewStockPreset("Short_Bar", 1500, 10, "Steel"),
			NewStockPreset("Long_Bar", 5000, 28, "Steel"),
			NewStockPreset("Timber 2400", 2400, 12, "Wood"),
			NewStockPreset("Timber 3600", 3600, 17, "Wood"),
			NewStockPreset("Aluminium Tube 6000", 6000, 45, "Aluminium"),
			NewStockPreset("PVC Pipe 3000", 3000, 8, "PVC"),
		},
	}
}

// FindStockByID returns a pointer to the stock preset with the given ID, or nil.
func (inv *Inventory) FindStockByID(id string) *StockPreset {
	for i := range inv.Stocks {
		if inv.Stocks[i].ID == id {
			return &inv.Stocks[i]
		}
	}
	return nil
}

// FindStockByName returns a pointer to the first stock preset with the given name, or nil.
func (inv *Inventory) FindStockByName(name string) *StockPreset {
	for i := range inv.Stocks {
		if inv.Stocks[i].Name == name {
			return &inv.Stocks[i]
		}
	}
	return nil
}

// Merge adds presets whose names are not yet present and returns how many were added.
func (inv *Inventory) Merge(other Inventory) int {
	added := 0
	for _, s := range other.Stocks {
		if inv.FindStockByName(s.Name) != nil {
			continue
		}
		inv.Stocks = append(inv.Stocks, s)
		added++
	}
	return added
}
