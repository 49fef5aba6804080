package model

// Template modes understood by the model generators.
const (
	ModeCutting        = "cutting"
	ModeTransportation = "transportation"
	ModeProdMix        = "prod_mix"
	ModeBlending       = "blending"
	ModeCustom         = "custom"
)

// TemplateInfo is one entry of the template gallery.
type TemplateInfo struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tables      []string `json:"tables"` // Input tables the generator reads
}

// TemplateGallery lists the available model templates in display order.
var TemplateGallery = []TemplateInfo{
	{
		ID:          ModeCutting,
		Title:       "Cutting Stock",
		Description: "Minimize material waste (1D packing) for pipes, wood, or coils.",
		Tables:      []string{"items", "stocks"},
	},
	{
		ID:          ModeBlending,
		Title:       "Blending Optimization",
		Description: "Find the optimal recipe/mix to minimize cost while meeting quality.",
		Tables:      []string{"ingredients", "settings"},
	},
	{
		ID:          ModeProdMix,
		Title:       "Production Mix",
		Description: "Maximize profit by determining optimal production quantities.",
		Tables:      []string{"products", "resources"},
	},
	{
		ID:          ModeTransportation,
		Title:       "Transportation",
		Description: "Minimize logistics costs from sources to destinations.",
		Tables:      []string{"supply", "demand", "cost"},
	},
	{
		ID:          ModeCustom,
		Title:       "Custom Mode",
		Description: "Build your own model from scratch with parameters, variables and formulas.",
	},
}

// FindTemplate returns the gallery entry with the given id, or nil.
func FindTemplate(id string) *TemplateInfo {
	for i := range TemplateGallery {
		if TemplateGallery[i].ID == id {
			return &TemplateGallery[i]
		}
	}
	return nil
}

// DefaultStocks returns the stock inventory a new cutting workspace starts with.
func DefaultStocks() []Stock {
	return []Stock{
		NewStock("Short_Bar", 1500, 10, 100),
		NewStock("Long_Bar", 5000, 28, 50),
	}
}

// DefaultItems returns the order list a new cutting workspace starts with.
func DefaultItems() []Item {
	return []Item{
		NewItem("Table_Leg", 700, 20, 15),
		NewItem("Shelf_Top", 2200, 5, 50),
		NewItem("Coaster", 100, 30, 5),
	}
}
