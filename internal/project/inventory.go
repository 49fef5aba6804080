package project

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/piwi3910/optimystic/internal/model"
)

// InventoryPath returns the inventory file inside a data directory.
func InventoryPath(dataDir string) string {
	return filepath.Join(dataDir, "inventory.json")
}

// SaveInventory writes the inventory to the specified JSON file.
// It creates parent directories if they do not exist.
func SaveInventory(path string, inv model.Inventory) error {
	return writeJSON(path, inv)
}

// LoadInventory reads the inventory from the specified JSON file.
// If the file does not exist, it returns the default inventory and saves it.
func LoadInventory(path string) (model.Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			inv := model.DefaultInventory()
			if saveErr := SaveInventory(path, inv); saveErr != nil {
				return inv, saveErr
			}
			return inv, nil
		}
		return model.Inventory{}, err
	}
	var inv model.Inventory
	if err := json.Unmarshal(data, &inv); err != nil {
		return model.Inventory{}, err
	}
	if inv.Stocks == nil {
		inv.Stocks = []model.StockPreset{}
	}
	return inv, nil
}

// ImportInventory reads an inventory from a user-specified JSON file and
// merges it into existing. Presets whose name is already present are skipped.
func ImportInventory(path string, existing model.Inventory) (model.Inventory, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return existing, 0, err
	}
	var imported model.Inventory
	if err := json.Unmarshal(data, &imported); err != nil {
		return existing, 0, err
	}
	added := existing.Merge(imported)
	return existing, added, nil
}
