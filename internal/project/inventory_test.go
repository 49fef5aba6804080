package project

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/optimystic/internal/model"
)

func TestInventoryPath(t *testing.T) {
	path := InventoryPath("/data")
	if path != filepath.Join("/data", "inventory.json") {
		t.Errorf("unexpected inventory path %s", path)
	}
}

func TestSaveAndLoadInventory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test_inventory.json")

	inv := model.Inventory{
		Stocks: []model.StockPreset{
			model.NewStockPreset("Test Bar", 3000, 15, "Steel"),
		},
	}

	if err := SaveInventory(path, inv); err != nil {
		t.Fatalf("SaveInventory failed: %v", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatal("inventory file was not created")
	}

	loaded, err := LoadInventory(path)
	if err != nil {
		t.Fatalf("LoadInventory failed: %v", err)
	}
	if len(loaded.Stocks) != 1 {
		t.Fatalf("expected 1 stock, got %d", len(loaded.Stocks))
	}
	if loaded.Stocks[0].Name != "Test Bar" {
		t.Errorf("expected stock name 'Test Bar', got %q", loaded.Stocks[0].Name)
	}
	if loaded.Stocks[0].Length != 3000 {
		t.Errorf("expected length 3000, got %f", loaded.Stocks[0].Length)
	}
}

func TestLoadInventoryCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "inventory.json")

	inv, err := LoadInventory(path)
	if err != nil {
		t.Fatalf("LoadInventory failed: %v", err)
	}
	if len(inv.Stocks) != len(model.DefaultInventory().Stocks) {
		t.Errorf("expected default stocks, got %d", len(inv.Stocks))
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatal("default inventory was not saved")
	}
}

func TestLoadInventoryNullStocks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.json")
	if err := os.WriteFile(path, []byte(`{"stocks":null}`), 0644); err != nil {
		t.Fatal(err)
	}

	inv, err := LoadInventory(path)
	if err != nil {
		t.Fatalf("LoadInventory failed: %v", err)
	}
	if inv.Stocks == nil {
		t.Error("Stocks should not be nil after loading")
	}
}

func TestImportInventory(t *testing.T) {
	existing := model.Inventory{
		Stocks: []model.StockPreset{model.NewStockPreset("Long_Bar", 5000, 28, "Steel")},
	}
	imported := model.Inventory{
		Stocks: []model.StockPreset{
			model.NewStockPreset("Long_Bar", 6000, 30, "Steel"),
			model.NewStockPreset("Tube", 6000, 45, "Aluminium"),
		},
	}

	path := filepath.Join(t.TempDir(), "import.json")
	data, err := json.Marshal(imported)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	merged, added, err := ImportInventory(path, existing)
	if err != nil {
		t.Fatalf("ImportInventory failed: %v", err)
	}
	if added != 1 {
		t.Errorf("expected 1 preset added, got %d", added)
	}
	if len(merged.Stocks) != 2 {
		t.Fatalf("expected 2 stocks, got %d", len(merged.Stocks))
	}
	// The existing preset wins on a name clash
	if merged.Stocks[0].Length != 5000 {
		t.Errorf("existing Long_Bar was overwritten: %f", merged.Stocks[0].Length)
	}
}

func TestImportInventoryMissingFile(t *testing.T) {
	existing := model.DefaultInventory()
	merged, added, err := ImportInventory(filepath.Join(t.TempDir(), "nope.json"), existing)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if added != 0 || len(merged.Stocks) != len(existing.Stocks) {
		t.Error("existing inventory should be returned unchanged")
	}
}
