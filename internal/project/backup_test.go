package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/optimystic/internal/model"
)

func TestExportAndImportAllData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.json")

	cfg := model.DefaultAppConfig()
	cfg.DefaultKerf = 3
	cfg.LogLevel = "warn"
	inv := model.Inventory{Stocks: []model.StockPreset{model.NewStockPreset("Tube", 6000, 45, "Aluminium")}}

	if err := ExportAllData(path, cfg, inv); err != nil {
		t.Fatalf("ExportAllData failed: %v", err)
	}

	backup, err := ImportAllData(path)
	if err != nil {
		t.Fatalf("ImportAllData failed: %v", err)
	}

	if backup.Version != BackupVersion {
		t.Errorf("expected version %s, got %s", BackupVersion, backup.Version)
	}
	if backup.CreatedAt == "" {
		t.Error("expected non-empty CreatedAt")
	}
	if backup.Config.DefaultKerf != 3 {
		t.Errorf("expected DefaultKerf=3, got %f", backup.Config.DefaultKerf)
	}
	if backup.Config.LogLevel != "warn" {
		t.Errorf("expected LogLevel=warn, got %s", backup.Config.LogLevel)
	}
	if len(backup.Inventory.Stocks) != 1 || backup.Inventory.Stocks[0].Name != "Tube" {
		t.Errorf("inventory not restored: %+v", backup.Inventory)
	}
}

func TestImportAllDataMissingFile(t *testing.T) {
	_, err := ImportAllData(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestImportAllDataInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json}"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := ImportAllData(path)
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestImportAllDataMissingVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noversion.json")
	if err := os.WriteFile(path, []byte(`{"config":{"port":1}}`), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := ImportAllData(path)
	if err == nil {
		t.Fatal("expected error for missing version")
	}
}

func TestImportAllDataNullInventory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.json")
	data := []byte(`{"version":"1.0.0","created_at":"2025-01-01T00:00:00Z","config":{"port":9000},"inventory":{"stocks":null}}`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	backup, err := ImportAllData(path)
	if err != nil {
		t.Fatalf("ImportAllData failed: %v", err)
	}
	if backup.Inventory.Stocks == nil {
		t.Error("Stocks should not be nil after import")
	}
	if backup.Config.Port != 9000 {
		t.Errorf("expected Port=9000, got %d", backup.Config.Port)
	}
	if backup.Config.MaxTimeLimitSeconds != model.DefaultAppConfig().MaxTimeLimitSeconds {
		t.Error("config keys missing from the backup should keep defaults")
	}
}

func TestExportAllDataCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "backup.json")

	if err := ExportAllData(path, model.DefaultAppConfig(), model.DefaultInventory()); err != nil {
		t.Fatalf("ExportAllData should create parent dirs: %v", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatal("backup file was not created")
	}
}

func TestRestoreBackup(t *testing.T) {
	dir := t.TempDir()
	backupPath := filepath.Join(dir, "backup.json")
	configPath := filepath.Join(dir, "config.json")
	dataDir := filepath.Join(dir, "data")

	cfg := model.DefaultAppConfig()
	cfg.Port = 9191
	inv := model.Inventory{Stocks: []model.StockPreset{model.NewStockPreset("Custom Bar", 4200, 21, "Steel")}}
	if err := ExportAllData(backupPath, cfg, inv); err != nil {
		t.Fatal(err)
	}

	added, err := RestoreBackup(backupPath, configPath, dataDir)
	if err != nil {
		t.Fatalf("RestoreBackup failed: %v", err)
	}
	if added != 1 {
		t.Errorf("expected 1 preset added, got %d", added)
	}

	loadedCfg, err := LoadAppConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if loadedCfg.Port != 9191 {
		t.Errorf("config not restored, port=%d", loadedCfg.Port)
	}

	loadedInv, err := LoadInventory(InventoryPath(dataDir))
	if err != nil {
		t.Fatal(err)
	}
	if loadedInv.FindStockByName("Custom Bar") == nil {
		t.Error("restored preset missing from inventory")
	}
	if loadedInv.FindStockByName("Long_Bar") == nil {
		t.Error("default presets should be kept")
	}
}
