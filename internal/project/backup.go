package project

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/piwi3910/optimystic/internal/model"
)

// BackupVersion is written into every backup file.
const BackupVersion = "1.0.0"

// BackupData is the top-level structure for import/export of all application data.
type BackupData struct {
	Version   string          `json:"version"`
	CreatedAt string          `json:"created_at"`
	Config    model.AppConfig `json:"config"`
	Inventory model.Inventory `json:"inventory"`
}

// ExportAllData exports the config and the stock inventory to a single JSON
// file at the specified path.
func ExportAllData(exportPath string, config model.AppConfig, inv model.Inventory) error {
	backup := BackupData{
		Version:   BackupVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Config:    config,
		Inventory: inv,
	}
	if err := writeJSON(exportPath, backup); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}
	return nil
}

// ImportAllData reads a backup JSON file and returns the contained data.
// The caller is responsible for applying the imported config and inventory.
func ImportAllData(importPath string) (BackupData, error) {
	data, err := os.ReadFile(importPath)
	if err != nil {
		return BackupData{}, fmt.Errorf("failed to read backup file: %w", err)
	}
	backup := BackupData{Config: model.DefaultAppConfig()}
	if err := json.Unmarshal(data, &backup); err != nil {
		return BackupData{}, fmt.Errorf("failed to parse backup file: %w", err)
	}
	if backup.Version == "" {
		return BackupData{}, fmt.Errorf("invalid backup file: missing version field")
	}
	if backup.Inventory.Stocks == nil {
		backup.Inventory.Stocks = []model.StockPreset{}
	}
	return backup, nil
}

// RestoreBackup imports a backup file into a config path and data directory.
// Inventory presets are merged into the existing inventory; the config is
// replaced. It returns the number of presets added.
func RestoreBackup(importPath, configPath, dataDir string) (int, error) {
	backup, err := ImportAllData(importPath)
	if err != nil {
		return 0, err
	}
	if err := SaveAppConfig(configPath, backup.Config); err != nil {
		return 0, fmt.Errorf("failed to save config: %w", err)
	}
	invPath := InventoryPath(dataDir)
	inv, err := LoadInventory(invPath)
	if err != nil {
		return 0, fmt.Errorf("failed to load inventory: %w", err)
	}
	added := inv.Merge(backup.Inventory)
	if err := SaveInventory(invPath, inv); err != nil {
		return 0, fmt.Errorf("failed to save inventory: %w", err)
	}
	return added, nil
}
