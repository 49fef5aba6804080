// Command optimystic runs the OptiMystic mixed-integer optimization workbench.
//
// It serves the template gallery, the cutting-stock generator, the formula
// solver and the cut plan exports as a JSON API.
//
// Build:
//   go build -o optimystic ./cmd/optimystic
//
// Run:
//   optimystic                                  # ~/.optimystic/config.json, port 8050
//   OPTIMYSTIC_PORT=9000 optimystic -config ./config.json
//   optimystic -export-backup backup.json       # config + stock inventory
//   optimystic -import-backup backup.json

package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/gofiber/fiber/v2/log"

	"github.com/piwi3910/optimystic/internal/api"
	"github.com/piwi3910/optimystic/internal/model"
	"github.com/piwi3910/optimystic/internal/project"
	"github.com/piwi3910/optimystic/internal/service"
)

func main() {
	configPath := flag.String("config", getEnvOrDefault("OPTIMYSTIC_CONFIG", project.DefaultConfigPath()), "path to the JSON config file")
	exportBackup := flag.String("export-backup", "", "write config and inventory to this file and exit")
	importBackup := flag.String("import-backup", "", "restore config and inventory from this file and exit")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config %s: %v", *configPath, err)
	}
	log.SetLevel(parseLevel(cfg.LogLevel))

	switch {
	case *exportBackup != "":
		if err := runExportBackup(*exportBackup, cfg); err != nil {
			log.Fatal(err)
		}
		return
	case *importBackup != "":
		added, err := project.RestoreBackup(*importBackup, *configPath, project.DataDir(cfg))
		if err != nil {
			log.Fatal(err)
		}
		log.Infof("Backup restored: config written to %s, %d stock presets added", *configPath, added)
		return
	}

	svc, err := service.New(cfg)
	if err != nil {
		log.Fatalf("Failed to open data directory: %v", err)
	}
	app := api.NewApp(svc)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Info("Shutting down gracefully...")
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Infof("%s starting on %s (data in %s)", api.AppName, addr, project.DataDir(cfg))
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// loadConfig reads the config file and applies environment overrides.
func loadConfig(path string) (model.AppConfig, error) {
	cfg, err := project.LoadAppConfig(path)
	if err != nil {
		return cfg, err
	}
	for _, key := range []string{"PORT", "OPTIMYSTIC_PORT"} {
		if v := os.Getenv(key); v != "" {
			port, err := strconv.Atoi(v)
			if err != nil {
				return cfg, fmt.Errorf("%s=%q is not a port number", key, v)
			}
			cfg.Port = port
		}
	}
	if v := os.Getenv("OPTIMYSTIC_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("OPTIMYSTIC_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return cfg, nil
}

func runExportBackup(path string, cfg model.AppConfig) error {
	inv, err := project.LoadInventory(project.InventoryPath(project.DataDir(cfg)))
	if err != nil {
		return fmt.Errorf("failed to load inventory: %w", err)
	}
	if err := project.ExportAllData(path, cfg, inv); err != nil {
		return err
	}
	log.Infof("Backup written to %s", path)
	return nil
}

func parseLevel(s string) log.Level {
	switch strings.ToLower(s) {
	case "trace":
		return log.LevelTrace
	case "debug":
		return log.LevelDebug
	case "warn", "warning":
		return log.LevelWarn
	case "error":
		return log.LevelError
	default:
		return log.LevelInfo
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
