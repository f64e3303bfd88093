package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"wodbooker-go/internal/config"
	"wodbooker-go/internal/logging"
	"wodbooker-go/internal/store"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to a YAML config file (optional, env vars override)")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logging.Sync(logger)

	fmt.Printf("running migrations against %s:%d/%s\n", cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)

	if err := store.RunMigrations(logger, cfg.Database.GetDSN(), cfg.Database.MigrationPath); err != nil {
		log.Fatalf("migrate up failed: %v", err)
	}

	fmt.Println("migrations applied successfully")
	os.Exit(0)
}
