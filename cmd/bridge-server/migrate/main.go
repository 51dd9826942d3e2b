package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/uptrace/bun/migrate"

	"github.com/scryptex/bridge-middleware/pkg/config"
	"github.com/scryptex/bridge-middleware/pkg/migrations/bridgedb"
	"github.com/scryptex/bridge-middleware/pkg/pgutil"
	mghelper "github.com/scryptex/bridge-middleware/pkg/pgutil/migrations"
)

func main() {
	cfgPath := flag.String("config", "config.example.yaml", "Path to configuration file")
	flag.Usage = mghelper.Usage
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading configuration file: %v\n", err)
		os.Exit(1)
	}
	if cfg.Database.Driver != config.DriverPostgres {
		mghelper.Exitf("migrations need database.driver=postgres, got %q", cfg.Database.Driver)
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	db, err := pgutil.ConnectDB(&cfg.Database, logger)
	if err != nil {
		mghelper.Exitf("error connecting to database: %v", err)
	}
	defer db.Close()

	migrator := migrate.NewMigrator(db, bridgedb.Migrations)
	if err := mghelper.RunMigrations(context.Background(), migrator, logger, flag.Args()...); err != nil {
		mghelper.Exitf("%v", err)
	}
}
