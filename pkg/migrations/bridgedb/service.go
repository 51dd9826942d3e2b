// Package bridgedb holds all the migrations for the bridge database
package bridgedb

import "github.com/uptrace/bun/migrate"

// Migrations is the registry of bridge database migrations.
var Migrations = migrate.NewMigrations()
