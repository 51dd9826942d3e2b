package bridgedb

import (
	"context"
	"log"

	"github.com/scryptex/bridge-middleware/pkg/bridgestore"
	mghelper "github.com/scryptex/bridge-middleware/pkg/pgutil/migrations"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating message_signatures table...")
		return mghelper.CreateSchema(ctx, db, &bridgestore.SignatureDao{})
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping message_signatures table...")
		return mghelper.DropTables(ctx, db, &bridgestore.SignatureDao{})
	})
}
