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
		log.Println("creating bridge_transactions table...")
		if err := mghelper.CreateSchema(ctx, db, &bridgestore.TransactionDao{}); err != nil {
			return err
		}
		if err := mghelper.CreateModelIndexes(ctx, db, &bridgestore.TransactionDao{}, "status", "sender", "recipient", "deadline"); err != nil {
			return err
		}
		// keyset pagination for history listings
		return mghelper.CreateCompositeIndex(ctx, db, &bridgestore.TransactionDao{},
			"idx_bridge_transactions_created_at_id", false, "created_at DESC", "id DESC")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping bridge_transactions table...")
		return mghelper.DropTables(ctx, db, &bridgestore.TransactionDao{})
	})
}
