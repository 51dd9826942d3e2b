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
		log.Println("creating cross_chain_messages table...")
		if err := mghelper.CreateSchema(ctx, db, &bridgestore.MessageDao{}); err != nil {
			return err
		}
		if err := mghelper.CreateModelIndexes(ctx, db, &bridgestore.MessageDao{}, "transaction_id", "status", "deadline"); err != nil {
			return err
		}
		return mghelper.CreateCompositeIndex(ctx, db, &bridgestore.MessageDao{},
			"idx_cross_chain_messages_transaction_sequence", true, "transaction_id", "sequence")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping cross_chain_messages table...")
		return mghelper.DropTables(ctx, db, &bridgestore.MessageDao{})
	})
}
