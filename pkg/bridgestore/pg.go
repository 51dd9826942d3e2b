package bridgestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/scryptex/bridge-middleware/pkg/bridge"
)

type pgStore struct {
	db *bun.DB
}

// NewStore creates a new postgres implementation of the bridge store
func NewStore(db *bun.DB) *pgStore {
	return &pgStore{db: db}
}

func (s *pgStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.IntegrityViolation()
}

func (s *pgStore) CreateTransaction(ctx context.Context, tx *bridge.Transaction) error {
	_, err := s.db.NewInsert().
		Model(toTransactionDao(tx)).
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (s *pgStore) GetTransaction(ctx context.Context, id string) (*bridge.Transaction, error) {
	return s.getTransaction(ctx, "bt.id = ?", id)
}

func (s *pgStore) GetTransactionByIdempotencyKey(ctx context.Context, key string) (*bridge.Transaction, error) {
	return s.getTransaction(ctx, "bt.idempotency_key = ?", key)
}

func (s *pgStore) getTransaction(ctx context.Context, where string, arg any) (*bridge.Transaction, error) {
	dao := new(TransactionDao)
	err := s.db.NewSelect().
		Model(dao).
		Where(where, arg).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, bridge.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return toTransaction(dao), nil
}

func (s *pgStore) UpdateTransaction(ctx context.Context, tx *bridge.Transaction, expected bridge.Status) error {
	res, err := s.db.NewUpdate().
		Model(toTransactionDao(tx)).
		Column("status", "source_tx_hash", "target_tx_hash", "deadline", "updated_at", "completed_at", "error_message").
		WherePK().
		Where("status = ?", string(expected)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := s.GetTransaction(ctx, tx.ID); err != nil {
			return err
		}
		return bridge.ErrStaleTransaction
	}
	return nil
}

func (s *pgStore) ListTransactions(ctx context.Context, opts ...QueryOption) ([]*bridge.Transaction, error) {
	options := buildOptions(opts)

	var daos []TransactionDao
	query := s.db.NewSelect().Model(&daos)

	if len(options.Statuses) > 0 {
		statuses := make([]string, len(options.Statuses))
		for i, st := range options.Statuses {
			statuses[i] = string(st)
		}
		query = query.Where("bt.status IN (?)", bun.In(statuses))
	}
	if options.Address != nil {
		address := *options.Address
		query = query.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("bt.sender = ?", address).WhereOr("bt.recipient = ?", address)
		})
	}
	if options.After != nil {
		query = query.Where("(bt.created_at, bt.id) < (?, ?)", options.After.CreatedAt, options.After.ID)
	}
	if options.DeadlineBefore != nil {
		query = query.Where("bt.deadline < ?", *options.DeadlineBefore)
	}
	if options.Limit > 0 {
		query = query.Limit(options.Limit)
	}

	err := query.
		OrderExpr("bt.created_at DESC, bt.id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	out := make([]*bridge.Transaction, len(daos))
	for i := range daos {
		out[i] = toTransaction(&daos[i])
	}
	return out, nil
}

func (s *pgStore) CompletedVolume(ctx context.Context, since time.Time) (decimal.Decimal, int, error) {
	var (
		total decimal.Decimal
		count int
	)
	err := s.db.NewSelect().
		Model((*TransactionDao)(nil)).
		ColumnExpr("COALESCE(SUM(bt.amount), 0)").
		ColumnExpr("COUNT(*)").
		Where("bt.status = ?", string(bridge.StatusCompleted)).
		Where("bt.completed_at >= ?", since).
		Scan(ctx, &total, &count)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("failed to sum completed volume: %w", err)
	}
	return total, count, nil
}

func (s *pgStore) CreateMessage(ctx context.Context, msg *bridge.Message) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(toMessageDao(msg)).Exec(ctx); err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}
		sigs := toSignatureDaos(msg.ID, msg.Signatures, 0)
		if len(sigs) == 0 {
			return nil
		}
		if _, err := tx.NewInsert().Model(&sigs).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert signatures: %w", err)
		}
		return nil
	})
}

func (s *pgStore) GetMessage(ctx context.Context, id string) (*bridge.Message, error) {
	dao := new(MessageDao)
	err := s.db.NewSelect().
		Model(dao).
		Relation("Signatures").
		Where("ccm.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, bridge.ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return toMessage(dao), nil
}

func (s *pgStore) ListMessagesByTransaction(ctx context.Context, transactionID string) ([]*bridge.Message, error) {
	var daos []MessageDao
	err := s.db.NewSelect().
		Model(&daos).
		Relation("Signatures").
		Where("ccm.transaction_id = ?", transactionID).
		Order("ccm.sequence ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	out := make([]*bridge.Message, len(daos))
	for i := range daos {
		out[i] = toMessage(&daos[i])
	}
	return out, nil
}

func (s *pgStore) ListOpenMessages(ctx context.Context, deadlineBefore time.Time) ([]*bridge.Message, error) {
	var daos []MessageDao
	err := s.db.NewSelect().
		Model(&daos).
		Relation("Signatures").
		Where("ccm.status IN (?)", bun.In([]string{string(bridge.MessagePending), string(bridge.MessageRelayed)})).
		Where("ccm.deadline < ?", deadlineBefore).
		Order("ccm.deadline ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list open messages: %w", err)
	}
	out := make([]*bridge.Message, len(daos))
	for i := range daos {
		out[i] = toMessage(&daos[i])
	}
	return out, nil
}

func (s *pgStore) UpdateMessage(ctx context.Context, msg *bridge.Message, expected bridge.MessageStatus, expectedSignatures int) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model(toMessageDao(msg)).
			Column("status", "signature_count", "error_message", "updated_at").
			WherePK().
			Where("status = ?", string(expected)).
			Where("signature_count = ?", expectedSignatures).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to update message: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			exists, err := tx.NewSelect().Model((*MessageDao)(nil)).Where("id = ?", msg.ID).Exists(ctx)
			if err != nil {
				return fmt.Errorf("failed to check message exists: %w", err)
			}
			if !exists {
				return bridge.ErrMessageNotFound
			}
			return bridge.ErrStaleMessage
		}

		sigs := toSignatureDaos(msg.ID, msg.Signatures, expectedSignatures)
		if len(sigs) == 0 {
			return nil
		}
		if _, err := tx.NewInsert().Model(&sigs).Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return bridge.ErrDuplicateSignature
			}
			return fmt.Errorf("failed to insert signatures: %w", err)
		}
		return nil
	})
}

var _ Store = (*pgStore)(nil)
