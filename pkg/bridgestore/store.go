// Package bridgestore persists bridge transactions and cross-chain messages.
package bridgestore

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/scryptex/bridge-middleware/pkg/bridge"
)

// ErrDuplicateIdempotencyKey is returned when a transaction with the same idempotency key exists.
var ErrDuplicateIdempotencyKey = errors.New("idempotency key already used")

// TransactionStore defines persistence for transfer records.
// UpdateTransaction only succeeds if the stored status still equals expected.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx *bridge.Transaction) error
	GetTransaction(ctx context.Context, id string) (*bridge.Transaction, error)
	GetTransactionByIdempotencyKey(ctx context.Context, key string) (*bridge.Transaction, error)
	UpdateTransaction(ctx context.Context, tx *bridge.Transaction, expected bridge.Status) error
	ListTransactions(ctx context.Context, opts ...QueryOption) ([]*bridge.Transaction, error)
	CompletedVolume(ctx context.Context, since time.Time) (decimal.Decimal, int, error)
}

// MessageStore defines persistence for cross-chain messages and their signatures.
// UpdateMessage only succeeds if the stored status and signature count still equal
// the expected values; signatures beyond expectedSignatures are appended.
type MessageStore interface {
	CreateMessage(ctx context.Context, msg *bridge.Message) error
	GetMessage(ctx context.Context, id string) (*bridge.Message, error)
	ListMessagesByTransaction(ctx context.Context, transactionID string) ([]*bridge.Message, error)
	ListOpenMessages(ctx context.Context, deadlineBefore time.Time) ([]*bridge.Message, error)
	UpdateMessage(ctx context.Context, msg *bridge.Message, expected bridge.MessageStatus, expectedSignatures int) error
}

// Store combines transaction and message persistence.
type Store interface {
	TransactionStore
	MessageStore
	Ping(ctx context.Context) error
}

// Cursor is a keyset position in the (created_at desc, id desc) ordering.
type Cursor struct {
	CreatedAt time.Time `json:"c"`
	ID        string    `json:"i"`
}

// QueryOptions filters transaction listings.
type QueryOptions struct {
	Statuses       []bridge.Status
	Address        *string
	After          *Cursor
	DeadlineBefore *time.Time
	Limit          int
}

// QueryOption is a functional option for listing transactions
type QueryOption func(*QueryOptions)

// WithStatuses restricts the listing to the given statuses
func WithStatuses(statuses ...bridge.Status) QueryOption {
	return func(opts *QueryOptions) {
		opts.Statuses = statuses
	}
}

// WithAddress matches transactions where address is sender or recipient
func WithAddress(address string) QueryOption {
	return func(opts *QueryOptions) {
		a := bridge.NormalizeAddress(address)
		opts.Address = &a
	}
}

// WithAfter continues a listing after the given cursor
func WithAfter(c Cursor) QueryOption {
	return func(opts *QueryOptions) {
		opts.After = &c
	}
}

// WithDeadlineBefore matches transactions whose deadline is strictly before t
func WithDeadlineBefore(t time.Time) QueryOption {
	return func(opts *QueryOptions) {
		opts.DeadlineBefore = &t
	}
}

// WithLimit caps the number of returned rows
func WithLimit(n int) QueryOption {
	return func(opts *QueryOptions) {
		opts.Limit = n
	}
}

func buildOptions(opts []QueryOption) *QueryOptions {
	options := &QueryOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// before reports whether tx sorts after the cursor position.
func (c *Cursor) before(tx *bridge.Transaction) bool {
	if tx.CreatedAt.Equal(c.CreatedAt) {
		return tx.ID < c.ID
	}
	return tx.CreatedAt.Before(c.CreatedAt)
}
