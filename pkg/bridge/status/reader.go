// Package status is the read path over bridge transactions. It never changes state.
package status

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"iter"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/scryptex/bridge-middleware/pkg/bridge"
	"github.com/scryptex/bridge-middleware/pkg/bridgestore"
)

// Page size bounds for history listings.
const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

var timeframes = map[string]time.Duration{
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
}

// View is a transaction enriched with display fields.
type View struct {
	*bridge.Transaction
	Progress    int    `json:"progress"`
	CurrentStep string `json:"currentStep"`
}

// NewView wraps tx with its progress and current step.
func NewView(tx *bridge.Transaction) *View {
	return &View{
		Transaction: tx,
		Progress:    tx.Status.Progress(),
		CurrentStep: tx.Status.CurrentStep(),
	}
}

// Page is one page of a user's history.
type Page struct {
	Items      []*View `json:"items"`
	NextCursor string  `json:"nextCursor,omitempty"`
}

// Reader serves status and history queries.
type Reader struct {
	store       bridgestore.Store
	defaultSize int
	now         func() time.Time
}

// Option configures a Reader.
type Option func(*Reader)

// WithClock overrides the reader's time source.
func WithClock(now func() time.Time) Option {
	return func(r *Reader) { r.now = now }
}

// WithDefaultPageSize sets the page size used when a caller passes none.
func WithDefaultPageSize(n int) Option {
	return func(r *Reader) {
		if n > 0 && n <= MaxPageSize {
			r.defaultSize = n
		}
	}
}

// NewReader creates a reader over store.
func NewReader(store bridgestore.Store, opts ...Option) *Reader {
	r := &Reader{store: store, defaultSize: DefaultPageSize, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetStatus returns the current view of a transaction.
func (r *Reader) GetStatus(ctx context.Context, id string) (*View, error) {
	tx, err := r.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewView(tx), nil
}

// ListByUser returns one page of transactions where address is sender or recipient,
// newest first. An empty cursor starts from the newest transaction.
func (r *Reader) ListByUser(ctx context.Context, address, cursor string, limit int) (*Page, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: invalid address %q", bridge.ErrInvalidRequest, address)
	}
	limit = r.pageSize(limit)

	opts := []bridgestore.QueryOption{
		bridgestore.WithAddress(address),
		bridgestore.WithLimit(limit + 1),
	}
	if cursor != "" {
		after, err := DecodeCursor(cursor)
		if err != nil {
			return nil, err
		}
		opts = append(opts, bridgestore.WithAfter(*after))
	}

	txs, err := r.store.ListTransactions(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	page := &Page{Items: make([]*View, 0, min(len(txs), limit))}
	for i, tx := range txs {
		if i == limit {
			last := txs[limit-1]
			page.NextCursor = EncodeCursor(bridgestore.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
			break
		}
		page.Items = append(page.Items, NewView(tx))
	}
	return page, nil
}

func (r *Reader) pageSize(limit int) int {
	switch {
	case limit <= 0:
		return r.defaultSize
	case limit > MaxPageSize:
		return MaxPageSize
	default:
		return limit
	}
}

// All lazily walks every transaction of address, fetching pageSize rows at a time.
// Iteration stops at the first error, which is yielded once.
func (r *Reader) All(ctx context.Context, address string, pageSize int) iter.Seq2[*bridge.Transaction, error] {
	return func(yield func(*bridge.Transaction, error) bool) {
		cursor := ""
		for {
			page, err := r.ListByUser(ctx, address, cursor, pageSize)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, v := range page.Items {
				if !yield(v.Transaction, nil) {
					return
				}
			}
			if page.NextCursor == "" {
				return
			}
			cursor = page.NextCursor
		}
	}
}

// Volume aggregates completed transfers over "24h", "7d" or "30d".
func (r *Reader) Volume(ctx context.Context, timeframe string) (*bridge.Volume, error) {
	window, ok := timeframes[timeframe]
	if !ok {
		return nil, fmt.Errorf("%w: %q", bridge.ErrInvalidTimeframe, timeframe)
	}

	total, count, err := r.store.CompletedVolume(ctx, r.now().Add(-window))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate volume: %w", err)
	}

	v := &bridge.Volume{Timeframe: timeframe, TotalVolume: total, TransactionCount: count}
	if count > 0 {
		v.AvgSize = total.DivRound(decimal.NewFromInt(int64(count)), 18)
	}
	return v, nil
}

// Messages lists the cross-chain messages of a transaction in sequence order.
func (r *Reader) Messages(ctx context.Context, transactionID string) ([]*bridge.Message, error) {
	if _, err := r.store.GetTransaction(ctx, transactionID); err != nil {
		return nil, err
	}
	return r.store.ListMessagesByTransaction(ctx, transactionID)
}

// EncodeCursor renders c as an opaque token.
func EncodeCursor(c bridgestore.Cursor) string {
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor parses a token produced by EncodeCursor.
func DecodeCursor(token string) (*bridgestore.Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bridge.ErrInvalidCursor, err)
	}
	var c bridgestore.Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", bridge.ErrInvalidCursor, err)
	}
	if c.ID == "" || c.CreatedAt.IsZero() {
		return nil, fmt.Errorf("%w: incomplete cursor", bridge.ErrInvalidCursor)
	}
	return &c, nil
}
