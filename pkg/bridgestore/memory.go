package bridgestore

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/scryptex/bridge-middleware/pkg/bridge"
)

// MemoryStore is an in-process Store used by tests and single-instance deployments
// running with database.driver=memory.
type MemoryStore struct {
	mu           sync.RWMutex
	transactions map[string]*bridge.Transaction
	byKey        map[string]string
	messages     map[string]*bridge.Message
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		transactions: make(map[string]*bridge.Transaction),
		byKey:        make(map[string]string),
		messages:     make(map[string]*bridge.Message),
	}
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) CreateTransaction(_ context.Context, tx *bridge.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byKey[tx.IdempotencyKey]; ok {
		return ErrDuplicateIdempotencyKey
	}
	s.transactions[tx.ID] = tx.Clone()
	s.byKey[tx.IdempotencyKey] = tx.ID
	return nil
}

func (s *MemoryStore) GetTransaction(_ context.Context, id string) (*bridge.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactions[id]
	if !ok {
		return nil, bridge.ErrTransactionNotFound
	}
	return tx.Clone(), nil
}

func (s *MemoryStore) GetTransactionByIdempotencyKey(ctx context.Context, key string) (*bridge.Transaction, error) {
	s.mu.RLock()
	id, ok := s.byKey[key]
	s.mu.RUnlock()
	if !ok {
		return nil, bridge.ErrTransactionNotFound
	}
	return s.GetTransaction(ctx, id)
}

func (s *MemoryStore) UpdateTransaction(_ context.Context, tx *bridge.Transaction, expected bridge.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.transactions[tx.ID]
	if !ok {
		return bridge.ErrTransactionNotFound
	}
	if current.Status != expected {
		return bridge.ErrStaleTransaction
	}
	s.transactions[tx.ID] = tx.Clone()
	return nil
}

func (s *MemoryStore) ListTransactions(_ context.Context, opts ...QueryOption) ([]*bridge.Transaction, error) {
	options := buildOptions(opts)

	s.mu.RLock()
	var out []*bridge.Transaction
	for _, tx := range s.transactions {
		if len(options.Statuses) > 0 && !slices.Contains(options.Statuses, tx.Status) {
			continue
		}
		if options.Address != nil && !tx.Involves(*options.Address) {
			continue
		}
		if options.After != nil && !options.After.before(tx) {
			continue
		}
		if options.DeadlineBefore != nil && !tx.Deadline.Before(*options.DeadlineBefore) {
			continue
		}
		out = append(out, tx.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if options.Limit > 0 && len(out) > options.Limit {
		out = out[:options.Limit]
	}
	return out, nil
}

func (s *MemoryStore) CompletedVolume(_ context.Context, since time.Time) (decimal.Decimal, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	count := 0
	for _, tx := range s.transactions {
		if tx.Status != bridge.StatusCompleted || tx.CompletedAt == nil || tx.CompletedAt.Before(since) {
			continue
		}
		total = total.Add(tx.Request.Amount)
		count++
	}
	return total, count, nil
}

func (s *MemoryStore) CreateMessage(_ context.Context, msg *bridge.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages[msg.ID] = msg.Clone()
	return nil
}

func (s *MemoryStore) GetMessage(_ context.Context, id string) (*bridge.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.messages[id]
	if !ok {
		return nil, bridge.ErrMessageNotFound
	}
	return msg.Clone(), nil
}

func (s *MemoryStore) ListMessagesByTransaction(_ context.Context, transactionID string) ([]*bridge.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*bridge.Message
	for _, msg := range s.messages {
		if msg.TransactionID == transactionID {
			out = append(out, msg.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (s *MemoryStore) ListOpenMessages(_ context.Context, deadlineBefore time.Time) ([]*bridge.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*bridge.Message
	for _, msg := range s.messages {
		if msg.Status.IsClosed() || !msg.Deadline.Before(deadlineBefore) {
			continue
		}
		out = append(out, msg.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Deadline.Before(out[j].Deadline) })
	return out, nil
}

func (s *MemoryStore) UpdateMessage(_ context.Context, msg *bridge.Message, expected bridge.MessageStatus, expectedSignatures int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.messages[msg.ID]
	if !ok {
		return bridge.ErrMessageNotFound
	}
	if current.Status != expected || len(current.Signatures) != expectedSignatures {
		return bridge.ErrStaleMessage
	}
	if len(msg.Signatures) < expectedSignatures {
		return bridge.ErrStaleMessage
	}
	for _, sig := range msg.Signatures[expectedSignatures:] {
		if current.SignedBy(sig.Validator) {
			return bridge.ErrDuplicateSignature
		}
	}
	s.messages[msg.ID] = msg.Clone()
	return nil
}

var _ Store = (*MemoryStore)(nil)
