package relayer

import (
	"context"
	"sync"

	"github.com/scryptex/bridge-middleware/pkg/bridge"
	"github.com/scryptex/bridge-middleware/pkg/bridge/transfer"
	"github.com/scryptex/bridge-middleware/pkg/bridgestore"
	"github.com/scryptex/bridge-middleware/pkg/ethereum"
)

// MockChainClient is a mock implementation of ChainClient
type MockChainClient struct {
	ID                uint64
	ConfirmationsFunc func(ctx context.Context, txHash string) (uint64, error)
	LockSourceFunc    func(ctx context.Context, tx *bridge.Transaction) (string, error)
	ReleaseFunc       func(ctx context.Context, tx *bridge.Transaction, msg *bridge.Message) (string, error)
	ReleasedFunc      func(ctx context.Context, transactionID string) (bool, error)
	ReleaseTxHashFunc func(ctx context.Context, transactionID string) (string, error)

	mu       sync.Mutex
	locks    int
	releases int
}

func (m *MockChainClient) ChainID() uint64 {
	return m.ID
}

func (m *MockChainClient) Confirmations(ctx context.Context, txHash string) (uint64, error) {
	if m.ConfirmationsFunc != nil {
		return m.ConfirmationsFunc(ctx, txHash)
	}
	return 0, nil
}

func (m *MockChainClient) LockSource(ctx context.Context, tx *bridge.Transaction) (string, error) {
	m.mu.Lock()
	m.locks++
	m.mu.Unlock()
	if m.LockSourceFunc != nil {
		return m.LockSourceFunc(ctx, tx)
	}
	return "", nil
}

func (m *MockChainClient) Release(ctx context.Context, tx *bridge.Transaction, msg *bridge.Message) (string, error) {
	m.mu.Lock()
	m.releases++
	m.mu.Unlock()
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, tx, msg)
	}
	return "", nil
}

func (m *MockChainClient) Released(ctx context.Context, transactionID string) (bool, error) {
	if m.ReleasedFunc != nil {
		return m.ReleasedFunc(ctx, transactionID)
	}
	return false, nil
}

func (m *MockChainClient) ReleaseTxHash(ctx context.Context, transactionID string) (string, error) {
	if m.ReleaseTxHashFunc != nil {
		return m.ReleaseTxHashFunc(ctx, transactionID)
	}
	return "", ethereum.ErrReleaseNotFound
}

func (m *MockChainClient) Releases() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.releases
}

func (m *MockChainClient) Locks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locks
}

// MockTransfers is a mock implementation of Transfers
type MockTransfers struct {
	GetFunc            func(ctx context.Context, id string) (*bridge.Transaction, error)
	AdvanceFunc        func(ctx context.Context, id string, ev transfer.Event) (*bridge.Transaction, error)
	AttachSourceTxFunc func(ctx context.Context, id, txHash string) (*bridge.Transaction, error)
	RecordTargetTxFunc func(ctx context.Context, id, txHash string) (*bridge.Transaction, error)
	FailFunc           func(ctx context.Context, id, reason string) (*bridge.Transaction, error)

	mu     sync.Mutex
	events []transfer.Event
}

func (m *MockTransfers) Get(ctx context.Context, id string) (*bridge.Transaction, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, bridge.ErrTransactionNotFound
}

func (m *MockTransfers) Advance(ctx context.Context, id string, ev transfer.Event) (*bridge.Transaction, error) {
	m.mu.Lock()
	m.events = append(m.events, ev)
	m.mu.Unlock()
	if m.AdvanceFunc != nil {
		return m.AdvanceFunc(ctx, id, ev)
	}
	return &bridge.Transaction{ID: id}, nil
}

func (m *MockTransfers) AttachSourceTx(ctx context.Context, id, txHash string) (*bridge.Transaction, error) {
	if m.AttachSourceTxFunc != nil {
		return m.AttachSourceTxFunc(ctx, id, txHash)
	}
	return &bridge.Transaction{ID: id, SourceTxHash: txHash}, nil
}

func (m *MockTransfers) RecordTargetTx(ctx context.Context, id, txHash string) (*bridge.Transaction, error) {
	if m.RecordTargetTxFunc != nil {
		return m.RecordTargetTxFunc(ctx, id, txHash)
	}
	return &bridge.Transaction{ID: id, TargetTxHash: txHash}, nil
}

func (m *MockTransfers) Fail(ctx context.Context, id, reason string) (*bridge.Transaction, error) {
	if m.FailFunc != nil {
		return m.FailFunc(ctx, id, reason)
	}
	return &bridge.Transaction{ID: id, Status: bridge.StatusFailed, ErrorMessage: reason}, nil
}

func (m *MockTransfers) Events() []transfer.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]transfer.Event(nil), m.events...)
}

// MockAttestor is a mock implementation of Attestor
type MockAttestor struct {
	RequestAttestationFunc func(ctx context.Context, transactionID string) (*bridge.Message, error)
}

func (m *MockAttestor) RequestAttestation(ctx context.Context, transactionID string) (*bridge.Message, error) {
	if m.RequestAttestationFunc != nil {
		return m.RequestAttestationFunc(ctx, transactionID)
	}
	return &bridge.Message{TransactionID: transactionID}, nil
}

// MockStore is a mock implementation of TransactionLister and MessageLister
type MockStore struct {
	ListTransactionsFunc          func(ctx context.Context, opts ...bridgestore.QueryOption) ([]*bridge.Transaction, error)
	ListMessagesByTransactionFunc func(ctx context.Context, transactionID string) ([]*bridge.Message, error)
}

func (m *MockStore) ListTransactions(ctx context.Context, opts ...bridgestore.QueryOption) ([]*bridge.Transaction, error) {
	if m.ListTransactionsFunc != nil {
		return m.ListTransactionsFunc(ctx, opts...)
	}
	return nil, nil
}

func (m *MockStore) ListMessagesByTransaction(ctx context.Context, transactionID string) ([]*bridge.Message, error) {
	if m.ListMessagesByTransactionFunc != nil {
		return m.ListMessagesByTransactionFunc(ctx, transactionID)
	}
	return nil, nil
}
