// Package relayer drives accepted transfers across chains: it locks or observes the source
// leg, requests attestations and releases attested transfers on the target chain.
package relayer

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/scryptex/bridge-middleware/internal/metrics"
	"github.com/scryptex/bridge-middleware/pkg/bridge"
	"github.com/scryptex/bridge-middleware/pkg/bridge/transfer"
	"github.com/scryptex/bridge-middleware/pkg/bridgestore"
	"github.com/scryptex/bridge-middleware/pkg/ethereum"
)

const scanLimit = 500

// ChainClient defines the per-chain operations the relayer performs
type ChainClient interface {
	ChainID() uint64
	Confirmations(ctx context.Context, txHash string) (uint64, error)
	LockSource(ctx context.Context, tx *bridge.Transaction) (string, error)
	Release(ctx context.Context, tx *bridge.Transaction, msg *bridge.Message) (string, error)
	Released(ctx context.Context, transactionID string) (bool, error)
	ReleaseTxHash(ctx context.Context, transactionID string) (string, error)
}

var _ ChainClient = (*ethereum.Client)(nil)

// Transfers defines the state machine operations the relayer drives
type Transfers interface {
	Get(ctx context.Context, id string) (*bridge.Transaction, error)
	Advance(ctx context.Context, id string, ev transfer.Event) (*bridge.Transaction, error)
	AttachSourceTx(ctx context.Context, id, txHash string) (*bridge.Transaction, error)
	RecordTargetTx(ctx context.Context, id, txHash string) (*bridge.Transaction, error)
	Fail(ctx context.Context, id, reason string) (*bridge.Transaction, error)
}

// Attestor opens attestation requests
type Attestor interface {
	RequestAttestation(ctx context.Context, transactionID string) (*bridge.Message, error)
}

// MessageLister reads the messages of a transaction
type MessageLister interface {
	ListMessagesByTransaction(ctx context.Context, transactionID string) ([]*bridge.Message, error)
}

// TransactionLister scans transactions
type TransactionLister interface {
	ListTransactions(ctx context.Context, opts ...bridgestore.QueryOption) ([]*bridge.Transaction, error)
}

// Engine orchestrates the relayer loops
type Engine struct {
	processor   *Processor
	store       TransactionLister
	interval    time.Duration
	concurrency int
	logger      *zap.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewEngine creates a new relayer engine
func NewEngine(processor *Processor, store TransactionLister, interval time.Duration, concurrency int, logger *zap.Logger) *Engine {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Engine{
		processor:   processor,
		store:       store,
		interval:    interval,
		concurrency: concurrency,
		logger:      logger,
		stopCh:      make(chan struct{}),
	}
}

// Start starts the progress loop and the release worker
func (e *Engine) Start(ctx context.Context) error {
	e.logger.Info("Starting relayer engine",
		zap.Duration("interval", e.interval),
		zap.Int("concurrency", e.concurrency))

	e.wg.Add(2)
	go e.progress(ctx)
	go e.releases(ctx)

	e.logger.Info("Relayer engine started")
	return nil
}

// Stop stops the relayer engine and waits for in-flight work
func (e *Engine) Stop() {
	e.logger.Info("Stopping relayer engine")
	close(e.stopCh)
	e.wg.Wait()
	e.logger.Info("Relayer engine stopped")
}

func (e *Engine) progress(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopCh:
			return
		case <-ticker.C:
			if err := e.RunOnce(ctx); err != nil {
				e.logger.Error("Relayer pass failed", zap.Error(err))
			}
		}
	}
}

func (e *Engine) releases(ctx context.Context) {
	defer e.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopCh:
			return
		case msg := <-e.processor.executed:
			if err := e.processor.handleExecuted(ctx, msg); err != nil {
				metrics.ErrorsTotal.WithLabelValues("relayer", "release").Inc()
				e.logger.Error("Failed to release transfer",
					zap.String("transaction_id", msg.TransactionID),
					zap.String("message_id", msg.ID),
					zap.Error(err))
			}
		}
	}
}

// RunOnce processes every active transaction once, at most concurrency at a time.
// The active set is read in keyset pages of scanLimit so no transaction is starved.
func (e *Engine) RunOnce(ctx context.Context) error {
	counts := make(map[bridge.Status]int, len(bridge.ActiveStatuses))
	var after *bridgestore.Cursor
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		opts := []bridgestore.QueryOption{
			bridgestore.WithStatuses(bridge.ActiveStatuses...),
			bridgestore.WithLimit(scanLimit),
		}
		if after != nil {
			opts = append(opts, bridgestore.WithAfter(*after))
		}
		txs, err := e.store.ListTransactions(ctx, opts...)
		if err != nil {
			return err
		}
		for _, tx := range txs {
			counts[tx.Status]++
		}
		e.processPage(ctx, txs)

		if len(txs) < scanLimit {
			break
		}
		last := txs[len(txs)-1]
		after = &bridgestore.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}

	for _, s := range bridge.ActiveStatuses {
		metrics.PendingTransfers.WithLabelValues(string(s)).Set(float64(counts[s]))
	}
	return nil
}

func (e *Engine) processPage(ctx context.Context, txs []*bridge.Transaction) {
	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for _, tx := range txs {
		g.Go(func() error {
			if err := e.processor.Process(ctx, tx); err != nil {
				metrics.ErrorsTotal.WithLabelValues("relayer", errorType(err)).Inc()
				e.logger.Warn("Failed to process transaction",
					zap.String("transaction_id", tx.ID),
					zap.String("status", string(tx.Status)),
					zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
}

func errorType(err error) string {
	switch {
	case errors.Is(err, bridge.ErrStaleTransaction), errors.Is(err, bridge.ErrInvalidTransition):
		return "conflict"
	case errors.Is(err, bridge.ErrNotAttestable):
		return "attestation"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "processing"
	}
}
