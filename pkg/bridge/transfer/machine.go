// Package transfer owns the lifecycle of bridge transactions. Every status change
// goes through Machine; other components only observe.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scryptex/bridge-middleware/internal/metrics"
	"github.com/scryptex/bridge-middleware/pkg/bridge"
	"github.com/scryptex/bridge-middleware/pkg/bridgestore"
	"github.com/scryptex/bridge-middleware/pkg/chain"
)

// Failure reasons recorded by the machine itself.
const (
	ReasonCancelled      = "cancelled by sender"
	ReasonDeadline       = "transfer deadline exceeded"
	ReasonTargetDeadline = "target settlement not observed before deadline"
)

// DefaultGraceMultiplier scales a quote's estimated time into the transfer deadline.
const DefaultGraceMultiplier = 3.0

// QuoteVerifier checks that a quote id was issued for a request and is still valid.
type QuoteVerifier interface {
	Verify(ctx context.Context, quoteID string, req *bridge.Request, now time.Time) (*bridge.Quote, error)
}

// Notifier receives every persisted transaction change.
type Notifier interface {
	NotifyTransaction(tx *bridge.Transaction)
}

// Machine is the transfer state machine.
type Machine struct {
	store    bridgestore.TransactionStore
	registry *chain.Registry
	quotes   QuoteVerifier
	notifier Notifier
	logger   *zap.Logger
	locks    *keyedMutex
	grace    float64
	now      func() time.Time
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock overrides the machine's time source.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithNotifier registers the receiver of transaction changes.
func WithNotifier(n Notifier) Option {
	return func(m *Machine) { m.notifier = n }
}

// WithGraceMultiplier sets the deadline grace multiplier.
func WithGraceMultiplier(g float64) Option {
	return func(m *Machine) {
		if g >= 1 {
			m.grace = g
		}
	}
}

// NewMachine creates a state machine over store.
func NewMachine(store bridgestore.TransactionStore, registry *chain.Registry, quotes QuoteVerifier, logger *zap.Logger, opts ...Option) *Machine {
	m := &Machine{
		store:    store,
		registry: registry,
		quotes:   quotes,
		logger:   logger,
		locks:    newKeyedMutex(),
		grace:    DefaultGraceMultiplier,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Submit accepts a quoted request and creates a pending transaction. The idempotency
// key defaults to the quote id; a repeated key returns the existing transaction and
// created=false.
func (m *Machine) Submit(ctx context.Context, quote *bridge.Quote, req *bridge.Request, idempotencyKey string) (*bridge.Transaction, bool, error) {
	if quote == nil || quote.ID == "" {
		return nil, false, fmt.Errorf("%w: quote id is required", bridge.ErrInvalidRequest)
	}
	key := idempotencyKey
	if key == "" {
		key = quote.ID
	}

	unlock := m.locks.Lock("key:" + key)
	defer unlock()

	fingerprint := req.Fingerprint()
	if existing, err := m.replay(ctx, key, fingerprint); existing != nil || err != nil {
		return existing, false, err
	}

	now := m.now().UTC()
	if !quote.ExpiresAt.IsZero() && quote.Expired(now) {
		return nil, false, bridge.ErrQuoteExpired
	}
	verified, err := m.quotes.Verify(ctx, quote.ID, req, now)
	if err != nil {
		return nil, false, err
	}

	normalized := *req
	normalized.Sender = bridge.NormalizeAddress(req.Sender)
	normalized.Recipient = bridge.NormalizeAddress(req.Recipient)

	best := verified.Routes[0]
	tx := &bridge.Transaction{
		ID:             uuid.NewString(),
		IdempotencyKey: key,
		QuoteID:        quote.ID,
		RequestHash:    fingerprint,
		Request:        normalized,
		Status:         bridge.StatusPending,
		Fee:            verified.EstimatedFee,
		AmountOut:      verified.ToAmount,
		Route:          append([]uint64(nil), best.Hops...),
		EstimatedTime:  verified.EstimatedTime,
		Deadline:       m.deadline(now, verified.EstimatedTime, req.Deadline),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := m.store.CreateTransaction(ctx, tx); err != nil {
		if errors.Is(err, bridgestore.ErrDuplicateIdempotencyKey) {
			// another instance won the race on the same key
			existing, rerr := m.replay(ctx, key, fingerprint)
			if rerr != nil {
				return nil, false, rerr
			}
			if existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, fmt.Errorf("failed to store transaction: %w", err)
	}

	metrics.TransfersTotal.WithLabelValues(string(bridge.StatusPending)).Inc()
	amount, _ := req.Amount.Float64()
	metrics.TransferAmount.WithLabelValues(routeLabel(tx.Route), req.FromToken).Observe(amount)

	m.logger.Info("Transfer accepted",
		zap.String("transaction_id", tx.ID),
		zap.String("quote_id", tx.QuoteID),
		zap.Uint64("from_chain", req.FromChain),
		zap.Uint64("to_chain", req.ToChain),
		zap.String("amount", req.Amount.String()),
		zap.Time("deadline", tx.Deadline))
	m.notify(tx)
	return tx, true, nil
}

func (m *Machine) replay(ctx context.Context, key, fingerprint string) (*bridge.Transaction, error) {
	existing, err := m.store.GetTransactionByIdempotencyKey(ctx, key)
	if err != nil {
		if errors.Is(err, bridge.ErrTransactionNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if existing.RequestHash != fingerprint {
		return nil, bridge.ErrIdempotencyConflict
	}
	return existing, nil
}

func (m *Machine) deadline(now time.Time, estimatedSeconds int64, requested *time.Time) time.Time {
	window := time.Duration(float64(estimatedSeconds) * m.grace * float64(time.Second))
	d := now.Add(window)
	if requested != nil && requested.Before(d) {
		d = requested.UTC()
	}
	return d
}

// Get returns the current transaction record.
func (m *Machine) Get(ctx context.Context, id string) (*bridge.Transaction, error) {
	return m.store.GetTransaction(ctx, id)
}

// Advance applies ev to the transaction. Repeated or superseded events and events on
// terminal transactions are no-ops that return the current record.
func (m *Machine) Advance(ctx context.Context, id string, ev Event) (*bridge.Transaction, error) {
	target, err := ev.target()
	if err != nil {
		return nil, err
	}

	unlock := m.locks.Lock(id)
	defer unlock()

	tx, err := m.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx.Status.IsTerminal() || (target != bridge.StatusFailed && tx.Status.HasPassed(target)) {
		return tx, nil
	}
	if !tx.Status.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: %s -> %s", bridge.ErrInvalidTransition, tx.Status, target)
	}

	switch ev.Type {
	case EventSourceConfirmed:
		if err := m.checkDepth(tx.Request.FromChain, ev.Confirmations); err != nil {
			return nil, err
		}
		if tx.SourceTxHash != "" && ev.TxHash != "" && !bridge.SameAddress(tx.SourceTxHash, ev.TxHash) {
			return nil, bridge.ErrSourceTxConflict
		}
	case EventTargetConfirmed:
		if err := m.checkDepth(tx.Request.ToChain, ev.Confirmations); err != nil {
			return nil, err
		}
	}

	return m.transition(ctx, tx, target, func(next *bridge.Transaction) {
		switch ev.Type {
		case EventSourceConfirmed:
			if ev.TxHash != "" {
				next.SourceTxHash = ev.TxHash
			}
		case EventTargetConfirmed:
			if ev.TxHash != "" {
				next.TargetTxHash = ev.TxHash
			}
		case EventFailed:
			next.ErrorMessage = ev.Reason
		}
	})
}

func (m *Machine) checkDepth(chainID uint64, confirmations uint64) error {
	c, err := m.registry.Get(chainID)
	if err != nil {
		return err
	}
	if confirmations < c.FinalityDepth {
		return fmt.Errorf("%w: have %d, chain %d requires %d",
			bridge.ErrInsufficientConfirmations, confirmations, chainID, c.FinalityDepth)
	}
	return nil
}

// Fail moves the transaction to failed with reason.
func (m *Machine) Fail(ctx context.Context, id, reason string) (*bridge.Transaction, error) {
	return m.Advance(ctx, id, Failed(reason))
}

// Cancel fails a pending transaction on behalf of its sender.
func (m *Machine) Cancel(ctx context.Context, id, caller string) (*bridge.Transaction, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	tx, err := m.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if !bridge.SameAddress(tx.Request.Sender, caller) {
		return nil, bridge.ErrNotSender
	}
	if tx.Status != bridge.StatusPending {
		return nil, fmt.Errorf("%w: transaction is %s", bridge.ErrCancelNotAllowed, tx.Status)
	}
	return m.transition(ctx, tx, bridge.StatusFailed, func(next *bridge.Transaction) {
		next.ErrorMessage = ReasonCancelled
	})
}

// AttachSourceTx records the source chain transaction hash of a pending transfer.
func (m *Machine) AttachSourceTx(ctx context.Context, id, txHash string) (*bridge.Transaction, error) {
	return m.annotate(ctx, id, bridge.StatusPending, func(tx *bridge.Transaction) (bool, error) {
		if tx.SourceTxHash == "" {
			tx.SourceTxHash = txHash
			return true, nil
		}
		if !bridge.SameAddress(tx.SourceTxHash, txHash) {
			return false, bridge.ErrSourceTxConflict
		}
		return false, nil
	})
}

// RecordTargetTx records the target chain transaction hash while attestation is processing.
func (m *Machine) RecordTargetTx(ctx context.Context, id, txHash string) (*bridge.Transaction, error) {
	return m.annotate(ctx, id, bridge.StatusProcessing, func(tx *bridge.Transaction) (bool, error) {
		if tx.TargetTxHash == txHash {
			return false, nil
		}
		tx.TargetTxHash = txHash
		return true, nil
	})
}

func (m *Machine) annotate(ctx context.Context, id string, status bridge.Status, apply func(*bridge.Transaction) (bool, error)) (*bridge.Transaction, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	tx, err := m.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx.Status != status {
		return nil, fmt.Errorf("%w: transaction is %s", bridge.ErrInvalidTransition, tx.Status)
	}
	next := tx.Clone()
	changed, err := apply(next)
	if err != nil || !changed {
		return tx, err
	}
	next.UpdatedAt = m.now().UTC()
	if err := m.store.UpdateTransaction(ctx, next, status); err != nil {
		return nil, err
	}
	m.notify(next)
	return next, nil
}

// Expire closes a transaction whose deadline passed before now. Only the sweep calls it.
// A transaction awaiting settlement cannot expire and is failed instead.
func (m *Machine) Expire(ctx context.Context, id string, now time.Time) (*bridge.Transaction, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	tx, err := m.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx.Status.IsTerminal() || !now.After(tx.Deadline) {
		return tx, nil
	}
	if tx.Status == bridge.StatusConfirmedTarget {
		return m.transition(ctx, tx, bridge.StatusFailed, func(next *bridge.Transaction) {
			next.ErrorMessage = ReasonTargetDeadline
		})
	}
	return m.transition(ctx, tx, bridge.StatusExpired, func(next *bridge.Transaction) {
		next.ErrorMessage = ReasonDeadline
	})
}

// transition persists tx in status target. Callers hold the per-id lock.
func (m *Machine) transition(ctx context.Context, tx *bridge.Transaction, target bridge.Status, mutate func(*bridge.Transaction)) (*bridge.Transaction, error) {
	if !tx.Status.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: %s -> %s", bridge.ErrInvalidTransition, tx.Status, target)
	}

	now := m.now().UTC()
	next := tx.Clone()
	next.Status = target
	next.UpdatedAt = now
	if mutate != nil {
		mutate(next)
	}
	if target == bridge.StatusCompleted {
		next.CompletedAt = &now
	} else {
		next.CompletedAt = nil
	}

	if err := m.store.UpdateTransaction(ctx, next, tx.Status); err != nil {
		return nil, err
	}

	metrics.TransitionsTotal.WithLabelValues(string(tx.Status), string(target)).Inc()
	metrics.TransfersTotal.WithLabelValues(string(target)).Inc()
	if target.IsTerminal() {
		metrics.TransferDuration.WithLabelValues(string(target)).Observe(now.Sub(tx.CreatedAt).Seconds())
	}

	fields := []zap.Field{
		zap.String("transaction_id", tx.ID),
		zap.String("from", string(tx.Status)),
		zap.String("to", string(target)),
	}
	if next.ErrorMessage != "" {
		fields = append(fields, zap.String("reason", next.ErrorMessage))
	}
	if target == bridge.StatusFailed || target == bridge.StatusExpired {
		m.logger.Warn("Transfer closed", fields...)
	} else {
		m.logger.Info("Transfer advanced", fields...)
	}

	m.notify(next)
	return next, nil
}

func (m *Machine) notify(tx *bridge.Transaction) {
	if m.notifier != nil {
		m.notifier.NotifyTransaction(tx.Clone())
	}
}

func routeLabel(hops []uint64) string {
	if len(hops) > 2 {
		return "multi_hop"
	}
	return "direct"
}
