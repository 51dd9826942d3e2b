// Package attestation collects validator signatures over cross-chain transfer messages
// and hands quorum-complete messages to the relayer.
package attestation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scryptex/bridge-middleware/internal/metrics"
	"github.com/scryptex/bridge-middleware/pkg/auth"
	"github.com/scryptex/bridge-middleware/pkg/bridge"
	"github.com/scryptex/bridge-middleware/pkg/bridge/transfer"
	"github.com/scryptex/bridge-middleware/pkg/bridgestore"
	"github.com/scryptex/bridge-middleware/pkg/chain"
)

// DefaultTimeout bounds how long a message may collect signatures.
const DefaultTimeout = 10 * time.Minute

// maxUpdateAttempts bounds retries when a concurrent signer wins the race.
const maxUpdateAttempts = 5

// Transfers is the part of the state machine the coordinator drives.
type Transfers interface {
	Get(ctx context.Context, id string) (*bridge.Transaction, error)
	Advance(ctx context.Context, id string, ev transfer.Event) (*bridge.Transaction, error)
}

// Listener is told about messages that reached quorum.
type Listener interface {
	OnMessageExecuted(ctx context.Context, msg *bridge.Message)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ctx context.Context, msg *bridge.Message)

// OnMessageExecuted calls f.
func (f ListenerFunc) OnMessageExecuted(ctx context.Context, msg *bridge.Message) { f(ctx, msg) }

// Coordinator is the relay/attestation coordinator.
type Coordinator struct {
	store     bridgestore.MessageStore
	transfers Transfers
	registry  *chain.Registry
	logger    *zap.Logger
	timeout   time.Duration
	now       func() time.Time

	mu        sync.RWMutex
	listeners []Listener
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock overrides the coordinator's time source.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithTimeout sets how long messages collect signatures.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewCoordinator creates a coordinator.
func NewCoordinator(store bridgestore.MessageStore, transfers Transfers, registry *chain.Registry, logger *zap.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:     store,
		transfers: transfers,
		registry:  registry,
		logger:    logger,
		timeout:   DefaultTimeout,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers l for executed messages.
func (c *Coordinator) Subscribe(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// Get returns a message by id.
func (c *Coordinator) Get(ctx context.Context, id string) (*bridge.Message, error) {
	return c.store.GetMessage(ctx, id)
}

// RequestAttestation opens a message for a transaction whose source leg is confirmed and
// moves the transaction to processing. For a transaction already processing it returns
// the open message.
func (c *Coordinator) RequestAttestation(ctx context.Context, transactionID string) (*bridge.Message, error) {
	tx, err := c.transfers.Get(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	existing, err := c.store.ListMessagesByTransaction(ctx, tx.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	open := latestUsable(existing)

	switch tx.Status {
	case bridge.StatusProcessing:
		if open == nil {
			return nil, fmt.Errorf("%w: no open message for processing transaction", bridge.ErrNotAttestable)
		}
		return open, nil
	case bridge.StatusConfirmedSource:
	default:
		return nil, fmt.Errorf("%w: transaction is %s", bridge.ErrNotAttestable, tx.Status)
	}

	msg := open
	if msg == nil {
		if msg, err = c.openMessage(ctx, tx, len(existing)+1); err != nil {
			return nil, err
		}
	}

	if _, err := c.transfers.Advance(ctx, tx.ID, transfer.AttestationRequested(msg.ID)); err != nil {
		return nil, fmt.Errorf("failed to advance transaction: %w", err)
	}
	return msg, nil
}

// latestUsable returns the newest message that can still reach quorum or already did.
func latestUsable(msgs []*bridge.Message) *bridge.Message {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Status != bridge.MessageFailed {
			return msgs[i]
		}
	}
	return nil
}

func (c *Coordinator) openMessage(ctx context.Context, tx *bridge.Transaction, sequence int) (*bridge.Message, error) {
	validators, quorum, err := c.registry.Validators(tx.Request.FromChain)
	if err != nil {
		return nil, err
	}
	if len(validators) == 0 || quorum < 1 {
		return nil, fmt.Errorf("%w: chain %d has no validator set", bridge.ErrNotAttestable, tx.Request.FromChain)
	}

	payload, err := EncodeTransfer(tx, sequence)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	now := c.now().UTC()
	msg := &bridge.Message{
		ID:            uuid.NewString(),
		TransactionID: tx.ID,
		Sequence:      sequence,
		SourceChain:   tx.Request.FromChain,
		TargetChain:   tx.Request.ToChain,
		Type:          bridge.MessageTypeTransfer,
		Payload:       payload,
		Digest:        Digest(payload),
		Quorum:        quorum,
		Status:        bridge.MessagePending,
		Deadline:      now.Add(c.timeout),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := c.store.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	metrics.MessagesTotal.WithLabelValues(string(bridge.MessagePending)).Inc()
	c.logger.Info("Attestation requested",
		zap.String("message_id", msg.ID),
		zap.String("transaction_id", tx.ID),
		zap.Int("sequence", sequence),
		zap.Int("quorum", quorum),
		zap.String("digest", msg.Digest))
	return msg, nil
}

// SubmitSignature records one validator's EIP-191 signature over the message digest.
func (c *Coordinator) SubmitSignature(ctx context.Context, messageID, validator, signature string) (*bridge.Message, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		msg, err := c.store.GetMessage(ctx, messageID)
		if err != nil {
			return nil, err
		}

		next, err := c.addSignature(ctx, msg, validator, signature)
		if errors.Is(err, bridge.ErrStaleMessage) {
			continue
		}
		if err != nil {
			metrics.SignaturesTotal.WithLabelValues(signatureLabel(err)).Inc()
			return nil, err
		}
		metrics.SignaturesTotal.WithLabelValues("accepted").Inc()
		return next, nil
	}
	return nil, fmt.Errorf("%w: too much contention on message %s", bridge.ErrStaleMessage, messageID)
}

func (c *Coordinator) addSignature(ctx context.Context, msg *bridge.Message, validator, signature string) (*bridge.Message, error) {
	if msg.Status.IsClosed() {
		return nil, fmt.Errorf("%w: message is %s", bridge.ErrMessageClosed, msg.Status)
	}
	if !c.registry.IsValidator(msg.SourceChain, validator) {
		return nil, fmt.Errorf("%w: %s", bridge.ErrUnknownValidator, validator)
	}
	if msg.SignedBy(validator) {
		return nil, bridge.ErrDuplicateSignature
	}
	ok, err := auth.RecoversTo(msg.Digest, signature, validator)
	if err != nil || !ok {
		return nil, fmt.Errorf("%w: signature does not recover to %s", bridge.ErrInvalidSignature, validator)
	}

	now := c.now().UTC()
	if now.After(msg.Deadline) {
		if _, ferr := c.fail(ctx, msg); ferr != nil && !errors.Is(ferr, bridge.ErrStaleMessage) {
			return nil, ferr
		}
		return nil, bridge.ErrAttestationTimedOut
	}

	next := msg.Clone()
	next.Signatures = append(next.Signatures, bridge.Signature{
		Validator: bridge.NormalizeAddress(validator),
		Signature: signature,
		SignedAt:  now,
	})
	next.UpdatedAt = now
	if len(next.Signatures) >= next.Quorum {
		next.Status = bridge.MessageExecuted
	} else {
		next.Status = bridge.MessageRelayed
	}

	if err := c.store.UpdateMessage(ctx, next, msg.Status, len(msg.Signatures)); err != nil {
		return nil, err
	}

	c.logger.Info("Signature accepted",
		zap.String("message_id", next.ID),
		zap.String("validator", validator),
		zap.Int("signatures", len(next.Signatures)),
		zap.Int("quorum", next.Quorum))

	if next.Status != msg.Status {
		metrics.MessagesTotal.WithLabelValues(string(next.Status)).Inc()
	}
	if next.Status == bridge.MessageExecuted {
		c.dispatch(ctx, next)
	}
	return next, nil
}

func (c *Coordinator) dispatch(ctx context.Context, msg *bridge.Message) {
	c.mu.RLock()
	listeners := append([]Listener(nil), c.listeners...)
	c.mu.RUnlock()

	for _, l := range listeners {
		l.OnMessageExecuted(ctx, msg.Clone())
	}
}

// CheckTimeouts fails every open message whose deadline passed before now, together with
// its transaction. It returns how many messages were failed.
func (c *Coordinator) CheckTimeouts(ctx context.Context, now time.Time) (int, error) {
	msgs, err := c.store.ListOpenMessages(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list open messages: %w", err)
	}

	failed := 0
	var errs []error
	for _, msg := range msgs {
		ok, err := c.fail(ctx, msg)
		if err != nil {
			if errors.Is(err, bridge.ErrStaleMessage) {
				continue
			}
			errs = append(errs, fmt.Errorf("message %s: %w", msg.ID, err))
			continue
		}
		if ok {
			failed++
		}
	}
	return failed, errors.Join(errs...)
}

// TimeoutReason describes a message that closed without quorum.
func TimeoutReason(msg *bridge.Message) string {
	return fmt.Sprintf("attestation quorum not reached: %d of %d signatures", len(msg.Signatures), msg.Quorum)
}

func (c *Coordinator) fail(ctx context.Context, msg *bridge.Message) (bool, error) {
	if msg.Status.IsClosed() {
		return false, nil
	}
	reason := TimeoutReason(msg)

	next := msg.Clone()
	next.Status = bridge.MessageFailed
	next.ErrorMessage = reason
	next.UpdatedAt = c.now().UTC()
	if err := c.store.UpdateMessage(ctx, next, msg.Status, len(msg.Signatures)); err != nil {
		return false, err
	}
	metrics.MessagesTotal.WithLabelValues(string(bridge.MessageFailed)).Inc()

	c.logger.Warn("Attestation timed out",
		zap.String("message_id", msg.ID),
		zap.String("transaction_id", msg.TransactionID),
		zap.String("reason", reason))

	if _, err := c.transfers.Advance(ctx, msg.TransactionID, transfer.Failed(reason)); err != nil {
		return true, fmt.Errorf("failed to fail transaction %s: %w", msg.TransactionID, err)
	}
	return true, nil
}

func signatureLabel(err error) string {
	switch {
	case errors.Is(err, bridge.ErrDuplicateSignature):
		return "duplicate"
	case errors.Is(err, bridge.ErrUnknownValidator):
		return "unknown_validator"
	case errors.Is(err, bridge.ErrInvalidSignature):
		return "invalid"
	case errors.Is(err, bridge.ErrMessageClosed), errors.Is(err, bridge.ErrAttestationTimedOut):
		return "closed"
	default:
		return "error"
	}
}
