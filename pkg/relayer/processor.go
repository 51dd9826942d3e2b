package relayer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/scryptex/bridge-middleware/internal/metrics"
	"github.com/scryptex/bridge-middleware/pkg/bridge"
	"github.com/scryptex/bridge-middleware/pkg/bridge/attestation"
	"github.com/scryptex/bridge-middleware/pkg/bridge/transfer"
	"github.com/scryptex/bridge-middleware/pkg/config"
	"github.com/scryptex/bridge-middleware/pkg/ethereum"
)

// Failure reasons recorded by the relayer.
const (
	ReasonSourceReverted = "source transaction reverted"
	ReasonTargetReverted = "target transaction reverted"
)

const defaultQueueSize = 256

var _ attestation.Listener = (*Processor)(nil)

// Processor moves one transaction a step forward per call by talking to its chains.
type Processor struct {
	clients   map[uint64]ChainClient
	transfers Transfers
	attestor  Attestor
	messages  MessageLister
	logger    *zap.Logger

	submitSource bool
	maxRetries   uint64
	retryDelay   time.Duration

	executed chan *bridge.Message
	inflight sync.Map
}

// NewProcessor creates a processor over the given chain clients.
func NewProcessor(
	cfg *config.RelayerConfig,
	clients map[uint64]ChainClient,
	transfers Transfers,
	attestor Attestor,
	messages MessageLister,
	logger *zap.Logger,
) *Processor {
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = time.Second
	}
	return &Processor{
		clients:      clients,
		transfers:    transfers,
		attestor:     attestor,
		messages:     messages,
		logger:       logger,
		submitSource: cfg.SubmitSource,
		maxRetries:   cfg.MaxRetries,
		retryDelay:   retryDelay,
		executed:     make(chan *bridge.Message, defaultQueueSize),
	}
}

// claim marks id as being worked on. The returned func releases the claim.
func (p *Processor) claim(id string) (func(), bool) {
	if _, busy := p.inflight.LoadOrStore(id, struct{}{}); busy {
		return nil, false
	}
	return func() { p.inflight.Delete(id) }, true
}

// Process advances tx by at most one observation. Conditions that only need more time
// (unmined transactions, shallow confirmations) are not errors.
func (p *Processor) Process(ctx context.Context, tx *bridge.Transaction) error {
	done, ok := p.claim(tx.ID)
	if !ok {
		return nil
	}
	defer done()

	switch tx.Status {
	case bridge.StatusPending:
		return p.observeSource(ctx, tx)
	case bridge.StatusConfirmedSource:
		if _, err := p.attestor.RequestAttestation(ctx, tx.ID); err != nil {
			return fmt.Errorf("failed to request attestation: %w", err)
		}
		return nil
	case bridge.StatusProcessing:
		return p.observeTarget(ctx, tx)
	case bridge.StatusConfirmedTarget:
		return p.settle(ctx, tx.ID)
	default:
		return nil
	}
}

func (p *Processor) client(chainID uint64) (ChainClient, error) {
	c, ok := p.clients[chainID]
	if !ok {
		return nil, fmt.Errorf("%w: no client for chain %d", bridge.ErrUnsupportedChain, chainID)
	}
	return c, nil
}

func (p *Processor) observeSource(ctx context.Context, tx *bridge.Transaction) error {
	source, err := p.client(tx.Request.FromChain)
	if err != nil {
		return err
	}

	if tx.SourceTxHash == "" {
		if !p.submitSource {
			return nil
		}
		var hash string
		err := p.retry(ctx, func() (err error) {
			hash, err = source.LockSource(ctx, tx)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to lock source: %w", err)
		}
		if _, err := p.transfers.AttachSourceTx(ctx, tx.ID, hash); err != nil {
			return fmt.Errorf("failed to attach source tx %s: %w", hash, err)
		}
		return nil
	}

	confirmations, err := p.confirmations(ctx, source, tx.SourceTxHash)
	switch {
	case errors.Is(err, ethereum.ErrTxNotFound):
		return nil
	case errors.Is(err, ethereum.ErrTxReverted):
		return p.fail(ctx, tx.ID, ReasonSourceReverted)
	case err != nil:
		return err
	}

	_, err = p.transfers.Advance(ctx, tx.ID, transfer.SourceConfirmed(tx.SourceTxHash, confirmations))
	if errors.Is(err, bridge.ErrInsufficientConfirmations) {
		p.logger.Debug("Waiting for source finality",
			zap.String("transaction_id", tx.ID),
			zap.Uint64("confirmations", confirmations))
		return nil
	}
	return err
}

func (p *Processor) observeTarget(ctx context.Context, tx *bridge.Transaction) error {
	if tx.TargetTxHash == "" {
		msg, err := p.executedMessage(ctx, tx.ID)
		if err != nil || msg == nil {
			return err
		}
		return p.release(ctx, tx, msg)
	}

	target, err := p.client(tx.Request.ToChain)
	if err != nil {
		return err
	}
	confirmations, err := p.confirmations(ctx, target, tx.TargetTxHash)
	switch {
	case errors.Is(err, ethereum.ErrTxNotFound):
		return nil
	case errors.Is(err, ethereum.ErrTxReverted):
		return p.fail(ctx, tx.ID, ReasonTargetReverted)
	case err != nil:
		return err
	}

	next, err := p.transfers.Advance(ctx, tx.ID, transfer.TargetConfirmed(tx.TargetTxHash, confirmations))
	if errors.Is(err, bridge.ErrInsufficientConfirmations) {
		p.logger.Debug("Waiting for target finality",
			zap.String("transaction_id", tx.ID),
			zap.Uint64("confirmations", confirmations))
		return nil
	}
	if err != nil {
		return err
	}
	if next.Status == bridge.StatusConfirmedTarget {
		return p.settle(ctx, tx.ID)
	}
	return nil
}

func (p *Processor) settle(ctx context.Context, id string) error {
	if _, err := p.transfers.Advance(ctx, id, transfer.Settled()); err != nil {
		return fmt.Errorf("failed to settle: %w", err)
	}
	return nil
}

// executedMessage returns the quorum-complete message of a transaction, if any.
func (p *Processor) executedMessage(ctx context.Context, id string) (*bridge.Message, error) {
	msgs, err := p.messages.ListMessagesByTransaction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Status == bridge.MessageExecuted {
			return msgs[i], nil
		}
	}
	return nil, nil
}

func (p *Processor) release(ctx context.Context, tx *bridge.Transaction, msg *bridge.Message) error {
	target, err := p.client(tx.Request.ToChain)
	if err != nil {
		return err
	}

	var released bool
	if err := p.retry(ctx, func() (err error) {
		released, err = target.Released(ctx, tx.ID)
		return err
	}); err != nil {
		return fmt.Errorf("failed to check release state: %w", err)
	}
	if released {
		return p.recoverRelease(ctx, tx, target)
	}

	var hash string
	if err := p.retry(ctx, func() (err error) {
		hash, err = target.Release(ctx, tx, msg)
		return err
	}); err != nil {
		return fmt.Errorf("failed to release on chain %d: %w", tx.Request.ToChain, err)
	}

	if _, err := p.transfers.RecordTargetTx(ctx, tx.ID, hash); err != nil {
		return fmt.Errorf("failed to record target tx %s: %w", hash, err)
	}
	p.logger.Info("Transfer released",
		zap.String("transaction_id", tx.ID),
		zap.String("message_id", msg.ID),
		zap.String("target_tx_hash", hash))
	return nil
}

// recoverRelease records the release hash of a transfer that was paid out on the target
// chain before its hash was stored, then observes it like any other release.
func (p *Processor) recoverRelease(ctx context.Context, tx *bridge.Transaction, target ChainClient) error {
	var hash string
	if err := p.retry(ctx, func() (err error) {
		hash, err = target.ReleaseTxHash(ctx, tx.ID)
		return err
	}); err != nil {
		metrics.ErrorsTotal.WithLabelValues("relayer", "release_recovery").Inc()
		return fmt.Errorf("transfer already released on chain %d: %w", tx.Request.ToChain, err)
	}

	recorded, err := p.transfers.RecordTargetTx(ctx, tx.ID, hash)
	if err != nil {
		return fmt.Errorf("failed to record recovered target tx %s: %w", hash, err)
	}
	p.logger.Warn("Recovered release submitted by an earlier attempt",
		zap.String("transaction_id", tx.ID),
		zap.String("target_tx_hash", hash))
	return p.observeTarget(ctx, recorded)
}

func (p *Processor) confirmations(ctx context.Context, c ChainClient, hash string) (uint64, error) {
	var confirmations uint64
	err := p.retry(ctx, func() (err error) {
		confirmations, err = c.Confirmations(ctx, hash)
		return err
	})
	return confirmations, err
}

func (p *Processor) fail(ctx context.Context, id, reason string) error {
	p.logger.Warn("Failing transfer", zap.String("transaction_id", id), zap.String("reason", reason))
	if _, err := p.transfers.Fail(ctx, id, reason); err != nil {
		return fmt.Errorf("failed to fail transaction: %w", err)
	}
	return nil
}

// retry runs op with exponential backoff. Outcomes that a retry cannot change stop it early.
func (p *Processor) retry(ctx context.Context, op func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = p.retryDelay
	policy.MaxInterval = 30 * p.retryDelay

	return backoff.Retry(func() error {
		err := op()
		if err != nil && permanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(policy, p.maxRetries), ctx))
}

func permanent(err error) bool {
	return errors.Is(err, ethereum.ErrTxNotFound) ||
		errors.Is(err, ethereum.ErrReleaseNotFound) ||
		errors.Is(err, ethereum.ErrTxReverted) ||
		errors.Is(err, ethereum.ErrNoBridgeContract) ||
		errors.Is(err, gobreaker.ErrOpenState) ||
		errors.Is(err, gobreaker.ErrTooManyRequests) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
