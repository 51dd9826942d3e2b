// Package sweep periodically closes transfers and attestations whose deadline passed.
// It is the only component allowed to expire a transaction.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/scryptex/bridge-middleware/internal/metrics"
	"github.com/scryptex/bridge-middleware/pkg/bridge"
	"github.com/scryptex/bridge-middleware/pkg/bridgestore"
)

// batchSize caps the transactions expired per run.
const batchSize = 200

// Expirer closes one transaction past its deadline.
type Expirer interface {
	Expire(ctx context.Context, id string, now time.Time) (*bridge.Transaction, error)
}

// TimeoutChecker fails attestation messages past their deadline.
type TimeoutChecker interface {
	CheckTimeouts(ctx context.Context, now time.Time) (int, error)
}

// Result summarizes one sweep run.
type Result struct {
	Expired  int `json:"expired"`
	Failed   int `json:"failed"`
	Messages int `json:"messages"`
}

// Sweeper runs the periodic deadline sweep.
type Sweeper struct {
	store    bridgestore.TransactionStore
	machine  Expirer
	messages TimeoutChecker
	interval time.Duration
	timeout  time.Duration
	cron     *cron.Cron
	logger   *zap.Logger
	now      func() time.Time
}

// NewSweeper creates a sweeper running every interval.
func NewSweeper(store bridgestore.TransactionStore, machine Expirer, messages TimeoutChecker, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		machine:  machine,
		messages: messages,
		interval: interval,
		timeout:  time.Minute,
		cron:     cron.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// Start schedules the sweep.
func (s *Sweeper) Start() error {
	spec := fmt.Sprintf("@every %s", s.interval)
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		res, err := s.Run(ctx)
		if err != nil {
			s.logger.Error("Sweep failed", zap.Error(err))
			return
		}
		if res.Expired+res.Failed+res.Messages > 0 {
			s.logger.Info("Sweep closed overdue work",
				zap.Int("expired", res.Expired),
				zap.Int("failed", res.Failed),
				zap.Int("messages", res.Messages))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Deadline sweeper started", zap.Duration("interval", s.interval))
	return nil
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Deadline sweeper stopped")
}

// Run performs one sweep. Attestation timeouts run first so their transactions
// carry the quorum failure rather than a generic deadline.
func (s *Sweeper) Run(ctx context.Context) (*Result, error) {
	now := s.now().UTC()
	res := &Result{}
	var errs []error

	if s.messages != nil {
		n, err := s.messages.CheckTimeouts(ctx, now)
		res.Messages = n
		metrics.SweepExpired.WithLabelValues("message").Add(float64(n))
		if err != nil {
			errs = append(errs, err)
		}
	}

	txs, err := s.store.ListTransactions(ctx,
		bridgestore.WithStatuses(bridge.ActiveStatuses...),
		bridgestore.WithDeadlineBefore(now),
		bridgestore.WithLimit(batchSize))
	if err != nil {
		return res, errors.Join(append(errs, fmt.Errorf("failed to list overdue transactions: %w", err))...)
	}

	for _, tx := range txs {
		closed, err := s.machine.Expire(ctx, tx.ID, now)
		if err != nil {
			if errors.Is(err, bridge.ErrStaleTransaction) {
				continue
			}
			errs = append(errs, fmt.Errorf("transaction %s: %w", tx.ID, err))
			continue
		}
		switch closed.Status {
		case bridge.StatusExpired:
			res.Expired++
		case bridge.StatusFailed:
			res.Failed++
		}
	}
	metrics.SweepExpired.WithLabelValues("transaction").Add(float64(res.Expired + res.Failed))
	return res, errors.Join(errs...)
}
