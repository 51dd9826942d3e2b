package relayer

import (
	"context"

	"go.uber.org/zap"

	"github.com/scryptex/bridge-middleware/pkg/bridge"
)

// OnMessageExecuted queues a quorum-complete message for release. The progress loop picks
// up anything dropped when the queue is full.
func (p *Processor) OnMessageExecuted(_ context.Context, msg *bridge.Message) {
	select {
	case p.executed <- msg:
	default:
		p.logger.Warn("Release queue full, deferring to progress loop", zap.String("message_id", msg.ID))
	}
}

// handleExecuted releases the transfer owning msg if it still waits for one.
func (p *Processor) handleExecuted(ctx context.Context, msg *bridge.Message) error {
	done, ok := p.claim(msg.TransactionID)
	if !ok {
		return nil
	}
	defer done()

	tx, err := p.transfers.Get(ctx, msg.TransactionID)
	if err != nil {
		return err
	}
	if tx.Status != bridge.StatusProcessing || tx.TargetTxHash != "" {
		return nil
	}
	return p.release(ctx, tx, msg)
}
