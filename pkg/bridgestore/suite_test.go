package bridgestore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/scryptex/bridge-middleware/pkg/bridge"
)

var baseTime = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

const (
	alice = "0xAbCdEFabcdefABCDEFabcdefabcdefABCDEFabcd"
	bob   = "0x1111111111111111111111111111111111111111"
	carol = "0x2222222222222222222222222222222222222222"
)

func newTx(id string, createdAt time.Time, sender, recipient string) *bridge.Transaction {
	return &bridge.Transaction{
		ID:             id,
		IdempotencyKey: "key-" + id,
		QuoteID:        "qt_" + id,
		RequestHash:    "0xabc",
		Request: bridge.Request{
			FromChain: 11155931,
			ToChain:   11124,
			FromToken: "USDC",
			ToToken:   "USDC",
			Amount:    decimal.NewFromInt(100),
			Sender:    bridge.NormalizeAddress(sender),
			Recipient: bridge.NormalizeAddress(recipient),
		},
		Status:        bridge.StatusPending,
		Fee:           decimal.RequireFromString("1.5"),
		AmountOut:     decimal.RequireFromString("98.5"),
		Route:         []uint64{11155931, 11124},
		EstimatedTime: 70,
		Deadline:      createdAt.Add(210 * time.Second),
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
}

func runTransactionSuite(t *testing.T, ctx context.Context, s Store) {
	t.Run("create and get", func(t *testing.T) {
		tx := newTx("tx-create", baseTime, alice, bob)
		if err := s.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("CreateTransaction() error = %v", err)
		}

		got, err := s.GetTransaction(ctx, tx.ID)
		if err != nil {
			t.Fatalf("GetTransaction() error = %v", err)
		}
		if got.Status != bridge.StatusPending || !got.Fee.Equal(tx.Fee) || len(got.Route) != 2 {
			t.Fatalf("unexpected transaction: %+v", got)
		}

		byKey, err := s.GetTransactionByIdempotencyKey(ctx, tx.IdempotencyKey)
		if err != nil {
			t.Fatalf("GetTransactionByIdempotencyKey() error = %v", err)
		}
		if byKey.ID != tx.ID {
			t.Fatalf("expected %s, got %s", tx.ID, byKey.ID)
		}

		dup := newTx("tx-create-dup", baseTime, alice, bob)
		dup.IdempotencyKey = tx.IdempotencyKey
		if err := s.CreateTransaction(ctx, dup); !errors.Is(err, ErrDuplicateIdempotencyKey) {
			t.Fatalf("expected ErrDuplicateIdempotencyKey, got %v", err)
		}
	})

	t.Run("missing transaction", func(t *testing.T) {
		if _, err := s.GetTransaction(ctx, "nope"); !errors.Is(err, bridge.ErrTransactionNotFound) {
			t.Fatalf("expected ErrTransactionNotFound, got %v", err)
		}
	})

	t.Run("compare and set update", func(t *testing.T) {
		tx := newTx("tx-cas", baseTime, alice, bob)
		if err := s.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("CreateTransaction() error = %v", err)
		}

		next := tx.Clone()
		next.Status = bridge.StatusConfirmedSource
		next.SourceTxHash = "0xsource"
		next.UpdatedAt = baseTime.Add(time.Minute)
		if err := s.UpdateTransaction(ctx, next, bridge.StatusPending); err != nil {
			t.Fatalf("UpdateTransaction() error = %v", err)
		}

		stale := tx.Clone()
		stale.Status = bridge.StatusFailed
		stale.ErrorMessage = "late writer"
		if err := s.UpdateTransaction(ctx, stale, bridge.StatusPending); !errors.Is(err, bridge.ErrStaleTransaction) {
			t.Fatalf("expected ErrStaleTransaction, got %v", err)
		}

		got, err := s.GetTransaction(ctx, tx.ID)
		if err != nil {
			t.Fatalf("GetTransaction() error = %v", err)
		}
		if got.Status != bridge.StatusConfirmedSource || got.SourceTxHash != "0xsource" {
			t.Fatalf("update not applied: %+v", got)
		}
	})

	t.Run("list by address with keyset pagination", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			tx := newTx(fmt.Sprintf("page-%d", i), baseTime.Add(time.Duration(i)*time.Hour), carol, bob)
			if err := s.CreateTransaction(ctx, tx); err != nil {
				t.Fatalf("CreateTransaction() error = %v", err)
			}
		}
		other := newTx("page-other", baseTime.Add(10*time.Hour), alice, bob)
		if err := s.CreateTransaction(ctx, other); err != nil {
			t.Fatalf("CreateTransaction() error = %v", err)
		}

		first, err := s.ListTransactions(ctx, WithAddress(carol), WithLimit(2))
		if err != nil {
			t.Fatalf("ListTransactions() error = %v", err)
		}
		if len(first) != 2 || first[0].ID != "page-4" || first[1].ID != "page-3" {
			t.Fatalf("unexpected first page: %v", ids(first))
		}

		last := first[len(first)-1]
		second, err := s.ListTransactions(ctx, WithAddress(carol), WithLimit(10),
			WithAfter(Cursor{CreatedAt: last.CreatedAt, ID: last.ID}))
		if err != nil {
			t.Fatalf("ListTransactions() error = %v", err)
		}
		if len(second) != 3 || second[0].ID != "page-2" || second[2].ID != "page-0" {
			t.Fatalf("unexpected second page: %v", ids(second))
		}
	})

	t.Run("list by status and deadline", func(t *testing.T) {
		due, err := s.ListTransactions(ctx,
			WithStatuses(bridge.StatusConfirmedSource),
			WithDeadlineBefore(baseTime.Add(time.Hour)))
		if err != nil {
			t.Fatalf("ListTransactions() error = %v", err)
		}
		if len(due) != 1 || due[0].ID != "tx-cas" {
			t.Fatalf("unexpected due transactions: %v", ids(due))
		}
	})

	t.Run("completed volume", func(t *testing.T) {
		tx := newTx("tx-volume", baseTime, alice, carol)
		if err := s.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("CreateTransaction() error = %v", err)
		}
		done := tx.Clone()
		done.Status = bridge.StatusCompleted
		completedAt := baseTime.Add(5 * time.Minute)
		done.CompletedAt = &completedAt
		if err := s.UpdateTransaction(ctx, done, bridge.StatusPending); err != nil {
			t.Fatalf("UpdateTransaction() error = %v", err)
		}

		total, count, err := s.CompletedVolume(ctx, baseTime)
		if err != nil {
			t.Fatalf("CompletedVolume() error = %v", err)
		}
		if count != 1 || !total.Equal(decimal.NewFromInt(100)) {
			t.Fatalf("unexpected volume total=%s count=%d", total, count)
		}
	})
}

func runMessageSuite(t *testing.T, ctx context.Context, s Store) {
	msg := &bridge.Message{
		ID:            "msg-1",
		TransactionID: "tx-msg",
		Sequence:      1,
		SourceChain:   11155931,
		TargetChain:   11124,
		Type:          bridge.MessageTypeTransfer,
		Payload:       []byte{1, 2, 3},
		Digest:        "0xdigest",
		Quorum:        2,
		Status:        bridge.MessagePending,
		Deadline:      baseTime.Add(10 * time.Minute),
		CreatedAt:     baseTime,
		UpdatedAt:     baseTime,
	}
	if err := s.CreateMessage(ctx, msg); err != nil {
		t.Fatalf("CreateMessage() error = %v", err)
	}

	signed := msg.Clone()
	signed.Status = bridge.MessageRelayed
	signed.Signatures = append(signed.Signatures, bridge.Signature{Validator: bob, Signature: "0xsig1", SignedAt: baseTime.Add(time.Minute)})
	if err := s.UpdateMessage(ctx, signed, bridge.MessagePending, 0); err != nil {
		t.Fatalf("UpdateMessage() error = %v", err)
	}

	if err := s.UpdateMessage(ctx, signed, bridge.MessagePending, 0); !errors.Is(err, bridge.ErrStaleMessage) {
		t.Fatalf("expected ErrStaleMessage, got %v", err)
	}

	got, err := s.GetMessage(ctx, msg.ID)
	if err != nil {
		t.Fatalf("GetMessage() error = %v", err)
	}
	if got.Status != bridge.MessageRelayed || len(got.Signatures) != 1 || got.Signatures[0].Validator != bob {
		t.Fatalf("unexpected message: %+v", got)
	}

	open, err := s.ListOpenMessages(ctx, baseTime.Add(time.Hour))
	if err != nil {
		t.Fatalf("ListOpenMessages() error = %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("expected 1 open message, got %d", len(open))
	}

	byTx, err := s.ListMessagesByTransaction(ctx, "tx-msg")
	if err != nil {
		t.Fatalf("ListMessagesByTransaction() error = %v", err)
	}
	if len(byTx) != 1 || byTx[0].Sequence != 1 {
		t.Fatalf("unexpected messages: %+v", byTx)
	}

	if _, err := s.GetMessage(ctx, "missing"); !errors.Is(err, bridge.ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound, got %v", err)
	}
}

func ids(txs []*bridge.Transaction) []string {
	out := make([]string, len(txs))
	for i, tx := range txs {
		out[i] = tx.ID
	}
	return out
}
