package bridgestore

import (
	"context"
	"errors"
	"testing"

	"github.com/scryptex/bridge-middleware/pkg/bridge"
)

func TestMemoryStore_Transactions(t *testing.T) {
	runTransactionSuite(t, context.Background(), NewMemoryStore())
}

func TestMemoryStore_Messages(t *testing.T) {
	runMessageSuite(t, context.Background(), NewMemoryStore())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	tx := newTx("copy", baseTime, alice, bob)
	if err := s.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	tx.Status = bridge.StatusFailed

	got, err := s.GetTransaction(ctx, "copy")
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if got.Status != bridge.StatusPending {
		t.Fatalf("store shares memory with caller")
	}
	got.Route[0] = 1

	again, _ := s.GetTransaction(ctx, "copy")
	if again.Route[0] == 1 {
		t.Fatalf("store shares route slice with caller")
	}
}

func TestMemoryStore_DuplicateSignature(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	msg := &bridge.Message{ID: "m", Status: bridge.MessageRelayed, Signatures: []bridge.Signature{{Validator: bob}}}
	if err := s.CreateMessage(ctx, msg); err != nil {
		t.Fatalf("CreateMessage() error = %v", err)
	}
	dup := msg.Clone()
	dup.Signatures = append(dup.Signatures, bridge.Signature{Validator: bob})
	if err := s.UpdateMessage(ctx, dup, bridge.MessageRelayed, 1); !errors.Is(err, bridge.ErrDuplicateSignature) {
		t.Fatalf("expected ErrDuplicateSignature, got %v", err)
	}
}
