package bridge

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestStatus_TransitionTable(t *testing.T) {
	all := []Status{
		StatusPending, StatusConfirmedSource, StatusProcessing, StatusConfirmedTarget,
		StatusCompleted, StatusFailed, StatusExpired,
	}
	allowed := map[Status]map[Status]bool{
		StatusPending:         {StatusConfirmedSource: true, StatusFailed: true, StatusExpired: true},
		StatusConfirmedSource: {StatusProcessing: true, StatusFailed: true, StatusExpired: true},
		StatusProcessing:      {StatusConfirmedTarget: true, StatusFailed: true, StatusExpired: true},
		StatusConfirmedTarget: {StatusCompleted: true, StatusFailed: true},
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[from][to]
			if got := from.CanTransitionTo(to); got != want {
				t.Errorf("%s -> %s: got %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestStatus_TerminalStatesHaveNoSuccessors(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusFailed, StatusExpired} {
		if !s.IsTerminal() {
			t.Fatalf("%s should be terminal", s)
		}
		for _, next := range ActiveStatuses {
			if s.CanTransitionTo(next) {
				t.Fatalf("%s must not move to %s", s, next)
			}
		}
	}
}

func TestStatus_HasPassed(t *testing.T) {
	if !StatusProcessing.HasPassed(StatusConfirmedSource) {
		t.Fatalf("processing has passed confirmed_source")
	}
	if !StatusProcessing.HasPassed(StatusProcessing) {
		t.Fatalf("a status has passed itself")
	}
	if StatusPending.HasPassed(StatusConfirmedSource) {
		t.Fatalf("pending has not passed confirmed_source")
	}
	if StatusConfirmedTarget.HasPassed(StatusFailed) {
		t.Fatalf("non-terminal status has not passed failed")
	}
	if !StatusExpired.HasPassed(StatusFailed) {
		t.Fatalf("terminal status has passed any diversion")
	}
}

func TestStatus_Progress(t *testing.T) {
	if StatusPending.Progress() != 0 || StatusCompleted.Progress() != 100 {
		t.Fatalf("unexpected progress endpoints")
	}
	prev := -1
	for _, s := range []Status{StatusPending, StatusConfirmedSource, StatusProcessing, StatusConfirmedTarget, StatusCompleted} {
		if s.Progress() <= prev {
			t.Fatalf("progress must increase along the happy path, %s=%d", s, s.Progress())
		}
		prev = s.Progress()
	}
}

func TestRequestFingerprint_IgnoresIDAndAddressCase(t *testing.T) {
	deadline := time.Unix(1_700_000_000, 0)
	a := Request{
		ID: "one", FromChain: 1, ToChain: 2, FromToken: "USDC", ToToken: "usdc",
		Amount:    decimal.RequireFromString("100"),
		Sender:    "0xabcdefabcdefabcdefabcdefabcdefabcdefabcd",
		Recipient: "0x1111111111111111111111111111111111111111",
		Deadline:  &deadline,
	}
	b := a
	b.ID = "two"
	b.Sender = "0xABCDEFABCDEFABCDEFABCDEFABCDEFABCDEFABCD"
	b.FromToken = "usdc"

	if a.Fingerprint() != b.Fingerprint() {
		t.Fatalf("fingerprints differ for equivalent requests")
	}

	b.Amount = decimal.RequireFromString("101")
	if a.Fingerprint() == b.Fingerprint() {
		t.Fatalf("fingerprints must change with the amount")
	}
}

func TestTransactionClone_IsDeep(t *testing.T) {
	now := time.Now()
	tx := &Transaction{ID: "tx", Route: []uint64{1, 2}, CompletedAt: &now}
	c := tx.Clone()
	c.Route[0] = 99
	*c.CompletedAt = now.Add(time.Hour)

	if tx.Route[0] != 1 {
		t.Fatalf("route shared between clones")
	}
	if !tx.CompletedAt.Equal(now) {
		t.Fatalf("completedAt shared between clones")
	}
}
