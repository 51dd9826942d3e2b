package status

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/scryptex/bridge-middleware/pkg/bridge"
	"github.com/scryptex/bridge-middleware/pkg/bridgestore"
)

const (
	alice = "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	bob   = "0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB"
	carol = "0xCcCCccccCCCCcCCCCCCcCcCccCcCCCcCcccccccC"
)

var start = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func seed(t *testing.T, store *bridgestore.MemoryStore, n int, sender, recipient string, status bridge.Status) []*bridge.Transaction {
	t.Helper()
	var out []*bridge.Transaction
	for i := 0; i < n; i++ {
		created := start.Add(time.Duration(len(out)+1) * time.Minute)
		tx := &bridge.Transaction{
			ID:             fmt.Sprintf("%s-%s-%02d", sender[:6], status, i),
			IdempotencyKey: fmt.Sprintf("key-%s-%s-%02d", sender[:6], status, i),
			Request: bridge.Request{
				FromChain: 1, ToChain: 2, FromToken: "USDC", ToToken: "USDC",
				Amount:    decimal.NewFromInt(int64(10 * (i + 1))),
				Sender:    bridge.NormalizeAddress(sender),
				Recipient: bridge.NormalizeAddress(recipient),
			},
			Status:    status,
			CreatedAt: created,
			UpdatedAt: created,
			Deadline:  created.Add(time.Hour),
		}
		if status == bridge.StatusCompleted {
			done := created.Add(5 * time.Minute)
			tx.CompletedAt = &done
		}
		require.NoError(t, store.CreateTransaction(context.Background(), tx))
		out = append(out, tx)
	}
	return out
}

func TestReader_GetStatus(t *testing.T) {
	store := bridgestore.NewMemoryStore()
	txs := seed(t, store, 1, alice, bob, bridge.StatusProcessing)
	r := NewReader(store)

	v, err := r.GetStatus(context.Background(), txs[0].ID)
	require.NoError(t, err)
	require.Equal(t, 50, v.Progress)
	require.Equal(t, "Collecting validator attestations", v.CurrentStep)
	require.Equal(t, txs[0].ID, v.ID)

	_, err = r.GetStatus(context.Background(), "missing")
	require.ErrorIs(t, err, bridge.ErrTransactionNotFound)
}

func TestReader_ListByUserPaginates(t *testing.T) {
	ctx := context.Background()
	store := bridgestore.NewMemoryStore()
	seed(t, store, 5, alice, bob, bridge.StatusPending)
	seed(t, store, 2, carol, carol, bridge.StatusPending)
	r := NewReader(store)

	var seen []string
	cursor := ""
	pages := 0
	for {
		page, err := r.ListByUser(ctx, alice, cursor, 2)
		require.NoError(t, err)
		pages++
		for _, v := range page.Items {
			seen = append(seen, v.ID)
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	require.Equal(t, 3, pages)
	require.Len(t, seen, 5)
	for i := 1; i < len(seen); i++ {
		require.Greater(t, seen[i-1], seen[i], "newest first")
	}

	recipientView, err := r.ListByUser(ctx, bob, "", 0)
	require.NoError(t, err)
	require.Len(t, recipientView.Items, 5, "recipient sees the same history")
}

func TestReader_ListByUserRejectsBadInput(t *testing.T) {
	r := NewReader(bridgestore.NewMemoryStore())

	_, err := r.ListByUser(context.Background(), "not-an-address", "", 10)
	require.ErrorIs(t, err, bridge.ErrInvalidRequest)

	_, err = r.ListByUser(context.Background(), alice, "%%%", 10)
	require.ErrorIs(t, err, bridge.ErrInvalidCursor)

	_, err = r.ListByUser(context.Background(), alice, EncodeCursor(bridgestore.Cursor{}), 10)
	require.ErrorIs(t, err, bridge.ErrInvalidCursor)
}

func TestReader_All(t *testing.T) {
	store := bridgestore.NewMemoryStore()
	seed(t, store, 7, alice, bob, bridge.StatusPending)
	r := NewReader(store)

	count := 0
	for tx, err := range r.All(context.Background(), alice, 3) {
		require.NoError(t, err)
		require.NotNil(t, tx)
		count++
	}
	require.Equal(t, 7, count)

	count = 0
	for range r.All(context.Background(), alice, 3) {
		count++
		if count == 4 {
			break
		}
	}
	require.Equal(t, 4, count)

	for _, err := range r.All(context.Background(), "bad", 3) {
		require.ErrorIs(t, err, bridge.ErrInvalidRequest)
	}
}

func TestReader_Volume(t *testing.T) {
	store := bridgestore.NewMemoryStore()
	seed(t, store, 3, alice, bob, bridge.StatusCompleted)
	seed(t, store, 2, carol, bob, bridge.StatusFailed)

	r := NewReader(store, WithClock(func() time.Time { return start.Add(time.Hour) }))
	v, err := r.Volume(context.Background(), "24h")
	require.NoError(t, err)
	require.Equal(t, 3, v.TransactionCount)
	require.True(t, decimal.NewFromInt(60).Equal(v.TotalVolume))
	require.True(t, decimal.NewFromInt(20).Equal(v.AvgSize))

	later := NewReader(store, WithClock(func() time.Time { return start.Add(48 * time.Hour) }))
	v, err = later.Volume(context.Background(), "24h")
	require.NoError(t, err)
	require.Zero(t, v.TransactionCount)
	require.True(t, v.AvgSize.IsZero())

	_, err = r.Volume(context.Background(), "1y")
	require.ErrorIs(t, err, bridge.ErrInvalidTimeframe)
}

func TestReader_Messages(t *testing.T) {
	ctx := context.Background()
	store := bridgestore.NewMemoryStore()
	txs := seed(t, store, 1, alice, bob, bridge.StatusProcessing)
	for seq := 2; seq >= 1; seq-- {
		require.NoError(t, store.CreateMessage(ctx, &bridge.Message{
			ID: fmt.Sprintf("m%d", seq), TransactionID: txs[0].ID, Sequence: seq,
			Status: bridge.MessagePending, Quorum: 1, CreatedAt: start, UpdatedAt: start, Deadline: start,
		}))
	}
	r := NewReader(store)

	msgs, err := r.Messages(ctx, txs[0].ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, 1, msgs[0].Sequence)

	_, err = r.Messages(ctx, "missing")
	require.ErrorIs(t, err, bridge.ErrTransactionNotFound)
}
