package relayer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/zap"

	"github.com/scryptex/bridge-middleware/internal/metrics"
	"github.com/scryptex/bridge-middleware/pkg/bridge"
	"github.com/scryptex/bridge-middleware/pkg/bridgestore"
	"github.com/scryptex/bridge-middleware/pkg/config"
)

func pendingBatch(n int) []*bridge.Transaction {
	txs := make([]*bridge.Transaction, 0, n)
	for i := 0; i < n; i++ {
		tx := testTransaction(bridge.StatusPending)
		tx.ID = fmt.Sprintf("tx-%d", i)
		tx.SourceTxHash = fmt.Sprintf("0xsrc%d", i)
		txs = append(txs, tx)
	}
	return txs
}

func TestEngine_RunOnceScansActiveTransactions(t *testing.T) {
	s := newProcessorSetup(config.RelayerConfig{})
	s.source.ConfirmationsFunc = func(ctx context.Context, txHash string) (uint64, error) {
		return 12, nil
	}
	var scanned bridgestore.QueryOptions
	s.store.ListTransactionsFunc = func(ctx context.Context, opts ...bridgestore.QueryOption) ([]*bridge.Transaction, error) {
		for _, opt := range opts {
			opt(&scanned)
		}
		return pendingBatch(3), nil
	}

	engine := NewEngine(s.processor, s.store, time.Minute, 4, zap.NewNop())
	if err := engine.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	if len(scanned.Statuses) != len(bridge.ActiveStatuses) {
		t.Errorf("Expected scan over %d active statuses, got %v", len(bridge.ActiveStatuses), scanned.Statuses)
	}
	if scanned.Limit != scanLimit {
		t.Errorf("Expected limit %d, got %d", scanLimit, scanned.Limit)
	}
	if got := len(s.transfers.Events()); got != 3 {
		t.Errorf("Expected 3 advanced transactions, got %d", got)
	}
}

func TestEngine_RunOncePagesThroughLargeActiveSet(t *testing.T) {
	ctx := context.Background()
	store := bridgestore.NewMemoryStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	total := scanLimit + 1
	for i := 0; i < total; i++ {
		tx := testTransaction(bridge.StatusPending)
		tx.ID = fmt.Sprintf("tx-%04d", i)
		tx.IdempotencyKey = tx.ID
		tx.SourceTxHash = "0x" + tx.ID
		tx.CreatedAt = base.Add(time.Duration(i) * time.Second)
		if err := store.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("CreateTransaction failed: %v", err)
		}
	}

	s := newProcessorSetup(config.RelayerConfig{})
	var mu sync.Mutex
	seen := make(map[string]int)
	s.source.ConfirmationsFunc = func(ctx context.Context, txHash string) (uint64, error) {
		mu.Lock()
		seen[txHash]++
		mu.Unlock()
		return 0, nil
	}

	engine := NewEngine(s.processor, store, time.Minute, 8, zap.NewNop())
	if err := engine.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	if len(seen) != total {
		t.Fatalf("Expected %d observed transactions, got %d", total, len(seen))
	}
	if seen["0xtx-0000"] != 1 {
		t.Errorf("Expected the oldest transaction to be observed once, got %d", seen["0xtx-0000"])
	}
	for hash, n := range seen {
		if n != 1 {
			t.Errorf("Expected %s to be observed once per pass, got %d", hash, n)
		}
	}
	if got := gaugeValue(t, metrics.PendingTransfers.WithLabelValues(string(bridge.StatusPending))); got != float64(total) {
		t.Errorf("Expected pending gauge %d after a full scan, got %v", total, got)
	}
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("failed to read gauge: %v", err)
	}
	return m.GetGauge().GetValue()
}

func TestEngine_RunOnceBoundsConcurrency(t *testing.T) {
	s := newProcessorSetup(config.RelayerConfig{})
	var running, peak atomic.Int32
	s.source.ConfirmationsFunc = func(ctx context.Context, txHash string) (uint64, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		running.Add(-1)
		return 12, nil
	}
	s.store.ListTransactionsFunc = func(ctx context.Context, opts ...bridgestore.QueryOption) ([]*bridge.Transaction, error) {
		return pendingBatch(8), nil
	}

	engine := NewEngine(s.processor, s.store, time.Minute, 2, zap.NewNop())
	if err := engine.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if peak.Load() > 2 {
		t.Errorf("Expected at most 2 concurrent observations, saw %d", peak.Load())
	}
	if got := len(s.transfers.Events()); got != 8 {
		t.Errorf("Expected 8 advanced transactions, got %d", got)
	}
}

func TestEngine_RunOnceKeepsGoingPastFailures(t *testing.T) {
	s := newProcessorSetup(config.RelayerConfig{})
	s.source.ConfirmationsFunc = func(ctx context.Context, txHash string) (uint64, error) {
		if txHash == "0xsrc1" {
			return 0, fmt.Errorf("node unavailable")
		}
		return 12, nil
	}
	s.store.ListTransactionsFunc = func(ctx context.Context, opts ...bridgestore.QueryOption) ([]*bridge.Transaction, error) {
		return pendingBatch(3), nil
	}

	engine := NewEngine(s.processor, s.store, time.Minute, 1, zap.NewNop())
	if err := engine.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce should not surface per-transaction errors: %v", err)
	}
	if got := len(s.transfers.Events()); got != 2 {
		t.Errorf("Expected 2 advanced transactions, got %d", got)
	}
}

func TestEngine_StartStop(t *testing.T) {
	s := newProcessorSetup(config.RelayerConfig{})
	var scans atomic.Int32
	s.store.ListTransactionsFunc = func(ctx context.Context, opts ...bridgestore.QueryOption) ([]*bridge.Transaction, error) {
		scans.Add(1)
		return nil, nil
	}
	released := make(chan string, 1)
	s.target.ReleaseFunc = func(ctx context.Context, tx *bridge.Transaction, msg *bridge.Message) (string, error) {
		released <- msg.ID
		return "0xrelease", nil
	}
	s.transfers.GetFunc = func(ctx context.Context, id string) (*bridge.Transaction, error) {
		return testTransaction(bridge.StatusProcessing), nil
	}

	engine := NewEngine(s.processor, s.store, 5*time.Millisecond, 1, zap.NewNop())
	if err := engine.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	s.processor.OnMessageExecuted(context.Background(), &bridge.Message{
		ID: "msg-1", TransactionID: "tx-1", Status: bridge.MessageExecuted,
	})
	select {
	case id := <-released:
		if id != "msg-1" {
			t.Errorf("Expected release of msg-1, got %s", id)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Executed message was not released")
	}

	deadline := time.Now().Add(5 * time.Second)
	for scans.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	engine.Stop()

	if scans.Load() == 0 {
		t.Error("Expected the progress loop to scan at least once")
	}
}
