package service

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "github.com/scryptex/bridge-middleware/pkg/app/errors"
	"github.com/scryptex/bridge-middleware/pkg/auth"
	"github.com/scryptex/bridge-middleware/pkg/bridge"
	"github.com/scryptex/bridge-middleware/pkg/bridge/attestation"
	"github.com/scryptex/bridge-middleware/pkg/bridge/quote"
	"github.com/scryptex/bridge-middleware/pkg/bridge/status"
	"github.com/scryptex/bridge-middleware/pkg/bridge/sweep"
	"github.com/scryptex/bridge-middleware/pkg/bridge/transfer"
	"github.com/scryptex/bridge-middleware/pkg/bridgestore"
	"github.com/scryptex/bridge-middleware/pkg/chain"
)

const (
	testSource uint64 = 11155931
	testTarget uint64 = 11124
)

type testEnv struct {
	svc    Service
	quotes *quote.Engine
	store  *bridgestore.MemoryStore
	sender *ecdsa.PrivateKey
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	registry, err := chain.NewRegistry([]chain.Chain{
		{ID: testSource, Name: "RiseChain", LegTime: 10 * time.Second, FinalityDepth: 1, Quorum: 1,
			Validators: []string{"0x1111111111111111111111111111111111111111"}},
		{ID: testTarget, Name: "Abstract", LegTime: time.Minute, FinalityDepth: 1},
	}, []chain.Link{{From: testSource, To: testTarget}})
	if err != nil {
		t.Fatalf("NewRegistry() failed: %v", err)
	}

	engine, err := quote.NewEngine(registry, quote.Config{
		FeeBps:     30,
		Multiplier: decimal.NewFromInt(1),
		MaxHops:    2,
		MaxAmount:  decimal.NewFromInt(1_000_000),
		TTL:        time.Minute,
		Secret:     "service-test",
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}

	store := bridgestore.NewMemoryStore()
	machine := transfer.NewMachine(store, registry, engine, zap.NewNop())
	coord := attestation.NewCoordinator(store, machine, registry, zap.NewNop())
	reader := status.NewReader(store)
	sweeper := sweep.NewSweeper(store, machine, coord, time.Minute, zap.NewNop())

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() failed: %v", err)
	}

	return &testEnv{
		svc:    NewService(registry, engine, machine, reader, coord, sweeper),
		quotes: engine,
		store:  store,
		sender: key,
	}
}

func (e *testEnv) request() bridge.Request {
	return bridge.Request{
		FromChain: testSource,
		ToChain:   testTarget,
		FromToken: "ETH",
		ToToken:   "ETH",
		Amount:    decimal.NewFromInt(5),
		Sender:    crypto.PubkeyToAddress(e.sender.PublicKey).Hex(),
		Recipient: "0x3333333333333333333333333333333333333333",
	}
}

func (e *testEnv) execute(t *testing.T, key string) *bridge.Transaction {
	t.Helper()
	req := e.request()
	q, err := e.svc.GetQuote(context.Background(), &req)
	if err != nil {
		t.Fatalf("GetQuote() failed: %v", err)
	}
	tx, _, err := e.svc.Execute(context.Background(), &bridge.ExecuteRequest{QuoteID: q.ID, Request: req}, key)
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	return tx
}

func TestBridgeService_ExecuteCreatesThenReplays(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := env.request()
	q, err := env.svc.GetQuote(ctx, &req)
	if err != nil {
		t.Fatalf("GetQuote() failed: %v", err)
	}

	first, created, err := env.svc.Execute(ctx, &bridge.ExecuteRequest{QuoteID: q.ID, Request: req}, "retry-1")
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !created {
		t.Fatal("expected first execute to create the transaction")
	}
	if first.Status != bridge.StatusPending {
		t.Fatalf("expected pending, got %s", first.Status)
	}

	again, created, err := env.svc.Execute(ctx, &bridge.ExecuteRequest{QuoteID: q.ID, Request: req}, "retry-1")
	if err != nil {
		t.Fatalf("replayed Execute() failed: %v", err)
	}
	if created {
		t.Fatal("expected replay not to create a transaction")
	}
	if again.ID != first.ID {
		t.Fatalf("expected replay to return %s, got %s", first.ID, again.ID)
	}
}

func TestBridgeService_ExecuteAttachesSourceTx(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := env.request()
	q, err := env.svc.GetQuote(ctx, &req)
	if err != nil {
		t.Fatalf("GetQuote() failed: %v", err)
	}
	hash := "0x" + strings.Repeat("ab", 32)

	tx, _, err := env.svc.Execute(ctx, &bridge.ExecuteRequest{QuoteID: q.ID, Request: req, SourceTxHash: hash}, "")
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if tx.SourceTxHash != hash {
		t.Fatalf("expected source tx %s, got %q", hash, tx.SourceTxHash)
	}

	// A replay naming a different source transaction is a conflict.
	other := "0x" + strings.Repeat("cd", 32)
	_, _, err = env.svc.Execute(ctx, &bridge.ExecuteRequest{QuoteID: q.ID, Request: req, SourceTxHash: other}, "")
	if !apperrors.Is(err, apperrors.CategoryDataConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestBridgeService_ExecuteRejectsInvalidInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*bridge.ExecuteRequest)
		want   apperrors.Category
	}{
		{
			name:   "missing quote id",
			mutate: func(r *bridge.ExecuteRequest) { r.QuoteID = "" },
			want:   apperrors.CategoryDataError,
		},
		{
			name:   "malformed sender",
			mutate: func(r *bridge.ExecuteRequest) { r.Request.Sender = "not-an-address" },
			want:   apperrors.CategoryDataError,
		},
		{
			name:   "malformed source tx",
			mutate: func(r *bridge.ExecuteRequest) { r.SourceTxHash = "0x1234" },
			want:   apperrors.CategoryDataError,
		},
		{
			name:   "forged quote id",
			mutate: func(r *bridge.ExecuteRequest) { r.QuoteID = "forged" },
			want:   apperrors.CategoryDataError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &bridge.ExecuteRequest{QuoteID: "placeholder", Request: env.request()}
			tt.mutate(req)
			_, _, err := env.svc.Execute(ctx, req, "")
			if !apperrors.Is(err, tt.want) {
				t.Fatalf("expected %s, got %v", tt.want, err)
			}
		})
	}
}

func TestBridgeService_QuoteForUnknownChainIsBadRequest(t *testing.T) {
	env := newTestEnv(t)
	req := env.request()
	req.ToChain = 999

	_, err := env.svc.GetQuote(context.Background(), &req)
	if !apperrors.Is(err, apperrors.CategoryDataError) {
		t.Fatalf("expected bad request, got %v", err)
	}
	if !errors.Is(err, bridge.ErrUnsupportedChain) {
		t.Fatalf("expected ErrUnsupportedChain in chain, got %v", err)
	}
}

func TestBridgeService_CancelBySender(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tx := env.execute(t, "")

	stranger, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() failed: %v", err)
	}
	sig, err := auth.SignEIP191(stranger, bridge.CancelMessage(tx.ID))
	if err != nil {
		t.Fatalf("SignEIP191() failed: %v", err)
	}
	_, err = env.svc.Cancel(ctx, tx.ID, &bridge.CancelRequest{Signature: sig})
	if !apperrors.Is(err, apperrors.CategoryForbidden) {
		t.Fatalf("expected forbidden for a stranger, got %v", err)
	}

	sig, err = auth.SignEIP191(env.sender, bridge.CancelMessage(tx.ID))
	if err != nil {
		t.Fatalf("SignEIP191() failed: %v", err)
	}
	cancelled, err := env.svc.Cancel(ctx, tx.ID, &bridge.CancelRequest{Signature: sig})
	if err != nil {
		t.Fatalf("Cancel() failed: %v", err)
	}
	if cancelled.Status != bridge.StatusFailed {
		t.Fatalf("expected failed, got %s", cancelled.Status)
	}
	if cancelled.ErrorMessage != transfer.ReasonCancelled {
		t.Fatalf("unexpected reason %q", cancelled.ErrorMessage)
	}

	// Terminal transfers cannot be cancelled again.
	_, err = env.svc.Cancel(ctx, tx.ID, &bridge.CancelRequest{Signature: sig})
	if !apperrors.Is(err, apperrors.CategoryDataConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestBridgeService_CancelRejectsGarbageSignature(t *testing.T) {
	env := newTestEnv(t)
	tx := env.execute(t, "")

	_, err := env.svc.Cancel(context.Background(), tx.ID, &bridge.CancelRequest{Signature: "0xzz"})
	if !apperrors.Is(err, apperrors.CategoryUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestBridgeService_StatusAndHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tx := env.execute(t, "")

	v, err := env.svc.GetStatus(ctx, tx.ID)
	if err != nil {
		t.Fatalf("GetStatus() failed: %v", err)
	}
	if v.ID != tx.ID || v.CurrentStep == "" {
		t.Fatalf("unexpected view %+v", v)
	}

	_, err = env.svc.GetStatus(ctx, "missing")
	if !apperrors.Is(err, apperrors.CategoryResourceNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	page, err := env.svc.History(ctx, tx.Request.Sender, "", 10)
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != tx.ID {
		t.Fatalf("unexpected history %+v", page.Items)
	}

	_, err = env.svc.History(ctx, "0xnope", "", 10)
	if !apperrors.Is(err, apperrors.CategoryDataError) {
		t.Fatalf("expected bad request for address, got %v", err)
	}
	_, err = env.svc.History(ctx, tx.Request.Sender, "!!", 10)
	if !apperrors.Is(err, apperrors.CategoryDataError) {
		t.Fatalf("expected bad request for cursor, got %v", err)
	}
}

func TestBridgeService_VolumeDefaultsTimeframe(t *testing.T) {
	env := newTestEnv(t)

	v, err := env.svc.Volume(context.Background(), "")
	if err != nil {
		t.Fatalf("Volume() failed: %v", err)
	}
	if v.Timeframe != DefaultTimeframe {
		t.Fatalf("expected %s, got %s", DefaultTimeframe, v.Timeframe)
	}

	_, err = env.svc.Volume(context.Background(), "1y")
	if !apperrors.Is(err, apperrors.CategoryDataError) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestBridgeService_ForceFail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tx := env.execute(t, "")

	_, err := env.svc.ForceFail(ctx, tx.ID, &bridge.FailRequest{})
	if !apperrors.Is(err, apperrors.CategoryDataError) {
		t.Fatalf("expected a reason to be required, got %v", err)
	}

	failed, err := env.svc.ForceFail(ctx, tx.ID, &bridge.FailRequest{Reason: "stuck in mempool"})
	if err != nil {
		t.Fatalf("ForceFail() failed: %v", err)
	}
	if failed.Status != bridge.StatusFailed || failed.ErrorMessage != "stuck in mempool" {
		t.Fatalf("unexpected transaction %+v", failed)
	}

	_, err = env.svc.ForceFail(ctx, "missing", &bridge.FailRequest{Reason: "x"})
	if !apperrors.Is(err, apperrors.CategoryResourceNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBridgeService_SupportedChainsAndRoutes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	chains, err := env.svc.SupportedChains(ctx)
	if err != nil {
		t.Fatalf("SupportedChains() failed: %v", err)
	}
	if len(chains) != 2 {
		t.Fatalf("expected 2 chains, got %d", len(chains))
	}

	routes, err := env.svc.Routes(ctx, testSource, testTarget)
	if err != nil {
		t.Fatalf("Routes() failed: %v", err)
	}
	if len(routes) == 0 {
		t.Fatal("expected at least one route")
	}

	_, err = env.svc.Routes(ctx, testSource, testSource)
	if !apperrors.Is(err, apperrors.CategoryDataError) {
		t.Fatalf("expected bad request for a same-chain route, got %v", err)
	}
}

func TestBridgeService_MessageNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.GetMessage(context.Background(), "missing")
	if !apperrors.Is(err, apperrors.CategoryResourceNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		err  error
		want apperrors.Category
	}{
		{bridge.ErrTransactionNotFound, apperrors.CategoryResourceNotFound},
		{bridge.ErrMessageNotFound, apperrors.CategoryResourceNotFound},
		{fmt.Errorf("%w: expired at noon", bridge.ErrQuoteExpired), apperrors.CategoryGone},
		{bridge.ErrAttestationTimedOut, apperrors.CategoryGone},
		{bridge.ErrNotSender, apperrors.CategoryForbidden},
		{bridge.ErrUnknownValidator, apperrors.CategoryForbidden},
		{bridge.ErrInvalidSignature, apperrors.CategoryUnauthorized},
		{bridge.ErrIdempotencyConflict, apperrors.CategoryDataConflict},
		{bridge.ErrDuplicateSignature, apperrors.CategoryDataConflict},
		{bridge.ErrCancelNotAllowed, apperrors.CategoryDataConflict},
		{bridge.ErrNoRouteAvailable, apperrors.CategoryDataError},
		{bridge.ErrInvalidAmount, apperrors.CategoryDataError},
		{bridge.ErrInvalidCursor, apperrors.CategoryDataError},
		{errors.New("pq: connection reset"), apperrors.CategoryGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			got := mapError(tt.err, "operation failed")
			if !apperrors.Is(got, tt.want) {
				t.Fatalf("expected %s, got %v", tt.want, got)
			}
		})
	}
}
