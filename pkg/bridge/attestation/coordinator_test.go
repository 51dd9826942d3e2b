package attestation

import (
	"context"
	"crypto/ecdsa"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scryptex/bridge-middleware/pkg/auth"
	"github.com/scryptex/bridge-middleware/pkg/bridge"
	"github.com/scryptex/bridge-middleware/pkg/bridge/quote"
	"github.com/scryptex/bridge-middleware/pkg/bridge/transfer"
	"github.com/scryptex/bridge-middleware/pkg/bridgestore"
	"github.com/scryptex/bridge-middleware/pkg/chain"
)

const (
	sourceChain = uint64(11155931)
	targetChain = uint64(11124)
)

type fixture struct {
	coord      *Coordinator
	machine    *transfer.Machine
	engine     *quote.Engine
	store      *bridgestore.MemoryStore
	keys       []*ecdsa.PrivateKey
	validators []string
	now        time.Time
	mu         sync.Mutex
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// newFixture builds a source chain attested by four validators with a quorum of three.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{now: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}
	for i := 0; i < 4; i++ {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		f.keys = append(f.keys, key)
		f.validators = append(f.validators, crypto.PubkeyToAddress(key.PublicKey).Hex())
	}

	registry, err := chain.NewRegistry([]chain.Chain{
		{ID: sourceChain, Name: "RiseChain", LegTime: 10 * time.Second, FinalityDepth: 1, Validators: f.validators, Quorum: 3},
		{ID: targetChain, Name: "Abstract", LegTime: 60 * time.Second, FinalityDepth: 1},
	}, []chain.Link{{From: sourceChain, To: targetChain}})
	require.NoError(t, err)

	f.engine, err = quote.NewEngine(registry, quote.Config{
		FeeBps:     100,
		Multiplier: decimal.RequireFromString("1.5"),
		MaxHops:    2,
		MaxAmount:  decimal.NewFromInt(1_000_000),
		TTL:        time.Minute,
		Secret:     "attestation-test",
	}, zap.NewNop(), quote.WithClock(f.clock))
	require.NoError(t, err)

	f.store = bridgestore.NewMemoryStore()
	f.machine = transfer.NewMachine(f.store, registry, f.engine, zap.NewNop(), transfer.WithClock(f.clock))
	f.coord = NewCoordinator(f.store, f.machine, registry, zap.NewNop(),
		WithClock(f.clock), WithTimeout(5*time.Minute))
	return f
}

// confirmedTransfer submits a transfer and confirms its source leg.
func (f *fixture) confirmedTransfer(t *testing.T, amount string) *bridge.Transaction {
	t.Helper()
	ctx := context.Background()
	req := &bridge.Request{
		FromChain: sourceChain,
		ToChain:   targetChain,
		FromToken: "USDC",
		ToToken:   "USDC",
		Amount:    decimal.RequireFromString(amount),
		Sender:    "0x2222222222222222222222222222222222222222",
		Recipient: "0x3333333333333333333333333333333333333333",
	}
	q, err := f.engine.GetQuote(ctx, req)
	require.NoError(t, err)
	tx, _, err := f.machine.Submit(ctx, q, req, "")
	require.NoError(t, err)
	tx, err = f.machine.Advance(ctx, tx.ID, transfer.SourceConfirmed("0xabc123", 1))
	require.NoError(t, err)
	return tx
}

func (f *fixture) sign(t *testing.T, i int, msg *bridge.Message) string {
	t.Helper()
	sig, err := auth.SignEIP191(f.keys[i], msg.Digest)
	require.NoError(t, err)
	return sig
}

func TestRequestAttestation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tx := f.confirmedTransfer(t, "100")

	msg, err := f.coord.RequestAttestation(ctx, tx.ID)
	require.NoError(t, err)
	require.Equal(t, 1, msg.Sequence)
	require.Equal(t, 3, msg.Quorum)
	require.Equal(t, bridge.MessagePending, msg.Status)
	require.Equal(t, Digest(msg.Payload), msg.Digest)
	require.True(t, f.clock().Add(5*time.Minute).Equal(msg.Deadline))

	payload, err := DecodePayload(msg.Payload)
	require.NoError(t, err)
	require.Equal(t, TransferID(tx.ID), payload.TransferID)
	require.Equal(t, sourceChain, payload.SourceChain)
	require.Equal(t, targetChain, payload.TargetChain)
	require.Equal(t, "USDC", payload.Token)
	require.Equal(t, common.HexToAddress(tx.Request.Recipient), payload.Recipient)
	require.Equal(t, tx.AmountOut.Shift(AmountDecimals).BigInt().String(), payload.Amount.String())
	require.Equal(t, common.HexToHash("0xabc123"), payload.SourceTxHash)
	require.Equal(t, uint64(1), payload.Sequence)

	current, err := f.machine.Get(ctx, tx.ID)
	require.NoError(t, err)
	require.Equal(t, bridge.StatusProcessing, current.Status)

	again, err := f.coord.RequestAttestation(ctx, tx.ID)
	require.NoError(t, err)
	require.Equal(t, msg.ID, again.ID, "processing transaction returns its open message")
}

func TestRequestAttestation_RequiresConfirmedSource(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := &bridge.Request{
		FromChain: sourceChain, ToChain: targetChain, FromToken: "USDC", ToToken: "USDC",
		Amount:    decimal.NewFromInt(10),
		Sender:    "0x2222222222222222222222222222222222222222",
		Recipient: "0x3333333333333333333333333333333333333333",
	}
	q, err := f.engine.GetQuote(ctx, req)
	require.NoError(t, err)
	tx, _, err := f.machine.Submit(ctx, q, req, "")
	require.NoError(t, err)

	_, err = f.coord.RequestAttestation(ctx, tx.ID)
	require.ErrorIs(t, err, bridge.ErrNotAttestable)

	_, err = f.coord.RequestAttestation(ctx, "missing")
	require.ErrorIs(t, err, bridge.ErrTransactionNotFound)
}

func TestSubmitSignature_ReachesQuorum(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tx := f.confirmedTransfer(t, "100")
	msg, err := f.coord.RequestAttestation(ctx, tx.ID)
	require.NoError(t, err)

	var executed []*bridge.Message
	f.coord.Subscribe(ListenerFunc(func(_ context.Context, m *bridge.Message) {
		executed = append(executed, m)
	}))

	got, err := f.coord.SubmitSignature(ctx, msg.ID, f.validators[0], f.sign(t, 0, msg))
	require.NoError(t, err)
	require.Equal(t, bridge.MessageRelayed, got.Status)

	got, err = f.coord.SubmitSignature(ctx, msg.ID, f.validators[1], f.sign(t, 1, msg))
	require.NoError(t, err)
	require.Equal(t, bridge.MessageRelayed, got.Status)
	require.Empty(t, executed)

	got, err = f.coord.SubmitSignature(ctx, msg.ID, f.validators[2], f.sign(t, 2, msg))
	require.NoError(t, err)
	require.Equal(t, bridge.MessageExecuted, got.Status)
	require.Len(t, got.Signatures, 3)
	require.Len(t, executed, 1)
	require.Equal(t, msg.ID, executed[0].ID)

	_, err = f.coord.SubmitSignature(ctx, msg.ID, f.validators[3], f.sign(t, 3, msg))
	require.ErrorIs(t, err, bridge.ErrMessageClosed)
}

func TestSubmitSignature_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tx := f.confirmedTransfer(t, "100")
	msg, err := f.coord.RequestAttestation(ctx, tx.ID)
	require.NoError(t, err)

	outsider, err := crypto.GenerateKey()
	require.NoError(t, err)
	outsiderSig, err := auth.SignEIP191(outsider, msg.Digest)
	require.NoError(t, err)
	_, err = f.coord.SubmitSignature(ctx, msg.ID, crypto.PubkeyToAddress(outsider.PublicKey).Hex(), outsiderSig)
	require.ErrorIs(t, err, bridge.ErrUnknownValidator)

	_, err = f.coord.SubmitSignature(ctx, msg.ID, f.validators[0], f.sign(t, 1, msg))
	require.ErrorIs(t, err, bridge.ErrInvalidSignature, "signature from another validator")

	_, err = f.coord.SubmitSignature(ctx, msg.ID, f.validators[0], "0x1234")
	require.ErrorIs(t, err, bridge.ErrInvalidSignature)

	_, err = f.coord.SubmitSignature(ctx, msg.ID, f.validators[0], f.sign(t, 0, msg))
	require.NoError(t, err)
	_, err = f.coord.SubmitSignature(ctx, msg.ID, f.validators[0], f.sign(t, 0, msg))
	require.ErrorIs(t, err, bridge.ErrDuplicateSignature)

	stored, err := f.coord.Get(ctx, msg.ID)
	require.NoError(t, err)
	require.Len(t, stored.Signatures, 1, "rejected signatures leave state unchanged")
	require.Equal(t, bridge.MessageRelayed, stored.Status)

	_, err = f.coord.SubmitSignature(ctx, "missing", f.validators[0], f.sign(t, 0, msg))
	require.ErrorIs(t, err, bridge.ErrMessageNotFound)
}

func TestCheckTimeouts_QuorumNotReached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tx := f.confirmedTransfer(t, "100")
	msg, err := f.coord.RequestAttestation(ctx, tx.ID)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := f.coord.SubmitSignature(ctx, msg.ID, f.validators[i], f.sign(t, i, msg))
		require.NoError(t, err)
	}

	n, err := f.coord.CheckTimeouts(ctx, f.clock())
	require.NoError(t, err)
	require.Zero(t, n, "deadline not reached yet")

	f.advance(6 * time.Minute)
	n, err = f.coord.CheckTimeouts(ctx, f.clock())
	require.NoError(t, err)
	require.Equal(t, 1, n)

	stored, err := f.coord.Get(ctx, msg.ID)
	require.NoError(t, err)
	require.Equal(t, bridge.MessageFailed, stored.Status)
	require.Equal(t, "attestation quorum not reached: 2 of 3 signatures", stored.ErrorMessage)

	current, err := f.machine.Get(ctx, tx.ID)
	require.NoError(t, err)
	require.Equal(t, bridge.StatusFailed, current.Status)
	require.Equal(t, stored.ErrorMessage, current.ErrorMessage)

	n, err = f.coord.CheckTimeouts(ctx, f.clock())
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestSubmitSignature_AfterDeadlineFailsMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tx := f.confirmedTransfer(t, "100")
	msg, err := f.coord.RequestAttestation(ctx, tx.ID)
	require.NoError(t, err)

	f.advance(6 * time.Minute)
	_, err = f.coord.SubmitSignature(ctx, msg.ID, f.validators[0], f.sign(t, 0, msg))
	require.ErrorIs(t, err, bridge.ErrAttestationTimedOut)

	stored, err := f.coord.Get(ctx, msg.ID)
	require.NoError(t, err)
	require.Equal(t, bridge.MessageFailed, stored.Status)
	require.Empty(t, stored.Signatures)

	current, err := f.machine.Get(ctx, tx.ID)
	require.NoError(t, err)
	require.Equal(t, bridge.StatusFailed, current.Status)
}

func TestSubmitSignature_Concurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tx := f.confirmedTransfer(t, "100")
	msg, err := f.coord.RequestAttestation(ctx, tx.ID)
	require.NoError(t, err)

	sigs := make([]string, len(f.keys))
	for i := range f.keys {
		sigs[i] = f.sign(t, i, msg)
	}

	var wg sync.WaitGroup
	for i := range f.keys {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = f.coord.SubmitSignature(ctx, msg.ID, f.validators[i], sigs[i])
		}(i)
	}
	wg.Wait()

	stored, err := f.coord.Get(ctx, msg.ID)
	require.NoError(t, err)
	require.Equal(t, bridge.MessageExecuted, stored.Status)
	require.Len(t, stored.Signatures, 3, "signatures after quorum are refused")
}
