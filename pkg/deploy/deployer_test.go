package deploy

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const simChainID = 1337

func setupSimulation(t *testing.T, balance *big.Int) (*simulated.Backend, *ecdsa.PrivateKey) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	sim := simulated.NewBackend(types.GenesisAlloc{
		crypto.PubkeyToAddress(key.PublicKey): {Balance: balance},
	})
	t.Cleanup(func() { _ = sim.Close() })
	return sim, key
}

// autoCommit mines a block every few milliseconds until the test ends.
func autoCommit(t *testing.T, sim *simulated.Backend) {
	t.Helper()
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				sim.Commit()
			}
		}
	}()
	t.Cleanup(func() {
		close(done)
		<-stopped
	})
}

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func testPlan() *Plan {
	return &Plan{
		Network:    "sim",
		ChainID:    simChainID,
		RPCURL:     "http://localhost:8545",
		MinBalance: "0.1",
		Contracts: []Contract{
			{Name: "Coordinator"},
			{Name: "Factory", Args: []string{"$deployer", "0.01 ether", "250", "$Coordinator"}},
		},
	}
}

func testArtifacts(t *testing.T) map[string]*Artifact {
	t.Helper()
	out := make(map[string]*Artifact)
	for _, name := range []string{"Coordinator", "Factory"} {
		a, err := LoadArtifact(filepath.Join("testdata", name+".json"))
		require.NoError(t, err)
		out[name] = a
	}
	return out
}

func TestDeployer_DeploysPlanInOrder(t *testing.T) {
	sim, key := setupSimulation(t, ether(10))
	autoCommit(t, sim)

	d := NewDeployer(sim.Client(), key, zap.NewNop())
	fixed := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return fixed }

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := d.Deploy(ctx, testPlan(), testArtifacts(t))
	require.NoError(t, err)

	assert.Equal(t, "sim", res.Network)
	assert.Equal(t, uint64(simChainID), res.ChainID)
	assert.Equal(t, fixed, res.Timestamp)
	assert.Equal(t, d.Address().Hex(), res.Deployer)
	assert.False(t, res.Verified)
	require.Len(t, res.Contracts, 2)
	require.Len(t, res.TransactionHashes, 2)

	gas, ok := new(big.Int).SetString(res.GasUsed, 10)
	require.True(t, ok)
	assert.Positive(t, gas.Sign())

	for name, addr := range res.Contracts {
		code, err := sim.Client().CodeAt(ctx, common.HexToAddress(addr), nil)
		require.NoError(t, err)
		assert.NotEmpty(t, code, name)
	}
	assert.NotEqual(t, res.Contracts["Coordinator"], res.Contracts["Factory"])
}

func TestDeployer_RejectsLowBalance(t *testing.T) {
	sim, key := setupSimulation(t, big.NewInt(5e16))

	d := NewDeployer(sim.Client(), key, zap.NewNop())
	res, err := d.Deploy(context.Background(), testPlan(), testArtifacts(t))

	require.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Nil(t, res)
}

func TestDeployer_RejectsWrongChain(t *testing.T) {
	sim, key := setupSimulation(t, ether(10))

	plan := testPlan()
	plan.ChainID = 11155931
	d := NewDeployer(sim.Client(), key, zap.NewNop())
	_, err := d.Deploy(context.Background(), plan, testArtifacts(t))

	require.ErrorIs(t, err, ErrChainMismatch)
}

func TestDeployer_StopsAtBadArguments(t *testing.T) {
	sim, key := setupSimulation(t, ether(10))
	autoCommit(t, sim)

	plan := testPlan()
	plan.Contracts[1].Args = []string{"$deployer", "0.01 ether", "70000", "$Coordinator"}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	d := NewDeployer(sim.Client(), key, zap.NewNop())
	res, err := d.Deploy(ctx, plan, testArtifacts(t))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "overflows uint16")
	require.NotNil(t, res)
	assert.Len(t, res.Contracts, 1, "the coordinator was deployed before the failure")
}

func TestWriteResult(t *testing.T) {
	dir := t.TempDir()
	plan := testPlan()
	plan.OutputDir = filepath.Join(dir, "deployments")

	res := &Result{
		Network:           "sim",
		ChainID:           simChainID,
		Deployer:          "0x2222222222222222222222222222222222222222",
		GasUsed:           "123456",
		Contracts:         map[string]string{"Coordinator": "0x3333333333333333333333333333333333333333"},
		TransactionHashes: map[string]string{"Coordinator": "0xabc"},
	}
	require.NoError(t, WriteResult(plan.OutputPath(), res))

	raw, err := os.ReadFile(filepath.Join(dir, "deployments", "sim.json"))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	for _, key := range []string{"network", "chainId", "timestamp", "deployer", "gasUsed", "contracts", "transactionHashes", "verified"} {
		assert.Contains(t, got, key)
	}
	assert.Equal(t, "123456", got["gasUsed"])
}
