package deploy

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrInsufficientBalance means the deployer cannot cover the plan's minimum balance.
	ErrInsufficientBalance = errors.New("insufficient deployer balance")
	// ErrChainMismatch means the RPC endpoint serves a different chain than planned.
	ErrChainMismatch = errors.New("rpc chain id does not match plan")
	// ErrDeploymentReverted means a deployment transaction was mined with a failed status.
	ErrDeploymentReverted = errors.New("deployment transaction reverted")
)

// Backend is the node surface needed to deploy. *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// Result is the record written to deployments/<network>.json.
type Result struct {
	Network           string            `json:"network"`
	ChainID           uint64            `json:"chainId"`
	Timestamp         time.Time         `json:"timestamp"`
	Deployer          string            `json:"deployer"`
	GasUsed           string            `json:"gasUsed"`
	Contracts         map[string]string `json:"contracts"`
	TransactionHashes map[string]string `json:"transactionHashes"`
	Verified          bool              `json:"verified"`
}

// Deployer deploys plans with one key.
type Deployer struct {
	backend Backend
	key     *ecdsa.PrivateKey
	address common.Address
	logger  *zap.Logger
	now     func() time.Time
}

// NewDeployer creates a deployer signing with key.
func NewDeployer(backend Backend, key *ecdsa.PrivateKey, logger *zap.Logger) *Deployer {
	return &Deployer{
		backend: backend,
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		logger:  logger,
		now:     time.Now,
	}
}

// Address returns the deployer account.
func (d *Deployer) Address() common.Address {
	return d.address
}

// Deploy runs the plan: it checks the chain id and the deployer balance, then deploys
// each contract in order and waits for it to be mined before the next one. On failure
// the returned result holds whatever was deployed so far.
func (d *Deployer) Deploy(ctx context.Context, plan *Plan, artifacts map[string]*Artifact) (*Result, error) {
	logger := d.logger.With(zap.String("network", plan.Network), zap.Uint64("chain_id", plan.ChainID))

	chainID, err := d.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}
	if chainID.Uint64() != plan.ChainID {
		return nil, fmt.Errorf("%w: rpc reports %s, plan expects %d", ErrChainMismatch, chainID, plan.ChainID)
	}

	if err := d.checkBalance(ctx, plan.MinBalance, logger); err != nil {
		return nil, err
	}

	var gasPrice *big.Int
	if plan.GasPrice != "" {
		gasPrice, err = ParseAmount(plan.GasPrice)
		if err != nil {
			return nil, fmt.Errorf("invalid gas price: %w", err)
		}
	}

	res := &Result{
		Network:           plan.Network,
		ChainID:           plan.ChainID,
		Timestamp:         d.now().UTC(),
		Deployer:          d.address.Hex(),
		GasUsed:           "0",
		Contracts:         make(map[string]string, len(plan.Contracts)),
		TransactionHashes: make(map[string]string, len(plan.Contracts)),
	}
	deployed := make(map[string]common.Address, len(plan.Contracts))
	totalGas := new(big.Int)

	for _, c := range plan.Contracts {
		artifact, ok := artifacts[c.Name]
		if !ok {
			return res, fmt.Errorf("no artifact loaded for %s", c.Name)
		}
		args, err := packArgs(artifact.ABI.Constructor, c.Args, d.address, deployed)
		if err != nil {
			return res, fmt.Errorf("%s: %w", c.Name, err)
		}

		opts, err := bind.NewKeyedTransactorWithChainID(d.key, chainID)
		if err != nil {
			return res, fmt.Errorf("failed to create transactor: %w", err)
		}
		opts.Context = ctx
		opts.GasPrice = gasPrice
		opts.GasLimit = plan.GasLimit

		logger.Info("Deploying contract", zap.String("contract", c.Name), zap.Int("args", len(args)))
		addr, tx, _, err := bind.DeployContract(opts, artifact.ABI, artifact.Bytecode, d.backend, args...)
		if err != nil {
			return res, fmt.Errorf("failed to deploy %s: %w", c.Name, err)
		}
		res.TransactionHashes[c.Name] = tx.Hash().Hex()

		receipt, err := bind.WaitMined(ctx, d.backend, tx)
		if err != nil {
			return res, fmt.Errorf("failed waiting for %s: %w", c.Name, err)
		}
		if receipt.Status != types.ReceiptStatusSuccessful {
			return res, fmt.Errorf("%w: %s in %s", ErrDeploymentReverted, c.Name, tx.Hash().Hex())
		}

		deployed[c.Name] = addr
		res.Contracts[c.Name] = addr.Hex()
		totalGas.Add(totalGas, new(big.Int).SetUint64(receipt.GasUsed))
		res.GasUsed = totalGas.String()

		logger.Info("Contract deployed",
			zap.String("contract", c.Name),
			zap.String("address", addr.Hex()),
			zap.String("tx_hash", tx.Hash().Hex()),
			zap.Uint64("gas_used", receipt.GasUsed))
	}

	logger.Info("Deployment complete",
		zap.Int("contracts", len(res.Contracts)),
		zap.String("gas_used", res.GasUsed))
	return res, nil
}

func (d *Deployer) checkBalance(ctx context.Context, minBalance string, logger *zap.Logger) error {
	balance, err := d.backend.BalanceAt(ctx, d.address, nil)
	if err != nil {
		return fmt.Errorf("failed to get deployer balance: %w", err)
	}
	ether := decimal.NewFromBigInt(balance, -18)
	logger.Info("Deployer balance",
		zap.String("deployer", d.address.Hex()),
		zap.String("balance_eth", ether.String()))

	if minBalance == "" {
		return nil
	}
	required, err := decimal.NewFromString(minBalance)
	if err != nil {
		return fmt.Errorf("invalid min balance %q: %w", minBalance, err)
	}
	if ether.LessThan(required) {
		return fmt.Errorf("%w: have %s ETH, need %s ETH", ErrInsufficientBalance, ether, required)
	}
	return nil
}

// LoadArtifacts reads the artifact of every contract in the plan.
func LoadArtifacts(plan *Plan) (map[string]*Artifact, error) {
	out := make(map[string]*Artifact, len(plan.Contracts))
	for _, c := range plan.Contracts {
		a, err := LoadArtifact(plan.ArtifactPath(c))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.Name, err)
		}
		out[c.Name] = a
	}
	return out, nil
}

// WriteResult writes res as indented JSON to path, creating parent directories.
func WriteResult(path string, res *Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	raw, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if err := os.WriteFile(path, append(raw, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}
