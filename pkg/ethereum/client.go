// Package ethereum is the per-chain EVM client used to lock, release and observe transfers.
package ethereum

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/scryptex/bridge-middleware/internal/metrics"
	"github.com/scryptex/bridge-middleware/pkg/bridge"
	"github.com/scryptex/bridge-middleware/pkg/bridge/attestation"
	"github.com/scryptex/bridge-middleware/pkg/chain"
	"github.com/scryptex/bridge-middleware/pkg/config"
	"github.com/scryptex/bridge-middleware/pkg/ethereum/contracts"
)

var (
	// ErrTxNotFound means the node has no receipt for the hash yet.
	ErrTxNotFound = errors.New("transaction not found")
	// ErrTxReverted means the transaction was mined with a failed status.
	ErrTxReverted = errors.New("transaction reverted")
	// ErrNoBridgeContract means the chain has no bridge contract configured.
	ErrNoBridgeContract = errors.New("no bridge contract configured")
	// ErrReleaseNotFound means no BridgeCompleted log was found for a released transfer.
	ErrReleaseNotFound = errors.New("release log not found")
)

const (
	defaultRPCTimeout = 20 * time.Second
	// releaseLogWindow bounds the block range searched for a release log.
	releaseLogWindow = 10_000
)

// Backend is the JSON-RPC surface the client needs. *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	BlockNumber(ctx context.Context) (uint64, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Client talks to one chain through a circuit breaker.
type Client struct {
	chain       chain.Chain
	backend     Backend
	privateKey  *ecdsa.PrivateKey
	address     common.Address
	gasLimit    uint64
	maxGasPrice *big.Int
	timeout     time.Duration
	logger      *zap.Logger

	bridge  *contracts.Bridge
	breaker *gobreaker.CircuitBreaker
}

// Dial connects to the chain's RPC endpoint.
func Dial(c chain.Chain, cfg *config.RelayerConfig, logger *zap.Logger) (*Client, error) {
	rpc, err := ethclient.Dial(c.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s RPC: %w", c.Name, err)
	}
	client, err := NewClient(c, rpc, cfg, logger)
	if err != nil {
		rpc.Close()
		return nil, err
	}
	return client, nil
}

// NewClient wraps an existing backend.
func NewClient(c chain.Chain, backend Backend, cfg *config.RelayerConfig, logger *zap.Logger) (*Client, error) {
	logger = logger.With(zap.Uint64("chain_id", c.ID), zap.String("chain", c.Name))

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to load private key: %w", err)
	}

	client := &Client{
		chain:      c,
		backend:    backend,
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
		gasLimit:   cfg.GasLimit,
		timeout:    cfg.RPCTimeout,
		logger:     logger,
	}
	if c.GasLimit > 0 {
		client.gasLimit = c.GasLimit
	}
	if client.timeout <= 0 {
		client.timeout = defaultRPCTimeout
	}
	if cfg.MaxGasPrice != "" {
		maxGasPrice, ok := new(big.Int).SetString(cfg.MaxGasPrice, 10)
		if !ok {
			return nil, fmt.Errorf("invalid max gas price %q", cfg.MaxGasPrice)
		}
		client.maxGasPrice = maxGasPrice
	}

	if c.Contracts.Bridge != "" {
		client.bridge, err = contracts.NewBridge(common.HexToAddress(c.Contracts.Bridge), backend)
		if err != nil {
			return nil, fmt.Errorf("failed to load bridge contract: %w", err)
		}
	}

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	client.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        fmt.Sprintf("chain-%d", c.ID),
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerOpenDelay,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrTxNotFound) || errors.Is(err, ErrTxReverted) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Chain circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	logger.Info("Connected to chain",
		zap.String("rpc_url", c.RPCURL),
		zap.String("bridge_contract", c.Contracts.Bridge),
		zap.String("relayer_address", client.address.Hex()))

	return client, nil
}

// ChainID returns the id of the chain this client talks to.
func (c *Client) ChainID() uint64 {
	return c.chain.ID
}

// Address returns the relayer account.
func (c *Client) Address() common.Address {
	return c.address
}

// Close releases the underlying connection.
func (c *Client) Close() {
	if closer, ok := c.backend.(interface{ Close() }); ok {
		closer.Close()
	}
}

// do runs fn under the breaker with the RPC timeout applied.
func do[T any](ctx context.Context, c *Client, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out.(T), nil
}

// GetTransactor returns a transaction signer with nonce, gas limit and capped gas price set.
func (c *Client) GetTransactor(ctx context.Context) (*bind.TransactOpts, error) {
	auth, err := bind.NewKeyedTransactorWithChainID(c.privateKey, new(big.Int).SetUint64(c.chain.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}

	nonce, err := c.backend.PendingNonceAt(ctx, c.address)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}
	auth.Nonce = new(big.Int).SetUint64(nonce)
	auth.GasLimit = c.gasLimit
	auth.Context = ctx

	if c.maxGasPrice != nil {
		gasPrice, err := c.backend.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to suggest gas price: %w", err)
		}
		if gasPrice.Cmp(c.maxGasPrice) > 0 {
			c.logger.Warn("Suggested gas price exceeds maximum",
				zap.String("suggested", gasPrice.String()),
				zap.String("max", c.maxGasPrice.String()))
			gasPrice = new(big.Int).Set(c.maxGasPrice)
		}
		auth.GasPrice = gasPrice
	}

	return auth, nil
}

// LatestBlock returns the current head block number.
func (c *Client) LatestBlock(ctx context.Context) (uint64, error) {
	block, err := do(ctx, c, func(ctx context.Context) (uint64, error) {
		return c.backend.BlockNumber(ctx)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block: %w", err)
	}
	metrics.LatestObservedBlock.WithLabelValues(c.chain.Name).Set(float64(block))
	return block, nil
}

// Confirmations returns how many blocks include txHash, counting its own block.
func (c *Client) Confirmations(ctx context.Context, txHash string) (uint64, error) {
	if !isTxHash(txHash) {
		return 0, fmt.Errorf("%w: malformed hash %q", ErrTxNotFound, txHash)
	}

	receipt, err := do(ctx, c, func(ctx context.Context) (*types.Receipt, error) {
		r, err := c.backend.TransactionReceipt(ctx, common.HexToHash(txHash))
		if errors.Is(err, geth.NotFound) {
			return nil, ErrTxNotFound
		}
		return r, err
	})
	if err != nil {
		return 0, err
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return 0, fmt.Errorf("%w: %s in block %d", ErrTxReverted, txHash, receipt.BlockNumber.Uint64())
	}

	latest, err := c.LatestBlock(ctx)
	if err != nil {
		return 0, err
	}
	mined := receipt.BlockNumber.Uint64()
	if latest < mined {
		return 0, nil
	}
	return latest - mined + 1, nil
}

// LockSource submits the source leg of tx from the relayer account.
func (c *Client) LockSource(ctx context.Context, tx *bridge.Transaction) (string, error) {
	if c.bridge == nil {
		return "", fmt.Errorf("%w on chain %d", ErrNoBridgeContract, c.chain.ID)
	}
	token := tokenAddress(tx.Request.FromToken)
	amount := tx.Request.Amount.Shift(attestation.AmountDecimals).BigInt()

	c.logger.Info("Submitting source lock",
		zap.String("transaction_id", tx.ID),
		zap.String("token", token.Hex()),
		zap.String("amount", tx.Request.Amount.String()),
		zap.Uint64("target_chain", tx.Request.ToChain))

	hash, err := do(ctx, c, func(ctx context.Context) (string, error) {
		auth, err := c.GetTransactor(ctx)
		if err != nil {
			return "", err
		}
		if token == (common.Address{}) {
			auth.Value = amount
		}
		sent, err := c.bridge.BridgeTokens(auth, new(big.Int).SetUint64(tx.Request.ToChain), token, amount,
			common.HexToAddress(tx.Request.Recipient))
		if err != nil {
			return "", err
		}
		return sent.Hash().Hex(), nil
	})
	if err != nil {
		metrics.TransactionsSent.WithLabelValues(c.chain.Name, "failed").Inc()
		return "", fmt.Errorf("failed to submit lock transaction: %w", err)
	}

	metrics.TransactionsSent.WithLabelValues(c.chain.Name, "submitted").Inc()
	c.logger.Info("Source lock submitted", zap.String("transaction_id", tx.ID), zap.String("tx_hash", hash))
	return hash, nil
}

// Released reports whether the transfer was already paid out on this chain.
func (c *Client) Released(ctx context.Context, transactionID string) (bool, error) {
	if c.bridge == nil {
		return false, fmt.Errorf("%w on chain %d", ErrNoBridgeContract, c.chain.ID)
	}
	return do(ctx, c, func(ctx context.Context) (bool, error) {
		return c.bridge.ProcessedTransfers(&bind.CallOpts{Context: ctx}, attestation.TransferID(transactionID))
	})
}

// ReleaseTxHash returns the hash of the transaction that released transactionID on this
// chain, searching the BridgeCompleted logs of the last releaseLogWindow blocks.
func (c *Client) ReleaseTxHash(ctx context.Context, transactionID string) (string, error) {
	if c.bridge == nil {
		return "", fmt.Errorf("%w on chain %d", ErrNoBridgeContract, c.chain.ID)
	}
	latest, err := c.LatestBlock(ctx)
	if err != nil {
		return "", err
	}
	var start uint64
	if latest > releaseLogWindow {
		start = latest - releaseLogWindow
	}

	logs, err := do(ctx, c, func(ctx context.Context) ([]types.Log, error) {
		return c.bridge.FilterBridgeCompleted(&bind.FilterOpts{Start: start, End: &latest, Context: ctx},
			attestation.TransferID(transactionID))
	})
	if err != nil {
		return "", fmt.Errorf("failed to filter release logs: %w", err)
	}
	for i := len(logs) - 1; i >= 0; i-- {
		if !logs[i].Removed {
			return logs[i].TxHash.Hex(), nil
		}
	}
	return "", fmt.Errorf("%w: transfer %s in blocks %d-%d", ErrReleaseNotFound, transactionID, start, latest)
}

// Release submits the target leg of tx carrying the quorum signatures of msg.
func (c *Client) Release(ctx context.Context, tx *bridge.Transaction, msg *bridge.Message) (string, error) {
	if c.bridge == nil {
		return "", fmt.Errorf("%w on chain %d", ErrNoBridgeContract, c.chain.ID)
	}
	if msg.Status != bridge.MessageExecuted {
		return "", fmt.Errorf("message %s is %s, not executed", msg.ID, msg.Status)
	}

	signatures := make([][]byte, 0, len(msg.Signatures))
	for _, s := range msg.Signatures {
		raw, err := decodeSignature(s.Signature)
		if err != nil {
			return "", fmt.Errorf("signature from %s: %w", s.Validator, err)
		}
		signatures = append(signatures, raw)
	}
	amount := tx.AmountOut.Shift(attestation.AmountDecimals).BigInt()

	c.logger.Info("Submitting release",
		zap.String("transaction_id", tx.ID),
		zap.String("message_id", msg.ID),
		zap.String("recipient", tx.Request.Recipient),
		zap.String("amount", tx.AmountOut.String()),
		zap.Int("signatures", len(signatures)))

	hash, err := do(ctx, c, func(ctx context.Context) (string, error) {
		auth, err := c.GetTransactor(ctx)
		if err != nil {
			return "", err
		}
		sent, err := c.bridge.ReleaseTokens(auth,
			attestation.TransferID(tx.ID),
			tokenAddress(tx.Request.ToToken),
			common.HexToAddress(tx.Request.Recipient),
			amount,
			new(big.Int).SetUint64(tx.Request.FromChain),
			signatures)
		if err != nil {
			return "", err
		}
		return sent.Hash().Hex(), nil
	})
	if err != nil {
		metrics.TransactionsSent.WithLabelValues(c.chain.Name, "failed").Inc()
		return "", fmt.Errorf("failed to submit release transaction: %w", err)
	}

	metrics.TransactionsSent.WithLabelValues(c.chain.Name, "submitted").Inc()
	c.logger.Info("Release submitted", zap.String("transaction_id", tx.ID), zap.String("tx_hash", hash))
	return hash, nil
}

// tokenAddress maps a token field to its contract address; symbols map to the native currency.
func tokenAddress(token string) common.Address {
	if common.IsHexAddress(token) {
		return common.HexToAddress(token)
	}
	return common.Address{}
}

func isTxHash(s string) bool {
	b, err := hexutil.Decode(s)
	return err == nil && len(b) == common.HashLength
}

func decodeSignature(sig string) ([]byte, error) {
	raw := common.FromHex(sig)
	if len(raw) != crypto.SignatureLength {
		return nil, fmt.Errorf("expected %d byte signature, got %d", crypto.SignatureLength, len(raw))
	}
	return raw, nil
}
