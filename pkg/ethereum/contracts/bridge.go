// Package contracts holds the Go bindings for the bridge contract deployed on every chain.
package contracts

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// BridgeABI is the input ABI used to bind the bridge contract.
const BridgeABI = `[
  {"type":"function","name":"bridgeTokens","stateMutability":"payable",
   "inputs":[{"name":"targetChain","type":"uint256"},{"name":"token","type":"address"},{"name":"amount","type":"uint256"},{"name":"recipient","type":"address"}],
   "outputs":[]},
  {"type":"function","name":"releaseTokens","stateMutability":"nonpayable",
   "inputs":[{"name":"transferId","type":"bytes32"},{"name":"token","type":"address"},{"name":"recipient","type":"address"},{"name":"amount","type":"uint256"},{"name":"sourceChain","type":"uint256"},{"name":"signatures","type":"bytes[]"}],
   "outputs":[]},
  {"type":"function","name":"getBridgeFee","stateMutability":"view",
   "inputs":[{"name":"targetChain","type":"uint256"},{"name":"token","type":"address"},{"name":"amount","type":"uint256"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"processedTransfers","stateMutability":"view",
   "inputs":[{"name":"","type":"bytes32"}],
   "outputs":[{"name":"","type":"bool"}]},
  {"type":"event","name":"BridgeCompleted","anonymous":false,
   "inputs":[{"name":"bridgeId","type":"bytes32","indexed":true},{"name":"targetTxHash","type":"bytes32","indexed":false}]}
]`

// ParsedBridgeABI returns the parsed bridge ABI.
func ParsedBridgeABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(BridgeABI))
}

// Bridge is a binding of the bridge contract at a fixed address.
type Bridge struct {
	address  common.Address
	abi      abi.ABI
	filterer bind.ContractFilterer
	contract *bind.BoundContract
}

// NewBridge binds the bridge contract at address.
func NewBridge(address common.Address, backend bind.ContractBackend) (*Bridge, error) {
	parsed, err := ParsedBridgeABI()
	if err != nil {
		return nil, fmt.Errorf("failed to parse bridge ABI: %w", err)
	}
	return &Bridge{
		address:  address,
		abi:      parsed,
		filterer: backend,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
	}, nil
}

// Address returns the bound contract address.
func (b *Bridge) Address() common.Address {
	return b.address
}

// BridgeTokens locks amount of token on this chain for recipient on targetChain.
// For the native currency token is the zero address and opts.Value must carry amount.
func (b *Bridge) BridgeTokens(opts *bind.TransactOpts, targetChain *big.Int, token common.Address, amount *big.Int, recipient common.Address) (*types.Transaction, error) {
	return b.contract.Transact(opts, "bridgeTokens", targetChain, token, amount, recipient)
}

// ReleaseTokens pays out an attested transfer on this chain.
func (b *Bridge) ReleaseTokens(opts *bind.TransactOpts, transferID [32]byte, token common.Address, recipient common.Address, amount *big.Int, sourceChain *big.Int, signatures [][]byte) (*types.Transaction, error) {
	return b.contract.Transact(opts, "releaseTokens", transferID, token, recipient, amount, sourceChain, signatures)
}

// GetBridgeFee returns the on-chain fee for a transfer to targetChain.
func (b *Bridge) GetBridgeFee(opts *bind.CallOpts, targetChain *big.Int, token common.Address, amount *big.Int) (*big.Int, error) {
	var out []interface{}
	if err := b.contract.Call(opts, &out, "getBridgeFee", targetChain, token, amount); err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// ProcessedTransfers reports whether transferID was already released on this chain.
func (b *Bridge) ProcessedTransfers(opts *bind.CallOpts, transferID [32]byte) (bool, error) {
	var out []interface{}
	if err := b.contract.Call(opts, &out, "processedTransfers", transferID); err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// FilterBridgeCompleted returns the BridgeCompleted logs of transferID within the block range of opts.
func (b *Bridge) FilterBridgeCompleted(opts *bind.FilterOpts, transferID [32]byte) ([]types.Log, error) {
	query := geth.FilterQuery{
		Addresses: []common.Address{b.address},
		Topics:    [][]common.Hash{{b.abi.Events["BridgeCompleted"].ID}, {common.Hash(transferID)}},
		FromBlock: new(big.Int).SetUint64(opts.Start),
	}
	if opts.End != nil {
		query.ToBlock = new(big.Int).SetUint64(*opts.End)
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return b.filterer.FilterLogs(ctx, query)
}
