package attestation

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/scryptex/bridge-middleware/pkg/bridge"
)

// AmountDecimals is the fixed-point scale of amounts inside a payload.
const AmountDecimals = 18

// Payload is the decoded body of a transfer message.
type Payload struct {
	TransferID   common.Hash
	SourceChain  uint64
	TargetChain  uint64
	Token        string
	Recipient    common.Address
	Amount       *big.Int
	SourceTxHash common.Hash
	Sequence     uint64
}

var payloadArgs = abi.Arguments{
	{Name: "transferId", Type: mustType("bytes32")},
	{Name: "sourceChain", Type: mustType("uint256")},
	{Name: "targetChain", Type: mustType("uint256")},
	{Name: "token", Type: mustType("string")},
	{Name: "recipient", Type: mustType("address")},
	{Name: "amount", Type: mustType("uint256")},
	{Name: "sourceTxHash", Type: mustType("bytes32")},
	{Name: "sequence", Type: mustType("uint256")},
}

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

// TransferID maps a transaction id to the bytes32 used on chain.
func TransferID(id string) common.Hash {
	return crypto.Keccak256Hash([]byte(id))
}

// EncodeTransfer ABI-encodes the release instruction for tx.
func EncodeTransfer(tx *bridge.Transaction, sequence int) ([]byte, error) {
	if tx.AmountOut.IsNegative() {
		return nil, fmt.Errorf("negative amount out %s", tx.AmountOut)
	}
	amount := tx.AmountOut.Shift(AmountDecimals).BigInt()
	return payloadArgs.Pack(
		[32]byte(TransferID(tx.ID)),
		new(big.Int).SetUint64(tx.Request.FromChain),
		new(big.Int).SetUint64(tx.Request.ToChain),
		tx.Request.ToToken,
		common.HexToAddress(tx.Request.Recipient),
		amount,
		[32]byte(common.HexToHash(tx.SourceTxHash)),
		big.NewInt(int64(sequence)),
	)
}

// Digest is the hex keccak256 of payload that validators sign.
func Digest(payload []byte) string {
	return crypto.Keccak256Hash(payload).Hex()
}

// DecodePayload reverses EncodeTransfer.
func DecodePayload(data []byte) (*Payload, error) {
	values, err := payloadArgs.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack payload: %w", err)
	}
	if len(values) != len(payloadArgs) {
		return nil, fmt.Errorf("unexpected payload arity %d", len(values))
	}

	transferID, ok1 := values[0].([32]byte)
	source, ok2 := values[1].(*big.Int)
	target, ok3 := values[2].(*big.Int)
	token, ok4 := values[3].(string)
	recipient, ok5 := values[4].(common.Address)
	amount, ok6 := values[5].(*big.Int)
	sourceTx, ok7 := values[6].([32]byte)
	sequence, ok8 := values[7].(*big.Int)
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6 && ok7 && ok8) {
		return nil, fmt.Errorf("payload has unexpected field types")
	}

	return &Payload{
		TransferID:   common.Hash(transferID),
		SourceChain:  source.Uint64(),
		TargetChain:  target.Uint64(),
		Token:        token,
		Recipient:    recipient,
		Amount:       amount,
		SourceTxHash: common.Hash(sourceTx),
		Sequence:     sequence.Uint64(),
	}, nil
}
