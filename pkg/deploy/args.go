package deploy

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
)

const deployerRef = "deployer"

var units = map[string]int32{
	"wei":   0,
	"gwei":  9,
	"ether": 18,
}

// reference returns the name behind a "$name" argument.
func reference(arg string) (string, bool) {
	if !strings.HasPrefix(arg, "$") || len(arg) < 2 {
		return "", false
	}
	return arg[1:], true
}

// ParseAmount parses "<decimal> [wei|gwei|ether]" into wei. A bare number is wei.
func ParseAmount(s string) (*big.Int, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 || len(fields) > 2 {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	shift := int32(0)
	if len(fields) == 2 {
		var ok bool
		shift, ok = units[strings.ToLower(fields[1])]
		if !ok {
			return nil, fmt.Errorf("unknown unit %q", fields[1])
		}
	}
	d, err := decimal.NewFromString(fields[0])
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	wei := d.Shift(shift)
	if !wei.Equal(wei.Truncate(0)) {
		return nil, fmt.Errorf("amount %q is not a whole number of wei", s)
	}
	return wei.BigInt(), nil
}

// packArgs converts plan arguments into the Go values the constructor ABI expects.
func packArgs(constructor abi.Method, raw []string, deployer common.Address, deployed map[string]common.Address) ([]any, error) {
	if len(raw) != len(constructor.Inputs) {
		return nil, fmt.Errorf("constructor takes %d arguments, plan has %d", len(constructor.Inputs), len(raw))
	}
	out := make([]any, len(raw))
	for i, input := range constructor.Inputs {
		arg := raw[i]
		if ref, ok := reference(arg); ok {
			addr, err := resolve(ref, deployer, deployed)
			if err != nil {
				return nil, err
			}
			arg = addr.Hex()
		}
		v, err := convert(input.Type, arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d (%s %s): %w", i, input.Type.String(), input.Name, err)
		}
		out[i] = v
	}
	return out, nil
}

func resolve(ref string, deployer common.Address, deployed map[string]common.Address) (common.Address, error) {
	if ref == deployerRef {
		return deployer, nil
	}
	addr, ok := deployed[ref]
	if !ok {
		return common.Address{}, fmt.Errorf("unknown contract reference $%s", ref)
	}
	return addr, nil
}

func convert(t abi.Type, arg string) (any, error) {
	switch t.T {
	case abi.AddressTy:
		if !common.IsHexAddress(arg) {
			return nil, fmt.Errorf("invalid address %q", arg)
		}
		return common.HexToAddress(arg), nil

	case abi.UintTy, abi.IntTy:
		n, err := ParseAmount(arg)
		if err != nil {
			return nil, err
		}
		return sizedInt(t, n)

	case abi.BoolTy:
		return strconv.ParseBool(arg)

	case abi.StringTy:
		return arg, nil

	case abi.BytesTy:
		return hexutil.Decode(arg)

	case abi.FixedBytesTy:
		b, err := hexutil.Decode(arg)
		if err != nil {
			return nil, err
		}
		if len(b) != t.Size {
			return nil, fmt.Errorf("expected %d bytes, got %d", t.Size, len(b))
		}
		v := reflect.New(t.GetType()).Elem()
		reflect.Copy(v, reflect.ValueOf(b))
		return v.Interface(), nil
	}
	return nil, fmt.Errorf("unsupported constructor argument type %s", t.String())
}

// sizedInt returns n as the exact Go type go-ethereum packs for t: uint8..uint64 and
// int8..int64 for small sizes, *big.Int otherwise.
func sizedInt(t abi.Type, n *big.Int) (any, error) {
	if t.T == abi.UintTy && n.Sign() < 0 {
		return nil, fmt.Errorf("negative value for %s", t.String())
	}
	limit := t.Size
	if t.T == abi.IntTy {
		limit--
	}
	if n.BitLen() > limit {
		return nil, fmt.Errorf("value %s overflows %s", n, t.String())
	}

	goType := t.GetType()
	if goType == reflect.TypeOf(&big.Int{}) {
		return n, nil
	}
	v := reflect.New(goType).Elem()
	if t.T == abi.UintTy {
		v.SetUint(n.Uint64())
	} else {
		v.SetInt(n.Int64())
	}
	return v.Interface(), nil
}
