package deploy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrEmptyBytecode is returned for artifacts of interfaces or abstract contracts.
var ErrEmptyBytecode = errors.New("artifact has no deployable bytecode")

// Artifact is the subset of a Hardhat compilation artifact needed to deploy.
type Artifact struct {
	ContractName string
	ABI          abi.ABI
	Bytecode     []byte
}

type hardhatArtifact struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     string          `json:"bytecode"`
}

// LoadArtifact reads a Hardhat artifact file.
func LoadArtifact(path string) (*Artifact, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	return ParseArtifact(raw)
}

// ParseArtifact decodes Hardhat artifact JSON.
func ParseArtifact(raw []byte) (*Artifact, error) {
	var hh hardhatArtifact
	if err := json.Unmarshal(raw, &hh); err != nil {
		return nil, fmt.Errorf("invalid artifact JSON: %w", err)
	}

	parsed, err := abi.JSON(bytes.NewReader(hh.ABI))
	if err != nil {
		return nil, fmt.Errorf("invalid artifact ABI: %w", err)
	}

	if hh.Bytecode == "" || hh.Bytecode == "0x" {
		return nil, fmt.Errorf("%s: %w", hh.ContractName, ErrEmptyBytecode)
	}
	code, err := hexutil.Decode(hh.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("invalid artifact bytecode: %w", err)
	}

	return &Artifact{ContractName: hh.ContractName, ABI: parsed, Bytecode: code}, nil
}
