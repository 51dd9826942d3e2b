package bridge

import (
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Fingerprint returns a stable hash over every pricing relevant request field.
// The caller supplied ID is excluded so that re-sent requests match.
func (r *Request) Fingerprint() string {
	var b strings.Builder
	b.WriteString(strconv.FormatUint(r.FromChain, 10))
	b.WriteByte('|')
	b.WriteString(strconv.FormatUint(r.ToChain, 10))
	b.WriteByte('|')
	b.WriteString(strings.ToLower(r.FromToken))
	b.WriteByte('|')
	b.WriteString(strings.ToLower(r.ToToken))
	b.WriteByte('|')
	b.WriteString(r.Amount.String())
	b.WriteByte('|')
	b.WriteString(NormalizeAddress(r.Sender))
	b.WriteByte('|')
	b.WriteString(NormalizeAddress(r.Recipient))
	b.WriteByte('|')
	if r.Deadline != nil {
		b.WriteString(strconv.FormatInt(r.Deadline.Unix(), 10))
	}
	b.WriteByte('|')
	if r.MinReceived != nil {
		b.WriteString(r.MinReceived.String())
	}
	return crypto.Keccak256Hash([]byte(b.String())).Hex()
}

// NormalizeAddress returns the checksummed form of an EVM address.
func NormalizeAddress(address string) string {
	return common.HexToAddress(address).Hex()
}

// SameAddress compares two EVM addresses case-insensitively.
func SameAddress(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
