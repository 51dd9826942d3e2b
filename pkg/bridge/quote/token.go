package quote

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/hkdf"

	"github.com/scryptex/bridge-middleware/pkg/bridge"
)

const (
	tokenPrefix = "qt"
	tokenInfo   = "bridge-quote-token-v1"
	macBytes    = 16
)

type signer struct {
	key []byte
}

// newSigner derives the MAC key from secret. An empty secret yields a random
// key, so quotes are only redeemable on the process that issued them.
func newSigner(secret string) (*signer, bool, error) {
	key := make([]byte, 32)
	if secret == "" {
		if _, err := rand.Read(key); err != nil {
			return nil, false, fmt.Errorf("generate quote key: %w", err)
		}
		return &signer{key: key}, true, nil
	}
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(tokenInfo)), key); err != nil {
		return nil, false, fmt.Errorf("derive quote key: %w", err)
	}
	return &signer{key: key}, false, nil
}

func (s *signer) mac(fingerprint string, best bridge.Route, toAmount string, expires int64) []byte {
	var b strings.Builder
	b.WriteString(fingerprint)
	b.WriteByte('|')
	b.WriteString(best.Fee.String())
	b.WriteByte('|')
	b.WriteString(toAmount)
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(best.EstimatedTime, 10))
	b.WriteByte('|')
	for i, h := range best.Hops {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatUint(h, 10))
	}
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(expires, 10))

	m := hmac.New(sha256.New, s.key)
	m.Write([]byte(b.String()))
	return m.Sum(nil)[:macBytes]
}

func (s *signer) token(fingerprint string, best bridge.Route, toAmount string, expiresAt time.Time) string {
	expires := expiresAt.Unix()
	return fmt.Sprintf("%s_%s_%d", tokenPrefix, hex.EncodeToString(s.mac(fingerprint, best, toAmount, expires)), expires)
}

// parseToken splits a quote id into its MAC and expiry.
func parseToken(id string) ([]byte, time.Time, error) {
	parts := strings.Split(id, "_")
	if len(parts) != 3 || parts[0] != tokenPrefix {
		return nil, time.Time{}, fmt.Errorf("%w: malformed quote id", bridge.ErrQuoteMismatch)
	}
	sum, err := hex.DecodeString(parts[1])
	if err != nil || len(sum) != macBytes {
		return nil, time.Time{}, fmt.Errorf("%w: malformed quote id", bridge.ErrQuoteMismatch)
	}
	expires, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: malformed quote id", bridge.ErrQuoteMismatch)
	}
	return sum, time.Unix(expires, 0).UTC(), nil
}
