//go:build ignore

// This script signs an attestation message as one validator and submits the
// signature to a running bridge server.
// Run with: VALIDATOR_PRIVATE_KEY=... go run scripts/sign-attestation.go -message <id>

package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/joho/godotenv"

	"github.com/scryptex/bridge-middleware/pkg/auth"
	"github.com/scryptex/bridge-middleware/pkg/bridge"
)

func main() {
	apiURL := flag.String("api", "http://localhost:8080", "Bridge server base URL")
	messageID := flag.String("message", "", "Attestation message id")
	flag.Parse()

	_ = godotenv.Load()

	if *messageID == "" {
		fail("-message is required")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(os.Getenv("VALIDATOR_PRIVATE_KEY"), "0x"))
	if err != nil {
		fail("invalid VALIDATOR_PRIVATE_KEY: %v", err)
	}
	validator := crypto.PubkeyToAddress(key.PublicKey).Hex()
	client := &http.Client{Timeout: 15 * time.Second}

	var msg bridge.Message
	if err := call(client, http.MethodGet, *apiURL+"/bridge/messages/"+*messageID, nil, &msg); err != nil {
		fail("fetch message: %v", err)
	}
	fmt.Printf("Message %s: %s, %d/%d signatures, deadline %s\n",
		msg.ID, msg.Status, len(msg.Signatures), msg.Quorum, msg.Deadline.Format(time.RFC3339))

	sig, err := auth.SignEIP191(key, msg.Digest)
	if err != nil {
		fail("sign digest: %v", err)
	}

	var updated bridge.Message
	req := bridge.SignatureRequest{Validator: validator, Signature: sig}
	if err := call(client, http.MethodPost, *apiURL+"/bridge/messages/"+*messageID+"/signatures", req, &updated); err != nil {
		fail("submit signature: %v", err)
	}
	fmt.Printf("Signed as %s: message is now %s with %d/%d signatures\n",
		validator, updated.Status, len(updated.Signatures), updated.Quorum)
}

func call(client *http.Client, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}
	return json.Unmarshal(raw, out)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
