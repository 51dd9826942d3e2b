//go:build ignore

// This script drives one transfer through a running bridge server: it requests a
// quote, executes it and follows the status until the transfer settles or fails.
// With -cancel it cancels the transfer right after execution instead.
// Run with: SENDER_PRIVATE_KEY=... go run scripts/bridge/bridge-activity.go -from 11155931 -to 11124 -amount 0.05

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
	"github.com/shopspring/decimal"

	"github.com/scryptex/bridge-middleware/pkg/auth"
	"github.com/scryptex/bridge-middleware/pkg/bridge"
)

type statusView struct {
	bridge.Transaction
	Progress    int    `json:"progress"`
	CurrentStep string `json:"currentStep"`
}

func main() {
	apiURL := flag.String("api", "http://localhost:8080", "Bridge server base URL")
	from := flag.Uint64("from", 11155931, "Source chain id")
	to := flag.Uint64("to", 11124, "Target chain id")
	token := flag.String("token", "ETH", "Token symbol or address")
	amount := flag.String("amount", "0.01", "Amount to bridge")
	recipient := flag.String("recipient", "", "Recipient address, defaults to the sender")
	sourceTx := flag.String("source-tx", "", "Source lock tx hash when locking yourself")
	cancel := flag.Bool("cancel", false, "Cancel the transfer after executing it")
	timeout := flag.Duration("timeout", 15*time.Minute, "How long to follow the status")
	flag.Parse()

	_ = godotenv.Load()

	key, err := crypto.HexToECDSA(strings.TrimPrefix(os.Getenv("SENDER_PRIVATE_KEY"), "0x"))
	if err != nil {
		fail("invalid SENDER_PRIVATE_KEY: %v", err)
	}
	sender := crypto.PubkeyToAddress(key.PublicKey).Hex()
	if *recipient == "" {
		*recipient = sender
	}
	value, err := decimal.NewFromString(*amount)
	if err != nil {
		fail("invalid amount: %v", err)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	req := bridge.Request{
		FromChain: *from,
		ToChain:   *to,
		FromToken: *token,
		ToToken:   *token,
		Amount:    value,
		Sender:    sender,
		Recipient: *recipient,
	}

	var quote bridge.Quote
	if _, err := call(client, http.MethodPost, *apiURL+"/bridge/quote", req, &quote); err != nil {
		fail("quote: %v", err)
	}
	fmt.Printf("Quote %s: receive %s, fee %s, ~%ds, expires %s\n",
		quote.ID, quote.ToAmount, quote.EstimatedFee, quote.EstimatedTime, quote.ExpiresAt.Format(time.RFC3339))

	var tx bridge.Transaction
	exec := bridge.ExecuteRequest{QuoteID: quote.ID, Request: req, SourceTxHash: *sourceTx}
	code, err := call(client, http.MethodPost, *apiURL+"/bridge/execute", exec, &tx)
	if err != nil {
		fail("execute: %v", err)
	}
	fmt.Printf("Transaction %s accepted (HTTP %d), deadline %s\n", tx.ID, code, tx.Deadline.Format(time.RFC3339))

	if *cancel {
		sig, err := auth.SignEIP191(key, bridge.CancelMessage(tx.ID))
		if err != nil {
			fail("sign cancel: %v", err)
		}
		if _, err := call(client, http.MethodPost, *apiURL+"/bridge/cancel/"+tx.ID, bridge.CancelRequest{Signature: sig}, &tx); err != nil {
			fail("cancel: %v", err)
		}
		fmt.Printf("Cancelled: %s (%s)\n", tx.Status, tx.ErrorMessage)
		return
	}

	deadline := time.Now().Add(*timeout)
	last := ""
	for time.Now().Before(deadline) {
		var view statusView
		if _, err := call(client, http.MethodGet, *apiURL+"/bridge/status/"+tx.ID, nil, &view); err != nil {
			fail("status: %v", err)
		}
		if step := string(view.Status) + "/" + view.CurrentStep; step != last {
			fmt.Printf("[%s] %-18s %3d%%  %s\n", time.Now().Format("15:04:05"), view.Status, view.Progress, view.CurrentStep)
			last = step
		}
		if view.Status.IsTerminal() {
			if view.Status == bridge.StatusFailed {
				fail("transfer failed: %s", view.ErrorMessage)
			}
			fmt.Printf("Settled: source %s, target %s\n", view.SourceTxHash, view.TargetTxHash)
			return
		}
		time.Sleep(3 * time.Second)
	}
	fail("gave up after %s", *timeout)
}

func call(client *http.Client, method, url string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}
	return resp.StatusCode, json.Unmarshal(raw, out)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
