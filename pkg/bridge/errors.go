package bridge

import "errors"

// Validation and quoting errors.
var (
	ErrUnsupportedChain = errors.New("unsupported chain")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrNoRouteAvailable = errors.New("no route available")
	ErrQuoteExpired     = errors.New("quote expired")
	ErrQuoteMismatch    = errors.New("quote does not match request")
	ErrInvalidRequest   = errors.New("invalid request")
)

// State machine errors.
var (
	ErrTransactionNotFound       = errors.New("transaction not found")
	ErrInvalidTransition         = errors.New("invalid status transition")
	ErrInvalidEvent              = errors.New("invalid event")
	ErrInsufficientConfirmations = errors.New("insufficient confirmations")
	ErrIdempotencyConflict       = errors.New("idempotency key reused with a different request")
	ErrCancelNotAllowed          = errors.New("cancellation is only allowed while pending")
	ErrNotSender                 = errors.New("only the sender may cancel a transfer")
	ErrStaleTransaction          = errors.New("transaction was modified concurrently")
	ErrSourceTxConflict          = errors.New("transaction already has a different source tx")
)

// Attestation errors.
var (
	ErrMessageNotFound     = errors.New("message not found")
	ErrDuplicateSignature  = errors.New("validator already signed this message")
	ErrUnknownValidator    = errors.New("validator is not in the source chain validator set")
	ErrInvalidSignature    = errors.New("signature does not recover the validator")
	ErrMessageClosed       = errors.New("message no longer accepts signatures")
	ErrAttestationTimedOut = errors.New("attestation deadline passed")
	ErrStaleMessage        = errors.New("message was modified concurrently")
	ErrNotAttestable       = errors.New("transaction is not ready for attestation")
)

// Read path errors.
var (
	ErrInvalidCursor    = errors.New("invalid cursor")
	ErrInvalidTimeframe = errors.New("invalid timeframe")
)
