// Package bridge holds the domain model shared by the quote engine, the transfer
// state machine, the attestation coordinator and the read API.
package bridge

import (
	"time"

	"github.com/shopspring/decimal"
)

// Request is the caller's transfer intent.
type Request struct {
	ID          string           `json:"id,omitempty"`
	FromChain   uint64           `json:"fromChain" validate:"required"`
	ToChain     uint64           `json:"toChain" validate:"required"`
	FromToken   string           `json:"fromToken" validate:"required,max=128"`
	ToToken     string           `json:"toToken" validate:"required,max=128"`
	Amount      decimal.Decimal  `json:"amount"`
	Sender      string           `json:"sender" validate:"required,eth_addr"`
	Recipient   string           `json:"recipient" validate:"required,eth_addr"`
	Deadline    *time.Time       `json:"deadline,omitempty"`
	MinReceived *decimal.Decimal `json:"minReceived,omitempty"`
}

// Route is one candidate path between the source and target chain.
type Route struct {
	Hops          []uint64        `json:"hops"`
	Protocol      string          `json:"protocol"`
	Fee           decimal.Decimal `json:"fee"`
	EstimatedTime int64           `json:"estimatedTime"`
}

// HopCount is the number of bridge legs on the route.
func (r Route) HopCount() int {
	if len(r.Hops) < 2 {
		return 0
	}
	return len(r.Hops) - 1
}

// Quote is a priced, time-bounded offer for a Request.
type Quote struct {
	ID            string          `json:"id"`
	RequestID     string          `json:"requestId,omitempty"`
	FromChain     uint64          `json:"fromChain"`
	ToChain       uint64          `json:"toChain"`
	FromToken     string          `json:"fromToken"`
	ToToken       string          `json:"toToken"`
	FromAmount    decimal.Decimal `json:"fromAmount"`
	ToAmount      decimal.Decimal `json:"toAmount"`
	EstimatedFee  decimal.Decimal `json:"estimatedFee"`
	EstimatedTime int64           `json:"estimatedTime"`
	PriceImpact   decimal.Decimal `json:"priceImpact"`
	Routes        []Route         `json:"routes"`
	IssuedAt      time.Time       `json:"issuedAt"`
	ExpiresAt     time.Time       `json:"expiresAt"`
}

// EstimatedDuration returns EstimatedTime as a duration.
func (q *Quote) EstimatedDuration() time.Duration {
	return time.Duration(q.EstimatedTime) * time.Second
}

// Expired reports whether the quote can no longer be executed at now.
func (q *Quote) Expired(now time.Time) bool {
	return !now.Before(q.ExpiresAt)
}

// Transaction is the durable record of an accepted transfer.
type Transaction struct {
	ID             string          `json:"id"`
	IdempotencyKey string          `json:"idempotencyKey"`
	QuoteID        string          `json:"quoteId"`
	RequestHash    string          `json:"-"`
	Request        Request         `json:"request"`
	Status         Status          `json:"status"`
	SourceTxHash   string          `json:"sourceTxHash,omitempty"`
	TargetTxHash   string          `json:"targetTxHash,omitempty"`
	Fee            decimal.Decimal `json:"fee"`
	AmountOut      decimal.Decimal `json:"amountOut"`
	Route          []uint64        `json:"route"`
	EstimatedTime  int64           `json:"estimatedTime"`
	Deadline       time.Time       `json:"deadline"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	CompletedAt    *time.Time      `json:"completedAt,omitempty"`
	ErrorMessage   string          `json:"errorMessage,omitempty"`
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	c := *t
	c.Route = append([]uint64(nil), t.Route...)
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	if t.Request.Deadline != nil {
		d := *t.Request.Deadline
		c.Request.Deadline = &d
	}
	if t.Request.MinReceived != nil {
		m := *t.Request.MinReceived
		c.Request.MinReceived = &m
	}
	return &c
}

// Involves reports whether address is the sender or recipient of the transfer.
func (t *Transaction) Involves(address string) bool {
	return SameAddress(t.Request.Sender, address) || SameAddress(t.Request.Recipient, address)
}

// MessageType identifies what a cross-chain message authorizes.
type MessageType string

// MessageTypeTransfer authorizes release of a transfer on the target chain.
const MessageTypeTransfer MessageType = "transfer"

// Signature is one validator's attestation over a message digest.
type Signature struct {
	Validator string    `json:"validator"`
	Signature string    `json:"signature"`
	SignedAt  time.Time `json:"signedAt"`
}

// Message is a relayed attestation owned by a transaction.
type Message struct {
	ID            string        `json:"id"`
	TransactionID string        `json:"transactionId"`
	Sequence      int           `json:"sequence"`
	SourceChain   uint64        `json:"sourceChain"`
	TargetChain   uint64        `json:"targetChain"`
	Type          MessageType   `json:"type"`
	Payload       []byte        `json:"payload"`
	Digest        string        `json:"digest"`
	Quorum        int           `json:"quorum"`
	Signatures    []Signature   `json:"signatures"`
	Status        MessageStatus `json:"status"`
	ErrorMessage  string        `json:"errorMessage,omitempty"`
	Deadline      time.Time     `json:"deadline"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// Validators lists the distinct signers in signing order.
func (m *Message) Validators() []string {
	out := make([]string, 0, len(m.Signatures))
	for _, s := range m.Signatures {
		out = append(out, s.Validator)
	}
	return out
}

// SignedBy reports whether validator already signed the message.
func (m *Message) SignedBy(validator string) bool {
	for _, s := range m.Signatures {
		if SameAddress(s.Validator, validator) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the message.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	c := *m
	c.Payload = append([]byte(nil), m.Payload...)
	c.Signatures = append([]Signature(nil), m.Signatures...)
	return &c
}

// Volume aggregates completed transfers over a time window.
type Volume struct {
	Timeframe        string          `json:"timeframe"`
	TotalVolume      decimal.Decimal `json:"totalVolume"`
	TransactionCount int             `json:"transactionCount"`
	AvgSize          decimal.Decimal `json:"avgTransactionSize"`
}
