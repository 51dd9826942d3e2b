package bridgestore

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/scryptex/bridge-middleware/pkg/bridge"
)

// TransactionDao maps to the 'bridge_transactions' table.
type TransactionDao struct {
	bun.BaseModel  `bun:"table:bridge_transactions,alias:bt"`
	ID             string           `bun:"id,pk,type:varchar(64)"`
	IdempotencyKey string           `bun:"idempotency_key,unique,notnull,type:varchar(255)"`
	QuoteID        string           `bun:"quote_id,notnull,type:varchar(128)"`
	RequestHash    string           `bun:"request_hash,notnull,type:varchar(66)"`
	RequestID      string           `bun:"request_id,type:varchar(64)"`
	FromChain      uint64           `bun:"from_chain,notnull"`
	ToChain        uint64           `bun:"to_chain,notnull"`
	FromToken      string           `bun:"from_token,notnull,type:varchar(128)"`
	ToToken        string           `bun:"to_token,notnull,type:varchar(128)"`
	Amount         decimal.Decimal  `bun:"amount,notnull,type:numeric(38,18)"`
	Sender         string           `bun:"sender,notnull,type:varchar(42)"`
	Recipient      string           `bun:"recipient,notnull,type:varchar(42)"`
	RequestDue     *time.Time       `bun:"request_deadline"`
	MinReceived    *decimal.Decimal `bun:"min_received,type:numeric(38,18)"`
	Status         string           `bun:"status,notnull,type:varchar(32)"`
	SourceTxHash   *string          `bun:"source_tx_hash,type:varchar(66)"`
	TargetTxHash   *string          `bun:"target_tx_hash,type:varchar(66)"`
	Fee            decimal.Decimal  `bun:"fee,notnull,type:numeric(38,18)"`
	AmountOut      decimal.Decimal  `bun:"amount_out,notnull,type:numeric(38,18)"`
	Route          []uint64         `bun:"route,type:jsonb"`
	EstimatedTime  int64            `bun:"estimated_time,notnull"`
	Deadline       time.Time        `bun:"deadline,notnull"`
	CreatedAt      time.Time        `bun:"created_at,notnull"`
	UpdatedAt      time.Time        `bun:"updated_at,notnull"`
	CompletedAt    *time.Time       `bun:"completed_at"`
	ErrorMessage   *string          `bun:"error_message,type:text"`
}

// MessageDao maps to the 'cross_chain_messages' table.
type MessageDao struct {
	bun.BaseModel  `bun:"table:cross_chain_messages,alias:ccm"`
	ID             string         `bun:"id,pk,type:varchar(64)"`
	TransactionID  string         `bun:"transaction_id,notnull,type:varchar(64)"`
	Sequence       int            `bun:"sequence,notnull"`
	SourceChain    uint64         `bun:"source_chain,notnull"`
	TargetChain    uint64         `bun:"target_chain,notnull"`
	Type           string         `bun:"type,notnull,type:varchar(32)"`
	Payload        []byte         `bun:"payload,type:bytea"`
	Digest         string         `bun:"digest,notnull,type:varchar(66)"`
	Quorum         int            `bun:"quorum,notnull"`
	SignatureCount int            `bun:"signature_count,notnull,default:0"`
	Status         string         `bun:"status,notnull,type:varchar(32)"`
	ErrorMessage   *string        `bun:"error_message,type:text"`
	Deadline       time.Time      `bun:"deadline,notnull"`
	CreatedAt      time.Time      `bun:"created_at,notnull"`
	UpdatedAt      time.Time      `bun:"updated_at,notnull"`
	Signatures     []SignatureDao `bun:"rel:has-many,join:id=message_id"`
}

// SignatureDao maps to the 'message_signatures' table.
type SignatureDao struct {
	bun.BaseModel `bun:"table:message_signatures,alias:ms"`
	MessageID     string    `bun:"message_id,pk,type:varchar(64)"`
	Validator     string    `bun:"validator,pk,type:varchar(42)"`
	Signature     string    `bun:"signature,notnull,type:varchar(132)"`
	Position      int       `bun:"position,notnull"`
	SignedAt      time.Time `bun:"signed_at,notnull"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func toTransactionDao(tx *bridge.Transaction) *TransactionDao {
	return &TransactionDao{
		ID:             tx.ID,
		IdempotencyKey: tx.IdempotencyKey,
		QuoteID:        tx.QuoteID,
		RequestHash:    tx.RequestHash,
		RequestID:      tx.Request.ID,
		FromChain:      tx.Request.FromChain,
		ToChain:        tx.Request.ToChain,
		FromToken:      tx.Request.FromToken,
		ToToken:        tx.Request.ToToken,
		Amount:         tx.Request.Amount,
		Sender:         tx.Request.Sender,
		Recipient:      tx.Request.Recipient,
		RequestDue:     tx.Request.Deadline,
		MinReceived:    tx.Request.MinReceived,
		Status:         string(tx.Status),
		SourceTxHash:   optional(tx.SourceTxHash),
		TargetTxHash:   optional(tx.TargetTxHash),
		Fee:            tx.Fee,
		AmountOut:      tx.AmountOut,
		Route:          tx.Route,
		EstimatedTime:  tx.EstimatedTime,
		Deadline:       tx.Deadline,
		CreatedAt:      tx.CreatedAt,
		UpdatedAt:      tx.UpdatedAt,
		CompletedAt:    tx.CompletedAt,
		ErrorMessage:   optional(tx.ErrorMessage),
	}
}

func toTransaction(dao *TransactionDao) *bridge.Transaction {
	return &bridge.Transaction{
		ID:             dao.ID,
		IdempotencyKey: dao.IdempotencyKey,
		QuoteID:        dao.QuoteID,
		RequestHash:    dao.RequestHash,
		Request: bridge.Request{
			ID:          dao.RequestID,
			FromChain:   dao.FromChain,
			ToChain:     dao.ToChain,
			FromToken:   dao.FromToken,
			ToToken:     dao.ToToken,
			Amount:      dao.Amount,
			Sender:      dao.Sender,
			Recipient:   dao.Recipient,
			Deadline:    utcPtr(dao.RequestDue),
			MinReceived: dao.MinReceived,
		},
		Status:        bridge.Status(dao.Status),
		SourceTxHash:  deref(dao.SourceTxHash),
		TargetTxHash:  deref(dao.TargetTxHash),
		Fee:           dao.Fee,
		AmountOut:     dao.AmountOut,
		Route:         dao.Route,
		EstimatedTime: dao.EstimatedTime,
		Deadline:      dao.Deadline.UTC(),
		CreatedAt:     dao.CreatedAt.UTC(),
		UpdatedAt:     dao.UpdatedAt.UTC(),
		CompletedAt:   utcPtr(dao.CompletedAt),
		ErrorMessage:  deref(dao.ErrorMessage),
	}
}

func toMessageDao(msg *bridge.Message) *MessageDao {
	return &MessageDao{
		ID:             msg.ID,
		TransactionID:  msg.TransactionID,
		Sequence:       msg.Sequence,
		SourceChain:    msg.SourceChain,
		TargetChain:    msg.TargetChain,
		Type:           string(msg.Type),
		Payload:        msg.Payload,
		Digest:         msg.Digest,
		Quorum:         msg.Quorum,
		SignatureCount: len(msg.Signatures),
		Status:         string(msg.Status),
		ErrorMessage:   optional(msg.ErrorMessage),
		Deadline:       msg.Deadline,
		CreatedAt:      msg.CreatedAt,
		UpdatedAt:      msg.UpdatedAt,
	}
}

func toSignatureDaos(messageID string, sigs []bridge.Signature, from int) []SignatureDao {
	if from >= len(sigs) {
		return nil
	}
	out := make([]SignatureDao, 0, len(sigs)-from)
	for i := from; i < len(sigs); i++ {
		out = append(out, SignatureDao{
			MessageID: messageID,
			Validator: sigs[i].Validator,
			Signature: sigs[i].Signature,
			Position:  i,
			SignedAt:  sigs[i].SignedAt,
		})
	}
	return out
}

func toMessage(dao *MessageDao) *bridge.Message {
	sigs := make([]bridge.Signature, len(dao.Signatures))
	for _, s := range dao.Signatures {
		if s.Position >= 0 && s.Position < len(sigs) {
			sigs[s.Position] = bridge.Signature{Validator: s.Validator, Signature: s.Signature, SignedAt: s.SignedAt.UTC()}
		}
	}
	return &bridge.Message{
		ID:            dao.ID,
		TransactionID: dao.TransactionID,
		Sequence:      dao.Sequence,
		SourceChain:   dao.SourceChain,
		TargetChain:   dao.TargetChain,
		Type:          bridge.MessageType(dao.Type),
		Payload:       dao.Payload,
		Digest:        dao.Digest,
		Quorum:        dao.Quorum,
		Signatures:    sigs,
		Status:        bridge.MessageStatus(dao.Status),
		ErrorMessage:  deref(dao.ErrorMessage),
		Deadline:      dao.Deadline.UTC(),
		CreatedAt:     dao.CreatedAt.UTC(),
		UpdatedAt:     dao.UpdatedAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
