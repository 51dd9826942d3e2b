package bridge

// ExecuteRequest binds an issued quote to the request it was priced for.
type ExecuteRequest struct {
	QuoteID      string  `json:"quoteId" validate:"required"`
	Request      Request `json:"request"`
	SourceTxHash string  `json:"sourceTxHash,omitempty" validate:"omitempty,hexadecimal,len=66"`
}

// CancelRequest proves the caller controls the transfer's sender address.
type CancelRequest struct {
	Signature string `json:"signature" validate:"required"`
}

// CancelMessage is the text a sender signs (EIP-191) to cancel a pending transfer.
func CancelMessage(transactionID string) string {
	return "Cancel bridge transfer " + transactionID
}

// SignatureRequest carries one validator's signature over a message digest.
type SignatureRequest struct {
	Validator string `json:"validator" validate:"required,eth_addr"`
	Signature string `json:"signature" validate:"required"`
}

// FailRequest is an operator's reason for force-failing a transfer.
type FailRequest struct {
	Reason string `json:"reason" validate:"required,max=256"`
}
