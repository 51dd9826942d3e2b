package transfer

import (
	"fmt"

	"github.com/scryptex/bridge-middleware/pkg/bridge"
)

// EventType names an observation that moves a transfer forward.
type EventType string

const (
	EventSourceConfirmed      EventType = "source_confirmed"
	EventAttestationRequested EventType = "attestation_requested"
	EventTargetConfirmed      EventType = "target_confirmed"
	EventSettled              EventType = "settled"
	EventFailed               EventType = "failed"
)

// Event is an input to Advance.
type Event struct {
	Type          EventType `json:"type"`
	TxHash        string    `json:"txHash,omitempty"`
	Confirmations uint64    `json:"confirmations,omitempty"`
	MessageID     string    `json:"messageId,omitempty"`
	Reason        string    `json:"reason,omitempty"`
}

// SourceConfirmed reports the source transaction observed at the given depth.
func SourceConfirmed(txHash string, confirmations uint64) Event {
	return Event{Type: EventSourceConfirmed, TxHash: txHash, Confirmations: confirmations}
}

// AttestationRequested reports that a cross-chain message was opened.
func AttestationRequested(messageID string) Event {
	return Event{Type: EventAttestationRequested, MessageID: messageID}
}

// TargetConfirmed reports the target transaction observed at the given depth.
func TargetConfirmed(txHash string, confirmations uint64) Event {
	return Event{Type: EventTargetConfirmed, TxHash: txHash, Confirmations: confirmations}
}

// Settled reports that target execution fully settled.
func Settled() Event {
	return Event{Type: EventSettled}
}

// Failed reports an unrecoverable error.
func Failed(reason string) Event {
	return Event{Type: EventFailed, Reason: reason}
}

// target returns the status the event leads to.
func (e Event) target() (bridge.Status, error) {
	switch e.Type {
	case EventSourceConfirmed:
		return bridge.StatusConfirmedSource, nil
	case EventAttestationRequested:
		return bridge.StatusProcessing, nil
	case EventTargetConfirmed:
		return bridge.StatusConfirmedTarget, nil
	case EventSettled:
		return bridge.StatusCompleted, nil
	case EventFailed:
		if e.Reason == "" {
			return "", fmt.Errorf("%w: failure requires a reason", bridge.ErrInvalidEvent)
		}
		return bridge.StatusFailed, nil
	default:
		return "", fmt.Errorf("%w: %q", bridge.ErrInvalidEvent, e.Type)
	}
}
