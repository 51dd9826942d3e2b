package bridge

// Status is the lifecycle state of a Transaction.
type Status string

const (
	StatusPending         Status = "pending"
	StatusConfirmedSource Status = "confirmed_source"
	StatusProcessing      Status = "processing"
	StatusConfirmedTarget Status = "confirmed_target"
	StatusCompleted       Status = "completed"
	StatusFailed          Status = "failed"
	StatusExpired         Status = "expired"
)

// transitions is the complete forward-only transition table.
var transitions = map[Status][]Status{
	StatusPending:         {StatusConfirmedSource, StatusFailed, StatusExpired},
	StatusConfirmedSource: {StatusProcessing, StatusFailed, StatusExpired},
	StatusProcessing:      {StatusConfirmedTarget, StatusFailed, StatusExpired},
	StatusConfirmedTarget: {StatusCompleted, StatusFailed},
}

// ActiveStatuses lists every non-terminal status.
var ActiveStatuses = []Status{StatusPending, StatusConfirmedSource, StatusProcessing, StatusConfirmedTarget}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmedSource, StatusProcessing, StatusConfirmedTarget,
		StatusCompleted, StatusFailed, StatusExpired:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusExpired
}

// CanTransitionTo reports whether next is a direct successor of s.
func (s Status) CanTransitionTo(next Status) bool {
	for _, candidate := range transitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Rank orders the happy path. Terminal diversions share the highest rank.
func (s Status) Rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusConfirmedSource:
		return 1
	case StatusProcessing:
		return 2
	case StatusConfirmedTarget:
		return 3
	case StatusCompleted:
		return 4
	default:
		return 5
	}
}

// HasPassed reports whether s is already at or beyond target on the happy path.
func (s Status) HasPassed(target Status) bool {
	if target == StatusFailed || target == StatusExpired {
		return s.IsTerminal()
	}
	return s.Rank() >= target.Rank()
}

// Progress is a coarse completion percentage for display.
func (s Status) Progress() int {
	switch s {
	case StatusConfirmedSource:
		return 25
	case StatusProcessing:
		return 50
	case StatusConfirmedTarget:
		return 75
	case StatusCompleted:
		return 100
	default:
		return 0
	}
}

// CurrentStep is a human readable description of what the transfer is waiting on.
func (s Status) CurrentStep() string {
	switch s {
	case StatusPending:
		return "Waiting for source chain confirmation"
	case StatusConfirmedSource:
		return "Source transaction confirmed"
	case StatusProcessing:
		return "Collecting validator attestations"
	case StatusConfirmedTarget:
		return "Target transaction confirmed, settling"
	case StatusCompleted:
		return "Bridge completed successfully"
	case StatusFailed:
		return "Bridge failed"
	case StatusExpired:
		return "Bridge expired"
	default:
		return "Unknown status"
	}
}

// MessageStatus is the lifecycle state of a cross-chain Message.
type MessageStatus string

const (
	MessagePending  MessageStatus = "pending"
	MessageRelayed  MessageStatus = "relayed"
	MessageExecuted MessageStatus = "executed"
	MessageFailed   MessageStatus = "failed"
)

// IsClosed reports whether the message no longer accepts signatures.
func (s MessageStatus) IsClosed() bool {
	return s == MessageExecuted || s == MessageFailed
}
