package events

import (
	"time"

	"github.com/quillpay/quill/models"
)

// PrincipalAvailable fires when the external authentication
// collaborator has produced a principal for the session.
type PrincipalAvailable struct {
	Principal string `json:"principal"`
}

// SessionEnded fires when the external authentication collaborator
// signals logout. The session state clears the balance, history, and
// persisted snapshot in response.
type SessionEnded struct {
	Principal string `json:"principal"`
}

// SessionStarted fires once a login has taken effect and the session
// is valid. Login itself is asynchronous; callers that need a valid
// session wait for this event rather than the login call returning.
type SessionStarted struct {
	Principal string `json:"principal"`
}

// SessionRestored fires once the persisted session snapshot has been
// loaded at startup, or the restore timed out and an empty session is
// being used instead.
type SessionRestored struct {
	Principal string `json:"principal"`
	TimedOut  bool   `json:"timedOut"`
}

// BalanceRefreshed fires whenever a refresh resolves a new balance,
// whatever its provenance.
type BalanceRefreshed struct {
	Balance models.Balance `json:"balance"`
}

// TransferComplete fires when a transfer reaches its reconciled state.
type TransferComplete struct {
	TransactionID string        `json:"transactionID"`
	To            string        `json:"to"`
	Amount        models.Amount `json:"amount"`
	BlockHeight   uint64        `json:"blockHeight"`
}

// TransferFailed fires when a transfer was rolled back.
type TransferFailed struct {
	TransactionID string `json:"transactionID"`
	To            string `json:"to"`
	Reason        string `json:"reason"`
}

// HistoryLoaded fires after the transaction ledger completes a load
// and merge cycle.
type HistoryLoaded struct {
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

// SnapshotPersisted fires after the coalescing writer lands a session
// snapshot in the datastore.
type SnapshotPersisted struct {
	Timestamp time.Time `json:"timestamp"`
}
