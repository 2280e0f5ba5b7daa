package models

import (
	"strings"
	"time"
)

// TransactionStatus is the lifecycle state of a transaction record.
type TransactionStatus string

const (
	// StatusPending is a locally originated transaction which has not
	// yet been confirmed by the remote ledger.
	StatusPending TransactionStatus = "PENDING"

	// StatusSuccess is a transaction confirmed by the remote ledger.
	StatusSuccess TransactionStatus = "SUCCESS"

	// StatusFailed is a transaction the remote ledger rejected. Failed
	// records are retained for auditability rather than erased.
	StatusFailed TransactionStatus = "FAILED"
)

// TransactionDirection says whether value moved into or out of the
// session's account.
type TransactionDirection string

const (
	DirectionOutgoing TransactionDirection = "OUTGOING"
	DirectionIncoming TransactionDirection = "INCOMING"
)

// Transaction is a single entry in the wallet's history. Speculative
// entries are created locally with a generated ID; confirmed entries
// carry the ID assigned by the remote ledger.
type Transaction struct {
	ID          string               `json:"id"`
	Direction   TransactionDirection `json:"direction"`
	Amount      Amount               `json:"amount"`
	Fee         Amount               `json:"fee"`
	From        string               `json:"from"`
	To          string               `json:"to"`
	Status      TransactionStatus    `json:"status"`
	Timestamp   time.Time            `json:"timestamp"`
	BlockHeight uint64               `json:"blockHeight,omitempty"`
}

// Matches reports whether the transaction matches a case-insensitive
// substring search across the ID, both counterparties, and the decimal
// string form of the amount.
func (t *Transaction) Matches(search string) bool {
	if search == "" {
		return true
	}
	search = strings.ToLower(search)
	for _, field := range []string{t.ID, t.From, t.To, t.Amount.Decimal()} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}
