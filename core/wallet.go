package core

import (
	"context"

	"github.com/quillpay/quill/api"
	"github.com/quillpay/quill/events"
	"github.com/quillpay/quill/ledger"
	"github.com/quillpay/quill/models"
	"github.com/quillpay/quill/transfer"
)

var _ api.CoreIface = (*WalletNode)(nil)

// Principal returns the principal for the active session or an empty
// string if nobody is logged in.
func (n *WalletNode) Principal() string {
	return n.sessionState.Snapshot().Principal
}

// AccountID returns the ledger account ID derived from the active
// session's principal.
func (n *WalletNode) AccountID() (string, error) {
	sess := n.sessionState.Snapshot()
	if !sess.IsValid() {
		return "", models.ErrSessionInvalid
	}
	return ledger.DeriveAccountID(sess.Principal)
}

// Balance returns the last observed balance for the active session. If
// no balance has been observed yet it resolves one from the ledger
// first. The returned balance carries a provenance tag so the caller
// can tell a trusted value from a substituted one.
func (n *WalletNode) Balance(ctx context.Context) models.Balance {
	sess := n.sessionState.Snapshot()
	if sess.Balance.ObservedAt.IsZero() && sess.IsValid() {
		n.coordinator.RefreshBalance(ctx, sess.Principal)
		sess = n.sessionState.Snapshot()
	}
	return sess.Balance
}

// RefreshBalance re-resolves the balance for the active session from
// the ledger. The refresh is skipped while a transfer is in flight.
func (n *WalletNode) RefreshBalance(ctx context.Context) {
	n.coordinator.RefreshBalance(ctx, n.sessionState.Snapshot().Principal)
}

// Transfer sends the given amount plus fee to the recipient. The
// recipient may be either a principal or a raw account ID.
func (n *WalletNode) Transfer(ctx context.Context, amount models.Amount, to string, fee models.Amount) (transfer.Result, error) {
	return n.coordinator.Transfer(ctx, amount, to, fee)
}

// LoadTransactions loads the transaction history from the ledger,
// merges it with any local pending transactions, and returns the
// merged list ordered most-recent-first.
func (n *WalletNode) LoadTransactions(ctx context.Context) ([]models.Transaction, error) {
	return n.history.Load(ctx)
}

// FilterTransactions returns the current history filtered by direction
// and/or a free text search term.
func (n *WalletNode) FilterTransactions(direction models.TransactionDirection, search string) []models.Transaction {
	return n.history.Filter(direction, search)
}

// TransactionFee returns the current transfer fee.
func (n *WalletNode) TransactionFee(ctx context.Context) models.Amount {
	return n.resolver.TransactionFee(ctx)
}

// AssetPriceUSD returns the USD price of the network's asset.
func (n *WalletNode) AssetPriceUSD(ctx context.Context) models.Amount {
	return n.resolver.AssetPriceUSD(ctx)
}

// Login validates the principal and starts a new session. The session
// state picks the principal up off the bus, derives the account ID,
// and restores any persisted history for it.
//
// A nil return means the principal was accepted, not that the session
// is already valid. Activation happens asynchronously off the bus; the
// SessionStarted event fires once it has taken effect, and callers
// needing a valid session wait for that rather than for Login to
// return.
func (n *WalletNode) Login(principal string) error {
	if err := ledger.ValidatePrincipal(principal); err != nil {
		return err
	}
	n.eventBus.Emit(&events.PrincipalAvailable{Principal: principal})
	return nil
}

// Logout ends the active session. The persisted session snapshot is
// cleared along with the in-memory state.
func (n *WalletNode) Logout() {
	n.sessionState.Logout()
}

// SessionSnapshot returns a copy of the current wallet session.
func (n *WalletNode) SessionSnapshot() *models.WalletSession {
	return n.sessionState.Snapshot()
}
