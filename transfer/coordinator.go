package transfer

import (
	"context"
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/op/go-logging"
	"github.com/quillpay/quill/events"
	"github.com/quillpay/quill/ledger"
	"github.com/quillpay/quill/models"
	"github.com/quillpay/quill/session"
)

var log = logging.MustGetLogger("XFER")

// State is a phase in a transfer's lifecycle.
type State int

const (
	// StateIdle means no transfer is in progress.
	StateIdle State = iota

	// StateValidating covers the local checks before any mutation.
	StateValidating

	// StateOptimisticApplied means the balance has been debited and a
	// pending record prepended, ahead of remote confirmation.
	StateOptimisticApplied

	// StateRemoteSubmitted means the remote transfer call is in flight.
	StateRemoteSubmitted

	// StateReconciled is the terminal success state.
	StateReconciled

	// StateRolledBack is the terminal failure state: the optimistic
	// mutation has been reverted.
	StateRolledBack
)

// String returns a human readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateValidating:
		return "VALIDATING"
	case StateOptimisticApplied:
		return "OPTIMISTIC_APPLIED"
	case StateRemoteSubmitted:
		return "REMOTE_SUBMITTED"
	case StateReconciled:
		return "RECONCILED"
	case StateRolledBack:
		return "ROLLED_BACK"
	default:
		return "UNKNOWN"
	}
}

// defaultReconcileDelay is how long after a successful transfer the
// coordinator waits before refreshing the authoritative balance.
const defaultReconcileDelay = time.Second * 5

// Result is returned from a successful transfer.
type Result struct {
	TransactionID string `json:"transactionID"`
	BlockHeight   uint64 `json:"blockHeight"`
}

// Coordinator orchestrates transfers as an optimistic-update state
// machine. A transfer debits the session balance and records a pending
// transaction before the remote call is made; on confirmation the
// record is finalized and a delayed reconciliation refresh is
// scheduled, and on failure the optimistic mutation is rolled back.
//
// Transfers are serialized per session: the exclusive lock is held
// from validation to the terminal state, so a second Transfer call
// waits for the first to finish rather than interleaving optimistic
// mutations.
type Coordinator struct {
	state    *session.State
	resolver *ledger.SourceResolver
	bus      events.Bus

	mtx      sync.Mutex
	stateMtx sync.Mutex
	current  State
	epoch    uint64

	reconcileDelay time.Duration
	reconciles     sync.WaitGroup
}

// NewCoordinator returns a new transfer coordinator operating on the
// given session state through its mutation gateway.
func NewCoordinator(state *session.State, resolver *ledger.SourceResolver, bus events.Bus) *Coordinator {
	return &Coordinator{
		state:          state,
		resolver:       resolver,
		bus:            bus,
		current:        StateIdle,
		reconcileDelay: defaultReconcileDelay,
	}
}

// CurrentState returns the state of the transfer in progress, or
// StateIdle if none is.
func (c *Coordinator) CurrentState() State {
	c.stateMtx.Lock()
	defer c.stateMtx.Unlock()
	return c.current
}

func (c *Coordinator) setState(s State) {
	c.stateMtx.Lock()
	c.current = s
	c.stateMtx.Unlock()
}

// mutationEpoch returns a counter that advances every time a transfer
// mutates the session balance. A refresh captures it before fetching
// and drops its value if the epoch moved while the fetch was out.
func (c *Coordinator) mutationEpoch() uint64 {
	c.stateMtx.Lock()
	defer c.stateMtx.Unlock()
	return c.epoch
}

func (c *Coordinator) bumpEpoch() {
	c.stateMtx.Lock()
	c.epoch++
	c.stateMtx.Unlock()
}

// InFlight returns true while a transfer is between its optimistic
// mutation and a terminal state. Balance refreshes consult this to
// avoid stomping the optimistic debit with a stale remote value.
func (c *Coordinator) InFlight() bool {
	switch c.CurrentState() {
	case StateValidating, StateOptimisticApplied, StateRemoteSubmitted:
		return true
	default:
		return false
	}
}

// Transfer executes a single transfer of amount plus fee to the given
// recipient, which may be a principal or an already-derived account
// identifier. It blocks until the transfer reaches a terminal state.
func (c *Coordinator) Transfer(ctx context.Context, amount models.Amount, to string, fee models.Amount) (Result, error) {
	c.mtx.Lock()
	defer func() {
		c.setState(StateIdle)
		c.mtx.Unlock()
	}()

	// Validate. No mutation has happened yet; any failure here leaves
	// the session untouched.
	c.setState(StateValidating)

	snapshot := c.state.Snapshot()
	if !snapshot.IsValid() {
		return Result{}, models.ValidationError{Reason: models.ErrSessionInvalid.Error()}
	}
	if amount.Cmp(models.NewAmount(0)) <= 0 {
		return Result{}, models.ValidationError{Reason: "amount must be greater than zero"}
	}
	if fee.IsNegative() {
		return Result{}, models.ValidationError{Reason: "fee must not be negative"}
	}

	recipientID, err := resolveRecipient(to)
	if err != nil {
		return Result{}, err
	}

	senderID, err := ledger.DeriveAccountID(snapshot.Principal)
	if err != nil {
		return Result{}, err
	}

	total := amount.Add(fee)
	preBalance := snapshot.Balance
	if total.Cmp(preBalance.Amount) > 0 {
		return Result{}, models.ValidationError{Reason: models.ErrInsufficientFunds.Error()}
	}

	// Optimistic apply. Debit the balance and prepend a pending record
	// in a single gateway mutation.
	txid := uuid.NewString()
	pending := models.Transaction{
		ID:        txid,
		Direction: models.DirectionOutgoing,
		Amount:    amount,
		Fee:       fee,
		From:      senderID,
		To:        recipientID,
		Status:    models.StatusPending,
		Timestamp: time.Now(),
	}
	c.state.Apply(func(session *models.WalletSession) {
		session.Balance.Amount = session.Balance.Amount.Sub(total)
		session.Transactions = append([]models.Transaction{pending}, session.Transactions...)
	})
	c.bumpEpoch()
	c.setState(StateOptimisticApplied)

	// Remote submit. The local transaction id rides along as the memo
	// so the confirmed record correlates with the speculative one.
	c.setState(StateRemoteSubmitted)
	resp, err := c.resolver.Client().Transfer(ctx, ledger.TransferRequest{
		SenderAccountID:    senderID,
		RecipientAccountID: recipientID,
		Amount:             amount,
		Fee:                fee,
		Memo:               txid,
	})
	if err != nil {
		c.rollback(txid, to, preBalance, err.Error())
		return Result{}, models.TransferRejectedError{Message: err.Error()}
	}
	if !resp.Success {
		c.rollback(txid, to, preBalance, resp.Error)
		return Result{}, models.TransferRejectedError{Message: resp.Error}
	}

	// Confirmed. Finalize the record and schedule the reconciliation
	// refresh against the authoritative remote balance.
	c.state.Apply(func(session *models.WalletSession) {
		for i := range session.Transactions {
			if session.Transactions[i].ID == txid {
				session.Transactions[i].Status = models.StatusSuccess
				session.Transactions[i].BlockHeight = resp.BlockHeight
				break
			}
		}
	})
	c.setState(StateReconciled)

	c.bus.Emit(&events.TransferComplete{
		TransactionID: txid,
		To:            to,
		Amount:        amount,
		BlockHeight:   resp.BlockHeight,
	})
	log.Infof("Transfer %s confirmed at height %d", txid, resp.BlockHeight)

	c.scheduleReconcile(snapshot.Principal)

	return Result{TransactionID: txid, BlockHeight: resp.BlockHeight}, nil
}

// rollback reverts the optimistic mutation: the balance returns to its
// pre-transfer value and the pending record is retained marked failed.
func (c *Coordinator) rollback(txid, to string, preBalance models.Balance, reason string) {
	c.state.Apply(func(session *models.WalletSession) {
		session.Balance = preBalance
		for i := range session.Transactions {
			if session.Transactions[i].ID == txid {
				session.Transactions[i].Status = models.StatusFailed
				break
			}
		}
	})
	c.setState(StateRolledBack)

	c.bus.Emit(&events.TransferFailed{TransactionID: txid, To: to, Reason: reason})
	log.Warningf("Transfer %s rolled back: %s", txid, reason)
}

// scheduleReconcile arranges an independent balance refresh after a
// bounded delay. The refreshed value is authoritative and accepted
// as-is even if it differs from the optimistic estimate.
func (c *Coordinator) scheduleReconcile(principal string) {
	c.reconciles.Add(1)
	time.AfterFunc(c.reconcileDelay, func() {
		defer c.reconciles.Done()
		c.RefreshBalance(context.Background(), principal)
	})
}

// RefreshBalance resolves the current balance and applies it through
// the session gateway. The refresh is skipped while a transfer is
// between its optimistic mutation and a terminal state, and a fetched
// value is dropped if a transfer mutated the balance while the remote
// query was outstanding, so a stale remote value cannot silently
// overwrite the optimistic debit.
func (c *Coordinator) RefreshBalance(ctx context.Context, principal string) {
	if c.InFlight() {
		log.Debug("Skipping balance refresh while a transfer is in flight")
		return
	}
	epoch := c.mutationEpoch()

	balance := c.resolver.Balance(ctx, principal)

	var applied bool
	c.state.Apply(func(session *models.WalletSession) {
		// Re-checked under the session lock. A transfer's optimistic
		// debit serializes through the same gateway, so if neither
		// check trips here the fetched value is still current.
		if c.InFlight() || c.mutationEpoch() != epoch {
			log.Debug("Dropping stale balance refresh")
			return
		}
		if session.Principal != principal {
			return
		}
		session.Balance = balance
		applied = true
	})
	if applied {
		c.bus.Emit(&events.BalanceRefreshed{Balance: balance})
	}
}

// resolveRecipient turns the caller-supplied destination into a ledger
// account identifier. Principals are derived; anything already shaped
// like an account identifier passes through.
func resolveRecipient(to string) (string, error) {
	if to == "" {
		return "", models.ValidationError{Reason: "recipient is missing"}
	}
	if isAccountID(to) {
		return to, nil
	}
	return ledger.DeriveAccountID(to)
}

// isAccountID reports whether s is a 64 character hex string.
func isAccountID(s string) bool {
	if len(s) != 64 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
