package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quillpay/quill/models"
)

// MockLedger is an in-memory ledger conforming to the Client
// interface. It is used by tests and by the demo network to exercise
// the full transfer path without a live endpoint. Failure modes can
// be injected to drive the fallback and rollback paths.
type MockLedger struct {
	mtx sync.Mutex

	balances map[string]models.Amount
	history  map[string][]TransactionRecord
	height   uint64

	queryErr    error
	historyErr  error
	transferErr error
	rejectMsg   string
}

// NewMockLedger returns a new empty mock ledger.
func NewMockLedger() *MockLedger {
	return &MockLedger{
		balances: make(map[string]models.Amount),
		history:  make(map[string][]TransactionRecord),
	}
}

// SetBalance credits the account with the given minor-unit balance.
func (m *MockLedger) SetBalance(accountID string, amount models.Amount) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.balances[accountID] = amount
}

// FailQueries makes subsequent Query and History calls return err.
// Passing nil restores normal behavior.
func (m *MockLedger) FailQueries(err error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.queryErr = err
	m.historyErr = err
}

// FailTransfers makes subsequent Transfer calls return err, simulating
// an unexpected failure during the remote call.
func (m *MockLedger) FailTransfers(err error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.transferErr = err
}

// RejectTransfers makes the ledger explicitly reject subsequent
// transfers with the given message. An empty message restores normal
// behavior.
func (m *MockLedger) RejectTransfers(msg string) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.rejectMsg = msg
}

// Height returns the current block height.
func (m *MockLedger) Height() uint64 {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.height
}

// Query returns the minor-unit balance of the given account.
func (m *MockLedger) Query(ctx context.Context, accountID string) (models.Amount, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.queryErr != nil {
		return models.Amount{}, m.queryErr
	}
	balance, ok := m.balances[accountID]
	if !ok {
		return models.NewAmount(0), nil
	}
	return balance, nil
}

// Transfer applies the transfer to the in-memory balances and records
// it in both accounts' histories. The recorded transaction id is the
// request memo when present, mirroring the correlation-id behavior of
// the production ledger, otherwise a generated id.
func (m *MockLedger) Transfer(ctx context.Context, req TransferRequest) (TransferResponse, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.transferErr != nil {
		return TransferResponse{}, m.transferErr
	}
	if m.rejectMsg != "" {
		return TransferResponse{Success: false, Error: m.rejectMsg}, nil
	}

	total := req.Amount.Add(req.Fee)
	balance, ok := m.balances[req.SenderAccountID]
	if !ok || balance.Cmp(total) < 0 {
		return TransferResponse{Success: false, Error: "insufficient funds"}, nil
	}

	m.height++
	m.balances[req.SenderAccountID] = balance.Sub(total)
	m.balances[req.RecipientAccountID] = m.balances[req.RecipientAccountID].Add(req.Amount)

	id := req.Memo
	if id == "" {
		id = uuid.NewString()
	}
	record := TransactionRecord{
		ID:          id,
		From:        req.SenderAccountID,
		To:          req.RecipientAccountID,
		Amount:      req.Amount,
		Fee:         req.Fee,
		BlockHeight: m.height,
		Timestamp:   time.Now(),
	}
	m.history[req.SenderAccountID] = append(m.history[req.SenderAccountID], record)
	m.history[req.RecipientAccountID] = append(m.history[req.RecipientAccountID], record)

	return TransferResponse{Success: true, BlockHeight: m.height}, nil
}

// History returns the confirmed transaction records for an account,
// oldest first.
func (m *MockLedger) History(ctx context.Context, accountID string) ([]TransactionRecord, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.historyErr != nil {
		return nil, m.historyErr
	}
	records := make([]TransactionRecord, len(m.history[accountID]))
	copy(records, m.history[accountID])
	return records, nil
}
