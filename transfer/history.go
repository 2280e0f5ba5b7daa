package transfer

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/quillpay/quill/events"
	"github.com/quillpay/quill/ledger"
	"github.com/quillpay/quill/models"
	"github.com/quillpay/quill/session"
)

// Ledger maintains the session's transaction history. It merges the
// remote ledger's confirmed records with the locally recorded
// speculative ones, with confirmed records superseding pendings that
// share an id.
type Ledger struct {
	state    *session.State
	resolver *ledger.SourceResolver
	bus      events.Bus

	mtx      sync.Mutex
	inFlight bool
}

// NewLedger returns a new transaction ledger for the given session.
func NewLedger(state *session.State, resolver *ledger.SourceResolver, bus events.Bus) *Ledger {
	return &Ledger{
		state:    state,
		resolver: resolver,
		bus:      bus,
	}
}

// Load fetches the transaction history from the remote ledger, merges
// it with the locally recorded transactions, and returns the combined
// list most recent first. Loads are single flight: a call that arrives
// while another is fetching returns the current local list immediately
// rather than issuing a duplicate request.
//
// A remote failure is not an error. The locally recorded list stands
// in until the next successful load.
func (l *Ledger) Load(ctx context.Context) ([]models.Transaction, error) {
	snapshot := l.state.Snapshot()
	if !snapshot.IsValid() {
		return nil, models.ErrSessionInvalid
	}

	l.mtx.Lock()
	if l.inFlight {
		l.mtx.Unlock()
		return snapshot.Transactions, nil
	}
	l.inFlight = true
	l.mtx.Unlock()

	defer func() {
		l.mtx.Lock()
		l.inFlight = false
		l.mtx.Unlock()
	}()

	accountID, err := ledger.DeriveAccountID(snapshot.Principal)
	if err != nil {
		return nil, err
	}

	records, err := l.resolver.Client().History(ctx, accountID)
	if err != nil {
		log.Warningf("History load failed, keeping local records: %s", err)
		return snapshot.Transactions, nil
	}

	remote := make([]models.Transaction, 0, len(records))
	for _, rec := range records {
		remote = append(remote, recordToTransaction(rec, accountID))
	}

	merged := merge(remote, snapshot.Transactions)

	l.state.Apply(func(session *models.WalletSession) {
		session.Transactions = merged
	})
	l.bus.Emit(&events.HistoryLoaded{Count: len(merged), Timestamp: time.Now()})

	return merged, nil
}

// Filter returns the session's transactions narrowed by direction and
// a free-text search term. Either filter may be zero valued to match
// everything.
func (l *Ledger) Filter(direction models.TransactionDirection, search string) []models.Transaction {
	snapshot := l.state.Snapshot()

	filtered := make([]models.Transaction, 0, len(snapshot.Transactions))
	for _, tx := range snapshot.Transactions {
		if direction != "" && tx.Direction != direction {
			continue
		}
		if search != "" && !tx.Matches(search) {
			continue
		}
		filtered = append(filtered, tx)
	}
	return filtered
}

// merge combines the remote records with the local ones. Remote
// records are authoritative: a local record with the same id is
// superseded, which finalizes optimistic pendings once the ledger has
// recorded them. Local records with no remote counterpart, typically
// pendings the ledger has not yet recorded, are retained.
func merge(remote, local []models.Transaction) []models.Transaction {
	seen := make(map[string]bool, len(remote))
	merged := make([]models.Transaction, 0, len(remote)+len(local))

	for _, tx := range remote {
		if seen[tx.ID] {
			continue
		}
		seen[tx.ID] = true
		merged = append(merged, tx)
	}
	for _, tx := range local {
		if seen[tx.ID] {
			continue
		}
		seen[tx.ID] = true
		merged = append(merged, tx)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.After(merged[j].Timestamp)
	})
	return merged
}

// recordToTransaction maps a remote ledger record onto the session
// model. Direction is relative to the session's own account.
func recordToTransaction(rec ledger.TransactionRecord, ownAccountID string) models.Transaction {
	direction := models.DirectionIncoming
	if strings.EqualFold(rec.From, ownAccountID) {
		direction = models.DirectionOutgoing
	}
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return models.Transaction{
		ID:          rec.ID,
		Direction:   direction,
		Amount:      rec.Amount,
		Fee:         rec.Fee,
		From:        rec.From,
		To:          rec.To,
		Status:      models.StatusSuccess,
		Timestamp:   ts,
		BlockHeight: rec.BlockHeight,
	}
}
