package session

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/op/go-logging"
	"github.com/quillpay/quill/database"
	"github.com/quillpay/quill/events"
	"github.com/quillpay/quill/models"
	"gorm.io/gorm"
)

var log = logging.MustGetLogger("SESS")

const (
	// snapshotKey is the datastore name under which the serialized
	// session snapshot is persisted. The snapshot carries the logged-in
	// flag so session validity and session data land in a single write.
	snapshotKey = "wallet_session"

	// restoreTimeout bounds how long Start will wait for the persisted
	// snapshot before proceeding with an empty session.
	restoreTimeout = time.Second * 5
)

// State is the exclusive owner of the mutable session aggregate:
// principal, balance, transaction history, and the logged-in flag.
// All reads return deep copies and all writes pass through Apply,
// which holds a single writer lock. Refreshes, optimistic debits, and
// reconciliations are thereby linearized: a refresh completing while a
// transfer is mid-flight cannot interleave with the optimistic
// mutation, only order before or after it.
type State struct {
	mtx     sync.Mutex
	session *models.WalletSession

	db  database.Database
	bus events.Bus

	persistCh chan struct{}
	authSub   events.Subscription
	shutdown  chan struct{}
	done      sync.WaitGroup
}

// NewState returns a new session state backed by the given database
// and wired to the event bus for authentication events.
func NewState(db database.Database, bus events.Bus) *State {
	return &State{
		session:   &models.WalletSession{},
		db:        db,
		bus:       bus,
		persistCh: make(chan struct{}, 1),
		shutdown:  make(chan struct{}),
	}
}

// Start restores the persisted session and launches the persistence
// and authentication loops. It blocks until the restore completes or
// the restore timeout elapses, in which case the wallet proceeds with
// an empty session rather than hanging its consumers.
func (s *State) Start() {
	restored := make(chan *models.WalletSession, 1)
	go func() {
		restored <- s.restore()
	}()

	var (
		session  *models.WalletSession
		timedOut bool
	)
	select {
	case session = <-restored:
	case <-time.After(restoreTimeout):
		log.Warning("Session restore timed out, proceeding with empty session")
		session = &models.WalletSession{}
		timedOut = true
	}

	s.mtx.Lock()
	s.session = session
	s.mtx.Unlock()

	s.bus.Emit(&events.SessionRestored{Principal: session.Principal, TimedOut: timedOut})

	sub, err := s.bus.Subscribe([]interface{}{
		&events.PrincipalAvailable{},
		&events.SessionEnded{},
	})
	if err != nil {
		log.Errorf("Error subscribing to authentication events: %s", err)
	} else {
		s.authSub = sub
		s.done.Add(1)
		go s.authLoop(sub)
	}

	s.done.Add(1)
	go s.persistLoop()
}

// Stop terminates the persistence and authentication loops. A final
// save is flushed before returning so the latest state is not lost.
func (s *State) Stop() {
	close(s.shutdown)
	if s.authSub != nil {
		s.authSub.Close()
	}
	s.done.Wait()
	s.persist()
}

// Snapshot returns a deep copy of the current session.
func (s *State) Snapshot() *models.WalletSession {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.session.Clone()
}

// IsSessionValid returns true if the session is logged in with a
// principal.
func (s *State) IsSessionValid() bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.session.IsValid()
}

// Apply runs the given mutation against the session aggregate under
// the writer lock and schedules a persistence pass. This is the only
// path through which the balance or history may change.
func (s *State) Apply(fn func(session *models.WalletSession)) {
	s.mtx.Lock()
	fn(s.session)
	s.mtx.Unlock()

	s.schedulePersist()
}

// schedulePersist signals the persist loop. The channel holds a single
// slot so rapid mutations coalesce: a save already in flight is
// followed by exactly one more, written from the newest state, rather
// than being skipped.
func (s *State) schedulePersist() {
	select {
	case s.persistCh <- struct{}{}:
	default:
	}
}

func (s *State) persistLoop() {
	defer s.done.Done()
	for {
		select {
		case <-s.persistCh:
			s.persist()
		case <-s.shutdown:
			return
		}
	}
}

// persist serializes the current session and writes it to the
// datastore. Persistence failures are logged and swallowed; they never
// block the in-memory session.
func (s *State) persist() {
	snapshot := s.Snapshot()
	out, err := json.Marshal(snapshot)
	if err != nil {
		log.Errorf("Error serializing session snapshot: %s", err)
		return
	}

	err = s.db.Update(func(tx database.Tx) error {
		return tx.Save(&models.NameValue{Name: snapshotKey, Value: out})
	})
	if err != nil {
		log.Errorf("Error persisting session snapshot: %s", err)
		return
	}
	s.bus.Emit(&events.SnapshotPersisted{Timestamp: time.Now()})
}

// restore loads the persisted snapshot. A missing or unreadable
// snapshot yields an empty session.
func (s *State) restore() *models.WalletSession {
	var record models.NameValue
	err := s.db.View(func(tx database.Tx) error {
		return tx.Read().Where("name = ?", snapshotKey).First(&record).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.WalletSession{}
	} else if err != nil {
		log.Errorf("Error loading session snapshot: %s", err)
		return &models.WalletSession{}
	}

	session := &models.WalletSession{}
	if err := json.Unmarshal(record.Value, session); err != nil {
		log.Errorf("Error deserializing session snapshot: %s", err)
		return &models.WalletSession{}
	}
	log.Infof("Restored session for principal %s", session.Principal)
	return session
}

func (s *State) authLoop(sub events.Subscription) {
	defer s.done.Done()
	for {
		select {
		case e, ok := <-sub.Out():
			if !ok {
				return
			}
			switch event := e.(type) {
			case *events.PrincipalAvailable:
				s.login(event.Principal)
			case *events.SessionEnded:
				s.Logout()
			}
		case <-s.shutdown:
			return
		}
	}
}

// login initializes the session for a newly authenticated principal.
// The principal is immutable once assigned: a different principal
// replaces the session wholesale rather than mutating it.
func (s *State) login(principal string) {
	s.Apply(func(session *models.WalletSession) {
		if session.Principal != principal {
			*session = models.WalletSession{}
		}
		session.Principal = principal
		session.LoggedIn = true
	})
	s.bus.Emit(&events.SessionStarted{Principal: principal})
	log.Infof("Session started for principal %s", principal)
}

// Logout clears the balance, history, logged-in flag, and the
// persisted snapshot.
func (s *State) Logout() {
	s.mtx.Lock()
	s.session = &models.WalletSession{}
	s.mtx.Unlock()

	err := s.db.Update(func(tx database.Tx) error {
		return tx.Delete("name", snapshotKey, &models.NameValue{})
	})
	if err != nil {
		log.Errorf("Error clearing persisted session: %s", err)
	}
	log.Info("Session ended")
}
