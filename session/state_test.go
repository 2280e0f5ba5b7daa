package session

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/quillpay/quill/database"
	"github.com/quillpay/quill/database/sqlitedb"
	"github.com/quillpay/quill/events"
	"github.com/quillpay/quill/models"
	"gorm.io/gorm"
)

func newTestState(t *testing.T) (*State, database.Database, events.Bus) {
	db, err := sqlitedb.NewMemoryDB()
	if err != nil {
		t.Fatal(err)
	}
	err = db.Update(func(tx database.Tx) error {
		return tx.Migrate(&models.NameValue{})
	})
	if err != nil {
		t.Fatal(err)
	}
	bus := events.NewBus()
	return NewState(db, bus), db, bus
}

func readSnapshot(t *testing.T, db database.Database) (*models.WalletSession, error) {
	var record models.NameValue
	err := db.View(func(tx database.Tx) error {
		return tx.Read().Where("name = ?", "wallet_session").First(&record).Error
	})
	if err != nil {
		return nil, err
	}
	session := &models.WalletSession{}
	if err := json.Unmarshal(record.Value, session); err != nil {
		t.Fatal(err)
	}
	return session, nil
}

func TestStateRestore(t *testing.T) {
	state, db, _ := newTestState(t)

	persisted := &models.WalletSession{
		Principal: "aaaaa-aa",
		Balance:   models.Balance{Amount: models.NewAmount(500), Provenance: models.ProvenanceTrusted},
		LoggedIn:  true,
	}
	out, err := json.Marshal(persisted)
	if err != nil {
		t.Fatal(err)
	}
	err = db.Update(func(tx database.Tx) error {
		return tx.Save(&models.NameValue{Name: "wallet_session", Value: out})
	})
	if err != nil {
		t.Fatal(err)
	}

	state.Start()
	defer state.Stop()

	snapshot := state.Snapshot()
	if snapshot.Principal != "aaaaa-aa" {
		t.Errorf("Expected principal aaaaa-aa, got %s", snapshot.Principal)
	}
	if snapshot.Balance.Amount.String() != "500" {
		t.Errorf("Expected balance 500, got %s", snapshot.Balance.Amount)
	}
	if !state.IsSessionValid() {
		t.Error("Expected restored session to be valid")
	}
}

func TestStateRestoreEmpty(t *testing.T) {
	state, _, _ := newTestState(t)
	state.Start()
	defer state.Stop()

	if state.IsSessionValid() {
		t.Error("Expected empty session to be invalid")
	}
}

func TestStateApplyPersistsLatest(t *testing.T) {
	state, db, _ := newTestState(t)
	state.Start()

	for i := 1; i <= 25; i++ {
		amount := models.NewAmount(int64(i))
		state.Apply(func(session *models.WalletSession) {
			session.Balance.Amount = amount
		})
	}
	state.Stop()

	snapshot, err := readSnapshot(t, db)
	if err != nil {
		t.Fatal(err)
	}
	if snapshot.Balance.Amount.String() != "25" {
		t.Errorf("Expected latest balance 25 to be persisted, got %s", snapshot.Balance.Amount)
	}
}

func TestStateApplyLinearized(t *testing.T) {
	state, _, _ := newTestState(t)
	state.Start()
	defer state.Stop()

	state.Apply(func(session *models.WalletSession) {
		session.Balance.Amount = models.NewAmount(1000)
	})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			state.Apply(func(session *models.WalletSession) {
				session.Balance.Amount = session.Balance.Amount.Sub(models.NewAmount(1))
			})
		}()
	}
	wg.Wait()

	if got := state.Snapshot().Balance.Amount.String(); got != "900" {
		t.Errorf("Expected balance 900 after concurrent applies, got %s", got)
	}
}

func TestStateLoginFromBus(t *testing.T) {
	state, _, bus := newTestState(t)
	state.Start()
	defer state.Stop()

	bus.Emit(&events.PrincipalAvailable{Principal: "aaaaa-aa"})

	deadline := time.Now().Add(time.Second * 2)
	for !state.IsSessionValid() {
		if time.Now().After(deadline) {
			t.Fatal("Session never became valid after login event")
		}
		time.Sleep(time.Millisecond * 10)
	}

	if state.Snapshot().Principal != "aaaaa-aa" {
		t.Errorf("Expected principal aaaaa-aa, got %s", state.Snapshot().Principal)
	}
}

func TestStateLoginEmitsStarted(t *testing.T) {
	// Login is asynchronous; SessionStarted must fire only once the
	// session is actually valid so a waiting client can proceed.
	state, _, bus := newTestState(t)
	state.Start()
	defer state.Stop()

	sub, err := bus.Subscribe(&events.SessionStarted{})
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	bus.Emit(&events.PrincipalAvailable{Principal: "aaaaa-aa"})

	select {
	case e := <-sub.Out():
		started, ok := e.(*events.SessionStarted)
		if !ok {
			t.Fatalf("Expected SessionStarted, got %T", e)
		}
		if started.Principal != "aaaaa-aa" {
			t.Errorf("Expected principal aaaaa-aa, got %s", started.Principal)
		}
	case <-time.After(time.Second * 2):
		t.Fatal("Timed out waiting for SessionStarted")
	}

	if !state.IsSessionValid() {
		t.Error("Expected a valid session once SessionStarted fired")
	}
}

func TestStateLogout(t *testing.T) {
	state, db, _ := newTestState(t)
	state.Start()

	state.Apply(func(session *models.WalletSession) {
		session.Principal = "aaaaa-aa"
		session.LoggedIn = true
		session.Balance.Amount = models.NewAmount(1000)
		session.Transactions = []models.Transaction{{ID: "tx1"}}
	})

	state.Logout()

	snapshot := state.Snapshot()
	if snapshot.Principal != "" || snapshot.LoggedIn {
		t.Error("Expected session to be cleared after logout")
	}
	if len(snapshot.Transactions) != 0 {
		t.Error("Expected history to be cleared after logout")
	}
	if !snapshot.Balance.Amount.IsZero() {
		t.Error("Expected balance to be cleared after logout")
	}

	if _, err := readSnapshot(t, db); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("Expected persisted snapshot to be removed, got %v", err)
	}

	// Stop flushes a final save of the now-empty session; it must not
	// resurrect the logged-in state.
	state.Stop()
	snapshot, err := readSnapshot(t, db)
	if err != nil {
		t.Fatal(err)
	}
	if snapshot.LoggedIn {
		t.Error("Final flush must not resurrect a logged-in session")
	}
}

func TestStateSnapshotIsCopy(t *testing.T) {
	state, _, _ := newTestState(t)
	state.Start()
	defer state.Stop()

	state.Apply(func(session *models.WalletSession) {
		session.Transactions = []models.Transaction{{ID: "tx1"}}
	})

	snapshot := state.Snapshot()
	snapshot.Transactions[0].ID = "mutated"

	if state.Snapshot().Transactions[0].ID != "tx1" {
		t.Error("Mutating a snapshot must not affect the owned session")
	}
}
