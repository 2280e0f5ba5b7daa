package notifications

import (
	"testing"
	"time"

	"github.com/quillpay/quill/database"
	"github.com/quillpay/quill/database/sqlitedb"
	"github.com/quillpay/quill/events"
	"github.com/quillpay/quill/models"
)

func TestNotifier(t *testing.T) {
	bus := events.NewBus()
	db, err := sqlitedb.NewMemoryDB()
	if err != nil {
		t.Fatal(err)
	}
	err = db.Update(func(tx database.Tx) error {
		return tx.Migrate(&models.NotificationRecord{})
	})
	if err != nil {
		t.Fatal(err)
	}

	out := make(chan interface{})
	notifFunc := func(i interface{}) error {
		out <- i
		return nil
	}

	sub, err := bus.Subscribe(&notifierStarted{})
	if err != nil {
		t.Fatal(err)
	}

	notifier := NewNotifier(bus, db, notifFunc)
	go notifier.Start()
	defer notifier.Stop()

	select {
	case <-sub.Out():
	case <-time.After(time.Second * 10):
		t.Fatal("Timed out waiting on channel")
	}

	tests := []interface{}{
		&events.TransferComplete{TransactionID: "tx-1"},
		&events.TransferFailed{TransactionID: "tx-2", Reason: "account frozen"},
	}

	for _, test := range tests {

		bus.Emit(test)

		select {
		case n1 := <-out:
			wrapper, ok := n1.(notificationWrapper)
			if !ok {
				t.Fatal("Invalid notification type")
			}

			if wrapper.Notification != test {
				t.Errorf("Failed to return expected event")
			}
		case <-time.After(time.Second * 10):
			t.Fatal("Timed out waiting on channel")
		}
	}

	// Transfer outcomes must also land in the database.
	var records []models.NotificationRecord
	err = db.View(func(tx database.Tx) error {
		return tx.Read().Find(&records).Error
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Errorf("Expected 2 notification records, got %d", len(records))
	}

	test := &events.BalanceRefreshed{}
	bus.Emit(test)

	select {
	case n1 := <-out:
		_, ok := n1.(walletWrapper)
		if !ok {
			t.Fatal("Invalid notification type")
		}
	case <-time.After(time.Second * 10):
		t.Fatal("Timed out waiting on channel")
	}

	test2 := &events.HistoryLoaded{}
	bus.Emit(test2)

	select {
	case n1 := <-out:
		_, ok := n1.(walletWrapper)
		if !ok {
			t.Fatal("Invalid notification type")
		}
	case <-time.After(time.Second * 10):
		t.Fatal("Timed out waiting on channel")
	}

	test3 := &events.SessionRestored{}
	bus.Emit(test3)

	select {
	case n1 := <-out:
		_, ok := n1.(sessionWrapper)
		if !ok {
			t.Fatal("Invalid notification type")
		}
	case <-time.After(time.Second * 10):
		t.Fatal("Timed out waiting on channel")
	}

	test4 := &events.SessionStarted{Principal: "aaaaa-aa"}
	bus.Emit(test4)

	select {
	case n1 := <-out:
		_, ok := n1.(sessionWrapper)
		if !ok {
			t.Fatal("Invalid notification type")
		}
	case <-time.After(time.Second * 10):
		t.Fatal("Timed out waiting on channel")
	}
}
