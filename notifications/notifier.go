package notifications

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/op/go-logging"
	"github.com/quillpay/quill/database"
	"github.com/quillpay/quill/events"
	"github.com/quillpay/quill/models"
)

var log = logging.MustGetLogger("notif")

// notifierStarted is emitted once the subscriptions are live.
type notifierStarted struct{}

type notificationWrapper struct {
	Notification interface{} `json:"notification"`
}

type walletWrapper struct {
	Wallet interface{} `json:"wallet"`
}

type sessionWrapper struct {
	Session interface{} `json:"session"`
}

// Notifier manages translating events into notifications and
// sending them to websockets. Transfer outcomes are additionally
// saved to the database so the frontend can replay them after a
// restart.
type Notifier struct {
	notifyFunc func(interface{}) error
	bus        events.Bus
	db         database.Database
	shutdown   chan struct{}
}

// NewNotifier returns a new notifer.
func NewNotifier(bus events.Bus, db database.Database, notifyFunc func(interface{}) error) *Notifier {
	return &Notifier{
		bus:        bus,
		db:         db,
		notifyFunc: notifyFunc,
		shutdown:   make(chan struct{}),
	}
}

// Start will start up the notifier. This should use it's own goroutine.
func (n *Notifier) Start() {
	notifications := []interface{}{
		&events.TransferComplete{},
		&events.TransferFailed{},
	}

	notificationSub, err := n.bus.Subscribe(notifications)
	if err != nil {
		log.Errorf("Error subscribing to events: %s", err)
	}

	walletEvents := []interface{}{
		&events.BalanceRefreshed{},
		&events.HistoryLoaded{},
	}

	walletSub, err := n.bus.Subscribe(walletEvents)
	if err != nil {
		log.Errorf("Error subscribing to events: %s", err)
	}

	sessionEvents := []interface{}{
		&events.SessionStarted{},
		&events.SessionRestored{},
		&events.SessionEnded{},
	}

	sessionSub, err := n.bus.Subscribe(sessionEvents)
	if err != nil {
		log.Errorf("Error subscribing to events: %s", err)
	}

	n.bus.Emit(&notifierStarted{})

	for {
		select {
		case event := <-notificationSub.Out():
			id := notificationID()

			out, err := json.MarshalIndent(event, "", "    ")
			if err != nil {
				log.Errorf("Error saving notification to the database: %s", err)
				continue
			}

			err = n.db.Update(func(tx database.Tx) error {
				return tx.Save(&models.NotificationRecord{
					ID:           id,
					Timestamp:    time.Now(),
					Read:         false,
					Notification: out,
				})
			})
			if err != nil {
				log.Errorf("Error saving notification to the database: %s", err)
				continue
			}

			if err := n.notifyFunc(notificationWrapper{event}); err != nil {
				log.Errorf("Error sending notification: %s", err)
			}
		case event := <-walletSub.Out():
			if err := n.notifyFunc(walletWrapper{event}); err != nil {
				log.Errorf("Error sending notification: %s", err)
			}
		case event := <-sessionSub.Out():
			if err := n.notifyFunc(sessionWrapper{event}); err != nil {
				log.Errorf("Error sending notification: %s", err)
			}
		case <-n.shutdown:
			return
		}
	}
}

// Stop shuts down the notifier.
func (n *Notifier) Stop() {
	close(n.shutdown)
}

func notificationID() string {
	r := make([]byte, 20)
	rand.Read(r)
	return hex.EncodeToString(r)
}
