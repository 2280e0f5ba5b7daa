package core

import (
	"context"
	"time"

	"github.com/quillpay/quill/api"
	"github.com/quillpay/quill/events"
	"github.com/quillpay/quill/ledger"
	"github.com/quillpay/quill/models"
	"github.com/quillpay/quill/notifications"
	"github.com/quillpay/quill/repo"
	"github.com/quillpay/quill/session"
	"github.com/quillpay/quill/transfer"
)

// WalletNode holds all the components that make up a running wallet
// node. It also exposes an exported API which can be used to control
// the node.
type WalletNode struct {

	// repo holds the database and data directory.
	repo *repo.Repo

	// eventBus allows a subscriber to receive event notifications from the node.
	eventBus events.Bus

	// sessionState owns the mutable wallet session. All session
	// mutations flow through it.
	sessionState *session.State

	// resolver answers balance, fee, and price queries against the
	// active network profile.
	resolver *ledger.SourceResolver

	// coordinator executes transfers against the remote ledger.
	coordinator *transfer.Coordinator

	// history loads and merges the transaction history.
	history *transfer.Ledger

	// gateway is the HTTP API gateway.
	gateway *api.Gateway

	// notifier listens for events and pushes them out over the
	// websocket as well as saves them in the database.
	notifier *notifications.Notifier

	// profile is the network profile the node is running against.
	profile models.NetworkProfile

	// testnet is whether or not the node is using the test network.
	testnet bool

	// pollInterval is how often to refresh the balance and history
	// from the ledger.
	pollInterval time.Duration

	// shutdown is closed when the node is stopped. Any listening
	// goroutines can use this to terminate.
	shutdown chan struct{}
}

// Start gets the node up and running. It restores the persisted
// session, starts the notifier and ledger poller, and begins serving
// the API gateway.
func (n *WalletNode) Start() {
	n.sessionState.Start()

	go n.notifier.Start()
	go n.pollLoop()
	go func() {
		if err := n.gateway.Serve(); err != nil {
			log.Errorf("Gateway error: %s", err)
		}
	}()
}

// Stop cleanly shutsdown the WalletNode and signals to any
// listening goroutines that it's time to stop.
func (n *WalletNode) Stop() {
	close(n.shutdown)
	n.notifier.Stop()
	n.sessionState.Stop()
	if err := n.gateway.Close(); err != nil {
		log.Errorf("Error closing gateway: %s", err)
	}
	n.repo.Close()
}

// DestroyNode shutsdown the node and deletes the entire data directory.
// This should only be used during testing as destroying a live node will
// result in data loss.
func (n *WalletNode) DestroyNode() {
	n.Stop()
	if err := n.repo.DestroyRepo(); err != nil {
		log.Errorf("Error destroying repo: %s", err)
	}
}

// EventBus returns the node's event bus.
func (n *WalletNode) EventBus() events.Bus {
	return n.eventBus
}

// Repo returns the node's repo.
func (n *WalletNode) Repo() *repo.Repo {
	return n.repo
}

// Gateway returns the node's API gateway.
func (n *WalletNode) Gateway() *api.Gateway {
	return n.gateway
}

// UsingTestnet returns whether or not this node is using the
// test network.
func (n *WalletNode) UsingTestnet() bool {
	return n.testnet
}

// SubscribeEvent returns a subscription to the provided event. The
// event argument may also be a slice of events.
func (n *WalletNode) SubscribeEvent(event interface{}) (events.Subscription, error) {
	return n.eventBus.Subscribe(event)
}

// pollLoop periodically refreshes the balance and transaction history
// from the ledger while a session is active.
func (n *WalletNode) pollLoop() {
	ticker := time.NewTicker(n.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !n.sessionState.IsSessionValid() {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), n.pollInterval)
			n.coordinator.RefreshBalance(ctx, n.sessionState.Snapshot().Principal)
			if _, err := n.history.Load(ctx); err != nil {
				log.Errorf("Error loading transaction history: %s", err)
			}
			cancel()
		case <-n.shutdown:
			return
		}
	}
}
