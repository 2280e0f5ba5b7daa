package core

import (
	"time"

	"github.com/quillpay/quill/events"
	"github.com/quillpay/quill/ledger"
	"github.com/quillpay/quill/models"
	"github.com/quillpay/quill/notifications"
	"github.com/quillpay/quill/repo"
	"github.com/quillpay/quill/session"
	"github.com/quillpay/quill/transfer"
)

// MockNode builds a mock node with a temp data directory, in-memory
// database, mock ledger, and a gateway bound to a random localhost
// port. The mock ledger is returned alongside the node so tests can
// seed balances and inject failures.
func MockNode() (*WalletNode, *ledger.MockLedger, error) {
	r, err := repo.MockRepo()
	if err != nil {
		return nil, nil, err
	}

	profile, err := models.NetworkProfiles.Lookup("testnet")
	if err != nil {
		return nil, nil, err
	}

	mock := ledger.NewMockLedger()
	bus := events.NewBus()
	resolver := ledger.NewSourceResolver(mock, profile)
	sessionState := session.NewState(r.DB(), bus)

	node := &WalletNode{
		repo:         r,
		eventBus:     bus,
		sessionState: sessionState,
		resolver:     resolver,
		coordinator:  transfer.NewCoordinator(sessionState, resolver, bus),
		history:      transfer.NewLedger(sessionState, resolver, bus),
		profile:      profile,
		testnet:      true,
		pollInterval: time.Minute,
		shutdown:     make(chan struct{}),
	}

	node.gateway, err = node.newHTTPGateway(&repo.Config{
		GatewayAddr: "127.0.0.1:0",
		APINoCors:   true,
	})
	if err != nil {
		return nil, nil, err
	}

	node.notifier = notifications.NewNotifier(bus, r.DB(), node.gateway.NotifyWebsockets)

	return node, mock, nil
}
