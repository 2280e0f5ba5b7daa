package core

import (
	"context"
	"net"
	"time"

	"github.com/op/go-logging"
	"github.com/quillpay/quill/api"
	"github.com/quillpay/quill/events"
	"github.com/quillpay/quill/ledger"
	"github.com/quillpay/quill/models"
	"github.com/quillpay/quill/notifications"
	"github.com/quillpay/quill/repo"
	"github.com/quillpay/quill/session"
	"github.com/quillpay/quill/transfer"
)

var log = logging.MustGetLogger("CORE")

// NewNode constructs and returns a WalletNode using the given cfg.
func NewNode(ctx context.Context, cfg *repo.Config) (*WalletNode, error) {
	walletRepo, err := repo.NewRepo(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	repo.SetupLogging(cfg.LogDir, cfg.LogLevel)

	network := "mainnet"
	if cfg.Testnet {
		network = "testnet"
	}
	profile, err := models.NetworkProfiles.Lookup(network)
	if err != nil {
		return nil, err
	}

	// Endpoint overrides from the config take precedence over the
	// profile's built-in URLs.
	if cfg.LedgerURL != "" {
		profile.LedgerURL = cfg.LedgerURL
	}
	if cfg.FeeURL != "" {
		profile.FeeURL = cfg.FeeURL
	}
	if cfg.PriceURL != "" {
		profile.PriceURL = cfg.PriceURL
	}

	var client ledger.Client
	if cfg.MockLedger {
		log.Notice("Using an in-memory mock ledger")
		client = ledger.NewMockLedger()
	} else {
		client = ledger.NewHTTPClient(profile.LedgerURL)
	}

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = time.Minute
	}

	bus := events.NewBus()
	resolver := ledger.NewSourceResolver(client, profile)
	sessionState := session.NewState(walletRepo.DB(), bus)

	// Construct our wallet node object.
	node := &WalletNode{
		repo:         walletRepo,
		eventBus:     bus,
		sessionState: sessionState,
		resolver:     resolver,
		coordinator:  transfer.NewCoordinator(sessionState, resolver, bus),
		history:      transfer.NewLedger(sessionState, resolver, bus),
		profile:      profile,
		testnet:      cfg.Testnet,
		pollInterval: pollInterval,
		shutdown:     make(chan struct{}),
	}

	node.gateway, err = node.newHTTPGateway(cfg)
	if err != nil {
		return nil, err
	}

	node.notifier = notifications.NewNotifier(bus, walletRepo.DB(), node.gateway.NotifyWebsockets)

	return node, nil
}

func (n *WalletNode) newHTTPGateway(cfg *repo.Config) (*api.Gateway, error) {
	// Create a network listener. We might have been asked to listen
	// on port zero so report back whatever we actually bound.
	listener, err := net.Listen("tcp", cfg.GatewayAddr)
	if err != nil {
		return nil, err
	}

	allowedIPs := make(map[string]bool)
	for _, ip := range cfg.AllowedIPs {
		allowedIPs[ip] = true
	}

	config := &api.GatewayConfig{
		Listener:   listener,
		NoCors:     cfg.APINoCors,
		UseSSL:     cfg.UseSSL,
		SSLCert:    cfg.SSLCertFile,
		SSLKey:     cfg.SSLKeyFile,
		Username:   cfg.APIUsername,
		Password:   cfg.APIPassword,
		Cookie:     cfg.APICookie,
		AllowedIPs: allowedIPs,
	}

	return api.NewGateway(n, config)
}
