package mobile

import (
	"context"
	"path"

	"github.com/quillpay/quill/core"
	"github.com/quillpay/quill/repo"
)

var defaultDataDir = repo.AppDataDir("quillmobile", false)

// Config holds the mobile node configuration.
type Config struct {
	LogLevel       string
	DataDir        string
	LogDir         string
	APICookie      string
	GatewayAddress string
	LedgerURL      string
	Testnet        bool
}

// NewDefaultConfig returns a new default config file.
func NewDefaultConfig() *Config {
	return &Config{
		DataDir:  defaultDataDir,
		LogDir:   path.Join(defaultDataDir, "logs"),
		LogLevel: "debug",
		Testnet:  false,
	}
}

// MobileNode wraps a WalletNode in a way that can be compiled to mobile devices.
type MobileNode struct {
	node *core.WalletNode
	done context.CancelFunc
}

// NewNode returns a new MobileNode instance.
func NewNode(cfg *Config) (*MobileNode, error) {
	dataDir := defaultDataDir
	if cfg.DataDir != "" {
		dataDir = cfg.DataDir
	}
	logDir := path.Join(defaultDataDir, "logs")
	if cfg.LogDir != "" {
		logDir = cfg.LogDir
	}
	logLevel := "debug"
	if cfg.LogLevel != "" {
		logLevel = cfg.LogLevel
	}
	gatewayAddr := "127.0.0.1:5002"
	if cfg.GatewayAddress != "" {
		gatewayAddr = cfg.GatewayAddress
	}

	rcfg := &repo.Config{
		LogLevel:    logLevel,
		DataDir:     dataDir,
		LogDir:      logDir,
		Testnet:     cfg.Testnet,
		APICookie:   cfg.APICookie,
		LedgerURL:   cfg.LedgerURL,
		GatewayAddr: gatewayAddr,
	}

	ctx, cancel := context.WithCancel(context.Background())
	walletNode, err := core.NewNode(ctx, rcfg)
	if err != nil {
		cancel()
		return nil, err
	}
	return &MobileNode{node: walletNode, done: cancel}, nil
}

// Start will start the MobileNode.
func (n *MobileNode) Start() {
	n.node.Start()
}

// Stop will stop the MobileNode.
func (n *MobileNode) Stop() {
	n.done()
	n.node.Stop()
}
