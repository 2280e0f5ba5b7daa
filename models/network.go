package models

import (
	"fmt"
	"strings"
)

// NetworkProfile describes a ledger network the wallet can attach to.
// Each profile binds the remote service addresses along with the
// asset parameters used for display and fee defaults.
type NetworkProfile struct {
	Name        string
	LedgerURL   string
	FeeURL      string
	PriceURL    string
	AssetSymbol string
	DefaultFee  Amount
}

// NetworkDictionary maps a network name to its profile.
type NetworkDictionary map[string]NetworkProfile

// NetworkProfiles holds the built-in network profiles.
var NetworkProfiles = NetworkDictionary{
	"mainnet": {
		Name:        "mainnet",
		LedgerURL:   "https://ledger.quillpay.org/api/v1",
		FeeURL:      "https://ledger.quillpay.org/api/v1/fee",
		PriceURL:    "https://price.quillpay.org/api/v1/price",
		AssetSymbol: "QLL",
		DefaultFee:  NewAmount(10000),
	},
	"testnet": {
		Name:        "testnet",
		LedgerURL:   "https://testnet.ledger.quillpay.org/api/v1",
		FeeURL:      "https://testnet.ledger.quillpay.org/api/v1/fee",
		PriceURL:    "https://price.quillpay.org/api/v1/price",
		AssetSymbol: "QLL",
		DefaultFee:  NewAmount(10000),
	},
}

// Lookup returns the profile for the given network name.
func (d NetworkDictionary) Lookup(name string) (NetworkProfile, error) {
	profile, ok := d[strings.ToLower(name)]
	if !ok {
		return NetworkProfile{}, fmt.Errorf("network %q is not defined", name)
	}
	return profile, nil
}
