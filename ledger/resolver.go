package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cpacia/proxyclient"
	"github.com/op/go-logging"
	"github.com/quillpay/quill/models"
)

var log = logging.MustGetLogger("LDGR")

// SourceResolver answers balance, fee, and price queries for a single
// network profile. Remote failures never propagate as hard errors:
// the resolver substitutes a deterministic local value and tags the
// result's provenance so the caller can render a degraded view.
type SourceResolver struct {
	client    Client
	profile   models.NetworkProfile
	fallback  DeterministicFallback
	feeClient *http.Client
	price     *PriceProvider
}

// NewSourceResolver returns a resolver querying the given client and
// using the profile's fee and price endpoints.
func NewSourceResolver(client Client, profile models.NetworkProfile) *SourceResolver {
	feeClient := proxyclient.NewHttpClient()
	feeClient.Timeout = requestTimeout

	return &SourceResolver{
		client:    client,
		profile:   profile,
		feeClient: feeClient,
		price:     NewPriceProvider([]string{profile.PriceURL}),
	}
}

// Client returns the underlying ledger client.
func (r *SourceResolver) Client() Client {
	return r.client
}

// Profile returns the network profile the resolver is bound to.
func (r *SourceResolver) Profile() models.NetworkProfile {
	return r.profile
}

// Balance resolves the current balance for the principal. On success
// the result carries trusted provenance. On any failure, whether a
// transport error, timeout, malformed response, or invalid principal,
// the deterministic fallback value for the principal is returned,
// tagged accordingly and with the error message attached. Balance
// never returns an error so the caller can always render something.
func (r *SourceResolver) Balance(ctx context.Context, principal string) models.Balance {
	accountID, err := DeriveAccountID(principal)
	if err != nil {
		return models.Balance{
			Amount:     r.fallback.Balance(principal),
			Provenance: models.ProvenanceError,
			ObservedAt: time.Now(),
			Err:        err.Error(),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	amount, err := r.client.Query(ctx, accountID)
	if err != nil {
		log.Warningf("Balance query failed, substituting fallback: %s", err)
		return models.Balance{
			Amount:     r.fallback.Balance(principal),
			Provenance: models.ProvenanceFallback,
			ObservedAt: time.Now(),
			Err:        err.Error(),
		}
	}
	if amount.IsNegative() {
		log.Warningf("Ledger returned negative balance for %s, substituting fallback", accountID)
		return models.Balance{
			Amount:     r.fallback.Balance(principal),
			Provenance: models.ProvenanceFallback,
			ObservedAt: time.Now(),
			Err:        "remote returned negative balance",
		}
	}

	return models.Balance{
		Amount:     amount,
		Provenance: models.ProvenanceTrusted,
		ObservedAt: time.Now(),
	}
}

// TransactionFee returns the current transfer fee from the remote fee
// schedule, or the profile's default fee if the endpoint cannot be
// reached or decoded. The failure is non-fatal.
func (r *SourceResolver) TransactionFee(ctx context.Context) models.Amount {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.profile.FeeURL, nil)
	if err != nil {
		return r.profile.DefaultFee
	}

	resp, err := r.feeClient.Do(req)
	if err != nil {
		log.Debugf("Fee schedule unavailable, using default: %s", err)
		return r.profile.DefaultFee
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Debugf("Fee schedule returned status %d, using default", resp.StatusCode)
		return r.profile.DefaultFee
	}

	var ret struct {
		Fee models.Amount `json:"fee"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ret); err != nil {
		log.Debugf("Error decoding fee schedule, using default: %s", err)
		return r.profile.DefaultFee
	}
	if ret.Fee.IsNegative() || ret.Fee.IsZero() {
		return r.profile.DefaultFee
	}
	return ret.Fee
}

// AssetPriceUSD returns the USD price of the network's asset in minor
// units. Failures yield zero; the price is cosmetic and never blocks
// a transfer.
func (r *SourceResolver) AssetPriceUSD(ctx context.Context) models.Amount {
	price, err := r.price.GetPrice(ctx, r.profile.AssetSymbol, false)
	if err != nil {
		log.Debugf("Price oracle unavailable: %s", err)
		return models.NewAmount(0)
	}
	return price
}
