package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cpacia/proxyclient"
	"github.com/quillpay/quill/models"
	"github.com/shopspring/decimal"
)

// priceCacheTTL is how long a fetched price stays fresh before the
// next GetPrice call re-queries the oracle.
const priceCacheTTL = time.Minute * 10

// PriceProvider provides USD price data for the network's asset. It
// queries the configured price index sources serially until one
// responds and caches the result.
type PriceProvider struct {
	cache       map[string]models.Amount
	lastQueried map[string]time.Time
	mtx         sync.Mutex
	sources     []priceSource
}

// NewPriceProvider returns a new PriceProvider reading from the given
// source URLs. The http connections respect proxy environment settings.
func NewPriceProvider(urls []string) *PriceProvider {
	p := &PriceProvider{
		cache:       make(map[string]models.Amount),
		lastQueried: make(map[string]time.Time),
	}

	client := proxyclient.NewHttpClient()
	client.Timeout = requestTimeout

	for _, u := range urls {
		p.sources = append(p.sources, &priceIndexAPI{u, client})
	}

	return p
}

// GetPrice returns the USD price of the given asset in minor units
// with 8 fractional digits. Setting breakCache forces a re-query even
// if a fresh cached value exists.
func (p *PriceProvider) GetPrice(ctx context.Context, asset string, breakCache bool) (models.Amount, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	asset = strings.ToUpper(asset)

	price, ok := p.cache[asset]
	if breakCache || !ok || p.lastQueried[asset].Add(priceCacheTTL).Before(time.Now()) {
		var err error
		price, err = p.fetchFromSources(ctx, asset)
		if err != nil {
			return models.NewAmount(0), err
		}
		p.cache[asset] = price
		p.lastQueried[asset] = time.Now()
	}
	return price, nil
}

// fetchFromSources queries the price sources serially until it gets a
// response back.
func (p *PriceProvider) fetchFromSources(ctx context.Context, asset string) (models.Amount, error) {
	for _, source := range p.sources {
		price, err := source.fetchPrice(ctx, asset)
		if err == nil {
			return price, nil
		}
	}
	return models.Amount{}, errors.New("all price sources failed")
}

// priceSource is an interface to a specific price index API.
type priceSource interface {
	fetchPrice(ctx context.Context, asset string) (models.Amount, error)
}

// priceIndexAPI is an implementation of the priceSource interface
// speaking the price oracle's query format.
type priceIndexAPI struct {
	url    string
	client *http.Client
}

func (a *priceIndexAPI) fetchPrice(ctx context.Context, asset string) (models.Amount, error) {
	url := fmt.Sprintf("%s?asset=%s&currency=usd", a.url, asset)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.Amount{}, err
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return models.Amount{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Amount{}, fmt.Errorf("price index returned status %d", resp.StatusCode)
	}

	var ret struct {
		Price float64 `json:"price"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ret); err != nil {
		return models.Amount{}, err
	}
	if ret.Price < 0 {
		return models.Amount{}, errors.New("price index returned negative price")
	}

	shifted := decimal.NewFromFloat(ret.Price).Shift(models.AmountDivisibility)
	return models.NewAmount(shifted.BigInt()), nil
}
