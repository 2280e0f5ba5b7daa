package ledger

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/quillpay/quill/models"
)

func testProfile() models.NetworkProfile {
	return models.NetworkProfile{
		Name:        "testnet",
		LedgerURL:   "https://ledger.test/api/v1",
		FeeURL:      "https://ledger.test/api/v1/fee",
		PriceURL:    "https://price.test/api/v1/price",
		AssetSymbol: "QLL",
		DefaultFee:  models.NewAmount(10000),
	}
}

func TestSourceResolver_BalanceTrusted(t *testing.T) {
	mockedHTTPClient := http.Client{}
	httpmock.ActivateNonDefault(&mockedHTTPClient)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "https://ledger.test/api/v1/query",
		func(req *http.Request) (*http.Response, error) {
			return httpmock.NewJsonResponse(http.StatusOK, map[string]string{"balance": "1000000000"})
		},
	)

	client := NewHTTPClient(testProfile().LedgerURL)
	client.(*httpClient).client = &mockedHTTPClient

	resolver := NewSourceResolver(client, testProfile())
	balance := resolver.Balance(context.Background(), "aaaaa-aa")

	if balance.Provenance != models.ProvenanceTrusted {
		t.Errorf("Expected trusted provenance, got %s", balance.Provenance)
	}
	if balance.Amount.String() != "1000000000" {
		t.Errorf("Expected balance 1000000000, got %s", balance.Amount.String())
	}
	if balance.Err != "" {
		t.Errorf("Expected no error, got %s", balance.Err)
	}
}

func TestSourceResolver_BalanceFallback(t *testing.T) {
	mockedHTTPClient := http.Client{}
	httpmock.ActivateNonDefault(&mockedHTTPClient)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "https://ledger.test/api/v1/query",
		httpmock.NewStringResponder(http.StatusInternalServerError, "internal error"),
	)

	client := NewHTTPClient(testProfile().LedgerURL)
	client.(*httpClient).client = &mockedHTTPClient

	resolver := NewSourceResolver(client, testProfile())

	balance := resolver.Balance(context.Background(), "aaaaa-aa")
	if balance.Provenance != models.ProvenanceFallback {
		t.Errorf("Expected fallback provenance, got %s", balance.Provenance)
	}
	if balance.Amount.IsNegative() {
		t.Error("Fallback balance must not be negative")
	}
	if balance.Err == "" {
		t.Error("Expected an attached error message")
	}

	// The substituted value is a pure function of the principal.
	again := resolver.Balance(context.Background(), "aaaaa-aa")
	if again.Amount.Cmp(balance.Amount) != 0 {
		t.Errorf("Fallback balance is not deterministic: %s != %s", again.Amount, balance.Amount)
	}

	other := resolver.Balance(context.Background(), "e3mmv-5qaaa-aaaah-aadma-cai")
	if other.Amount.Cmp(balance.Amount) == 0 {
		t.Error("Distinct principals should yield distinct fallback balances")
	}
}

func TestSourceResolver_BalanceInvalidPrincipal(t *testing.T) {
	resolver := NewSourceResolver(NewMockLedger(), testProfile())

	balance := resolver.Balance(context.Background(), "NOT A PRINCIPAL")
	if balance.Provenance != models.ProvenanceError {
		t.Errorf("Expected error provenance, got %s", balance.Provenance)
	}
	if balance.Err == "" {
		t.Error("Expected an attached error message")
	}
	if balance.Amount.IsNegative() {
		t.Error("Fallback balance must not be negative")
	}
}

func TestSourceResolver_TransactionFee(t *testing.T) {
	mockedHTTPClient := http.Client{}
	httpmock.ActivateNonDefault(&mockedHTTPClient)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodGet, "https://ledger.test/api/v1/fee",
		func(req *http.Request) (*http.Response, error) {
			return httpmock.NewJsonResponse(http.StatusOK, map[string]string{"fee": "20000"})
		},
	)

	resolver := NewSourceResolver(NewMockLedger(), testProfile())
	resolver.feeClient = &mockedHTTPClient

	fee := resolver.TransactionFee(context.Background())
	if fee.String() != "20000" {
		t.Errorf("Expected fee 20000, got %s", fee.String())
	}
}

func TestSourceResolver_TransactionFeeDefault(t *testing.T) {
	mockedHTTPClient := http.Client{}
	httpmock.ActivateNonDefault(&mockedHTTPClient)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodGet, "https://ledger.test/api/v1/fee",
		httpmock.NewErrorResponder(errors.New("connection refused")),
	)

	resolver := NewSourceResolver(NewMockLedger(), testProfile())
	resolver.feeClient = &mockedHTTPClient

	fee := resolver.TransactionFee(context.Background())
	if fee.Cmp(testProfile().DefaultFee) != 0 {
		t.Errorf("Expected default fee %s, got %s", testProfile().DefaultFee, fee)
	}
}

func TestSourceResolver_AssetPriceUSD(t *testing.T) {
	mockedHTTPClient := http.Client{}
	httpmock.ActivateNonDefault(&mockedHTTPClient)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodGet, "https://price.test/api/v1/price",
		func(req *http.Request) (*http.Response, error) {
			if req.URL.Query().Get("asset") != "QLL" || req.URL.Query().Get("currency") != "usd" {
				return httpmock.NewStringResponse(http.StatusBadRequest, "bad query"), nil
			}
			return httpmock.NewJsonResponse(http.StatusOK, map[string]float64{"price": 4.52})
		},
	)

	resolver := NewSourceResolver(NewMockLedger(), testProfile())
	resolver.price.sources[0].(*priceIndexAPI).client = &mockedHTTPClient

	price := resolver.AssetPriceUSD(context.Background())
	if price.String() != "452000000" {
		t.Errorf("Expected price 452000000, got %s", price.String())
	}
}

func TestSourceResolver_AssetPriceUSDUnavailable(t *testing.T) {
	mockedHTTPClient := http.Client{}
	httpmock.ActivateNonDefault(&mockedHTTPClient)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodGet, "https://price.test/api/v1/price",
		httpmock.NewErrorResponder(errors.New("connection refused")),
	)

	resolver := NewSourceResolver(NewMockLedger(), testProfile())
	resolver.price.sources[0].(*priceIndexAPI).client = &mockedHTTPClient

	price := resolver.AssetPriceUSD(context.Background())
	if !price.IsZero() {
		t.Errorf("Expected zero price, got %s", price.String())
	}
}
