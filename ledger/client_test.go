package ledger

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/quillpay/quill/models"
)

const testLedgerURL = "https://testnet.ledger.quillpay.org/api/v1"

func newMockedHTTPClient(t *testing.T) (*httpClient, *http.Client) {
	t.Helper()

	mockedHTTPClient := &http.Client{}
	httpmock.ActivateNonDefault(mockedHTTPClient)
	t.Cleanup(httpmock.DeactivateAndReset)

	client, ok := NewHTTPClient(testLedgerURL).(*httpClient)
	if !ok {
		t.Fatal("Type assertion failure client is not httpClient")
	}
	client.client = mockedHTTPClient
	return client, mockedHTTPClient
}

func TestHTTPClientQuery(t *testing.T) {
	client, _ := newMockedHTTPClient(t)

	httpmock.RegisterResponder(http.MethodPost, testLedgerURL+"/query",
		func(req *http.Request) (*http.Response, error) {
			return httpmock.NewJsonResponse(http.StatusOK, map[string]interface{}{
				"balance": "150000000",
			})
		},
	)

	balance, err := client.Query(context.Background(), "abc123")
	if err != nil {
		t.Fatal(err)
	}
	if balance.Cmp(models.NewAmount(150000000)) != 0 {
		t.Errorf("Returned incorrect balance. Expected 150000000, got %s", balance)
	}
}

func TestHTTPClientQueryUnavailable(t *testing.T) {
	client, _ := newMockedHTTPClient(t)

	httpmock.RegisterResponder(http.MethodPost, testLedgerURL+"/query",
		func(req *http.Request) (*http.Response, error) {
			return httpmock.NewJsonResponse(http.StatusInternalServerError, nil)
		},
	)

	_, err := client.Query(context.Background(), "abc123")
	if err == nil {
		t.Fatal("Expected an error for a 500 response")
	}
	var unavailable models.RemoteUnavailableError
	if !errors.As(err, &unavailable) {
		t.Errorf("Expected RemoteUnavailableError, got %T", err)
	}
}

func TestHTTPClientTransfer(t *testing.T) {
	client, _ := newMockedHTTPClient(t)

	httpmock.RegisterResponder(http.MethodPost, testLedgerURL+"/transfer",
		func(req *http.Request) (*http.Response, error) {
			return httpmock.NewJsonResponse(http.StatusOK, map[string]interface{}{
				"success":     true,
				"blockHeight": 812,
			})
		},
	)

	resp, err := client.Transfer(context.Background(), TransferRequest{
		SenderAccountID:    "abc123",
		RecipientAccountID: "def456",
		Amount:             models.NewAmount(100000000),
		Fee:                models.NewAmount(10000),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Success {
		t.Error("Expected a successful transfer response")
	}
	if resp.BlockHeight != 812 {
		t.Errorf("Expected block height 812, got %d", resp.BlockHeight)
	}
}

func TestHTTPClientHistory(t *testing.T) {
	client, _ := newMockedHTTPClient(t)

	httpmock.RegisterResponder(http.MethodGet, testLedgerURL+"/history/abc123",
		func(req *http.Request) (*http.Response, error) {
			return httpmock.NewJsonResponse(http.StatusOK, map[string]interface{}{
				"transactions": []map[string]interface{}{
					{
						"id":          "tx-1",
						"from":        "abc123",
						"to":          "def456",
						"amount":      "100000000",
						"fee":         "10000",
						"blockHeight": 812,
					},
				},
			})
		},
	)

	records, err := client.History(context.Background(), "abc123")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if records[0].ID != "tx-1" {
		t.Errorf("Expected record ID tx-1, got %s", records[0].ID)
	}
	if records[0].Amount.Cmp(models.NewAmount(100000000)) != 0 {
		t.Errorf("Returned incorrect amount. Expected 100000000, got %s", records[0].Amount)
	}
}
